package app

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/gatepass/internal/pkg/clock"
	"github.com/shandysiswandi/gatepass/internal/pkg/config"
	"github.com/shandysiswandi/gatepass/internal/pkg/goroutine"
	"github.com/shandysiswandi/gatepass/internal/pkg/hash"
	"github.com/shandysiswandi/gatepass/internal/pkg/instrument"
	"github.com/shandysiswandi/gatepass/internal/pkg/jwt"
	"github.com/shandysiswandi/gatepass/internal/pkg/messaging"
	"github.com/shandysiswandi/gatepass/internal/pkg/otp"
	"github.com/shandysiswandi/gatepass/internal/pkg/router"
	"github.com/shandysiswandi/gatepass/internal/pkg/scheduler"
	"github.com/shandysiswandi/gatepass/internal/pkg/storage"
	"github.com/shandysiswandi/gatepass/internal/pkg/uid"
	"github.com/shandysiswandi/gatepass/internal/pkg/validator"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	scheduler scheduler.Scheduler
	bcrypt    hash.Hash
	uid       uid.NumberID
	uuid      uid.StringID
	credID    uid.StringID
	totp      otp.OTP
	jwt       jwt.JWT

	// resources
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	messaging messaging.Messaging
	storage   storage.Storage

	// server
	router     *router.Router
	httpServer *http.Server
	sseServer  *http.Server

	// modules that own background state
	terminals interface{ Close() error }

	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initDatabase()
	app.initCache()
	app.initStorage()
	app.initMessaging()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
