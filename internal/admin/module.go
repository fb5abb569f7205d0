package admin

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/gatepass/internal/admin/inbound"
	"github.com/shandysiswandi/gatepass/internal/admin/outbound/db"
	"github.com/shandysiswandi/gatepass/internal/admin/outbound/mq"
	"github.com/shandysiswandi/gatepass/internal/admin/usecase"
	"github.com/shandysiswandi/gatepass/internal/pkg/clock"
	"github.com/shandysiswandi/gatepass/internal/pkg/config"
	"github.com/shandysiswandi/gatepass/internal/pkg/goroutine"
	"github.com/shandysiswandi/gatepass/internal/pkg/hash"
	"github.com/shandysiswandi/gatepass/internal/pkg/instrument"
	"github.com/shandysiswandi/gatepass/internal/pkg/jwt"
	"github.com/shandysiswandi/gatepass/internal/pkg/messaging"
	"github.com/shandysiswandi/gatepass/internal/pkg/ratelimit"
	"github.com/shandysiswandi/gatepass/internal/pkg/router"
	"github.com/shandysiswandi/gatepass/internal/pkg/uid"
	"github.com/shandysiswandi/gatepass/internal/pkg/validator"
)

type Dependency struct {
	Ctx        context.Context            `validate:"required"`
	DBConn     *pgxpool.Pool              `validate:"required"`
	CacheConn  *redis.Client              `validate:"required"`
	Messaging  messaging.Publisher        `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	Bcrypt     hash.Hash                  `validate:"required"`
	JWT        jwt.JWT                    `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	dbAdmin := db.NewDB(dep.DBConn, dep.Instrument)
	if err := dbAdmin.Migrate(dep.Ctx); err != nil {
		return err
	}

	uc := usecase.New(usecase.Dependency{
		RepoDB:     dbAdmin,
		RepoMQ:     mq.NewMessaging(dep.Messaging, dep.Instrument),
		Config:     dep.Config,
		Bcrypt:     dep.Bcrypt,
		JWT:        dep.JWT,
		UID:        dep.UID,
		Clock:      dep.Clock,
		Validator:  dep.Validator,
		Instrument: dep.Instrument,
		Goroutine:  dep.Goroutine,
	})
	if err := uc.Seed(dep.Ctx); err != nil {
		return err
	}

	limiter := ratelimit.NewRedis(
		dep.CacheConn,
		dep.Config.GetString("admin.login.rate_limit.prefix"),
		dep.Config.GetInt("admin.login.rate_limit.requests"),
		dep.Config.GetSecond("admin.login.rate_limit.window"),
	)

	inbound.RegisterHTTPEndpoint(dep.Router, uc, limiter)

	return nil
}
