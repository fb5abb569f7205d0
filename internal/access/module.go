package access

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/gatepass/internal/access/inbound"
	"github.com/shandysiswandi/gatepass/internal/access/outbound/archive"
	"github.com/shandysiswandi/gatepass/internal/access/outbound/db"
	"github.com/shandysiswandi/gatepass/internal/access/outbound/door"
	"github.com/shandysiswandi/gatepass/internal/access/outbound/mq"
	"github.com/shandysiswandi/gatepass/internal/access/usecase"
	"github.com/shandysiswandi/gatepass/internal/pkg/clock"
	"github.com/shandysiswandi/gatepass/internal/pkg/config"
	"github.com/shandysiswandi/gatepass/internal/pkg/goroutine"
	"github.com/shandysiswandi/gatepass/internal/pkg/instrument"
	"github.com/shandysiswandi/gatepass/internal/pkg/messaging"
	"github.com/shandysiswandi/gatepass/internal/pkg/otp"
	"github.com/shandysiswandi/gatepass/internal/pkg/ratelimit"
	"github.com/shandysiswandi/gatepass/internal/pkg/router"
	"github.com/shandysiswandi/gatepass/internal/pkg/storage"
	"github.com/shandysiswandi/gatepass/internal/pkg/uid"
	"github.com/shandysiswandi/gatepass/internal/pkg/validator"
)

type Dependency struct {
	Ctx        context.Context            `validate:"required"`
	DBConn     *pgxpool.Pool              `validate:"required"`
	CacheConn  *redis.Client              `validate:"required"`
	Messaging  messaging.Messaging        `validate:"required"`
	Storage    storage.Storage            // optional; log export is off without it
	Goroutine  *goroutine.Manager         `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	UUID       uid.StringID               `validate:"required"`
	CredID     uid.StringID               `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Totp       otp.OTP                    `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
}

// New wires the access module and returns its usecase so terminals can
// verify scans in process.
func New(dep Dependency) (*usecase.Usecase, error) {
	if err := dep.Validator.Validate(dep); err != nil {
		return nil, err
	}

	dbAccess := db.NewDB(dep.DBConn, dep.Instrument)
	if err := dbAccess.Migrate(dep.Ctx); err != nil {
		return nil, err
	}

	depUC := usecase.Dependency{
		RepoDB: dbAccess,
		RepoMQ: mq.NewMessaging(dep.Messaging, dep.Instrument),
		RepoDoor: door.New(door.Config{
			URL:        dep.Config.GetString("door.url"),
			APIKey:     dep.Config.GetString("door.api_key"),
			EntityID:   dep.Config.GetString("door.entity_id"),
			MaxRetries: uint64(dep.Config.GetUint("door.max_retries")),
			Backoff:    dep.Config.GetMillisecond("door.backoff"),
		}, dep.Instrument),
		OTP:        dep.Totp,
		Config:     dep.Config,
		UID:        dep.UID,
		CredID:     dep.CredID,
		Clock:      dep.Clock,
		Validator:  dep.Validator,
		Goroutine:  dep.Goroutine,
		Instrument: dep.Instrument,
	}
	if dep.Storage != nil {
		depUC.RepoArchive = archive.New(dep.Storage, dep.Config.GetMinute("access.export.url_ttl"), dep.Instrument)
	}

	uc := usecase.New(depUC)

	limiter := ratelimit.NewRedis(
		dep.CacheConn,
		dep.Config.GetString("access.verify.rate_limit.prefix"),
		dep.Config.GetInt("access.verify.rate_limit.requests"),
		dep.Config.GetSecond("access.verify.rate_limit.window"),
	)

	inbound.RegisterHTTPEndpoint(dep.Router, uc, limiter)
	inbound.RegisterMQConsumer(dep.Ctx, dep.Config, dep.Goroutine, dep.Messaging, dep.UUID, uc, dep.Instrument)

	return uc, nil
}
