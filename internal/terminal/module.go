package terminal

import (
	"github.com/redis/go-redis/v9"
	access "github.com/shandysiswandi/gatepass/internal/access/usecase"
	"github.com/shandysiswandi/gatepass/internal/pkg/clock"
	"github.com/shandysiswandi/gatepass/internal/pkg/config"
	"github.com/shandysiswandi/gatepass/internal/pkg/goroutine"
	"github.com/shandysiswandi/gatepass/internal/pkg/instrument"
	"github.com/shandysiswandi/gatepass/internal/pkg/router"
	"github.com/shandysiswandi/gatepass/internal/pkg/scheduler"
	"github.com/shandysiswandi/gatepass/internal/pkg/validator"
	"github.com/shandysiswandi/gatepass/internal/terminal/inbound"
	"github.com/shandysiswandi/gatepass/internal/terminal/outbound/lockstore"
	"github.com/shandysiswandi/gatepass/internal/terminal/outbound/verifier"
	"github.com/shandysiswandi/gatepass/internal/terminal/usecase"
)

type Dependency struct {
	CacheConn  *redis.Client              `validate:"required"`
	Access     *access.Usecase            `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Scheduler  scheduler.Scheduler        `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
}

// New wires the scanning terminals. The returned usecase must be closed on
// shutdown to stop the per-terminal timers.
func New(dep Dependency) (*usecase.Usecase, error) {
	if err := dep.Validator.Validate(dep); err != nil {
		return nil, err
	}

	uc := usecase.New(usecase.Dependency{
		RepoVerifier: verifier.New(dep.Access),
		RepoLock:     lockstore.NewRedis(dep.CacheConn, dep.Config.GetString("terminal.lock_prefix"), dep.Clock, dep.Instrument),
		Config:       dep.Config,
		Clock:        dep.Clock,
		Scheduler:    dep.Scheduler,
		Validator:    dep.Validator,
		Goroutine:    dep.Goroutine,
		Instrument:   dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return uc, nil
}
