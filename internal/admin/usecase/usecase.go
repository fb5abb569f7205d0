package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/gatepass/internal/admin/entity"
	"github.com/shandysiswandi/gatepass/internal/pkg/clock"
	"github.com/shandysiswandi/gatepass/internal/pkg/config"
	"github.com/shandysiswandi/gatepass/internal/pkg/goerror"
	"github.com/shandysiswandi/gatepass/internal/pkg/goroutine"
	"github.com/shandysiswandi/gatepass/internal/pkg/hash"
	"github.com/shandysiswandi/gatepass/internal/pkg/instrument"
	"github.com/shandysiswandi/gatepass/internal/pkg/jwt"
	"github.com/shandysiswandi/gatepass/internal/pkg/uid"
	"github.com/shandysiswandi/gatepass/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type repoDB interface {
	GetAdminByEmail(ctx context.Context, email string) (*entity.Admin, error)
	GetAdminByID(ctx context.Context, id int64) (*entity.Admin, error)
	CountAdmins(ctx context.Context) (int64, error)
	CreateAdmin(ctx context.Context, a entity.Admin) error
	ListAdmins(ctx context.Context) ([]entity.Admin, error)
	SetAdminPassword(ctx context.Context, id int64, hash string) error
	SetAdminName(ctx context.Context, id int64, name string) error
	SetAdminEmail(ctx context.Context, id int64, email string) error
	SetAdminDisabled(ctx context.Context, id int64, disabled bool) error
	DeleteAdmin(ctx context.Context, id int64) error
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
}

type repoMQ interface {
	PublishAdminAudit(ctx context.Context, e entity.AuditEntry) error
}

type Dependency struct {
	RepoDB     repoDB
	RepoMQ     repoMQ
	Config     config.Config
	Bcrypt     hash.Hash
	JWT        jwt.JWT
	UID        uid.NumberID
	Clock      clock.Clocker
	Validator  validator.Validator
	Instrument instrument.Instrumentation
	Goroutine  *goroutine.Manager
}

type Usecase struct {
	repoDB    repoDB
	repoMQ    repoMQ
	cfg       config.Config
	bcrypt    hash.Hash
	jwt       jwt.JWT
	uid       uid.NumberID
	clock     clock.Clocker
	validator validator.Validator
	ins       instrument.Instrumentation
	routine   *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:    dep.RepoDB,
		repoMQ:    dep.RepoMQ,
		cfg:       dep.Config,
		bcrypt:    dep.Bcrypt,
		jwt:       dep.JWT,
		uid:       dep.UID,
		clock:     dep.Clock,
		validator: dep.Validator,
		ins:       dep.Instrument,
		routine:   dep.Goroutine,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("admin.usecase").Start(ctx, name)
}

var (
	errAuthRequired  = goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	errAdminNotFound = goerror.NewBusiness("Admin not found", goerror.CodeNotFound)
	errAdminDisabled = goerror.NewBusiness("Admin account is disabled", goerror.CodeForbidden)
	errEmailTaken    = goerror.NewBusiness("Email already in use", goerror.CodeConflict)
	errLastActive    = goerror.NewBusiness("At least one active admin must remain", goerror.CodeConflict)
)

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// currentAdmin loads the admin behind the request token.
func (s *Usecase) currentAdmin(ctx context.Context) (*entity.Admin, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, errAuthRequired
	}

	admin, err := s.repoDB.GetAdminByID(ctx, clm.AdminID)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, errAdminNotFound
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get admin by id", "admin_id", clm.AdminID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if admin.IsDisabled {
		return nil, errAdminDisabled
	}

	return admin, nil
}

// recordAudit publishes in the background. A failed publish is logged and the
// action itself still succeeds.
func (s *Usecase) recordAudit(ctx context.Context, actor, action string) {
	entry := entity.AuditEntry{
		ID:        s.uid.Generate(),
		Actor:     actor,
		Action:    action,
		CreatedAt: s.clock.Now(),
	}

	started := s.routine.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
		if err := s.repoMQ.PublishAdminAudit(ctx, entry); err != nil {
			slog.ErrorContext(ctx, "failed to publish admin audit", "action", action, "error", err)
		}
		return nil
	})
	if !started {
		slog.WarnContext(ctx, "audit entry dropped, background workers stopped", "action", action)
	}
}

func targeted(action, email string) string {
	return action + ": " + email
}
