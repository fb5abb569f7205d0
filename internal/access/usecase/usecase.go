package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/gatepass/internal/access/entity"
	"github.com/shandysiswandi/gatepass/internal/pkg/clock"
	"github.com/shandysiswandi/gatepass/internal/pkg/config"
	"github.com/shandysiswandi/gatepass/internal/pkg/goroutine"
	"github.com/shandysiswandi/gatepass/internal/pkg/instrument"
	"github.com/shandysiswandi/gatepass/internal/pkg/otp"
	"github.com/shandysiswandi/gatepass/internal/pkg/uid"
	"github.com/shandysiswandi/gatepass/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type repoDB interface {
	GetActive(ctx context.Context) ([]entity.Credential, error)
	GetByIDPrefix(ctx context.Context, prefix string) ([]entity.Credential, error)
	GetByID(ctx context.Context, id string) (*entity.Credential, error)
	ExistsByHolderName(ctx context.Context, name string) (bool, error)
	CreateCredential(ctx context.Context, c entity.Credential) error
	ListCredentials(ctx context.Context) ([]entity.CredentialSummary, error)
	SetDisabled(ctx context.Context, id string, disabled bool) error
	DeleteCredential(ctx context.Context, id string) error
	CountCredentials(ctx context.Context, now time.Time) (total, active int64, err error)

	CreateAuditEntry(ctx context.Context, e entity.AuditEntry) error
	ListAuditEntries(ctx context.Context, limit int) ([]entity.AuditEntry, error)
	CountAuditEntries(ctx context.Context) (int64, error)
	LastAuditEntry(ctx context.Context) (*entity.AuditEntry, error)
}

type repoMQ interface {
	PublishAccessAudit(ctx context.Context, e entity.AuditEntry) error
}

type repoDoor interface {
	// Open asks the actuator to open the door for holder. details carries
	// whatever the actuator answered, also on failure.
	Open(ctx context.Context, holder string) (details map[string]any, err error)
}

type repoArchive interface {
	// Upload stores a finished export and returns a time-limited download URL.
	Upload(ctx context.Context, key string, data []byte, contentType string) (url string, err error)
}

type Dependency struct {
	RepoDB      repoDB
	RepoMQ      repoMQ
	RepoDoor    repoDoor
	RepoArchive repoArchive
	OTP         otp.OTP
	Config      config.Config
	UID         uid.NumberID
	CredID      uid.StringID
	Clock       clock.Clocker
	Validator   validator.Validator
	Goroutine   *goroutine.Manager
	Instrument  instrument.Instrumentation
}

type Usecase struct {
	repoDB      repoDB
	repoMQ      repoMQ
	repoDoor    repoDoor
	repoArchive repoArchive
	otp         otp.OTP
	cfg         config.Config
	uid         uid.NumberID
	credID      uid.StringID
	clock       clock.Clocker
	validator   validator.Validator
	routine     *goroutine.Manager
	ins         instrument.Instrumentation
	startedAt   time.Time
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:      dep.RepoDB,
		repoMQ:      dep.RepoMQ,
		repoDoor:    dep.RepoDoor,
		repoArchive: dep.RepoArchive,
		otp:         dep.OTP,
		cfg:         dep.Config,
		uid:         dep.UID,
		credID:      dep.CredID,
		clock:       dep.Clock,
		validator:   dep.Validator,
		routine:     dep.Goroutine,
		ins:         dep.Instrument,
		startedAt:   dep.Clock.Now(),
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("access.usecase").Start(ctx, name)
}

func (s *Usecase) window() uint {
	if w := s.cfg.GetUint("access.totp.window"); w > 0 {
		return w
	}

	return otp.DefaultWindow
}

// recordAudit publishes an audit entry in the background. The caller never
// waits for it and a failure is only logged.
func (s *Usecase) recordAudit(ctx context.Context, credentialID, holder, action string) {
	entry := entity.AuditEntry{
		ID:           s.uid.Generate(),
		CredentialID: credentialID,
		HolderName:   holder,
		Action:       action,
		CreatedAt:    s.clock.Now(),
	}

	started := s.routine.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
		if err := s.repoMQ.PublishAccessAudit(ctx, entry); err != nil {
			slog.ErrorContext(ctx, "failed to publish access audit", "credential_id", credentialID, "action", action, "error", err)
		}
		return nil
	})
	if !started {
		slog.WarnContext(ctx, "audit entry dropped, background workers stopped", "credential_id", credentialID, "action", action)
	}
}
