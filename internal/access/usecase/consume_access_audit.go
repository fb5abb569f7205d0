package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/gatepass/internal/access/entity"
	"github.com/shandysiswandi/gatepass/internal/pkg/goerror"
)

type ConsumeAccessAuditInput struct {
	ID           int64  `validate:"required,gt=0"`
	CredentialID string `validate:"omitempty,alphanum,max=32"`
	HolderName   string `validate:"required,max=100"`
	Action       string `validate:"required,max=255"`
	OccurredAt   time.Time
}

// ConsumeAccessAudit persists one audit entry. Invalid messages are dropped;
// an entry whose credential was deleted meanwhile is kept without the
// reference. Redelivered entries are ignored by ID.
func (s *Usecase) ConsumeAccessAudit(ctx context.Context, in ConsumeAccessAuditInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeAccessAudit")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "error", err)
		return nil
	}

	if in.OccurredAt.IsZero() {
		in.OccurredAt = s.clock.Now()
	}

	e := entity.AuditEntry{
		ID:           in.ID,
		CredentialID: in.CredentialID,
		HolderName:   in.HolderName,
		Action:       in.Action,
		CreatedAt:    in.OccurredAt,
	}

	err := s.repoDB.CreateAuditEntry(ctx, e)
	if errors.Is(err, goerror.ErrNotFound) && e.CredentialID != "" {
		slog.WarnContext(ctx, "credential gone, storing audit entry without reference", "credential_id", e.CredentialID, "action", e.Action)
		e.CredentialID = ""
		err = s.repoDB.CreateAuditEntry(ctx, e)
	}
	if errors.Is(err, goerror.ErrConflict) {
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo create audit entry", "action", e.Action, "error", err)
		return err
	}

	return nil
}
