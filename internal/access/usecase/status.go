package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/gatepass/internal/access/entity"
	"github.com/shandysiswandi/gatepass/internal/pkg/goerror"
)

func (s *Usecase) Status(ctx context.Context) (*entity.SystemStatus, error) {
	ctx, span := s.startSpan(ctx, "Status")
	defer span.End()

	now := s.clock.Now()

	total, active, err := s.repoDB.CountCredentials(ctx, now)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo count credentials", "error", err)
		return nil, goerror.NewServer(err)
	}

	logs, err := s.repoDB.CountAuditEntries(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo count audit entries", "error", err)
		return nil, goerror.NewServer(err)
	}

	last, err := s.repoDB.LastAuditEntry(ctx)
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo get last audit entry", "error", err)
		return nil, goerror.NewServer(err)
	}

	return &entity.SystemStatus{
		StartTime:             s.startedAt,
		CurrentTime:           now,
		CredentialCount:       total,
		ActiveCredentialCount: active,
		LogCount:              logs,
		LastActivity:          last,
	}, nil
}
