package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/gatepass/internal/pkg/goerror"
	"github.com/shandysiswandi/gatepass/internal/pkg/otp"
)

type Pass struct {
	HolderName string
	// Payload is what the holder's QR code encodes: ID prefix then code.
	Payload   string
	Remaining time.Duration
	ExpiresAt *time.Time
}

// GetPass returns the code a holder presents right now. Disabled or expired
// credentials look the same as missing ones.
func (s *Usecase) GetPass(ctx context.Context, in CredentialIDInput) (*Pass, error) {
	ctx, span := s.startSpan(ctx, "GetPass")
	defer span.End()

	c, err := s.getCredential(ctx, in)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if d := c.Ineligibility(now); d != "" {
		slog.InfoContext(ctx, "pass requested for ineligible credential", "credential_id", c.ID, "detail", d)
		return nil, errCredentialNotFound
	}

	code, err := s.otp.Generate(c.Secret, now)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate code", "credential_id", c.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &Pass{
		HolderName: c.HolderName,
		Payload:    c.Prefix() + code,
		Remaining:  otp.Remaining(now),
		ExpiresAt:  c.ExpiresAt,
	}, nil
}
