package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/gatepass/internal/admin/entity"
	"github.com/shandysiswandi/gatepass/internal/pkg/goerror"
)

// Seed creates the configured admin when no admin exists yet. Without
// admin.seed.email and admin.seed.password nothing is created.
func (s *Usecase) Seed(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "Seed")
	defer span.End()

	email := normalizeEmail(s.cfg.GetString("admin.seed.email"))
	password := s.cfg.GetString("admin.seed.password")
	if email == "" || password == "" {
		return nil
	}

	n, err := s.repoDB.CountAdmins(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	hashed, err := s.bcrypt.Hash(password)
	if err != nil {
		return err
	}

	name := strings.TrimSpace(s.cfg.GetString("admin.seed.name"))
	if name == "" {
		name = "Administrator"
	}

	admin := entity.Admin{
		ID:           s.uid.Generate(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hashed),
		CreatedAt:    s.clock.Now(),
	}
	err = s.repoDB.CreateAdmin(ctx, admin)
	if errors.Is(err, goerror.ErrConflict) {
		return nil
	}
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "default admin seeded", "admin_id", admin.ID, "email", email)

	return nil
}
