package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/gatepass/internal/admin/entity"
	"github.com/shandysiswandi/gatepass/internal/pkg/goerror"
	"github.com/shandysiswandi/gatepass/internal/pkg/jwt"
)

var errInvalidLogin = goerror.NewBusiness("invalid email or password", goerror.CodeUnauthorized)

type LoginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type LoginOutput struct {
	AccessToken string
}

// Login answers unknown, disabled and wrong-password accounts with the same
// error. Every attempt past validation lands in the audit log.
func (s *Usecase) Login(ctx context.Context, in LoginInput) (*LoginOutput, error) {
	ctx, span := s.startSpan(ctx, "Login")
	defer span.End()

	in.Email = normalizeEmail(in.Email)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	email := in.Email
	admin, err := s.repoDB.GetAdminByEmail(ctx, email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "admin account not found", "email", email)
		s.recordAudit(ctx, email, entity.ActionLoginFailed)
		return nil, errInvalidLogin
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get admin by email", "email", email, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !s.bcrypt.Verify(admin.PasswordHash, in.Password) {
		slog.WarnContext(ctx, "admin password not match", "admin_id", admin.ID)
		s.recordAudit(ctx, email, entity.ActionLoginFailed)
		return nil, errInvalidLogin
	}
	if admin.IsDisabled {
		slog.WarnContext(ctx, "disabled admin tried to log in", "admin_id", admin.ID)
		s.recordAudit(ctx, email, entity.ActionLoginFailed)
		return nil, errInvalidLogin
	}

	token, err := s.jwt.Generate(jwt.Subject{ID: admin.ID, Email: admin.Email, Name: admin.Name})
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate access jwt token", "admin_id", admin.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoDB.TouchLastLogin(ctx, admin.ID, s.clock.Now()); err != nil {
		slog.WarnContext(ctx, "failed to repo touch last login", "admin_id", admin.ID, "error", err)
	}
	s.recordAudit(ctx, admin.Email, entity.ActionLogin)

	slog.InfoContext(ctx, "admin logged in", "admin_id", admin.ID)

	return &LoginOutput{AccessToken: token}, nil
}
