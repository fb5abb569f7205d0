package usecase

import (
	"context"
	"strings"

	"github.com/shandysiswandi/gatepass/internal/admin/entity"
	"github.com/shandysiswandi/gatepass/internal/pkg/goerror"
)

var errWrongPassword = goerror.NewBusiness("Current password is incorrect", goerror.CodeInvalidInput)

type UpdateMyNameInput struct {
	Name string `validate:"required,max=100"`
}

func (s *Usecase) UpdateMyName(ctx context.Context, in UpdateMyNameInput) (*entity.Admin, error) {
	ctx, span := s.startSpan(ctx, "UpdateMyName")
	defer span.End()

	admin, err := s.currentAdmin(ctx)
	if err != nil {
		return nil, err
	}

	in.Name = strings.TrimSpace(in.Name)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if err := s.repoDB.SetAdminName(ctx, admin.ID, in.Name); err != nil {
		return nil, mapChangeError(ctx, "set admin name", admin.ID, err)
	}
	admin.Name = in.Name

	s.recordAudit(ctx, admin.Email, entity.ActionNameUpdated)

	return admin, nil
}

type UpdateMyPasswordInput struct {
	CurrentPassword string `validate:"required"`
	NewPassword     string `validate:"required,password"`
}

func (s *Usecase) UpdateMyPassword(ctx context.Context, in UpdateMyPasswordInput) error {
	ctx, span := s.startSpan(ctx, "UpdateMyPassword")
	defer span.End()

	admin, err := s.currentAdmin(ctx)
	if err != nil {
		return err
	}
	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}
	if !s.bcrypt.Verify(admin.PasswordHash, in.CurrentPassword) {
		return errWrongPassword
	}

	hashed, err := s.bcrypt.Hash(in.NewPassword)
	if err != nil {
		return goerror.NewServer(err)
	}
	if err := s.repoDB.SetAdminPassword(ctx, admin.ID, string(hashed)); err != nil {
		return mapChangeError(ctx, "set admin password", admin.ID, err)
	}

	s.recordAudit(ctx, admin.Email, entity.ActionPasswordUpdated)

	return nil
}

type UpdateMyEmailInput struct {
	Email string `validate:"required,email,max=255"`
}

// UpdateMyEmail changes the login email. Tokens issued earlier keep the old
// email in their claims until they expire.
func (s *Usecase) UpdateMyEmail(ctx context.Context, in UpdateMyEmailInput) (*entity.Admin, error) {
	ctx, span := s.startSpan(ctx, "UpdateMyEmail")
	defer span.End()

	admin, err := s.currentAdmin(ctx)
	if err != nil {
		return nil, err
	}

	in.Email = normalizeEmail(in.Email)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}
	if in.Email == admin.Email {
		return admin, nil
	}

	if err := s.repoDB.SetAdminEmail(ctx, admin.ID, in.Email); err != nil {
		return nil, mapChangeError(ctx, "set admin email", admin.ID, err)
	}

	s.recordAudit(ctx, admin.Email, targeted(entity.ActionEmailUpdated, in.Email))
	admin.Email = in.Email

	return admin, nil
}
