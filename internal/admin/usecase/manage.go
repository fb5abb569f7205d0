package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/gatepass/internal/admin/entity"
	"github.com/shandysiswandi/gatepass/internal/pkg/goerror"
)

var (
	errDeleteSelf  = goerror.NewBusiness("Cannot delete the signed-in admin", goerror.CodeForbidden)
	errDisableSelf = goerror.NewBusiness("Cannot disable the signed-in admin", goerror.CodeForbidden)
)

func (s *Usecase) ListAdmins(ctx context.Context) ([]entity.Admin, error) {
	ctx, span := s.startSpan(ctx, "ListAdmins")
	defer span.End()

	if _, err := s.currentAdmin(ctx); err != nil {
		return nil, err
	}

	admins, err := s.repoDB.ListAdmins(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list admins", "error", err)
		return nil, goerror.NewServer(err)
	}

	return admins, nil
}

type CreateAdminInput struct {
	Email    string `validate:"required,email,max=255"`
	Name     string `validate:"required,max=100"`
	Password string `validate:"required,password"`
}

func (s *Usecase) CreateAdmin(ctx context.Context, in CreateAdminInput) (*entity.Admin, error) {
	ctx, span := s.startSpan(ctx, "CreateAdmin")
	defer span.End()

	actor, err := s.currentAdmin(ctx)
	if err != nil {
		return nil, err
	}

	in.Email = normalizeEmail(in.Email)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	hashed, err := s.bcrypt.Hash(in.Password)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash admin password", "error", err)
		return nil, goerror.NewServer(err)
	}

	admin := entity.Admin{
		ID:           s.uid.Generate(),
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: string(hashed),
		CreatedAt:    s.clock.Now(),
	}
	err = s.repoDB.CreateAdmin(ctx, admin)
	if errors.Is(err, goerror.ErrConflict) {
		return nil, errEmailTaken
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo create admin", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	s.recordAudit(ctx, actor.Email, targeted(entity.ActionCreated, admin.Email))
	slog.InfoContext(ctx, "admin created", "admin_id", admin.ID, "by", actor.ID)

	return &admin, nil
}

// target loads the admin an operation acts on.
func (s *Usecase) target(ctx context.Context, id int64) (*entity.Admin, error) {
	admin, err := s.repoDB.GetAdminByID(ctx, id)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, errAdminNotFound
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get admin by id", "admin_id", id, "error", err)
		return nil, goerror.NewServer(err)
	}

	return admin, nil
}

// mapChangeError translates store errors of a write on an existing admin.
func mapChangeError(ctx context.Context, op string, id int64, err error) error {
	switch {
	case errors.Is(err, goerror.ErrNotFound):
		return errAdminNotFound
	case errors.Is(err, goerror.ErrConflict):
		return errEmailTaken
	case errors.Is(err, entity.ErrLastActiveAdmin):
		return errLastActive
	}

	slog.ErrorContext(ctx, "failed to repo "+op, "admin_id", id, "error", err)

	return goerror.NewServer(err)
}

type AdminIDInput struct {
	ID int64 `validate:"required,gt=0"`
}

// DeleteAdmin removes another admin. The signed-in admin and the last
// enabled admin cannot be deleted.
func (s *Usecase) DeleteAdmin(ctx context.Context, in AdminIDInput) error {
	ctx, span := s.startSpan(ctx, "DeleteAdmin")
	defer span.End()

	actor, err := s.currentAdmin(ctx)
	if err != nil {
		return err
	}
	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}
	if in.ID == actor.ID {
		return errDeleteSelf
	}

	admin, err := s.target(ctx, in.ID)
	if err != nil {
		return err
	}

	if err := s.repoDB.DeleteAdmin(ctx, in.ID); err != nil {
		return mapChangeError(ctx, "delete admin", in.ID, err)
	}

	s.recordAudit(ctx, actor.Email, targeted(entity.ActionDeleted, admin.Email))
	slog.InfoContext(ctx, "admin deleted", "admin_id", in.ID, "by", actor.ID)

	return nil
}

// ToggleAdminStatus flips the disabled flag of another admin and returns
// the new state.
func (s *Usecase) ToggleAdminStatus(ctx context.Context, in AdminIDInput) (*entity.Admin, error) {
	ctx, span := s.startSpan(ctx, "ToggleAdminStatus")
	defer span.End()

	actor, err := s.currentAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}
	if in.ID == actor.ID {
		return nil, errDisableSelf
	}

	admin, err := s.target(ctx, in.ID)
	if err != nil {
		return nil, err
	}

	disabled := !admin.IsDisabled
	if err := s.repoDB.SetAdminDisabled(ctx, in.ID, disabled); err != nil {
		return nil, mapChangeError(ctx, "set admin disabled", in.ID, err)
	}
	admin.IsDisabled = disabled

	action := entity.ActionEnabled
	if disabled {
		action = entity.ActionDisabled
	}
	s.recordAudit(ctx, actor.Email, targeted(action, admin.Email))
	slog.InfoContext(ctx, "admin status changed", "admin_id", in.ID, "disabled", disabled, "by", actor.ID)

	return admin, nil
}

type SetAdminPasswordInput struct {
	ID          int64  `validate:"required,gt=0"`
	NewPassword string `validate:"required,password"`
}

// SetAdminPassword replaces another admin's password without the old one.
func (s *Usecase) SetAdminPassword(ctx context.Context, in SetAdminPasswordInput) error {
	ctx, span := s.startSpan(ctx, "SetAdminPassword")
	defer span.End()

	actor, err := s.currentAdmin(ctx)
	if err != nil {
		return err
	}
	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	admin, err := s.target(ctx, in.ID)
	if err != nil {
		return err
	}

	hashed, err := s.bcrypt.Hash(in.NewPassword)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash admin password", "admin_id", in.ID, "error", err)
		return goerror.NewServer(err)
	}
	if err := s.repoDB.SetAdminPassword(ctx, in.ID, string(hashed)); err != nil {
		return mapChangeError(ctx, "set admin password", in.ID, err)
	}

	s.recordAudit(ctx, actor.Email, targeted(entity.ActionPasswordSet, admin.Email))

	return nil
}
