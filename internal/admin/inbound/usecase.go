package inbound

import (
	"context"

	"github.com/shandysiswandi/gatepass/internal/admin/entity"
	"github.com/shandysiswandi/gatepass/internal/admin/usecase"
)

type uc interface {
	Login(ctx context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error)
	Me(ctx context.Context) (*entity.Admin, error)

	ListAdmins(ctx context.Context) ([]entity.Admin, error)
	CreateAdmin(ctx context.Context, in usecase.CreateAdminInput) (*entity.Admin, error)
	DeleteAdmin(ctx context.Context, in usecase.AdminIDInput) error
	ToggleAdminStatus(ctx context.Context, in usecase.AdminIDInput) (*entity.Admin, error)
	SetAdminPassword(ctx context.Context, in usecase.SetAdminPasswordInput) error

	UpdateMyName(ctx context.Context, in usecase.UpdateMyNameInput) (*entity.Admin, error)
	UpdateMyPassword(ctx context.Context, in usecase.UpdateMyPasswordInput) error
	UpdateMyEmail(ctx context.Context, in usecase.UpdateMyEmailInput) (*entity.Admin, error)
}
