package inbound

import (
	"context"

	"github.com/shandysiswandi/gatepass/internal/access/entity"
	"github.com/shandysiswandi/gatepass/internal/access/usecase"
)

type ucConsumer interface {
	ConsumeAccessAudit(ctx context.Context, in usecase.ConsumeAccessAuditInput) error
}

type uc interface {
	ucConsumer

	Verify(ctx context.Context, in usecase.VerifyInput) (*usecase.VerifyOutput, error)
	GetPass(ctx context.Context, in usecase.CredentialIDInput) (*usecase.Pass, error)

	CreateCredential(ctx context.Context, in usecase.CreateCredentialInput) (*usecase.CredentialDetail, error)
	GetCredential(ctx context.Context, in usecase.CredentialIDInput) (*usecase.CredentialDetail, error)
	ListCredentials(ctx context.Context) ([]entity.CredentialSummary, error)
	ToggleCredential(ctx context.Context, in usecase.CredentialIDInput) (*entity.CredentialSummary, error)
	DeleteCredential(ctx context.Context, in usecase.CredentialIDInput) error

	ListLogs(ctx context.Context, in usecase.ListLogsInput) ([]entity.AuditEntry, error)
	ExportLogs(ctx context.Context) (*usecase.ExportLogsOutput, error)
	Status(ctx context.Context) (*entity.SystemStatus, error)
}
