package inbound

import (
	"context"

	"github.com/shandysiswandi/gatepass/internal/terminal/usecase"
)

type uc interface {
	Scan(ctx context.Context, in usecase.ScanInput) (*usecase.ScanOutput, error)
	Unlock(ctx context.Context, in usecase.TerminalIDInput) (*usecase.StatusOutput, error)
	Status(ctx context.Context, in usecase.TerminalAuthInput) (*usecase.StatusOutput, error)
	Stream(ctx context.Context, in usecase.TerminalAuthInput) (<-chan usecase.StreamEvent, error)
}
