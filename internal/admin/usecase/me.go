package usecase

import (
	"context"

	"github.com/shandysiswandi/gatepass/internal/admin/entity"
)

func (s *Usecase) Me(ctx context.Context) (*entity.Admin, error) {
	ctx, span := s.startSpan(ctx, "Me")
	defer span.End()

	return s.currentAdmin(ctx)
}
