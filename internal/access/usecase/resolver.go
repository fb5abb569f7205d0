package usecase

import (
	"context"
	"strings"

	"github.com/samber/lo"
	"github.com/shandysiswandi/gatepass/internal/access/entity"
)

// Resolve narrows all to the credentials a token may belong to. A prefixed
// token only matches IDs starting with its prefix (case-sensitive); other
// forms match every credential.
func Resolve(all []entity.Credential, token entity.ScannedToken) []entity.Credential {
	if token.Kind != entity.TokenPrefixed {
		return all
	}

	return lo.Filter(all, func(c entity.Credential, _ int) bool {
		return strings.HasPrefix(c.ID, token.Prefix)
	})
}

func (s *Usecase) loadCandidates(ctx context.Context, token entity.ScannedToken) ([]entity.Credential, error) {
	if token.Kind == entity.TokenPrefixed {
		return s.repoDB.GetByIDPrefix(ctx, token.Prefix)
	}

	return s.repoDB.GetActive(ctx)
}
