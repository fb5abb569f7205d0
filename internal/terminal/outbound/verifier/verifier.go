// Package verifier forwards terminal scans to the access service.
package verifier

import (
	"context"

	accessentity "github.com/shandysiswandi/gatepass/internal/access/entity"
	access "github.com/shandysiswandi/gatepass/internal/access/usecase"
	"github.com/shandysiswandi/gatepass/internal/pkg/goerror"
	"github.com/shandysiswandi/gatepass/internal/terminal/entity"
)

type accessVerifier interface {
	Verify(ctx context.Context, in access.VerifyInput) (*access.VerifyOutput, error)
}

type Verifier struct {
	access accessVerifier
}

func New(a accessVerifier) *Verifier {
	return &Verifier{access: a}
}

// Verify asks the access service about token. A token the service refuses to
// parse is an ordinary rejection.
func (v *Verifier) Verify(ctx context.Context, terminalID, token string) (entity.Verdict, error) {
	out, err := v.access.Verify(ctx, access.VerifyInput{Token: token, Source: "terminal:" + terminalID})
	if goerror.IsCode(err, goerror.CodeInvalidFormat) {
		return entity.Verdict{Reason: string(accessentity.ReasonMalformedToken)}, nil
	}
	if err != nil {
		return entity.Verdict{}, err
	}

	verdict := entity.Verdict{
		Success:       out.Success,
		Reason:        string(out.Reason),
		DoorTriggered: out.DoorTriggered,
	}
	if out.Credential != nil {
		verdict.HolderID = out.Credential.ID
		verdict.HolderName = out.Credential.HolderName
	}
	if out.Door != nil {
		verdict.Door = &entity.DoorStatus{
			Success: out.Door.Success,
			Message: out.Door.Message,
			Details: out.Door.Details,
		}
	}

	return verdict, nil
}
