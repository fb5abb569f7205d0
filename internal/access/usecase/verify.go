package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/gatepass/internal/access/entity"
	"github.com/shandysiswandi/gatepass/internal/pkg/goerror"
)

const (
	MessageGranted = "Access granted"
	MessageDenied  = "Invalid token or unauthorized user"

	defaultDoorTimeout = 5 * time.Second
	maxTokenLength     = 256
)

type (
	VerifyInput struct {
		Token string
		// Source names the caller in logs, e.g. a terminal ID.
		Source string
	}

	VerifyOutput struct {
		Success       bool
		Reason        entity.Reason
		Message       string
		Credential    *entity.CredentialSummary
		DoorTriggered bool
		Door          *entity.DoorStatus
	}
)

// VerifyToken decides whether raw opens the door. It has no side effects.
func (s *Usecase) VerifyToken(ctx context.Context, raw string) (entity.VerificationResult, error) {
	ctx, span := s.startSpan(ctx, "VerifyToken")
	defer span.End()

	token, err := entity.ParseScannedToken(raw)
	if err != nil {
		return entity.VerificationResult{Reason: entity.ReasonMalformedToken}, nil
	}

	all, err := s.loadCandidates(ctx, token)
	if err != nil {
		return entity.VerificationResult{Reason: entity.ReasonStorageError}, goerror.NewServer(err)
	}

	candidates := Resolve(all, token)
	if len(candidates) == 0 {
		return entity.VerificationResult{Reason: entity.ReasonNoMatch, Detail: entity.DetailNoPrefixMatch}, nil
	}

	now := s.clock.Now()
	window := s.window()

	var ineligible entity.Detail
	tried := false
	for i := range candidates {
		c := candidates[i]
		if d := c.Ineligibility(now); d != "" {
			ineligible = d
			continue
		}

		tried = true
		if step, ok := s.otp.Validate(c.Secret, token.Code, now, window); ok {
			return entity.VerificationResult{Success: true, Credential: &c, Step: step}, nil
		}
	}

	detail := entity.DetailCodeMismatch
	if !tried {
		detail = ineligible
	}

	return entity.VerificationResult{Reason: entity.ReasonNoMatch, Detail: detail}, nil
}

// Verify checks a scan and, on success, audits the entry and opens the door.
func (s *Usecase) Verify(ctx context.Context, in VerifyInput) (*VerifyOutput, error) {
	ctx, span := s.startSpan(ctx, "Verify")
	defer span.End()

	in.Token = strings.TrimSpace(in.Token)
	if in.Token == "" {
		return nil, goerror.NewInvalidFormat("Token is required")
	}
	if len(in.Token) > maxTokenLength {
		return nil, goerror.NewInvalidFormat("Invalid token format")
	}

	masked := entity.MaskToken(in.Token)

	result, err := s.VerifyToken(ctx, in.Token)
	if err != nil {
		slog.ErrorContext(ctx, "failed to verify token", "token_masked", masked, "source", in.Source, "reason", result.Reason, "error", err)
		return nil, err
	}

	if !result.Success {
		slog.WarnContext(ctx, "access denied", "token_masked", masked, "source", in.Source, "reason", result.Reason, "detail", result.Detail)
		return &VerifyOutput{Reason: result.Reason, Message: MessageDenied}, nil
	}

	c := result.Credential
	slog.InfoContext(ctx, "access granted", "credential_id", c.ID, "holder", c.HolderName, "step", result.Step, "source", in.Source)

	s.recordAudit(ctx, c.ID, c.HolderName, entity.ActionEnter)
	door := s.openDoor(ctx, c.HolderName)
	if door.Success {
		s.recordAudit(ctx, c.ID, c.HolderName, entity.ActionDoorOpenSuccess)
	} else {
		s.recordAudit(ctx, c.ID, c.HolderName, entity.ActionDoorOpenFailed+": "+door.Message)
	}

	summary := c.Summary()
	out := &VerifyOutput{
		Success:       true,
		Message:       MessageGranted,
		Credential:    &summary,
		DoorTriggered: true,
		Door:          &door,
	}
	if !door.Success {
		out.Reason = entity.ReasonActuatorFailure
	}

	return out, nil
}

func (s *Usecase) openDoor(ctx context.Context, holder string) entity.DoorStatus {
	timeout := s.cfg.GetSecond("door.timeout")
	if timeout <= 0 {
		timeout = defaultDoorTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	details, err := s.repoDoor.Open(ctx, holder)
	if err != nil {
		slog.ErrorContext(ctx, "failed to open door", "holder", holder, "error", err)
		return entity.DoorStatus{Message: err.Error(), Details: details}
	}

	return entity.DoorStatus{Success: true, Message: "Door signal sent", Details: details}
}
