package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/gatepass/internal/pkg/goerror"
	"github.com/shandysiswandi/gatepass/internal/terminal/entity"
	"github.com/shandysiswandi/gatepass/internal/terminal/throttle"
)

type (
	ScanInput struct {
		TerminalID string `validate:"required,max=64"`
		Key        string
		Token      string `validate:"required"`
	}

	ScanOutput struct {
		Outcome           string
		Message           string
		Status            StatusOutput
		Verdict           *entity.Verdict
		RetryAfterSeconds int
	}
)

const messageIgnored = "Same code scanned again, ignored"

// Scan runs one scanned code through the terminal's throttle. Rejections are
// reported in the output, never as errors.
func (s *Usecase) Scan(ctx context.Context, in ScanInput) (*ScanOutput, error) {
	ctx, span := s.startSpan(ctx, "Scan")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}
	if err := s.authorize(in.TerminalID, in.Key); err != nil {
		slog.WarnContext(ctx, "terminal rejected", "terminal_id", in.TerminalID)
		return nil, err
	}

	sess, err := s.session(ctx, in.TerminalID)
	if err != nil {
		return nil, err
	}

	if sess.duplicate(in.Token, s.clock.Now()) {
		return &ScanOutput{
			Outcome: entity.OutcomeIgnored,
			Message: messageIgnored,
			Status:  toStatusOutput(in.TerminalID, sess.throttle.Status()),
		}, nil
	}

	res := sess.throttle.Submit(ctx, in.Token)
	if res.Err != nil {
		slog.ErrorContext(ctx, "terminal scan verification failed", "terminal_id", in.TerminalID, "error", res.Err)
	}

	switch res.Outcome {
	case throttle.OutcomeGranted, throttle.OutcomeInvalid:
		slog.InfoContext(ctx, "terminal scan processed", "terminal_id", in.TerminalID, "outcome", res.Outcome, "state", res.Status.State, "failures", res.Status.Failures)
	default:
		slog.WarnContext(ctx, "terminal scan refused", "terminal_id", in.TerminalID, "outcome", res.Outcome, "state", res.Status.State)
	}

	out := &ScanOutput{
		Outcome:           string(res.Outcome),
		Message:           res.Message,
		Status:            toStatusOutput(in.TerminalID, res.Status),
		Verdict:           verdictOf(res),
		RetryAfterSeconds: throttle.RemainingSeconds(res.RetryAfter),
	}

	return out, nil
}
