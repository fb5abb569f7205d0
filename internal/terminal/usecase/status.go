package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/gatepass/internal/pkg/goerror"
	"github.com/shandysiswandi/gatepass/internal/pkg/jwt"
)

type (
	TerminalIDInput struct {
		ID string `validate:"required,max=64"`
	}

	TerminalAuthInput struct {
		ID  string `validate:"required,max=64"`
		Key string
	}
)

// Unlock lifts a terminal lock on behalf of an admin.
func (s *Usecase) Unlock(ctx context.Context, in TerminalIDInput) (*StatusOutput, error) {
	ctx, span := s.startSpan(ctx, "Unlock")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}
	if _, ok := s.keys()[in.ID]; !ok {
		return nil, errTerminalNotFound
	}

	sess, err := s.session(ctx, in.ID)
	if err != nil {
		return nil, err
	}

	if sess.throttle.Unlock() {
		slog.InfoContext(ctx, "terminal unlocked by admin", "terminal_id", in.ID, "admin_id", adminID(ctx))
	}

	out := toStatusOutput(in.ID, sess.throttle.Status())

	return &out, nil
}

func (s *Usecase) Status(ctx context.Context, in TerminalAuthInput) (*StatusOutput, error) {
	ctx, span := s.startSpan(ctx, "Status")
	defer span.End()

	sess, err := s.authorizedSession(ctx, in)
	if err != nil {
		return nil, err
	}

	out := toStatusOutput(in.ID, sess.throttle.Status())

	return &out, nil
}

// Stream returns status changes of a terminal until ctx is done.
func (s *Usecase) Stream(ctx context.Context, in TerminalAuthInput) (<-chan StreamEvent, error) {
	sess, err := s.authorizedSession(ctx, in)
	if err != nil {
		return nil, err
	}

	return sess.subscribe(ctx), nil
}

func (s *Usecase) authorizedSession(ctx context.Context, in TerminalAuthInput) (*session, error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}
	if err := s.authorize(in.ID, in.Key); err != nil {
		return nil, err
	}

	return s.session(ctx, in.ID)
}

func adminID(ctx context.Context) int64 {
	if clm := jwt.GetAuth(ctx); clm != nil {
		return clm.AdminID
	}

	return 0
}
