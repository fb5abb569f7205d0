package usecase

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"sync"
	"time"

	"github.com/shandysiswandi/gatepass/internal/pkg/clock"
	"github.com/shandysiswandi/gatepass/internal/pkg/config"
	"github.com/shandysiswandi/gatepass/internal/pkg/goerror"
	"github.com/shandysiswandi/gatepass/internal/pkg/goroutine"
	"github.com/shandysiswandi/gatepass/internal/pkg/instrument"
	"github.com/shandysiswandi/gatepass/internal/pkg/scheduler"
	"github.com/shandysiswandi/gatepass/internal/pkg/validator"
	"github.com/shandysiswandi/gatepass/internal/terminal/entity"
	"github.com/shandysiswandi/gatepass/internal/terminal/throttle"
	"go.opentelemetry.io/otel/trace"
)

var (
	errTerminalUnauthorized = goerror.NewBusiness("Invalid terminal credentials", goerror.CodeUnauthorized)
	errTerminalNotFound     = goerror.NewBusiness("Terminal not found", goerror.CodeNotFound)
	errTerminalsClosed      = goerror.NewBusiness("Terminals are shutting down", goerror.CodeUnavailable)
)

type repoVerifier interface {
	Verify(ctx context.Context, terminalID, token string) (entity.Verdict, error)
}

type repoLock interface {
	SaveLock(ctx context.Context, lock entity.LockState) error
	// GetLock returns nil when the terminal has no persisted lock.
	GetLock(ctx context.Context, terminalID string) (*entity.LockState, error)
	DeleteLock(ctx context.Context, terminalID string) error
}

type Dependency struct {
	RepoVerifier repoVerifier
	RepoLock     repoLock
	Config       config.Config
	Clock        clock.Clocker
	Scheduler    scheduler.Scheduler
	Validator    validator.Validator
	Goroutine    *goroutine.Manager
	Instrument   instrument.Instrumentation
}

type Usecase struct {
	repoVerifier repoVerifier
	repoLock     repoLock
	cfg          config.Config
	clock        clock.Clocker
	sched        scheduler.Scheduler
	validator    validator.Validator
	routine      *goroutine.Manager
	ins          instrument.Instrumentation

	throttleCfg throttle.Config

	mu       sync.Mutex
	sessions map[string]*session
	closed   bool
}

// New builds the terminal registry. terminal.keys is read on every call so
// rotated keys apply without a restart.
func New(dep Dependency) *Usecase {
	if _, err := entity.ParseKeys(dep.Config.GetString("terminal.keys")); err != nil {
		slog.Error("invalid terminal.keys, no terminal can connect", "error", err)
	}

	return &Usecase{
		repoVerifier: dep.RepoVerifier,
		repoLock:     dep.RepoLock,
		cfg:          dep.Config,
		clock:        dep.Clock,
		sched:        dep.Scheduler,
		validator:    dep.Validator,
		routine:      dep.Goroutine,
		ins:          dep.Instrument,
		throttleCfg: throttle.Config{
			MinInterval:     dep.Config.GetMillisecond("terminal.throttle.min_interval"),
			MaxFailures:     dep.Config.GetInt("terminal.throttle.max_failures"),
			LockDuration:    dep.Config.GetSecond("terminal.throttle.lock_duration"),
			FailureReset:    dep.Config.GetSecond("terminal.throttle.failure_reset"),
			CaptureCooldown: dep.Config.GetMillisecond("terminal.throttle.capture_cooldown"),
		},
		sessions: make(map[string]*session),
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("terminal.usecase").Start(ctx, name)
}

// keys returns the configured terminal keys. Malformed config yields none.
func (s *Usecase) keys() map[string]string {
	keys, err := entity.ParseKeys(s.cfg.GetString("terminal.keys"))
	if err != nil {
		return map[string]string{}
	}

	return keys
}

// authorize checks the terminal key in constant time.
func (s *Usecase) authorize(id, key string) error {
	want, ok := s.keys()[id]
	if !ok || subtle.ConstantTimeCompare([]byte(want), []byte(key)) != 1 {
		return errTerminalUnauthorized
	}

	return nil
}

// session returns the terminal's session, creating it on first use. A lock
// persisted before a restart is restored into the new session.
func (s *Usecase) session(ctx context.Context, id string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errTerminalsClosed
	}
	if sess, ok := s.sessions[id]; ok {
		return sess, nil
	}

	sess := newSession(id, s)
	s.sessions[id] = sess

	lock, err := s.repoLock.GetLock(ctx, id)
	if err != nil {
		slog.WarnContext(ctx, "failed to read persisted terminal lock", "terminal_id", id, "error", err)
	}
	if lock != nil && sess.throttle.Restore(lock.EndsAt) {
		slog.InfoContext(ctx, "terminal lock restored", "terminal_id", id, "lock_ends_at", lock.EndsAt)
	}

	return sess, nil
}

// persist writes the session's current lock state in the background so
// throttle listeners never wait on Redis. Writes of one terminal are
// serialized and each reads the latest state, so the last write wins.
func (s *Usecase) persist(sess *session) {
	started := s.routine.Go(context.Background(), func(ctx context.Context) error {
		sess.persistMu.Lock()
		defer sess.persistMu.Unlock()

		st := sess.throttle.Status()
		var err error
		if st.Locked {
			err = s.repoLock.SaveLock(ctx, entity.LockState{TerminalID: sess.id, EndsAt: st.LockEndsAt})
		} else {
			err = s.repoLock.DeleteLock(ctx, sess.id)
		}
		if err != nil {
			slog.ErrorContext(ctx, "failed to persist terminal lock", "terminal_id", sess.id, "locked", st.Locked, "error", err)
		}
		return nil
	})
	if !started {
		slog.Warn("terminal lock not persisted, background workers stopped", "terminal_id", sess.id)
	}
}

// Close stops every session and refuses new ones. Persisted locks are kept
// so the next process restores them.
func (s *Usecase) Close() error {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = map[string]*session{}
	s.closed = true
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.close()
	}

	return nil
}

func lockRemainingSeconds(st throttle.Status) int {
	if !st.Locked {
		return 0
	}

	return throttle.RemainingSeconds(st.LockRemaining)
}

// StatusOutput is the externally visible part of a throttle status.
type StatusOutput struct {
	TerminalID           string
	State                throttle.State
	Failures             int
	MaxFailures          int
	Locked               bool
	LockEndsAt           *time.Time
	LockRemainingSeconds int
	Capturing            bool
}

func toStatusOutput(id string, st throttle.Status) StatusOutput {
	out := StatusOutput{
		TerminalID:           id,
		State:                st.State,
		Failures:             st.Failures,
		MaxFailures:          st.MaxFailures,
		Locked:               st.Locked,
		LockRemainingSeconds: lockRemainingSeconds(st),
		Capturing:            st.Capturing,
	}
	if st.Locked {
		endsAt := st.LockEndsAt
		out.LockEndsAt = &endsAt
	}

	return out
}
