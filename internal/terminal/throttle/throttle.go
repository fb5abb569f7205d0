// Package throttle guards one scanner terminal: it paces verification calls,
// counts consecutive failures and locks the terminal for a while once too
// many scans in a row are rejected.
//
// A Throttle is owned by a single terminal session. Submits are serialized,
// so a scan is fully processed before the next one is looked at.
package throttle

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/shandysiswandi/gatepass/internal/pkg/clock"
	"github.com/shandysiswandi/gatepass/internal/pkg/scheduler"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

type State string

const (
	StateNormal  State = "NORMAL"
	StateWarning State = "WARNING"
	StateLocked  State = "LOCKED"
)

type Outcome string

const (
	OutcomeGranted     Outcome = "granted"
	OutcomeInvalid     Outcome = "invalid"
	OutcomeRateLimited Outcome = "rate_limited"
	OutcomeKnownBad    Outcome = "known_bad_token"
	OutcomeLocked      Outcome = "locked"
)

const (
	MessageGranted     = "Access granted"
	MessageInvalid     = "Invalid token or unauthorized user"
	MessageRateLimited = "Please wait before scanning again"
	MessageKnownBad    = "This code was already rejected"
	MessageLocked      = "Terminal is locked"
	MessageClosed      = "Terminal is offline"
)

// Verification is what a Verifier reports for one token. Detail is passed
// back to the caller untouched.
type Verification struct {
	Success bool
	Reason  string
	Detail  any
}

// Verifier checks a token against the credential store.
type Verifier interface {
	Verify(ctx context.Context, token string) (Verification, error)
}

// VerifierFunc adapts a function to Verifier.
type VerifierFunc func(ctx context.Context, token string) (Verification, error)

func (f VerifierFunc) Verify(ctx context.Context, token string) (Verification, error) {
	return f(ctx, token)
}

// Capture is the scanner device. Its methods are called with the throttle's
// lock held and must not call back into the throttle.
type Capture interface {
	Start()
	Stop()
}

type EventKind string

const (
	EventGranted  EventKind = "granted"
	EventFailure  EventKind = "failure"
	EventWarning  EventKind = "warning"
	EventLocked   EventKind = "locked"
	EventTick     EventKind = "tick"
	EventUnlocked EventKind = "unlocked"
	EventCapture  EventKind = "capture"
)

type Event struct {
	Kind   EventKind
	Status Status
}

type Listener func(Event)

// Status is a point-in-time snapshot of the throttle.
type Status struct {
	State         State
	Failures      int
	MaxFailures   int
	Locked        bool
	LockStartedAt time.Time
	LockEndsAt    time.Time
	LockRemaining time.Duration
	KnownBad      int
	Capturing     bool
}

// Result is the outcome of one Submit.
type Result struct {
	Outcome      Outcome
	Message      string
	Status       Status
	RetryAfter   time.Duration
	Err          error
	Verification *Verification
}

type Throttle struct {
	verifier  Verifier
	clock     clock.Clocker
	sched     scheduler.Scheduler
	cfg       Config
	listeners []Listener
	capture   Capture

	sem *semaphore.Weighted

	mu            sync.Mutex
	limiter       *rate.Limiter
	failures      int
	locked        bool
	lockStartedAt time.Time
	lockEndsAt    time.Time
	knownBad      map[string]struct{}
	capturing     bool
	closed        bool

	resetTask  scheduler.Task
	resumeTask scheduler.Task
	tickTask   scheduler.Task
	// generations let a task that fired while being replaced notice it is stale
	resetGen  uint64
	resumeGen uint64
	tickGen   uint64
}

func New(verifier Verifier, opts ...Option) *Throttle {
	t := &Throttle{
		verifier:  verifier,
		clock:     clock.New(),
		sched:     scheduler.New(),
		cfg:       DefaultConfig(),
		sem:       semaphore.NewWeighted(1),
		knownBad:  make(map[string]struct{}),
		capturing: true,
	}
	for _, opt := range opts {
		opt(t)
	}

	t.limiter = rate.NewLimiter(rate.Every(t.cfg.MinInterval), 1)

	return t
}

// Submit runs one scanned token through the throttle. It never fails: every
// rejection is reported as a typed Result.
func (t *Throttle) Submit(ctx context.Context, token string) Result {
	if err := t.sem.Acquire(ctx, 1); err != nil {
		return Result{Outcome: OutcomeRateLimited, Message: MessageRateLimited, Status: t.Status(), Err: err}
	}
	defer t.sem.Release(1)

	t.mu.Lock()
	now := t.clock.Now()

	if t.closed {
		st := t.statusLocked(now)
		t.mu.Unlock()
		return Result{Outcome: OutcomeLocked, Message: MessageClosed, Status: st}
	}

	// the reservation is kept only when the call reaches the verifier
	rsv := t.limiter.ReserveN(now, 1)
	if delay := rsv.DelayFrom(now); delay > 0 {
		rsv.CancelAt(now)
		st := t.statusLocked(now)
		t.mu.Unlock()
		return Result{Outcome: OutcomeRateLimited, Message: MessageRateLimited, Status: st, RetryAfter: delay}
	}

	if _, bad := t.knownBad[token]; bad {
		rsv.CancelAt(now)
		st := t.statusLocked(now)
		t.mu.Unlock()
		return Result{Outcome: OutcomeKnownBad, Message: MessageKnownBad, Status: st}
	}

	if t.locked {
		rsv.CancelAt(now)
		st := t.statusLocked(now)
		t.mu.Unlock()
		return Result{Outcome: OutcomeLocked, Message: MessageLocked, Status: st, RetryAfter: st.LockRemaining}
	}

	t.stopResumeLocked()
	t.stopCaptureLocked()
	t.mu.Unlock()

	v, err := t.verifier.Verify(ctx, token)

	t.mu.Lock()
	now = t.clock.Now()

	var kind EventKind
	res := Result{Err: err}
	if err == nil && v.Success {
		t.failures = 0
		t.stopResetLocked()
		clear(t.knownBad)

		kind = EventGranted
		res.Outcome, res.Message = OutcomeGranted, MessageGranted
	} else {
		t.knownBad[token] = struct{}{}
		t.failures++

		switch {
		case t.failures >= t.cfg.MaxFailures:
			t.lockLocked(now, now.Add(t.cfg.LockDuration))
			kind = EventLocked
		case t.failures == t.cfg.MaxFailures-1:
			t.armResetLocked()
			kind = EventWarning
		default:
			t.armResetLocked()
			kind = EventFailure
		}
		res.Outcome, res.Message = OutcomeInvalid, MessageInvalid
	}
	if err == nil {
		res.Verification = &v
	}

	if !t.locked && !t.closed {
		t.armResumeLocked()
	}

	res.Status = t.statusLocked(now)
	t.mu.Unlock()

	t.emit(Event{Kind: kind, Status: res.Status})

	return res
}

// Unlock lifts a lock by hand. It reports false when the terminal was not
// locked.
func (t *Throttle) Unlock() bool {
	t.mu.Lock()
	if !t.locked {
		t.mu.Unlock()
		return false
	}
	t.unlockLocked()
	st := t.statusLocked(t.clock.Now())
	t.mu.Unlock()

	t.emit(Event{Kind: EventUnlocked, Status: st})

	return true
}

// Restore re-enters a lock that was persisted before a restart. A lock that
// has already ended is ignored.
func (t *Throttle) Restore(lockEndsAt time.Time) bool {
	t.mu.Lock()
	now := t.clock.Now()
	if t.closed || t.locked || !now.Before(lockEndsAt) {
		t.mu.Unlock()
		return false
	}

	t.failures = t.cfg.MaxFailures
	t.lockLocked(lockEndsAt.Add(-t.cfg.LockDuration), lockEndsAt)
	st := t.statusLocked(now)
	t.mu.Unlock()

	t.emit(Event{Kind: EventLocked, Status: st})

	return true
}

func (t *Throttle) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.statusLocked(t.clock.Now())
}

// Close cancels every pending task. Later submits are refused.
func (t *Throttle) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true
	t.stopResetLocked()
	t.stopResumeLocked()
	t.stopTickLocked()
}

func (t *Throttle) statusLocked(now time.Time) Status {
	st := Status{
		State:       StateNormal,
		Failures:    t.failures,
		MaxFailures: t.cfg.MaxFailures,
		Locked:      t.locked,
		KnownBad:    len(t.knownBad),
		Capturing:   t.capturing,
	}

	switch {
	case t.locked:
		st.State = StateLocked
		st.LockStartedAt = t.lockStartedAt
		st.LockEndsAt = t.lockEndsAt
		st.LockRemaining = max(t.lockEndsAt.Sub(now), 0)
	case t.failures == t.cfg.MaxFailures-1:
		st.State = StateWarning
	}

	return st
}

func (t *Throttle) lockLocked(startedAt, endsAt time.Time) {
	t.locked = true
	t.lockStartedAt = startedAt
	t.lockEndsAt = endsAt

	t.stopResetLocked()
	t.stopResumeLocked()
	t.stopCaptureLocked()
	t.stopTickLocked()

	t.tickGen++
	gen := t.tickGen
	t.tickTask = t.sched.Every(tickInterval, func() { t.onTick(gen) })
}

func (t *Throttle) unlockLocked() {
	t.locked = false
	t.lockStartedAt = time.Time{}
	t.lockEndsAt = time.Time{}
	t.failures = 0
	clear(t.knownBad)

	t.stopTickLocked()
	t.stopResetLocked()
	t.startCaptureLocked()
}

func (t *Throttle) onTick(gen uint64) {
	t.mu.Lock()
	if gen != t.tickGen || !t.locked {
		t.mu.Unlock()
		return
	}

	now := t.clock.Now()
	kind := EventTick
	if !now.Before(t.lockEndsAt) {
		t.unlockLocked()
		kind = EventUnlocked
	}
	st := t.statusLocked(now)
	t.mu.Unlock()

	t.emit(Event{Kind: kind, Status: st})
}

func (t *Throttle) armResetLocked() {
	t.stopResetLocked()

	t.resetGen++
	gen := t.resetGen
	t.resetTask = t.sched.AfterFunc(t.cfg.FailureReset, func() {
		t.mu.Lock()
		if gen != t.resetGen || t.locked {
			t.mu.Unlock()
			return
		}
		t.failures = 0
		t.resetTask = nil
		st := t.statusLocked(t.clock.Now())
		t.mu.Unlock()

		t.emit(Event{Kind: EventFailure, Status: st})
	})
}

func (t *Throttle) armResumeLocked() {
	t.stopResumeLocked()

	t.resumeGen++
	gen := t.resumeGen
	t.resumeTask = t.sched.AfterFunc(t.cfg.CaptureCooldown, func() {
		t.mu.Lock()
		if gen != t.resumeGen || t.locked || t.closed {
			t.mu.Unlock()
			return
		}
		t.resumeTask = nil
		t.startCaptureLocked()
		st := t.statusLocked(t.clock.Now())
		t.mu.Unlock()

		t.emit(Event{Kind: EventCapture, Status: st})
	})
}

func (t *Throttle) stopResetLocked() {
	t.resetGen++
	if t.resetTask != nil {
		t.resetTask.Stop()
		t.resetTask = nil
	}
}

func (t *Throttle) stopResumeLocked() {
	t.resumeGen++
	if t.resumeTask != nil {
		t.resumeTask.Stop()
		t.resumeTask = nil
	}
}

func (t *Throttle) stopTickLocked() {
	t.tickGen++
	if t.tickTask != nil {
		t.tickTask.Stop()
		t.tickTask = nil
	}
}

func (t *Throttle) startCaptureLocked() {
	if t.capturing {
		return
	}
	t.capturing = true
	if t.capture != nil {
		t.capture.Start()
	}
}

func (t *Throttle) stopCaptureLocked() {
	if !t.capturing {
		return
	}
	t.capturing = false
	if t.capture != nil {
		t.capture.Stop()
	}
}

func (t *Throttle) emit(evt Event) {
	for _, l := range t.listeners {
		l(evt)
	}
}

// RemainingSeconds rounds d up to whole seconds for display.
func RemainingSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}

	return int(math.Ceil(d.Seconds()))
}
