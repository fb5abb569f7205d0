package throttle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/gatepass/internal/pkg/scheduler"
)

var start = time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

type fakeVerifier struct {
	mu    sync.Mutex
	valid map[string]bool
	err   error
	calls []string
	// during runs inside Verify, while the verification is in flight
	during func()
}

func (f *fakeVerifier) Verify(_ context.Context, token string) (Verification, error) {
	f.mu.Lock()
	f.calls = append(f.calls, token)
	during := f.during
	f.mu.Unlock()

	if during != nil {
		during()
	}
	if f.err != nil {
		return Verification{}, f.err
	}

	return Verification{Success: f.valid[token], Detail: token}, nil
}

func (f *fakeVerifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.calls)
}

type fakeCapture struct {
	starts, stops int
}

func (c *fakeCapture) Start() { c.starts++ }
func (c *fakeCapture) Stop()  { c.stops++ }

type fixture struct {
	th     *Throttle
	sched  *scheduler.Manual
	ver    *fakeVerifier
	device *fakeCapture
	events []Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		sched:  scheduler.NewManual(start),
		ver:    &fakeVerifier{valid: map[string]bool{"GOOD00123456": true}},
		device: &fakeCapture{},
	}
	f.th = New(f.ver,
		WithClock(f.sched),
		WithScheduler(f.sched),
		WithCapture(f.device),
		WithListener(func(e Event) { f.events = append(f.events, e) }),
	)
	t.Cleanup(f.th.Close)

	return f
}

// submit advances past the pacing interval first so the call is forwarded.
func (f *fixture) submit(token string) Result {
	f.sched.Advance(time.Second)
	return f.th.Submit(context.Background(), token)
}

func (f *fixture) kinds() []EventKind {
	out := make([]EventKind, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Kind)
	}

	return out
}

func TestThrottle_Granted(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	res := f.th.Submit(context.Background(), "GOOD00123456")

	// Assert
	if res.Outcome != OutcomeGranted || res.Message != MessageGranted {
		t.Fatalf("result = %+v", res)
	}
	if res.Verification == nil || res.Verification.Detail != "GOOD00123456" {
		t.Fatalf("verification = %+v", res.Verification)
	}
	if res.Status.State != StateNormal || res.Status.Capturing {
		t.Fatalf("status = %+v, want normal with capture paused", res.Status)
	}
}

func TestThrottle_RateLimited(t *testing.T) {
	// Arrange
	f := newFixture(t)
	first := f.th.Submit(context.Background(), "BAD000000001")

	// Act
	f.sched.Advance(500 * time.Millisecond)
	second := f.th.Submit(context.Background(), "BAD000000002")
	f.sched.Advance(500 * time.Millisecond)
	third := f.th.Submit(context.Background(), "BAD000000003")

	// Assert
	if first.Outcome != OutcomeInvalid {
		t.Fatalf("first = %s", first.Outcome)
	}
	if second.Outcome != OutcomeRateLimited || second.RetryAfter != 500*time.Millisecond {
		t.Fatalf("second = %s retry=%s", second.Outcome, second.RetryAfter)
	}
	if second.Status.Failures != 1 {
		t.Fatalf("rate limited call changed failures: %d", second.Status.Failures)
	}
	if third.Outcome != OutcomeInvalid {
		t.Fatalf("third = %s, want forwarded after 1s", third.Outcome)
	}
	if f.ver.count() != 2 {
		t.Fatalf("verifier calls = %d, want 2", f.ver.count())
	}
}

func TestThrottle_KnownBadCountsOnce(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	first := f.submit("BAD000000001")
	again := f.submit("BAD000000001")

	// Assert
	if first.Outcome != OutcomeInvalid || again.Outcome != OutcomeKnownBad {
		t.Fatalf("outcomes = %s, %s", first.Outcome, again.Outcome)
	}
	if again.Status.Failures != 1 || again.Status.KnownBad != 1 {
		t.Fatalf("status = %+v, want one failure", again.Status)
	}
	if f.ver.count() != 1 {
		t.Fatalf("verifier calls = %d, want 1", f.ver.count())
	}
}

func TestThrottle_KnownBadDoesNotConsumePacing(t *testing.T) {
	f := newFixture(t)
	f.submit("BAD000000001")

	f.sched.Advance(time.Second)
	rejected := f.th.Submit(context.Background(), "BAD000000001")
	forwarded := f.th.Submit(context.Background(), "GOOD00123456")

	if rejected.Outcome != OutcomeKnownBad || forwarded.Outcome != OutcomeGranted {
		t.Fatalf("outcomes = %s, %s", rejected.Outcome, forwarded.Outcome)
	}
}

func TestThrottle_LocksOnFifthFailure(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	var results []Result
	for i := range 5 {
		results = append(results, f.submit(fmt.Sprintf("BAD00000000%d", i)))
	}
	blocked := f.submit("GOOD00123456")

	// Assert
	for i, r := range results[:4] {
		if r.Outcome != OutcomeInvalid || r.Status.Locked {
			t.Fatalf("attempt %d = %+v, want invalid and unlocked", i+1, r)
		}
	}
	if results[3].Status.State != StateWarning {
		t.Fatalf("4th failure state = %s, want WARNING", results[3].Status.State)
	}

	locked := results[4].Status
	if !locked.Locked || locked.State != StateLocked || locked.Capturing {
		t.Fatalf("5th failure status = %+v, want locked with capture stopped", locked)
	}
	if !locked.LockEndsAt.Equal(locked.LockStartedAt.Add(DefaultLockDuration)) {
		t.Fatalf("lock window = %v..%v", locked.LockStartedAt, locked.LockEndsAt)
	}

	if blocked.Outcome != OutcomeLocked || blocked.RetryAfter <= 0 {
		t.Fatalf("submit while locked = %+v", blocked)
	}
	if f.ver.count() != 5 {
		t.Fatalf("verifier calls = %d, want 5", f.ver.count())
	}

	want := []EventKind{EventFailure, EventFailure, EventFailure, EventWarning, EventLocked}
	if got := f.kinds(); fmt.Sprint(got[:5]) != fmt.Sprint(want) {
		t.Fatalf("events = %v, want prefix %v", got, want)
	}
}

func TestThrottle_AutoUnlock(t *testing.T) {
	// Arrange
	f := newFixture(t)
	for i := range 5 {
		f.submit(fmt.Sprintf("BAD00000000%d", i))
	}
	f.events = nil

	// Act
	f.sched.Advance(DefaultLockDuration - time.Second)
	stillLocked := f.th.Status()
	f.sched.Advance(time.Second)
	after := f.th.Status()
	res := f.submit("GOOD00123456")

	// Assert
	if !stillLocked.Locked || stillLocked.LockRemaining > 2*time.Second {
		t.Fatalf("before end = %+v", stillLocked)
	}
	if after.Locked || after.Failures != 0 || after.KnownBad != 0 || !after.Capturing {
		t.Fatalf("after end = %+v, want reset and capturing", after)
	}
	if res.Outcome != OutcomeGranted {
		t.Fatalf("valid token after auto unlock = %s", res.Outcome)
	}

	kinds := f.kinds()
	if kinds[0] != EventTick {
		t.Fatalf("first countdown event = %s", kinds[0])
	}
	if !containsKind(kinds, EventUnlocked) {
		t.Fatalf("events = %v, want an unlock", kinds)
	}
	if f.sched.Pending() != 1 {
		t.Fatalf("pending tasks = %d, want only the capture resume", f.sched.Pending())
	}
}

func TestThrottle_ManualUnlock(t *testing.T) {
	// Arrange
	f := newFixture(t)
	if f.th.Unlock() {
		t.Fatalf("Unlock on an unlocked terminal reported true")
	}
	for i := range 5 {
		f.submit(fmt.Sprintf("BAD00000000%d", i))
	}

	// Act
	ok := f.th.Unlock()
	st := f.th.Status()
	retried := f.submit("BAD000000001")

	// Assert
	if !ok || st.Locked || st.Failures != 0 || st.KnownBad != 0 || !st.Capturing {
		t.Fatalf("after unlock ok=%v status=%+v", ok, st)
	}
	if retried.Outcome != OutcomeInvalid {
		t.Fatalf("known-bad set not cleared: %s", retried.Outcome)
	}
	if f.sched.Pending() != 2 {
		t.Fatalf("pending tasks = %d, want reset and resume only", f.sched.Pending())
	}
}

func TestThrottle_FailureReset(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.submit("BAD000000001")
	f.submit("BAD000000002")

	// Act
	f.sched.Advance(DefaultFailureReset - 2*time.Second)
	before := f.th.Status().Failures
	f.sched.Advance(2 * time.Second)
	after := f.th.Status()

	// Assert
	if before != 2 {
		t.Fatalf("failures before reset = %d", before)
	}
	if after.Failures != 0 || after.KnownBad != 2 {
		t.Fatalf("after reset = %+v, want failures cleared but known-bad kept", after)
	}
}

func TestThrottle_SuccessClearsState(t *testing.T) {
	f := newFixture(t)
	f.submit("BAD000000001")
	f.submit("BAD000000002")

	res := f.submit("GOOD00123456")
	f.sched.Advance(DefaultFailureReset)

	if res.Status.Failures != 0 || res.Status.KnownBad != 0 {
		t.Fatalf("status after success = %+v", res.Status)
	}
	if containsKind(f.kinds()[3:], EventFailure) {
		t.Fatalf("reset timer fired after success: %v", f.kinds())
	}
}

func TestThrottle_VerifierErrorCountsAsFailure(t *testing.T) {
	f := newFixture(t)
	f.ver.err = errors.New("db down")

	res := f.submit("GOOD00123456")

	if res.Outcome != OutcomeInvalid || res.Err == nil || res.Verification != nil {
		t.Fatalf("result = %+v", res)
	}
	if res.Status.Failures != 1 || res.Status.KnownBad != 1 {
		t.Fatalf("status = %+v", res.Status)
	}
}

func TestThrottle_CaptureCooldown(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	res := f.submit("GOOD00123456")
	f.sched.Advance(DefaultCaptureCooldown - time.Millisecond)
	paused := f.th.Status().Capturing
	f.sched.Advance(time.Millisecond)
	resumed := f.th.Status().Capturing

	// Assert
	if res.Status.Capturing || paused {
		t.Fatalf("capture running during cooldown")
	}
	if !resumed || f.device.stops != 1 || f.device.starts != 1 {
		t.Fatalf("resumed=%v starts=%d stops=%d", resumed, f.device.starts, f.device.stops)
	}
}

func TestThrottle_LockCancelsCaptureResume(t *testing.T) {
	f := newFixture(t)
	for i := range 5 {
		f.submit(fmt.Sprintf("BAD00000000%d", i))
	}

	f.sched.Advance(DefaultCaptureCooldown * 2)

	if f.th.Status().Capturing {
		t.Fatalf("capture resumed during lock")
	}
}

func TestThrottle_Restore(t *testing.T) {
	tests := []struct {
		name       string
		endsIn     time.Duration
		wantLocked bool
	}{
		{name: "lock still running", endsIn: 2 * time.Minute, wantLocked: true},
		{name: "lock already over", endsIn: -time.Second, wantLocked: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			f := newFixture(t)

			// Act
			ok := f.th.Restore(start.Add(tt.endsIn))
			st := f.th.Status()

			// Assert
			if ok != tt.wantLocked || st.Locked != tt.wantLocked {
				t.Fatalf("Restore=%v locked=%v, want %v", ok, st.Locked, tt.wantLocked)
			}
			if tt.wantLocked {
				if st.LockRemaining != tt.endsIn {
					t.Fatalf("remaining = %s", st.LockRemaining)
				}
				f.sched.Advance(tt.endsIn)
				if f.th.Status().Locked {
					t.Fatalf("restored lock did not lift")
				}
			}
		})
	}
}

func TestThrottle_Close(t *testing.T) {
	f := newFixture(t)
	for i := range 5 {
		f.submit(fmt.Sprintf("BAD00000000%d", i))
	}

	f.th.Close()
	res := f.submit("GOOD00123456")

	if f.sched.Pending() != 0 {
		t.Fatalf("pending tasks after Close = %d", f.sched.Pending())
	}
	if res.Outcome != OutcomeLocked || res.Message != MessageClosed {
		t.Fatalf("submit after Close = %+v", res)
	}
}

func TestThrottle_SubmitsAreSerialized(t *testing.T) {
	// Arrange
	f := newFixture(t)
	entered := make(chan struct{})
	release := make(chan struct{})
	f.ver.during = func() {
		select {
		case entered <- struct{}{}:
			<-release
		default:
		}
	}

	// Act
	done := make(chan Result)
	go func() { done <- f.th.Submit(context.Background(), "GOOD00123456") }()
	<-entered

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	blocked := f.th.Submit(ctx, "GOOD00123456")
	close(release)
	first := <-done

	// Assert
	if blocked.Outcome != OutcomeRateLimited || !errors.Is(blocked.Err, context.Canceled) {
		t.Fatalf("concurrent submit = %+v", blocked)
	}
	if first.Outcome != OutcomeGranted || f.ver.count() != 1 {
		t.Fatalf("first = %s, calls = %d", first.Outcome, f.ver.count())
	}
}

func TestConfig_WithDefaults(t *testing.T) {
	cfg := Config{MaxFailures: 3}.withDefaults()

	if cfg.MaxFailures != 3 || cfg.MinInterval != DefaultMinInterval || cfg.LockDuration != DefaultLockDuration {
		t.Fatalf("config = %+v", cfg)
	}
}

func TestRemainingSeconds(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want int
	}{
		{0, 0},
		{-time.Second, 0},
		{1500 * time.Millisecond, 2},
		{5 * time.Minute, 300},
	}

	for _, tt := range tests {
		if got := RemainingSeconds(tt.in); got != tt.want {
			t.Fatalf("RemainingSeconds(%s) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func containsKind(kinds []EventKind, k EventKind) bool {
	for _, got := range kinds {
		if got == k {
			return true
		}
	}

	return false
}
