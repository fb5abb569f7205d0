package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/gatepass/internal/pkg/config"
	"github.com/shandysiswandi/gatepass/internal/pkg/goerror"
	"github.com/shandysiswandi/gatepass/internal/pkg/goroutine"
	"github.com/shandysiswandi/gatepass/internal/pkg/instrument"
	"github.com/shandysiswandi/gatepass/internal/pkg/scheduler"
	"github.com/shandysiswandi/gatepass/internal/pkg/validator"
	"github.com/shandysiswandi/gatepass/internal/terminal/entity"
	"github.com/shandysiswandi/gatepass/internal/terminal/throttle"
)

var start = time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

const testConfig = `
terminal:
  keys: "front:k-front,back:k-back"
  throttle:
    min_interval: 1000
    max_failures: 3
    lock_duration: 60
    failure_reset: 30
    capture_cooldown: 3000
`

type fakeVerifier struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeVerifier) Verify(_ context.Context, terminalID, token string) (entity.Verdict, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, terminalID+":"+token)
	if f.err != nil {
		return entity.Verdict{}, f.err
	}
	if token == "GOOD00123456" {
		return entity.Verdict{Success: true, HolderID: "cred-1", HolderName: "Ada", DoorTriggered: true}, nil
	}

	return entity.Verdict{Reason: "NO_MATCH"}, nil
}

type fakeLocks struct {
	mu      sync.Mutex
	locks   map[string]time.Time
	saved   int
	deleted int
	getErr  error
}

func (f *fakeLocks) SaveLock(_ context.Context, l entity.LockState) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.saved++
	f.locks[l.TerminalID] = l.EndsAt

	return nil
}

func (f *fakeLocks) GetLock(_ context.Context, id string) (*entity.LockState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getErr != nil {
		return nil, f.getErr
	}
	endsAt, ok := f.locks[id]
	if !ok {
		return nil, nil
	}

	return &entity.LockState{TerminalID: id, EndsAt: endsAt}, nil
}

func (f *fakeLocks) DeleteLock(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.deleted++
	delete(f.locks, id)

	return nil
}

func (f *fakeLocks) counts() (saved, deleted int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.saved, f.deleted
}

// waitFor polls cond until it holds or a second passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

type fixture struct {
	uc      *Usecase
	sched   *scheduler.Manual
	ver     *fakeVerifier
	locks   *fakeLocks
	routine *goroutine.Manager
}

func newFixture(t *testing.T, yaml string) *fixture {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
	if err != nil {
		t.Fatalf("config error: %v", err)
	}
	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("validator error: %v", err)
	}

	f := &fixture{
		sched:   scheduler.NewManual(start),
		ver:     &fakeVerifier{},
		locks:   &fakeLocks{locks: map[string]time.Time{}},
		routine: goroutine.NewManager(8),
	}
	f.uc = New(Dependency{
		RepoVerifier: f.ver,
		RepoLock:     f.locks,
		Config:       cfg,
		Clock:        f.sched,
		Scheduler:    f.sched,
		Validator:    v,
		Goroutine:    f.routine,
		Instrument:   instrument.NewNoop(),
	})
	t.Cleanup(func() { _ = f.uc.Close() })

	return f
}

func (f *fixture) scan(t *testing.T, id, key, token string) *ScanOutput {
	t.Helper()

	f.sched.Advance(time.Second)
	out, err := f.uc.Scan(context.Background(), ScanInput{TerminalID: id, Key: key, Token: token})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}

	return out
}

func TestUsecase_Scan(t *testing.T) {
	tests := []struct {
		name      string
		id, key   string
		token     string
		wantErr   bool
		wantCode  goerror.Code
		wantOut   string
		wantCalls int
	}{
		{name: "granted", id: "front", key: "k-front", token: "GOOD00123456", wantOut: string(throttle.OutcomeGranted), wantCalls: 1},
		{name: "invalid", id: "front", key: "k-front", token: "BAD000123456", wantOut: string(throttle.OutcomeInvalid), wantCalls: 1},
		{name: "wrong key", id: "front", key: "k-back", token: "GOOD00123456", wantErr: true, wantCode: goerror.CodeUnauthorized},
		{name: "unknown terminal", id: "side", key: "k-front", token: "GOOD00123456", wantErr: true, wantCode: goerror.CodeUnauthorized},
		{name: "oversized token counts as a failure", id: "front", key: "k-front", token: strings.Repeat("9", 300), wantOut: string(throttle.OutcomeInvalid), wantCalls: 1},
		{name: "empty token", id: "front", key: "k-front", token: "", wantErr: true, wantCode: goerror.CodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			f := newFixture(t, testConfig)
			f.sched.Advance(time.Second)

			// Act
			out, err := f.uc.Scan(context.Background(), ScanInput{TerminalID: tt.id, Key: tt.key, Token: tt.token})

			// Assert
			if tt.wantErr {
				if !goerror.IsCode(err, tt.wantCode) {
					t.Fatalf("err = %v, want code %v", err, tt.wantCode)
				}
				if len(f.ver.calls) != 0 {
					t.Fatalf("verifier called %v", f.ver.calls)
				}
				return
			}
			if err != nil {
				t.Fatalf("Scan error: %v", err)
			}
			if out.Outcome != tt.wantOut || len(f.ver.calls) != tt.wantCalls {
				t.Fatalf("outcome = %q calls = %v", out.Outcome, f.ver.calls)
			}
			if out.Verdict == nil {
				t.Fatalf("verdict missing for a forwarded scan")
			}
		})
	}
}

func TestUsecase_Scan_GrantedVerdict(t *testing.T) {
	f := newFixture(t, testConfig)

	out := f.scan(t, "front", "k-front", "GOOD00123456")

	if out.Verdict.HolderName != "Ada" || !out.Verdict.DoorTriggered {
		t.Fatalf("verdict = %+v", out.Verdict)
	}
	if f.ver.calls[0] != "front:GOOD00123456" {
		t.Fatalf("verifier call = %q", f.ver.calls[0])
	}
}

func TestUsecase_Scan_DuplicateIgnored(t *testing.T) {
	// Arrange
	f := newFixture(t, testConfig)
	f.scan(t, "front", "k-front", "BAD000123456")

	// Act
	dup := f.scan(t, "front", "k-front", "BAD000123456")
	f.sched.Advance(3 * time.Second)
	again := f.scan(t, "front", "k-front", "BAD000123456")

	// Assert
	if dup.Outcome != entity.OutcomeIgnored || dup.Verdict != nil {
		t.Fatalf("duplicate = %+v", dup)
	}
	if again.Outcome != string(throttle.OutcomeKnownBad) {
		t.Fatalf("after cooldown outcome = %q", again.Outcome)
	}
	if len(f.ver.calls) != 1 {
		t.Fatalf("verifier calls = %v", f.ver.calls)
	}
}

func TestUsecase_Scan_RateLimited(t *testing.T) {
	f := newFixture(t, testConfig)
	f.scan(t, "front", "k-front", "BAD000000001")

	out, err := f.uc.Scan(context.Background(), ScanInput{TerminalID: "front", Key: "k-front", Token: "BAD000000002"})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}

	if out.Outcome != string(throttle.OutcomeRateLimited) || out.RetryAfterSeconds != 1 {
		t.Fatalf("out = %+v", out)
	}
}

func TestUsecase_LockIsPersistedAndIsolated(t *testing.T) {
	// Arrange
	f := newFixture(t, testConfig)

	// Act
	var last *ScanOutput
	for _, tok := range []string{"BAD000000001", "BAD000000002", "BAD000000003"} {
		last = f.scan(t, "front", "k-front", tok)
	}
	back := f.scan(t, "back", "k-back", "GOOD00123456")
	if err := f.routine.Wait(); err != nil {
		t.Fatalf("Wait error: %v", err)
	}

	// Assert
	if !last.Status.Locked || last.Status.LockRemainingSeconds != 60 || last.Status.LockEndsAt == nil {
		t.Fatalf("status after lock = %+v", last.Status)
	}
	if back.Outcome != string(throttle.OutcomeGranted) {
		t.Fatalf("other terminal outcome = %q", back.Outcome)
	}
	endsAt, ok := f.locks.locks["front"]
	if !ok || !endsAt.Equal(*last.Status.LockEndsAt) {
		t.Fatalf("persisted locks = %v", f.locks.locks)
	}
}

func TestUsecase_RestoresPersistedLock(t *testing.T) {
	// Arrange
	f := newFixture(t, testConfig)
	f.locks.locks["front"] = start.Add(40 * time.Second)

	// Act
	st, err := f.uc.Status(context.Background(), TerminalAuthInput{ID: "front", Key: "k-front"})

	// Assert
	if err != nil {
		t.Fatalf("Status error: %v", err)
	}
	if !st.Locked || st.State != throttle.StateLocked || st.LockRemainingSeconds != 40 {
		t.Fatalf("status = %+v", st)
	}
	out := f.scan(t, "front", "k-front", "GOOD00123456")
	if out.Outcome != string(throttle.OutcomeLocked) || len(f.ver.calls) != 0 {
		t.Fatalf("scan while restored lock = %+v calls=%v", out, f.ver.calls)
	}
}

func TestUsecase_RestoreFailureStartsUnlocked(t *testing.T) {
	f := newFixture(t, testConfig)
	f.locks.getErr = errors.New("redis down")

	st, err := f.uc.Status(context.Background(), TerminalAuthInput{ID: "front", Key: "k-front"})

	if err != nil || st.Locked {
		t.Fatalf("status = %+v err = %v", st, err)
	}
}

func TestUsecase_Unlock(t *testing.T) {
	t.Run("lifts a lock", func(t *testing.T) {
		// Arrange
		f := newFixture(t, testConfig)
		for _, tok := range []string{"BAD000000001", "BAD000000002", "BAD000000003"} {
			f.scan(t, "front", "k-front", tok)
		}
		waitFor(t, "lock to be persisted", func() bool {
			saved, _ := f.locks.counts()
			return saved == 1
		})

		// Act
		st, err := f.uc.Unlock(context.Background(), TerminalIDInput{ID: "front"})
		if err != nil {
			t.Fatalf("Unlock error: %v", err)
		}
		if err := f.routine.Wait(); err != nil {
			t.Fatalf("Wait error: %v", err)
		}

		// Assert
		if st.Locked || st.Failures != 0 || st.State != throttle.StateNormal {
			t.Fatalf("status = %+v", st)
		}
		saved, deleted := f.locks.counts()
		if _, ok := f.locks.locks["front"]; ok || saved != 1 || deleted != 1 {
			t.Fatalf("lock still persisted: %v saved=%d deleted=%d", f.locks.locks, saved, deleted)
		}
	})

	t.Run("lifts a persisted lock without a live session", func(t *testing.T) {
		f := newFixture(t, testConfig)
		f.locks.locks["back"] = start.Add(time.Minute)

		st, err := f.uc.Unlock(context.Background(), TerminalIDInput{ID: "back"})
		if err != nil {
			t.Fatalf("Unlock error: %v", err)
		}
		_ = f.routine.Wait()

		if st.Locked {
			t.Fatalf("status = %+v", st)
		}
		if _, ok := f.locks.locks["back"]; ok {
			t.Fatalf("persisted lock kept")
		}
	})

	t.Run("unknown terminal", func(t *testing.T) {
		f := newFixture(t, testConfig)

		_, err := f.uc.Unlock(context.Background(), TerminalIDInput{ID: "side"})

		if !goerror.IsCode(err, goerror.CodeNotFound) {
			t.Fatalf("err = %v, want not found", err)
		}
	})
}

func TestUsecase_Stream(t *testing.T) {
	// Arrange
	f := newFixture(t, testConfig)
	ctx, cancel := context.WithCancel(context.Background())
	events, err := f.uc.Stream(ctx, TerminalAuthInput{ID: "front", Key: "k-front"})
	if err != nil {
		t.Fatalf("Stream error: %v", err)
	}

	// Act
	f.scan(t, "front", "k-front", "BAD000000001")
	cancel()

	// Assert
	var kinds []string
	timeout := time.After(time.Second)
	for done := false; !done; {
		select {
		case evt, ok := <-events:
			if !ok {
				done = true
				break
			}
			kinds = append(kinds, evt.Kind)
		case <-timeout:
			t.Fatalf("stream not closed after cancel, got %v", kinds)
		}
	}
	if len(kinds) < 2 || kinds[0] != "status" || kinds[1] != string(throttle.EventFailure) {
		t.Fatalf("events = %v", kinds)
	}
}

func TestUsecase_StreamWrongKey(t *testing.T) {
	f := newFixture(t, testConfig)

	_, err := f.uc.Stream(context.Background(), TerminalAuthInput{ID: "front", Key: "nope"})

	if !goerror.IsCode(err, goerror.CodeUnauthorized) {
		t.Fatalf("err = %v, want unauthorized", err)
	}
}

func TestUsecase_Close(t *testing.T) {
	// Arrange
	f := newFixture(t, testConfig)
	events, err := f.uc.Stream(context.Background(), TerminalAuthInput{ID: "front", Key: "k-front"})
	if err != nil {
		t.Fatalf("Stream error: %v", err)
	}
	<-events

	// Act
	if err := f.uc.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	_, scanErr := f.uc.Scan(context.Background(), ScanInput{TerminalID: "front", Key: "k-front", Token: "GOOD00123456"})

	// Assert
	if _, ok := <-events; ok {
		t.Fatalf("stream still open after Close")
	}
	if !goerror.IsCode(scanErr, goerror.CodeUnavailable) {
		t.Fatalf("scan after close err = %v", scanErr)
	}
}

func TestNew_MalformedKeys(t *testing.T) {
	f := newFixture(t, "terminal:\n  keys: \"front\"\n")

	_, err := f.uc.Status(context.Background(), TerminalAuthInput{ID: "front", Key: ""})

	if !goerror.IsCode(err, goerror.CodeUnauthorized) {
		t.Fatalf("err = %v, want unauthorized", err)
	}
}
