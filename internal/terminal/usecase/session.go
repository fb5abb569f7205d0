package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/shandysiswandi/gatepass/internal/terminal/entity"
	"github.com/shandysiswandi/gatepass/internal/terminal/throttle"
)

const streamBuffer = 16

// StreamEvent is one status change pushed to terminal displays.
type StreamEvent struct {
	Kind   string
	Status StatusOutput
}

// session is the state of a single terminal.
type session struct {
	id       string
	throttle *throttle.Throttle
	cooldown time.Duration

	persistMu sync.Mutex

	mu        sync.Mutex
	lastToken string
	lastAt    time.Time
	subs      map[*subscriber]struct{}
}

type subscriber struct {
	ch chan StreamEvent
}

func newSession(id string, uc *Usecase) *session {
	sess := &session{id: id, subs: make(map[*subscriber]struct{})}

	verify := throttle.VerifierFunc(func(ctx context.Context, token string) (throttle.Verification, error) {
		v, err := uc.repoVerifier.Verify(ctx, id, token)
		if err != nil {
			return throttle.Verification{}, err
		}

		return throttle.Verification{Success: v.Success, Reason: v.Reason, Detail: v}, nil
	})

	sess.throttle = throttle.New(verify,
		throttle.WithClock(uc.clock),
		throttle.WithScheduler(uc.sched),
		throttle.WithConfig(uc.throttleCfg),
		throttle.WithListener(func(evt throttle.Event) {
			switch evt.Kind {
			case throttle.EventLocked, throttle.EventUnlocked:
				uc.persist(sess)
			}
			sess.broadcast(StreamEvent{Kind: string(evt.Kind), Status: toStatusOutput(id, evt.Status)})
		}),
	)
	sess.cooldown = uc.throttleCfg.CaptureCooldown
	if sess.cooldown <= 0 {
		sess.cooldown = throttle.DefaultCaptureCooldown
	}

	return sess
}

// duplicate reports whether token repeats the previous scan inside the
// capture cooldown. Only scans that are not duplicates move the marker.
func (s *session) duplicate(token string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token == s.lastToken && now.Sub(s.lastAt) < s.cooldown {
		return true
	}
	s.lastToken, s.lastAt = token, now

	return false
}

// subscribe registers a display. The first event is the current status.
func (s *session) subscribe(ctx context.Context) <-chan StreamEvent {
	sub := &subscriber{ch: make(chan StreamEvent, streamBuffer)}
	sub.ch <- StreamEvent{Kind: "status", Status: toStatusOutput(s.id, s.throttle.Status())}

	s.mu.Lock()
	s.subs[sub] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.unsubscribe(sub)
	}()

	return sub.ch
}

func (s *session) unsubscribe(sub *subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subs[sub]; ok {
		delete(s.subs, sub)
		close(sub.ch)
	}
}

// broadcast never blocks; a slow display misses events, not the terminal.
func (s *session) broadcast(evt StreamEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for sub := range s.subs {
		select {
		case sub.ch <- evt:
		default:
		}
	}
}

func (s *session) close() {
	s.throttle.Close()

	s.mu.Lock()
	defer s.mu.Unlock()

	for sub := range s.subs {
		delete(s.subs, sub)
		close(sub.ch)
	}
}

func verdictOf(res throttle.Result) *entity.Verdict {
	if res.Verification == nil {
		return nil
	}

	v, ok := res.Verification.Detail.(entity.Verdict)
	if !ok {
		return nil
	}

	return &v
}
