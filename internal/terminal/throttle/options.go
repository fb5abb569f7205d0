package throttle

import (
	"time"

	"github.com/shandysiswandi/gatepass/internal/pkg/clock"
	"github.com/shandysiswandi/gatepass/internal/pkg/scheduler"
)

const (
	DefaultMinInterval     = time.Second
	DefaultMaxFailures     = 5
	DefaultLockDuration    = 5 * time.Minute
	DefaultFailureReset    = time.Minute
	DefaultCaptureCooldown = 3 * time.Second

	tickInterval = time.Second
)

// Config holds the throttle limits. Zero fields fall back to the defaults.
type Config struct {
	// MinInterval is the minimum gap between two forwarded verifications.
	MinInterval time.Duration
	// MaxFailures consecutive failures lock the terminal.
	MaxFailures int
	// LockDuration is how long a lock lasts before it lifts on its own.
	LockDuration time.Duration
	// FailureReset zeroes the failure count when no failure follows in time.
	FailureReset time.Duration
	// CaptureCooldown is the pause after a scan before capture resumes.
	CaptureCooldown time.Duration
}

func DefaultConfig() Config {
	return Config{
		MinInterval:     DefaultMinInterval,
		MaxFailures:     DefaultMaxFailures,
		LockDuration:    DefaultLockDuration,
		FailureReset:    DefaultFailureReset,
		CaptureCooldown: DefaultCaptureCooldown,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MinInterval <= 0 {
		c.MinInterval = d.MinInterval
	}
	if c.MaxFailures <= 0 {
		c.MaxFailures = d.MaxFailures
	}
	if c.LockDuration <= 0 {
		c.LockDuration = d.LockDuration
	}
	if c.FailureReset <= 0 {
		c.FailureReset = d.FailureReset
	}
	if c.CaptureCooldown <= 0 {
		c.CaptureCooldown = d.CaptureCooldown
	}

	return c
}

type Option func(*Throttle)

func WithClock(c clock.Clocker) Option {
	return func(t *Throttle) {
		if c != nil {
			t.clock = c
		}
	}
}

func WithScheduler(s scheduler.Scheduler) Option {
	return func(t *Throttle) {
		if s != nil {
			t.sched = s
		}
	}
}

func WithConfig(cfg Config) Option {
	return func(t *Throttle) {
		t.cfg = cfg.withDefaults()
	}
}

// WithListener adds a listener for state changes. Listeners run on the
// goroutine that caused the change and must not block.
func WithListener(l Listener) Option {
	return func(t *Throttle) {
		if l != nil {
			t.listeners = append(t.listeners, l)
		}
	}
}

// WithCapture attaches the scanner device that is paused while a scan is
// processed and during a lock.
func WithCapture(c Capture) Option {
	return func(t *Throttle) {
		if c != nil {
			t.capture = c
		}
	}
}
