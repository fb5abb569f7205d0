// Package goroutine runs background work with a concurrency limit and panic
// recovery, and lets shutdown wait for it.
package goroutine

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/shandysiswandi/gatepass/internal/pkg/stacktrace"
)

// DefaultMaxGoroutine is multiplied by NumCPU when NewManager gets a
// non-positive limit.
const DefaultMaxGoroutine int = 100

// Manager runs functions in goroutines with a configurable concurrency limit.
//
// Errors returned by tasks are collected and reported by Wait. Once Wait has
// been called no new task is accepted.
type Manager struct {
	mu     sync.Mutex
	errs   []error
	wg     sync.WaitGroup
	sema   chan struct{}
	state  sync.RWMutex
	closed bool
}

// NewManager creates a new Manager with the provided maximum concurrency.
func NewManager(maxGoroutine int) *Manager {
	if maxGoroutine < 1 {
		maxGoroutine = runtime.NumCPU() * DefaultMaxGoroutine
	}

	return &Manager{sema: make(chan struct{}, maxGoroutine)}
}

// Go schedules f and reports whether it was accepted. f is skipped when the
// manager is closed, at capacity, or ctx is already done.
//
// Callers detaching work from a request should pass context.WithoutCancel.
func (g *Manager) Go(ctx context.Context, f func(ctx context.Context) error) bool {
	if g == nil {
		return false
	}

	g.state.RLock()
	defer g.state.RUnlock()

	if g.closed {
		slog.WarnContext(ctx, "goroutine manager is closed, skipping task")
		return false
	}

	select {
	case g.sema <- struct{}{}:
	default:
		slog.WarnContext(ctx, "goroutine limit reached, skipping task", "limit", cap(g.sema))
		return false
	}

	g.wg.Go(func() {
		defer func() { <-g.sema }()
		defer recoverTask(ctx)

		if err := ctx.Err(); err != nil {
			slog.WarnContext(ctx, "goroutine canceled before start", "because", err)
			return
		}

		if err := f(ctx); err != nil {
			g.mu.Lock()
			g.errs = append(g.errs, err)
			g.mu.Unlock()
		}
	})

	return true
}

func recoverTask(ctx context.Context) {
	rvr := recover()
	if rvr == nil {
		return
	}

	stack := debug.Stack()
	if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
		slog.ErrorContext(ctx, "panic occurred in goroutine", "panic", rvr, "stack", paths)
		return
	}
	slog.ErrorContext(ctx, "panic occurred in goroutine", "panic", rvr, "stack", string(stack))
}

// Wait closes the manager, blocks until all scheduled goroutines finish and
// returns the collected errors.
func (g *Manager) Wait() error {
	if g == nil {
		return nil
	}

	g.state.Lock()
	g.closed = true
	g.state.Unlock()

	g.wg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()

	return errors.Join(g.errs...)
}
