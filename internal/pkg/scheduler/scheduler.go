// Package scheduler runs cancellable one-shot and periodic tasks.
//
// Components that need timers (failure reset windows, lockdown countdowns,
// capture cooldowns) take a Scheduler instead of calling time.AfterFunc, so
// tests can drive them with Manual and never wait on the wall clock.
package scheduler

import (
	"sync"
	"time"
)

// Task is a handle to a scheduled function.
type Task interface {
	// Stop cancels the task. It reports whether the call stopped a task that
	// was still pending. Stopping an already stopped task is a no-op.
	Stop() bool
}

// Scheduler arms tasks against some notion of time.
type Scheduler interface {
	// AfterFunc runs f once after d.
	AfterFunc(d time.Duration, f func()) Task
	// Every runs f every d until the task is stopped.
	Every(d time.Duration, f func()) Task
}

// Real is the production Scheduler backed by the runtime timers.
type Real struct{}

// New returns a Real scheduler.
func New() *Real {
	return &Real{}
}

// AfterFunc runs f once after d on its own goroutine.
func (*Real) AfterFunc(d time.Duration, f func()) Task {
	return &timerTask{t: time.AfterFunc(d, f)}
}

// Every runs f every d on a dedicated goroutine until stopped.
func (*Real) Every(d time.Duration, f func()) Task {
	t := &tickerTask{
		ticker: time.NewTicker(d),
		done:   make(chan struct{}),
	}

	go func() {
		for {
			select {
			case <-t.done:
				return
			case <-t.ticker.C:
				// the stop may have raced with this tick
				select {
				case <-t.done:
					return
				default:
				}
				f()
			}
		}
	}()

	return t
}

type timerTask struct {
	t *time.Timer
}

func (t *timerTask) Stop() bool {
	return t.t.Stop()
}

type tickerTask struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func (t *tickerTask) Stop() bool {
	stopped := false
	t.once.Do(func() {
		t.ticker.Stop()
		close(t.done)
		stopped = true
	})

	return stopped
}
