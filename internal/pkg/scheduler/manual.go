package scheduler

import (
	"sort"
	"sync"
	"time"
)

// Manual is a deterministic Scheduler and clock for tests.
//
// Time only moves when Advance is called. Due tasks fire in deadline order,
// in the goroutine calling Advance, with the internal lock released so a task
// may stop itself or schedule new tasks.
type Manual struct {
	mu    sync.Mutex
	now   time.Time
	seq   uint64
	tasks []*manualTask
}

type manualTask struct {
	m       *Manual
	at      time.Time
	every   time.Duration
	seq     uint64
	f       func()
	stopped bool
}

// NewManual returns a Manual scheduler whose clock starts at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the manual clock's current time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.now
}

// AfterFunc schedules f at Now()+d.
func (m *Manual) AfterFunc(d time.Duration, f func()) Task {
	return m.add(d, 0, f)
}

// Every schedules f at Now()+d and every d after that.
func (m *Manual) Every(d time.Duration, f func()) Task {
	if d <= 0 {
		d = time.Nanosecond
	}

	return m.add(d, d, f)
}

func (m *Manual) add(d, every time.Duration, f func()) *manualTask {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	t := &manualTask{m: m, at: m.now.Add(d), every: every, seq: m.seq, f: f}
	m.tasks = append(m.tasks, t)

	return t
}

// Advance moves the clock forward by d and fires every task that becomes due.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		next := m.nextDue(target)
		if next == nil {
			m.now = target
			m.mu.Unlock()
			return
		}

		m.now = next.at
		if next.every > 0 {
			next.at = next.at.Add(next.every)
		} else {
			next.stopped = true
		}
		f := next.f
		m.mu.Unlock()

		f()
	}
}

// Pending returns the number of tasks still armed.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, t := range m.tasks {
		if !t.stopped {
			n++
		}
	}

	return n
}

// nextDue must be called with m.mu held.
func (m *Manual) nextDue(target time.Time) *manualTask {
	live := m.tasks[:0]
	for _, t := range m.tasks {
		if !t.stopped {
			live = append(live, t)
		}
	}
	m.tasks = live

	sort.SliceStable(m.tasks, func(i, j int) bool {
		if m.tasks[i].at.Equal(m.tasks[j].at) {
			return m.tasks[i].seq < m.tasks[j].seq
		}
		return m.tasks[i].at.Before(m.tasks[j].at)
	})

	if len(m.tasks) == 0 || m.tasks[0].at.After(target) {
		return nil
	}

	return m.tasks[0]
}

func (t *manualTask) Stop() bool {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()

	if t.stopped {
		return false
	}
	t.stopped = true

	return true
}
