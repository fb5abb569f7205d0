// Package clock provides a tiny time abstraction.
//
// Code that makes decisions based on the current time (token windows, lockout
// deadlines, expiry checks) depends on Clocker so tests can pin the time.
package clock

import "time"

// Clocker abstracts time so callers can replace real time in tests.
type Clocker interface {
	Now() time.Time
}

// TimeClocker is the production clock implementation backed by time.Now.
type TimeClocker struct{}

// New returns a TimeClocker that reads the current system time.
func New() *TimeClocker {
	return &TimeClocker{}
}

// Now returns the current system time.
func (*TimeClocker) Now() time.Time {
	return time.Now()
}

// Fixed is a Clocker that always reports the same instant.
type Fixed time.Time

// Now returns the pinned instant.
func (f Fixed) Now() time.Time {
	return time.Time(f)
}

// Unix returns a Fixed clock pinned to the given unix seconds in UTC.
func Unix(sec int64) Fixed {
	return Fixed(time.Unix(sec, 0).UTC())
}
