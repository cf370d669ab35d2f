// Package clock lets time-dependent code (session expiry, lockout windows,
// the idle watcher and the session sweeper) run against a deterministic
// clock in tests.
//
// Production code receives Real(); tests construct Fake(start) and move time
// with Advance. Code under test must never call time.Now, time.AfterFunc or
// time.NewTicker directly.
package clock

import "time"

// Clock is the subset of the time package used by rosterkeeper.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc calls f once d has elapsed. The returned Timer can cancel
	// the pending call.
	AfterFunc(d time.Duration, f func()) *Timer

	// NewTicker delivers ticks on C every d. Panics if d <= 0.
	NewTicker(d time.Duration) *Ticker
}

// Timer is a cancellable one-shot callback.
type Timer struct {
	stop func() bool
}

// Stop prevents the callback from running. It reports whether the call
// stopped the timer; false means it already fired or was stopped before.
func (t *Timer) Stop() bool { return t.stop() }

// Ticker delivers periodic ticks on C. C is buffered with capacity 1 and
// late ticks are dropped.
type Ticker struct {
	C    <-chan time.Time
	stop func()
}

// Stop turns the ticker off. C is not closed.
func (t *Ticker) Stop() { t.stop() }

// Real returns a Clock backed by the time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) *Timer {
	t := time.AfterFunc(d, f)
	return &Timer{stop: t.Stop}
}

func (realClock) NewTicker(d time.Duration) *Ticker {
	t := time.NewTicker(d)
	return &Ticker{C: t.C, stop: t.Stop}
}
