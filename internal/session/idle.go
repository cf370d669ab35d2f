package session

import (
	"sync"
	"time"

	"github.com/dmitrijs2005/rosterkeeper/internal/clock"
)

// DefaultIdleTimeout applies when NewIdleWatcher gets a non-positive timeout.
const DefaultIdleTimeout = 30 * time.Minute

// Signal is a kind of user interaction that counts as activity.
type Signal string

const (
	SignalPointerDown Signal = "pointer-down"
	SignalKeyDown     Signal = "key-down"
	SignalScroll      Signal = "scroll"
	SignalTouchStart  Signal = "touch-start"
	SignalPointerMove Signal = "pointer-move"
)

// Signals returns every recognised activity signal.
func Signals() []Signal {
	return []Signal{SignalPointerDown, SignalKeyDown, SignalScroll, SignalTouchStart, SignalPointerMove}
}

func (s Signal) Valid() bool {
	switch s {
	case SignalPointerDown, SignalKeyDown, SignalScroll, SignalTouchStart, SignalPointerMove:
		return true
	}
	return false
}

// IdleWatcher calls onIdle once no Signal has arrived for the timeout.
// It does nothing until Start and after Stop. Every Start, Signal and Stop
// cancels the pending timer first, so at most one is ever scheduled.
type IdleWatcher struct {
	mu      sync.Mutex
	clock   clock.Clock
	timeout time.Duration
	onIdle  func()

	active bool
	timer  *clock.Timer
	// gen tells a timer that already fired apart from the current one.
	gen uint64
}

func NewIdleWatcher(clk clock.Clock, timeout time.Duration, onIdle func()) *IdleWatcher {
	if timeout <= 0 {
		timeout = DefaultIdleTimeout
	}
	return &IdleWatcher{clock: clk, timeout: timeout, onIdle: onIdle}
}

func (w *IdleWatcher) Timeout() time.Duration {
	return w.timeout
}

// Start arms a fresh countdown.
func (w *IdleWatcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.active = true
	w.rearm()
}

// Stop cancels the countdown and makes the watcher inert.
func (w *IdleWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.active = false
	w.cancel()
}

// Signal restarts the countdown. It reports false, and changes nothing,
// when the watcher is inert or s is not an activity signal.
func (w *IdleWatcher) Signal(s Signal) bool {
	if !s.Valid() {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.active {
		return false
	}
	w.rearm()
	return true
}

func (w *IdleWatcher) Active() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.active
}

func (w *IdleWatcher) rearm() {
	w.cancel()
	w.gen++
	gen := w.gen
	w.timer = w.clock.AfterFunc(w.timeout, func() { w.fire(gen) })
}

func (w *IdleWatcher) cancel() {
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.gen++
}

func (w *IdleWatcher) fire(gen uint64) {
	w.mu.Lock()
	if !w.active || gen != w.gen {
		w.mu.Unlock()
		return
	}
	w.active = false
	w.timer = nil
	w.mu.Unlock()

	w.onIdle()
}
