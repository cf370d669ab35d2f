package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrijs2005/rosterkeeper/internal/clock"
)

func TestIdleWatcher_InertUntilStarted(t *testing.T) {
	clk := clock.Fake(time.Unix(0, 0))
	fired := 0
	w := NewIdleWatcher(clk, time.Minute, func() { fired++ })

	assert.False(t, w.Signal(SignalScroll))
	clk.Advance(time.Hour)
	assert.Zero(t, fired)
	assert.Zero(t, clk.Pending())
}

func TestIdleWatcher_SignalsResetCountdown(t *testing.T) {
	clk := clock.Fake(time.Unix(0, 0))
	fired := 0
	w := NewIdleWatcher(clk, time.Minute, func() { fired++ })
	w.Start()

	for _, s := range Signals() {
		clk.Advance(50 * time.Second)
		assert.True(t, w.Signal(s), s)
		assert.Equal(t, 1, clk.Pending())
	}
	assert.Zero(t, fired)

	clk.Advance(time.Minute)
	assert.Equal(t, 1, fired)
	assert.False(t, w.Active())

	clk.Advance(time.Hour)
	assert.Equal(t, 1, fired)
}

func TestIdleWatcher_UnknownSignalIgnored(t *testing.T) {
	clk := clock.Fake(time.Unix(0, 0))
	fired := 0
	w := NewIdleWatcher(clk, time.Minute, func() { fired++ })
	w.Start()

	clk.Advance(50 * time.Second)
	assert.False(t, w.Signal(Signal("resize")))
	clk.Advance(10 * time.Second)
	assert.Equal(t, 1, fired)
}

func TestIdleWatcher_RestartGivesFreshTimer(t *testing.T) {
	clk := clock.Fake(time.Unix(0, 0))
	fired := 0
	w := NewIdleWatcher(clk, time.Minute, func() { fired++ })

	w.Start()
	clk.Advance(40 * time.Second)
	w.Stop()
	w.Start()
	assert.Equal(t, 1, clk.Pending())

	clk.Advance(40 * time.Second)
	assert.Zero(t, fired)
	clk.Advance(20 * time.Second)
	assert.Equal(t, 1, fired)
}

func TestIdleWatcher_DefaultTimeout(t *testing.T) {
	w := NewIdleWatcher(clock.Real(), 0, func() {})
	assert.Equal(t, DefaultIdleTimeout, w.Timeout())
}
