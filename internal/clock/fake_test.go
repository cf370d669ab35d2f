package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFake_NowAdvances(t *testing.T) {
	c := Fake(epoch)
	assert.True(t, c.Now().Equal(epoch))

	c.Advance(5 * time.Second)
	assert.True(t, c.Now().Equal(epoch.Add(5*time.Second)))
}

func TestFake_AfterFuncFiresAtDeadline(t *testing.T) {
	c := Fake(epoch)
	fired := 0
	c.AfterFunc(10*time.Minute, func() { fired++ })

	c.Advance(9 * time.Minute)
	assert.Equal(t, 0, fired)
	assert.Equal(t, 1, c.Pending())

	c.Advance(time.Minute)
	assert.Equal(t, 1, fired)
	assert.Equal(t, 0, c.Pending())

	c.Advance(time.Hour)
	assert.Equal(t, 1, fired, "one-shot timer must not fire twice")
}

func TestFake_AfterFuncStop(t *testing.T) {
	c := Fake(epoch)
	fired := false
	tm := c.AfterFunc(time.Second, func() { fired = true })

	require.True(t, tm.Stop())
	require.False(t, tm.Stop(), "second Stop reports already stopped")

	c.Advance(time.Minute)
	assert.False(t, fired)
	assert.Equal(t, 0, c.Pending())
}

func TestFake_AfterFuncNonPositiveRunsImmediately(t *testing.T) {
	c := Fake(epoch)
	fired := false
	tm := c.AfterFunc(0, func() { fired = true })
	assert.True(t, fired)
	assert.False(t, tm.Stop())
}

func TestFake_AfterFuncOrder(t *testing.T) {
	c := Fake(epoch)
	var order []int
	c.AfterFunc(3*time.Second, func() { order = append(order, 3) })
	c.AfterFunc(1*time.Second, func() { order = append(order, 1) })
	c.AfterFunc(2*time.Second, func() { order = append(order, 2) })

	c.Advance(5 * time.Second)
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestFake_TickerDropsOverflow(t *testing.T) {
	c := Fake(epoch)
	tk := c.NewTicker(time.Hour)
	defer tk.Stop()

	c.Advance(3 * time.Hour)

	select {
	case <-tk.C:
	default:
		t.Fatal("expected a tick")
	}
	select {
	case <-tk.C:
		t.Fatal("overflowing ticks must be dropped")
	default:
	}
}

func TestFake_TickerStop(t *testing.T) {
	c := Fake(epoch)
	tk := c.NewTicker(time.Minute)
	tk.Stop()

	c.Advance(time.Hour)
	select {
	case <-tk.C:
		t.Fatal("stopped ticker ticked")
	default:
	}
}

func TestFake_NewTickerPanicsOnZero(t *testing.T) {
	c := Fake(epoch)
	assert.Panics(t, func() { c.NewTicker(0) })
}

func TestFake_WaitForTimers(t *testing.T) {
	c := Fake(epoch)
	done := make(chan struct{})
	go func() {
		c.AfterFunc(time.Second, func() {})
		close(done)
	}()
	c.WaitForTimers(1)
	<-done
	assert.Equal(t, 1, c.Pending())
}

func TestReal_Now(t *testing.T) {
	before := time.Now()
	got := Real().Now()
	assert.False(t, got.Before(before))
}
