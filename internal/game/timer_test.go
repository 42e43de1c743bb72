package game

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestRoundTimerFires(t *testing.T) {
	fc := clockwork.NewFakeClock()
	rt := NewRoundTimer(fc)

	fired := make(chan uint64, 1)
	rt.Arm(5*time.Second, func(gen uint64) { fired <- gen })

	fc.BlockUntil(1)
	fc.Advance(5 * time.Second)

	select {
	case gen := <-fired:
		if !rt.Live(gen) {
			t.Error("fired generation should still be live")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestRoundTimerCancel(t *testing.T) {
	fc := clockwork.NewFakeClock()
	rt := NewRoundTimer(fc)

	var fires atomic.Int32
	rt.Arm(5*time.Second, func(uint64) { fires.Add(1) })
	rt.Cancel()

	fc.Advance(10 * time.Second)
	time.Sleep(50 * time.Millisecond)

	if n := fires.Load(); n != 0 {
		t.Errorf("cancelled timer fired %d times", n)
	}
}

func TestRoundTimerRearmSupersedes(t *testing.T) {
	fc := clockwork.NewFakeClock()
	rt := NewRoundTimer(fc)

	var first atomic.Int32
	rt.Arm(10*time.Second, func(uint64) { first.Add(1) })

	fired := make(chan uint64, 1)
	rt.Arm(2*time.Second, func(gen uint64) { fired <- gen })

	fc.BlockUntil(1)
	fc.Advance(10 * time.Second)

	select {
	case gen := <-fired:
		if !rt.Live(gen) {
			t.Error("second arm should be the live generation")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("second timer did not fire")
	}

	time.Sleep(50 * time.Millisecond)
	if n := first.Load(); n != 0 {
		t.Errorf("superseded timer fired %d times", n)
	}
}

func TestRoundTimerStaleGenerationNotLive(t *testing.T) {
	fc := clockwork.NewFakeClock()
	rt := NewRoundTimer(fc)

	fired := make(chan uint64, 1)
	rt.Arm(time.Second, func(gen uint64) { fired <- gen })

	fc.BlockUntil(1)
	fc.Advance(time.Second)

	var gen uint64
	select {
	case gen = <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}

	rt.Arm(time.Second, func(uint64) {})
	if rt.Live(gen) {
		t.Error("generation from before rearm should be stale")
	}
}

func TestRoundTimerElapsed(t *testing.T) {
	fc := clockwork.NewFakeClock()
	rt := NewRoundTimer(fc)

	if got := rt.Elapsed(); got != 0 {
		t.Errorf("elapsed before arming = %v, want 0", got)
	}

	rt.Arm(15*time.Second, func(uint64) {})
	fc.BlockUntil(1)
	fc.Advance(3 * time.Second)

	if got := rt.Elapsed(); got != 3*time.Second {
		t.Errorf("elapsed = %v, want 3s", got)
	}
}
