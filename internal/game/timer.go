package game

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// RoundTimer is the single-shot, cancellable countdown owned by one session.
// Arming it supersedes any pending countdown, so at most one countdown is
// live at a time. Fires carry the arm generation; the owner validates the
// generation under its own lock via Live, which makes fire-then-rearm one
// logical step and keeps a cancelled countdown from ever advancing the
// session, even when the callback was already in flight.
type RoundTimer struct {
	clock clockwork.Clock

	mu      sync.Mutex
	gen     uint64
	timer   clockwork.Timer
	done    chan struct{}
	armedAt time.Time
}

func NewRoundTimer(clock clockwork.Clock) *RoundTimer {
	return &RoundTimer{clock: clock}
}

// Arm schedules fire after d, cancelling any pending countdown first, and
// records the arm timestamp used by Elapsed.
func (rt *RoundTimer) Arm(d time.Duration, fire func(gen uint64)) {
	rt.mu.Lock()
	rt.stopLocked()
	rt.gen++
	gen := rt.gen
	rt.armedAt = rt.clock.Now()
	timer := rt.clock.NewTimer(d)
	done := make(chan struct{})
	rt.timer = timer
	rt.done = done
	rt.mu.Unlock()

	go func() {
		select {
		case <-timer.Chan():
			fire(gen)
		case <-done:
		}
	}()
}

// Cancel stops any pending countdown. Safe to call when nothing is armed.
func (rt *RoundTimer) Cancel() {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.stopLocked()
	rt.gen++
}

// Live reports whether gen identifies the countdown that is currently armed.
func (rt *RoundTimer) Live(gen uint64) bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.timer != nil && gen == rt.gen
}

// Elapsed returns the time since the current countdown was armed.
func (rt *RoundTimer) Elapsed() time.Duration {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.timer == nil {
		return 0
	}
	return rt.clock.Since(rt.armedAt)
}

func (rt *RoundTimer) stopLocked() {
	if rt.timer != nil {
		rt.timer.Stop()
		rt.timer = nil
	}
	if rt.done != nil {
		close(rt.done)
		rt.done = nil
	}
}
