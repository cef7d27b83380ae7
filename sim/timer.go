package sim

import (
	"sync"
	"time"

	"github.com/anapaya-labs/wsncollect/pkg/collect/link"
	"github.com/anapaya-labs/wsncollect/pkg/log"
)

var _ link.Timer = (*Timer)(nil)

// Timer is a one-shot, real-time-backed implementation of link.Timer,
// matching the ctimer_set/ctimer_reset/ctimer_stop contract (spec §9).
// Unlike a bare time.Timer, Set on an already-armed Timer atomically
// replaces the pending firing instead of requiring the caller to drain the
// old channel first.
type Timer struct {
	mu    sync.Mutex
	timer *time.Timer
}

// NewTimer returns a disarmed Timer.
func NewTimer() *Timer {
	return &Timer{}
}

// Set implements link.Timer.
func (t *Timer) Set(delay time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(delay, func() {
		defer log.HandlePanic()
		fn()
	})
}

// Stop implements link.Timer.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

// TimerWheel vends one Timer per call, so every node's ScheduledTimer and
// TopologyReportTimer are backed by independent timers (spec §9 resolution:
// never multiplex one timer slot across unrelated deferred actions).
type TimerWheel struct{}

// NewTimerWheel creates a TimerWheel.
func NewTimerWheel() *TimerWheel {
	return &TimerWheel{}
}

// NewTimer returns a fresh, disarmed Timer.
func (w *TimerWheel) NewTimer() *Timer {
	return NewTimer()
}
