// Package periodic runs a Task on a fixed cadence and tracks whether the
// cadence is being kept, the way the teacher's control plane runs its
// beaconing tasks (control/beaconing/originator.go declares
// `var _ periodic.Task = (*Originator)(nil)` and drives itself through a
// Tick field). The teacher imports this package rather than defining it in
// the files retrieved for this pack; this implementation is shaped
// precisely to the call sites observed there (Tick.SetNow, Tick.Now,
// Tick.UpdateLast, Tick.Passed, Tick.Overdue, Task.Name, Task.Run).
package periodic

import (
	"context"
	"sync"
	"time"

	"github.com/anapaya-labs/wsncollect/pkg/log"
)

// Task is one periodically-run unit of work.
type Task interface {
	// Name identifies the task in logs.
	Name() string
	// Run executes one tick of the task. It must not block indefinitely;
	// the routing core's event-loop model (spec §5) requires handlers to
	// complete promptly.
	Run(ctx context.Context)
}

// Tick carries the "now" of the current run plus bookkeeping of when the
// task last actually ran its full-cadence path, so a Task can distinguish a
// normal periodic firing from a one-off catch-up run triggered early.
type Tick struct {
	period time.Duration
	now    time.Time
	last   time.Time
}

// NewTick creates a Tick for a task run every period.
func NewTick(period time.Duration) Tick {
	return Tick{period: period}
}

// SetNow records the timestamp of the current run.
func (t *Tick) SetNow(now time.Time) { t.now = now }

// Now returns the timestamp set by the most recent SetNow.
func (t *Tick) Now() time.Time { return t.now }

// UpdateLast marks the current Now as the last full-cadence run.
func (t *Tick) UpdateLast() { t.last = t.now }

// Passed reports whether a full period has elapsed since the last
// UpdateLast call.
func (t *Tick) Passed() bool {
	if t.last.IsZero() {
		return true
	}
	return t.now.Sub(t.last) >= t.period
}

// Overdue reports whether last is at least one period behind Now.
func (t *Tick) Overdue(last time.Time) bool {
	if last.IsZero() {
		return true
	}
	return t.now.Sub(last) >= t.period
}

// Runner drives a Task's Run method every period until Stop is called.
type Runner struct {
	task   Task
	period time.Duration

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Start launches task on its own goroutine, calling Run immediately and
// then every period.
func Start(ctx context.Context, task Task, period time.Duration) *Runner {
	ctx, cancel := context.WithCancel(ctx)
	r := &Runner{
		task:   task,
		period: period,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go r.loop(ctx)
	return r
}

func (r *Runner) loop(ctx context.Context) {
	defer close(r.done)
	defer log.HandlePanic()

	r.task.Run(ctx)
	ticker := time.NewTicker(r.period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.task.Run(ctx)
		}
	}
}

// Stop cancels the runner and waits for its goroutine to exit.
func (r *Runner) Stop() {
	r.once.Do(func() {
		r.cancel()
		<-r.done
	})
}
