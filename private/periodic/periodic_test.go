package periodic

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// TestMain verifies every Runner spawned by this package's tests left no
// goroutine behind, since Runner.Start is the one place in the routing core
// that launches its own goroutine outside the caller's control.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type countingTask struct {
	runs int32
}

func (t *countingTask) Name() string { return "counting_task" }
func (t *countingTask) Run(context.Context) {
	atomic.AddInt32(&t.runs, 1)
}

func TestRunnerRunsImmediatelyOnStart(t *testing.T) {
	task := &countingTask{}
	r := Start(context.Background(), task, time.Hour)
	defer r.Stop()

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&task.runs) == 1 }, time.Second, time.Millisecond)
}

func TestRunnerTicksOnPeriod(t *testing.T) {
	task := &countingTask{}
	r := Start(context.Background(), task, 10*time.Millisecond)
	defer r.Stop()

	require.Eventually(t, func() bool { return atomic.LoadInt32(&task.runs) >= 3 }, time.Second, time.Millisecond,
		"a 10ms period must tick at least twice beyond the immediate first run within a second")
}

func TestRunnerStopWaitsForGoroutineExit(t *testing.T) {
	task := &countingTask{}
	r := Start(context.Background(), task, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	r.Stop()

	runsAtStop := atomic.LoadInt32(&task.runs)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, runsAtStop, atomic.LoadInt32(&task.runs), "no run must occur after Stop returns")
}

func TestRunnerStopIsIdempotent(t *testing.T) {
	task := &countingTask{}
	r := Start(context.Background(), task, time.Hour)
	r.Stop()
	assert.NotPanics(t, func() { r.Stop() })
}

func TestTickPassedAndOverdue(t *testing.T) {
	tick := NewTick(time.Minute)
	assert.True(t, tick.Passed(), "a Tick with no prior run has always passed")

	now := time.Now()
	tick.SetNow(now)
	tick.UpdateLast()
	assert.False(t, tick.Passed())

	tick.SetNow(now.Add(2 * time.Minute))
	assert.True(t, tick.Passed())
	assert.True(t, tick.Overdue(now))
	assert.False(t, tick.Overdue(now.Add(90*time.Second)))
}
