package sim

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimerFiresAfterDelay(t *testing.T) {
	tm := NewTimer()
	var fired int32
	tm.Set(10*time.Millisecond, func() { atomic.StoreInt32(&fired, 1) })

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&fired) == 1 }, time.Second, time.Millisecond)
}

func TestTimerSetReplacesPendingFiring(t *testing.T) {
	tm := NewTimer()
	var firstFired, secondFired int32
	tm.Set(5*time.Millisecond, func() { atomic.StoreInt32(&firstFired, 1) })
	tm.Set(20*time.Millisecond, func() { atomic.StoreInt32(&secondFired, 1) })

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&firstFired), "the first arm must have been cancelled")
	assert.Equal(t, int32(1), atomic.LoadInt32(&secondFired))
}

func TestTimerStopCancelsPendingFiring(t *testing.T) {
	tm := NewTimer()
	var fired int32
	tm.Set(10*time.Millisecond, func() { atomic.StoreInt32(&fired, 1) })
	tm.Stop()

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&fired))
}

func TestTimerStopOnUnarmedTimerIsNoop(t *testing.T) {
	tm := NewTimer()
	assert.NotPanics(t, func() { tm.Stop() })
}

func TestTimerWheelVendsIndependentTimers(t *testing.T) {
	w := NewTimerWheel()
	a := w.NewTimer()
	b := w.NewTimer()

	var aFired, bFired int32
	a.Set(5*time.Millisecond, func() { atomic.StoreInt32(&aFired, 1) })
	b.Stop()

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&aFired) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&bFired))
}
