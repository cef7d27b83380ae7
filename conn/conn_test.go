package conn

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/anapaya-labs/wsncollect/control/state"
	"github.com/anapaya-labs/wsncollect/pkg/addr"
	"github.com/anapaya-labs/wsncollect/pkg/collect/link"
	"github.com/anapaya-labs/wsncollect/pkg/collect/packet"
	"github.com/anapaya-labs/wsncollect/pkg/log"
)

// TestMain verifies that every Connection opened in this package's tests
// had its periodic.Runner stopped via Close before the test returned.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	sink  addr.NodeAddress = 1
	self  addr.NodeAddress = 2
	child addr.NodeAddress = 3
)

type testBuffer struct {
	backing []byte
	start   int
	end     int
	rssi    int16
}

func newTestBuffer(capacity int) *testBuffer {
	b := &testBuffer{backing: make([]byte, capacity)}
	b.start, b.end = capacity, capacity
	return b
}
func (b *testBuffer) GrowHeader(n int) bool {
	if n < 0 || b.start-n < 0 {
		return false
	}
	b.start -= n
	return true
}
func (b *testBuffer) ShrinkHeader(n int) bool {
	if n < 0 || b.start+n > b.end {
		return false
	}
	b.start += n
	return true
}
func (b *testBuffer) Bytes() []byte { return b.backing[b.start:b.end] }
func (b *testBuffer) Len() int      { return b.end - b.start }
func (b *testBuffer) RSSI() int16   { return b.rssi }

// fakeBroadcaster records every BroadcastSend on a channel so tests can
// block for the sink's asynchronous periodic originator instead of racing
// it with a sleep.
type fakeBroadcaster struct {
	sent chan []byte
}

func newFakeBroadcaster() *fakeBroadcaster {
	return &fakeBroadcaster{sent: make(chan []byte, 8)}
}
func (f *fakeBroadcaster) NewFrame() packet.Buffer { return newTestBuffer(64) }
func (f *fakeBroadcaster) BroadcastSend(buf packet.Buffer) error {
	f.sent <- append([]byte{}, buf.Bytes()...)
	return nil
}

type fakeUnicaster struct {
	mu       sync.Mutex
	lastDest addr.NodeAddress
	lastBuf  *testBuffer
	sends    int
}

func (u *fakeUnicaster) NewFrame() packet.Buffer { return newTestBuffer(64) }
func (u *fakeUnicaster) UnicastSend(dest addr.NodeAddress, buf packet.Buffer) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.sends++
	u.lastDest = dest
	u.lastBuf = buf.(*testBuffer)
	return true
}
func (u *fakeUnicaster) last() (addr.NodeAddress, *testBuffer) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.lastDest, u.lastBuf
}

// fakeEndpoint hands back the fakes above and captures the installed
// receive callbacks so tests can drive them directly, standing in for a
// real link layer delivering a frame.
type fakeEndpoint struct {
	bcast *fakeBroadcaster
	ucast *fakeUnicaster

	onBroadcast link.BroadcastReceiveFunc
	onUnicast   link.UnicastReceiveFunc
}

func newFakeEndpoint() *fakeEndpoint {
	return &fakeEndpoint{bcast: newFakeBroadcaster(), ucast: &fakeUnicaster{}}
}
func (e *fakeEndpoint) OpenBroadcast(_ int, onRecv link.BroadcastReceiveFunc) (link.Broadcaster, error) {
	e.onBroadcast = onRecv
	return e.bcast, nil
}
func (e *fakeEndpoint) OpenUnicast(_ int, onRecv link.UnicastReceiveFunc) (link.Unicaster, error) {
	e.onUnicast = onRecv
	return e.ucast, nil
}

type fakeTimer struct{}

func (fakeTimer) Set(time.Duration, func()) {}
func (fakeTimer) Stop()                     {}

type fakeRand struct{}

func (fakeRand) Uint16() uint16                       { return 0 }
func (fakeRand) Duration(time.Duration) time.Duration { return 0 }

func openTestConn(t *testing.T, self addr.NodeAddress, isSink bool) (*Connection, *fakeEndpoint) {
	t.Helper()
	ep := newFakeEndpoint()
	tunables := state.DefaultTunables()
	tunables.BeaconInterval = time.Hour // keep the sink's ticker from firing a second time mid-test
	c, err := Open(
		context.Background(), ep, self, 0, isSink, tunables, state.Callbacks{},
		fakeRand{}, fakeTimer{}, fakeTimer{}, log.Root(),
	)
	require.NoError(t, err)
	return c, ep
}

func beaconBuffer(seqn, metric uint16, rssi int16) *testBuffer {
	frame := packet.BeaconFrame{Seqn: seqn, Metric: metric}
	data := make([]byte, packet.BeaconLen)
	frame.SerializeTo(data)

	buf := newTestBuffer(packet.BeaconLen)
	buf.GrowHeader(packet.BeaconLen)
	copy(buf.Bytes(), data)
	buf.rssi = rssi
	return buf
}

func TestOpenSinkStartsBeaconOriginator(t *testing.T) {
	c, ep := openTestConn(t, sink, true)
	defer c.Close()

	select {
	case data := <-ep.bcast.sent:
		frame, ok := packet.DecodeBeaconFrame(data)
		require.True(t, ok)
		assert.Equal(t, uint16(1), frame.Seqn)
	case <-time.After(time.Second):
		t.Fatal("sink did not originate a beacon on open")
	}
}

func TestOpenRouterDoesNotOriginateBeacons(t *testing.T) {
	c, ep := openTestConn(t, self, false)
	defer c.Close()

	select {
	case <-ep.bcast.sent:
		t.Fatal("a router must never originate beacons on its own")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestOnBroadcastRoutesToReceiverAtRouter(t *testing.T) {
	c, ep := openTestConn(t, self, false)
	defer c.Close()

	ep.onBroadcast(sink, beaconBuffer(1, 0, -40))

	assert.Equal(t, sink, c.Node().Parent)
	assert.Equal(t, uint16(1), c.Node().Metric)
}

func TestOnBroadcastIgnoredAtSink(t *testing.T) {
	c, ep := openTestConn(t, sink, true)
	defer c.Close()
	<-ep.bcast.sent // drain the sink's own automatic origination

	assert.NotPanics(t, func() { ep.onBroadcast(self, beaconBuffer(1, 0, -40)) })
	assert.True(t, c.Node().Parent.IsNull(), "the sink must never adopt a parent")
}

func TestSendUpwardDelegatesToForwarder(t *testing.T) {
	c, ep := openTestConn(t, self, false)
	defer c.Close()
	c.Node().Parent = sink

	ok := c.SendUpward([]byte("hi"))
	require.True(t, ok)
	dest, _ := ep.ucast.last()
	assert.Equal(t, sink, dest)
}

func TestSendDownwardDelegatesToForwarder(t *testing.T) {
	c, _ := openTestConn(t, sink, true)
	defer c.Close()
	c.Node().Table.Update(sink, child)

	ok, err := c.SendDownward(child)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOnUnicastRoutesToForwarder(t *testing.T) {
	c, ep := openTestConn(t, self, false)
	defer c.Close()

	var gotHops uint8
	c.Node().Callbacks.OnCommandReceived = func(hops uint8) { gotHops = hops }

	buf := newTestBuffer(64)
	hdr := packet.CollectHeader{Source: sink, Hops: 3, IsCommand: true, PathLength: 0}
	require.NoError(t, packet.PushCollect(buf, hdr, nil))

	ep.onUnicast(sink, buf)

	assert.Equal(t, uint8(3), gotHops)
}

func TestForceBeaconNoopAtRouter(t *testing.T) {
	c, ep := openTestConn(t, self, false)
	defer c.Close()

	c.ForceBeacon(context.Background())

	select {
	case <-ep.bcast.sent:
		t.Fatal("ForceBeacon must be a no-op at a router")
	case <-time.After(50 * time.Millisecond):
	}
}
