package sim

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anapaya-labs/wsncollect/control/state"
	"github.com/anapaya-labs/wsncollect/pkg/addr"
	"github.com/anapaya-labs/wsncollect/pkg/log"
)

// TestNetworkThreeHopEndToEnd drives a sink -> nodeA -> nodeB chain through
// real beacon adoption, upward collection and downward command delivery,
// entirely over the in-memory link layer. cmd/wsnsim's `run` subcommand
// exercises the beacon adoption and topology report part of this path.
func TestNetworkThreeHopEndToEnd(t *testing.T) {
	nw := NewNetwork(log.Root())
	nw.AddLink(SimLink{A: sink, B: nA, RSSIAB: -40, RSSIBA: -40})
	nw.AddLink(SimLink{A: nA, B: nB, RSSIAB: -40, RSSIBA: -40})

	tunables := state.DefaultTunables()
	tunables.BeaconInterval = time.Hour // one origination when the sink opens, no repeats mid-test
	tunables.BeaconForwardDelayMax = 20 * time.Millisecond

	ctx := context.Background()

	var gotCommandHops uint8
	cB, err := nw.Open(ctx, NodeSpec{Addr: nB, IsSink: false}, tunables, state.Callbacks{
		OnCommandReceived: func(hops uint8) { gotCommandHops = hops },
	})
	require.NoError(t, err)
	defer cB.Close()

	cA, err := nw.Open(ctx, NodeSpec{Addr: nA, IsSink: false}, tunables, state.Callbacks{})
	require.NoError(t, err)
	defer cA.Close()

	dataCh := make(chan struct {
		source addr.NodeAddress
		hops   uint8
	}, 1)
	cSink, err := nw.Open(ctx, NodeSpec{Addr: sink, IsSink: true}, tunables, state.Callbacks{
		OnDataReceived: func(source addr.NodeAddress, hops uint8) {
			dataCh <- struct {
				source addr.NodeAddress
				hops   uint8
			}{source, hops}
		},
	})
	require.NoError(t, err)
	defer cSink.Close()

	require.Eventually(t, func() bool { return cA.Node().Parent == sink }, time.Second, time.Millisecond,
		"nodeA must adopt the sink's beacon")
	require.Eventually(t, func() bool { return cB.Node().Parent == nA }, time.Second, time.Millisecond,
		"nodeB must adopt nodeA's re-broadcast beacon")

	require.True(t, cB.SendUpward(nil), "nodeB's dedicated topology report must reach the sink")
	require.Eventually(t, func() bool { return cSink.Node().Table.ParentOf(nB) == nA }, time.Second, time.Millisecond)
	assert.Equal(t, sink, cSink.Node().Table.ParentOf(nA))

	require.True(t, cB.SendUpward([]byte("reading")))
	select {
	case got := <-dataCh:
		assert.Equal(t, nB, got.source)
		assert.Equal(t, uint8(1), got.hops, "one router (nodeA) forwarded the packet, incrementing Hops once")
	case <-time.After(time.Second):
		t.Fatal("sink never received nodeB's collection packet")
	}

	ok, err := cSink.SendDownward(nB)
	require.NoError(t, err)
	require.True(t, ok)
	require.Eventually(t, func() bool { return gotCommandHops == 1 }, time.Second, time.Millisecond,
		"nodeB must receive the downward command after nodeA forwards it, incrementing Hops once")
}

func TestNetworkUnreachableNodeNeverAdoptsParent(t *testing.T) {
	nw := NewNetwork(log.Root())
	// nB has no link to anything: it must stay parentless.
	nw.AddLink(SimLink{A: sink, B: nA, RSSIAB: -40, RSSIBA: -40})

	tunables := state.DefaultTunables()
	tunables.BeaconInterval = time.Hour

	ctx := context.Background()
	cB, err := nw.Open(ctx, NodeSpec{Addr: nB, IsSink: false}, tunables, state.Callbacks{})
	require.NoError(t, err)
	defer cB.Close()
	cSink, err := nw.Open(ctx, NodeSpec{Addr: sink, IsSink: true}, tunables, state.Callbacks{})
	require.NoError(t, err)
	defer cSink.Close()

	time.Sleep(50 * time.Millisecond)
	assert.True(t, cB.Node().Parent.IsNull())
	assert.Same(t, cSink, nw.Connection(sink))
}
