// Package conn implements the Connection Facade (spec §4.5): it binds the
// packet codec, routing table, beacon engine and forwarding engine to one
// link-layer endpoint and exposes the public operations Open, SendUpward
// and SendDownward.
package conn

import (
	"context"

	"github.com/anapaya-labs/wsncollect/control/beaconing"
	"github.com/anapaya-labs/wsncollect/control/forwarding"
	"github.com/anapaya-labs/wsncollect/control/state"
	"github.com/anapaya-labs/wsncollect/pkg/addr"
	"github.com/anapaya-labs/wsncollect/pkg/collect/link"
	"github.com/anapaya-labs/wsncollect/pkg/collect/packet"
	"github.com/anapaya-labs/wsncollect/pkg/log"
	"github.com/anapaya-labs/wsncollect/private/periodic"
)

// Connection is a node's bound instance of the routing core. It owns the
// node's Connection state, its beaconing engine (only one of Originator or
// Receiver is live, picked by IsSink) and its forwarding engine.
type Connection struct {
	node       *state.Node
	forwarder  *forwarding.Engine
	receiver   *beaconing.Receiver
	originator *beaconing.Originator
	runner     *periodic.Runner
}

// Open implements spec §4.5's open(conn, channel, is_sink, callbacks): it
// binds broadcast on channel and unicast on channel+1, installs the
// per-packet-type receive callbacks, and initializes Connection state.
// rand, scheduledTimer and topologyReportTimer are the external
// collaborators spec §6 requires (random_u16, timer_schedule/cancel); the
// router's beacon re-broadcast and dedicated topology report are each
// armed on their own Timer so neither ever clobbers the other's pending
// firing. If isSink, Open also starts the periodic beacon originator.
func Open(
	ctx context.Context,
	ep link.Endpoint,
	self addr.NodeAddress,
	channel int,
	isSink bool,
	tunables state.Tunables,
	callbacks state.Callbacks,
	rand link.Random,
	scheduledTimer link.Timer,
	topologyReportTimer link.Timer,
	logger log.Logger,
) (*Connection, error) {
	n := state.NewNode(self, isSink, tunables, logger)
	n.Callbacks = callbacks
	n.Rand = rand
	n.ScheduledTimer = scheduledTimer
	n.TopologyReportTimer = topologyReportTimer

	c := &Connection{node: n}
	c.forwarder = forwarding.New(n)
	c.receiver = beaconing.NewReceiver(n, c.forwarder)

	broadcaster, err := ep.OpenBroadcast(channel, c.onBroadcast)
	if err != nil {
		return nil, err
	}
	unicaster, err := ep.OpenUnicast(channel+1, c.onUnicast)
	if err != nil {
		return nil, err
	}
	n.Broadcaster = broadcaster
	n.Unicaster = unicaster

	if isSink {
		c.originator = beaconing.NewOriginator(n)
		c.runner = periodic.Start(ctx, c.originator, tunables.BeaconInterval)
	}

	logger.Info("connection opened", "self", self, "is_sink", isSink, "channel", channel)
	return c, nil
}

// onBroadcast is the link.BroadcastReceiveFunc installed at Open; it is
// only meaningful for beacon frames (the only broadcast traffic in this
// protocol), so it always routes to the beacon receiver.
func (c *Connection) onBroadcast(sender addr.NodeAddress, buf packet.Buffer) {
	if c.node.IsSink {
		// The sink never adopts a parent; it has no beacon receiver wired.
		return
	}
	c.receiver.OnBeacon(sender, buf)
}

// onUnicast is the link.UnicastReceiveFunc installed at Open.
func (c *Connection) onUnicast(from addr.NodeAddress, buf packet.Buffer) {
	c.forwarder.OnUnicast(from, buf)
}

// SendUpward implements spec §4.4's upward send: it originates an ascending
// collection packet carrying payload. It returns false if this node has no
// parent or the packet could not be built.
func (c *Connection) SendUpward(payload []byte) bool {
	return c.forwarder.SendUpward(payload)
}

// SendDownward implements spec §4.4's downward send: only meaningful at the
// sink, it builds and sends a source-routed command packet toward dest.
func (c *Connection) SendDownward(dest addr.NodeAddress) (bool, error) {
	return c.forwarder.SendDownward(dest)
}

// Close stops the sink's periodic beacon originator and any pending
// router timers. It does not close the underlying link-layer endpoints,
// which the caller owns.
func (c *Connection) Close() {
	if c.runner != nil {
		c.runner.Stop()
	}
	if c.node.ScheduledTimer != nil {
		c.node.ScheduledTimer.Stop()
	}
	if c.node.TopologyReportTimer != nil {
		c.node.TopologyReportTimer.Stop()
	}
}

// Node exposes the underlying Connection state read-only, primarily for
// diagnostics (e.g. cmd/wsnsim's routes subcommand inspecting the sink's
// routing table).
func (c *Connection) Node() *state.Node {
	return c.node
}

// ForceBeacon immediately runs the sink's beacon-origination logic once,
// outside its normal BeaconInterval cadence (spec §4.5 (NEW): the `beacon`
// CLI command, "for interactive topology debugging"). It is a no-op at a
// router, which has no Originator.
func (c *Connection) ForceBeacon(ctx context.Context) {
	if c.originator != nil {
		c.originator.Run(ctx)
	}
}
