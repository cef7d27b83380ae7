package beaconing

import (
	"time"

	"github.com/anapaya-labs/wsncollect/control/forwarding"
	"github.com/anapaya-labs/wsncollect/control/state"
	"github.com/anapaya-labs/wsncollect/pkg/addr"
	"github.com/anapaya-labs/wsncollect/pkg/collect/collecterr"
	"github.com/anapaya-labs/wsncollect/pkg/collect/packet"
	"github.com/anapaya-labs/wsncollect/pkg/metrics"
	"github.com/anapaya-labs/wsncollect/pkg/private/prom"
	"github.com/anapaya-labs/wsncollect/private/procperf"
)

// Receiver implements a router's reaction to received beacons: freshness
// evaluation, parent/metric update and throttled re-broadcast (spec §4.3).
// Grounded on my_collect.c's bc_recv/update_node_parent.
type Receiver struct {
	Node      *state.Node
	Forwarder *forwarding.Engine
}

// NewReceiver creates a Receiver bound to n, delegating dedicated topology
// reports to fwd.
func NewReceiver(n *state.Node, fwd *forwarding.Engine) *Receiver {
	return &Receiver{Node: n, Forwarder: fwd}
}

// OnBeacon handles a beacon broadcast from sender, received with the given
// RSSI. It implements the decision table of spec §4.3.
func (r *Receiver) OnBeacon(sender addr.NodeAddress, buf packet.Buffer) {
	n := r.Node
	frame, ok := packet.DecodeBeaconFrame(buf.Bytes())
	if !ok {
		n.Log.Debug("beacon received with wrong size", "len", buf.Len())
		n.IncMetric(func(m state.Metrics) metrics.Counter { return m.BeaconsDiscarded }, prom.ErrParse)
		return
	}
	rssi := buf.RSSI()
	if rssi <= n.Tunables.RSSIThreshold {
		n.Log.Debug("beacon rejected: rssi below threshold",
			"sender", sender, "rssi", rssi, "threshold", n.Tunables.RSSIThreshold)
		n.IncMetric(func(m state.Metrics) metrics.Counter { return m.BeaconsDiscarded }, prom.ErrNetwork)
		return
	}

	s, m := frame.Seqn, frame.Metric
	s0, m0, r0 := n.BeaconSeqn, n.Metric, n.ParentRSSI

	switch {
	case s < s0:
		n.Log.Debug("beacon discarded: stale", "sender", sender, "seqn", s, "local_seqn", s0)
		n.IncMetric(func(mm state.Metrics) metrics.Counter { return mm.BeaconsDiscarded }, prom.ErrStale)

	case s > s0:
		n.BeaconSeqn = s
		r.adopt(sender, m, rssi)

	case m+1 < m0:
		r.adopt(sender, m, rssi)

	case m+1 == m0 && rssi > r0:
		r.adopt(sender, m, rssi)

	default:
		n.Log.Debug("beacon discarded: no improvement",
			"sender", sender, "seqn", s, "metric", m, "rssi", rssi)
		n.IncMetric(func(mm state.Metrics) metrics.Counter { return mm.BeaconsDiscarded }, prom.Success)
	}
}

// adopt implements update_parent: records the new parent/metric/rssi and
// schedules the deferred re-broadcast and dedicated topology report (spec
// §4.3).
func (r *Receiver) adopt(sender addr.NodeAddress, beaconMetric uint16, rssi int16) {
	n := r.Node
	n.Metric = beaconMetric + 1
	n.ParentRSSI = rssi
	n.Parent = sender

	n.Log.Info("adopted new parent", "parent", sender, "metric", n.Metric, "rssi", rssi)
	n.IncMetric(func(m state.Metrics) metrics.Counter { return m.BeaconsAdopted }, prom.Success)

	forwardDelay := n.Rand.Duration(n.Tunables.BeaconForwardDelayMax)
	n.Log.Debug("scheduling beacon re-broadcast", "delay", forwardDelay)
	n.ScheduledTimer.Set(forwardDelay, func() {
		if err := r.rebroadcast(); err != nil {
			n.Log.Error("failed to re-broadcast beacon", "err", err)
		}
	})

	reportDelay := forwardDelay + time.Duration(n.Tunables.MaxPathLength-int(n.Metric))*n.Rand.Duration(time.Second)
	if cap_ := n.Tunables.BeaconInterval / 2; reportDelay > cap_ {
		reportDelay = cap_
	}
	n.Log.Debug("scheduling dedicated topology report", "delay", reportDelay)
	n.TopologyReportTimer.Set(reportDelay, r.sendTopologyReport)
}

// rebroadcast re-sends this node's own beacon (with the freshly updated
// metric) to help the topology converge (spec §4.3).
func (r *Receiver) rebroadcast() error {
	n := r.Node
	id := procperf.NewID()
	n.Recorder.Start(id, time.Now())

	frame := packet.BeaconFrame{Seqn: n.BeaconSeqn, Metric: n.Metric}
	buf := n.Broadcaster.NewFrame()
	if !buf.GrowHeader(packet.BeaconLen) {
		return collecterr.Ctx(collecterr.ErrBufferGrowFailed, "bytes", packet.BeaconLen)
	}
	frame.SerializeTo(buf.Bytes())
	if err := n.Broadcaster.BroadcastSend(buf); err != nil {
		return err
	}
	n.Recorder.Done(id, procperf.Propagated, time.Now())
	return nil
}

// sendTopologyReport sends an otherwise-empty ascending packet whose sole
// purpose is to refresh the sink's knowledge of this node's parent (spec
// §4.4 "dedicated topology report"). It fires as the TopologyReportTimer
// callback, so it reports failure only via logging.
func (r *Receiver) sendTopologyReport() {
	if ok := r.Forwarder.SendUpward(nil); !ok {
		r.Node.Log.Error("failed to send dedicated topology report")
	}
}
