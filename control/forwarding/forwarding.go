// Package forwarding implements collection (upward) and source-routed
// (downward) packet forwarding, loop detection and application delivery
// (spec §4.4). Grounded on my_collect.c's my_collect_send,
// handle_recv_data_collection_packet_{sink,node}, handle_recv_command_packet
// and sr_send.
package forwarding

import (
	"time"

	"github.com/anapaya-labs/wsncollect/control/state"
	"github.com/anapaya-labs/wsncollect/pkg/addr"
	"github.com/anapaya-labs/wsncollect/pkg/collect/collecterr"
	"github.com/anapaya-labs/wsncollect/pkg/collect/packet"
	"github.com/anapaya-labs/wsncollect/pkg/metrics"
	"github.com/anapaya-labs/wsncollect/pkg/private/prom"
	"github.com/anapaya-labs/wsncollect/private/procperf"
)

// Engine implements the forwarding state machine for one Connection.
type Engine struct {
	Node *state.Node
}

// New creates an Engine bound to n.
func New(n *state.Node) *Engine {
	return &Engine{Node: n}
}

// SendUpward originates an ascending collection packet carrying payload
// (spec §4.4 "Upward send"). An empty or nil payload sends a dedicated
// topology report. It returns false (spec: "0 on failure") if the node has
// no parent or the packet buffer could not be grown.
func (e *Engine) SendUpward(payload []byte) bool {
	n := e.Node
	if n.Parent.IsNull() {
		n.Log.Error("cannot send upward: no parent")
		n.IncMetric(func(m state.Metrics) metrics.Counter { return m.PacketsDropped }, prom.ErrNoParent)
		return false
	}

	id := procperf.NewID()
	n.Recorder.Start(id, time.Now())

	hdr := packet.CollectHeader{
		Source:     n.Self,
		Hops:       0,
		IsCommand:  false,
		PathLength: 1,
	}
	buf := n.Unicaster.NewFrame()
	if !buf.GrowHeader(len(payload)) {
		n.Log.Error("cannot send upward: payload does not fit", "len", len(payload))
		n.IncMetric(func(m state.Metrics) metrics.Counter { return m.PacketsDropped }, prom.ErrBuffer)
		return false
	}
	copy(buf.Bytes(), payload)

	if err := packet.PushCollect(buf, hdr, []addr.NodeAddress{n.Self}); err != nil {
		n.Log.Error("cannot send upward: header push failed", "err", err)
		n.IncMetric(func(m state.Metrics) metrics.Counter { return m.PacketsDropped }, prom.ErrBuffer)
		return false
	}

	ok := n.Unicaster.UnicastSend(n.Parent, buf)
	if !ok {
		n.IncMetric(func(m state.Metrics) metrics.Counter { return m.PacketsDropped }, prom.ErrNetwork)
		return false
	}
	n.Recorder.Done(id, procperf.Originated, time.Now())
	n.Log.Debug("sent collection packet", "parent", n.Parent, "payload_len", len(payload))
	return true
}

// OnUnicast dispatches a received unicast frame to the upward or downward
// path based on the header's IsCommand bit (spec §4.4).
func (e *Engine) OnUnicast(from addr.NodeAddress, buf packet.Buffer) {
	n := e.Node
	hdr, addrList, err := packet.PeekCollect(buf)
	if err != nil {
		n.Log.Debug("dropping malformed unicast frame", "from", from, "err", err)
		n.IncMetric(func(m state.Metrics) metrics.Counter { return m.PacketsDropped }, prom.ErrParse)
		return
	}
	if hdr.IsCommand {
		e.onCommand(from, hdr, buf)
		return
	}
	if n.IsSink {
		e.onCollectAtSink(from, hdr, addrList, buf)
		return
	}
	e.onCollectAtRouter(from, hdr, addrList, buf)
}

// onCollectAtRouter forwards an ascending collection packet toward the
// parent, growing the header and re-prepending self (spec §4.4 "Upward
// forward at router").
func (e *Engine) onCollectAtRouter(from addr.NodeAddress, hdr packet.CollectHeader, addrList []addr.NodeAddress, buf packet.Buffer) {
	n := e.Node
	if hdr.PathLength == 0 {
		n.Log.Error("dropping ascending packet: path_length is 0", "from", from)
		n.IncMetric(func(m state.Metrics) metrics.Counter { return m.PacketsDropped }, prom.ErrParse)
		return
	}
	if n.Parent.IsNull() {
		n.Log.Error("cannot forward upward: no parent")
		n.IncMetric(func(m state.Metrics) metrics.Counter { return m.PacketsDropped }, prom.ErrNoParent)
		return
	}
	for _, a := range addrList {
		if a == n.Self {
			n.Log.Error("dropping ascending packet: loop detected", "from", from, "path", addrList)
			n.IncMetric(func(m state.Metrics) metrics.Counter { return m.PacketsDropped }, prom.ErrLoop)
			return
		}
	}

	id := procperf.NewID()
	n.Recorder.Start(id, time.Now())

	if err := packet.PopCollectAndAddrs(buf, hdr.PathLength); err != nil {
		n.Log.Error("cannot forward upward: shrink failed", "err", err)
		n.IncMetric(func(m state.Metrics) metrics.Counter { return m.PacketsDropped }, prom.ErrBuffer)
		return
	}

	if buf.Len() == 0 {
		// This is a dedicated topology report: a deeper subtree has already
		// reported, so our own pending report (if any) is subsumed.
		n.TopologyReportTimer.Stop()
	}

	hdr.Hops++
	hdr.PathLength++
	newList := append([]addr.NodeAddress{n.Self}, addrList...)

	if err := packet.PushCollect(buf, hdr, newList); err != nil {
		n.Log.Error("cannot forward upward: header push failed", "err", err)
		n.IncMetric(func(m state.Metrics) metrics.Counter { return m.PacketsDropped }, prom.ErrBuffer)
		return
	}

	if ok := n.Unicaster.UnicastSend(n.Parent, buf); !ok {
		n.IncMetric(func(m state.Metrics) metrics.Counter { return m.PacketsDropped }, prom.ErrNetwork)
		return
	}
	n.Recorder.Done(id, procperf.Propagated, time.Now())
	n.IncMetric(func(m state.Metrics) metrics.Counter { return m.PacketsForwarded }, prom.Success)
	n.Log.Debug("forwarded collection packet", "parent", n.Parent, "hops", hdr.Hops)
}

// onCollectAtSink ingests the address list into the routing table and
// either logs a dedicated topology report or delivers the payload to the
// application (spec §4.4 "Upward receipt at sink").
func (e *Engine) onCollectAtSink(from addr.NodeAddress, hdr packet.CollectHeader, addrList []addr.NodeAddress, buf packet.Buffer) {
	n := e.Node
	if len(addrList) == 0 {
		n.Log.Error("dropping ascending packet at sink: empty address list", "from", from)
		n.IncMetric(func(m state.Metrics) metrics.Counter { return m.PacketsDropped }, prom.ErrParse)
		return
	}

	id := procperf.NewID()
	n.Recorder.Start(id, time.Now())

	for i := 0; i < len(addrList)-1; i++ {
		n.Table.Update(addrList[i], addrList[i+1])
	}
	n.Table.Update(n.Self, addrList[0])
	n.IncMetric(func(m state.Metrics) metrics.Counter { return m.RoutingUpdates }, prom.Success)

	if err := packet.PopCollectAndAddrs(buf, hdr.PathLength); err != nil {
		n.Log.Error("cannot deliver: shrink failed", "err", err)
		n.IncMetric(func(m state.Metrics) metrics.Counter { return m.PacketsDropped }, prom.ErrBuffer)
		return
	}

	if buf.Len() == 0 {
		n.Recorder.Done(id, procperf.Received, time.Now())
		n.Log.Info("dedicated topology report arrived", "source", hdr.Source, "hops", hdr.Hops)
		return
	}

	if n.Callbacks.OnDataReceived != nil {
		n.Callbacks.OnDataReceived(hdr.Source, hdr.Hops)
	}
	n.Recorder.Done(id, procperf.Delivered, time.Now())
	n.IncMetric(func(m state.Metrics) metrics.Counter { return m.PacketsDelivered }, prom.Success)
	n.Log.Info("packet delivered", "source", hdr.Source, "hops", hdr.Hops)
}

// onCommand implements the downward-forward state machine (spec §4.4
// "Downward forward at router").
func (e *Engine) onCommand(from addr.NodeAddress, hdr packet.CollectHeader, buf packet.Buffer) {
	n := e.Node
	if n.IsSink {
		n.Log.Error("sink received a command packet; dropping", "from", from)
		n.IncMetric(func(m state.Metrics) metrics.Counter { return m.PacketsDropped }, prom.ErrParse)
		return
	}

	id := procperf.NewID()
	n.Recorder.Start(id, time.Now())

	if hdr.PathLength == 0 {
		if err := packet.PopCollectOnly(buf); err != nil {
			n.Log.Error("cannot deliver command: shrink failed", "err", err)
			n.IncMetric(func(m state.Metrics) metrics.Counter { return m.PacketsDropped }, prom.ErrBuffer)
			return
		}
		if n.Callbacks.OnCommandReceived != nil {
			n.Callbacks.OnCommandReceived(hdr.Hops)
		}
		n.Recorder.Done(id, procperf.Delivered, time.Now())
		n.IncMetric(func(m state.Metrics) metrics.Counter { return m.PacketsDelivered }, prom.Success)
		n.Log.Info("command delivered", "source", hdr.Source, "hops", hdr.Hops)
		return
	}

	b := buf.Bytes()
	if len(b) < packet.CollectHeaderLen+packet.AddrLen {
		n.Log.Error("dropping command: too short to contain next hop")
		n.IncMetric(func(m state.Metrics) metrics.Counter { return m.PacketsDropped }, prom.ErrParse)
		return
	}
	next := packet.ReadAddressList(b[packet.CollectHeaderLen:packet.CollectHeaderLen+packet.AddrLen], 1)[0]

	if err := packet.PopOneAddr(buf); err != nil {
		n.Log.Error("cannot forward command: shrink failed", "err", err)
		n.IncMetric(func(m state.Metrics) metrics.Counter { return m.PacketsDropped }, prom.ErrBuffer)
		return
	}
	hdr.Hops++
	hdr.PathLength--
	if err := packet.OverwriteCollectHeader(buf, hdr); err != nil {
		n.Log.Error("cannot forward command: overwrite failed", "err", err)
		n.IncMetric(func(m state.Metrics) metrics.Counter { return m.PacketsDropped }, prom.ErrBuffer)
		return
	}

	if ok := n.Unicaster.UnicastSend(next, buf); !ok {
		n.IncMetric(func(m state.Metrics) metrics.Counter { return m.PacketsDropped }, prom.ErrNetwork)
		return
	}
	n.Recorder.Done(id, procperf.Propagated, time.Now())
	n.IncMetric(func(m state.Metrics) metrics.Counter { return m.PacketsForwarded }, prom.Success)
	n.Log.Debug("forwarded command packet", "next", next, "hops", hdr.Hops)
}

// SendDownward builds and sends a source-routed command packet toward dest
// (spec §4.4 "Downward send"). Only meaningful at the sink; it returns an
// error if the route cannot be computed.
func (e *Engine) SendDownward(dest addr.NodeAddress) (bool, error) {
	n := e.Node
	route, err := n.Table.FindRoute(n.Self, dest)
	if err != nil {
		return false, err
	}
	if len(route) == 0 {
		return false, collecterr.Ctx(collecterr.ErrNoPath, "dest", dest, "reason", "dest is sink or unroutable")
	}

	id := procperf.NewID()
	n.Recorder.Start(id, time.Now())

	nextHop := route[0]
	remaining := route[1:]

	hdr := packet.CollectHeader{
		Source:     n.Self,
		Hops:       0,
		IsCommand:  true,
		PathLength: uint8(len(remaining)),
	}
	buf := n.Unicaster.NewFrame()
	if err := packet.PushCollect(buf, hdr, remaining); err != nil {
		return false, err
	}

	if ok := n.Unicaster.UnicastSend(nextHop, buf); !ok {
		n.IncMetric(func(m state.Metrics) metrics.Counter { return m.PacketsDropped }, prom.ErrNetwork)
		return false, collecterr.Ctx(collecterr.ErrNoPath, "dest", dest, "reason", "unicast send failed")
	}
	n.Recorder.Done(id, procperf.Originated, time.Now())
	n.IncMetric(func(m state.Metrics) metrics.Counter { return m.PacketsForwarded }, prom.Success)
	n.Log.Debug("sent command packet", "dest", dest, "next_hop", nextHop, "path_length", hdr.PathLength)
	return true, nil
}
