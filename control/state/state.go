// Package state holds the mutable per-node Connection state (spec §3) that
// both the beaconing and forwarding engines read and update. It exists as
// its own package, separate from the public conn facade, purely to break
// the import cycle that would otherwise exist between the two engines and
// the facade that wires them together.
package state

import (
	"time"

	"github.com/anapaya-labs/wsncollect/pkg/addr"
	"github.com/anapaya-labs/wsncollect/pkg/collect/link"
	"github.com/anapaya-labs/wsncollect/pkg/collect/routing"
	"github.com/anapaya-labs/wsncollect/pkg/log"
	"github.com/anapaya-labs/wsncollect/pkg/metrics"
	"github.com/anapaya-labs/wsncollect/private/procperf"
)

// UninitializedMetric is the sentinel metric value of a router that has not
// yet received any beacon (spec §3).
const UninitializedMetric uint16 = 65535

// Tunables are the protocol constants of spec §6, loaded once at process
// start and never mutated afterwards.
type Tunables struct {
	BeaconInterval        time.Duration
	BeaconForwardDelayMax time.Duration
	RSSIThreshold         int16
	MaxPathLength         int
	StartingChannel       int
}

// DefaultTunables returns the spec's default values.
func DefaultTunables() Tunables {
	return Tunables{
		BeaconInterval:        60 * time.Second,
		BeaconForwardDelayMax: 1 * time.Second,
		RSSIThreshold:         -95,
		MaxPathLength:         routing.DefaultMaxPathLength,
		StartingChannel:       0,
	}
}

// Callbacks are the application-layer hooks the routing core invokes (spec
// §6).
type Callbacks struct {
	// OnDataReceived fires at the sink when a collection packet carrying a
	// non-empty payload is delivered.
	OnDataReceived func(source addr.NodeAddress, hops uint8)
	// OnCommandReceived fires at a router when a descending command
	// terminates at it.
	OnCommandReceived func(hops uint8)
}

// Metrics are the optional counters the engines increment. Any nil field is
// simply skipped, so callers that don't care about metrics can leave the
// whole struct zero-valued.
type Metrics struct {
	BeaconsOriginated metrics.Counter
	BeaconsAdopted    metrics.Counter
	BeaconsDiscarded  metrics.Counter
	PacketsForwarded  metrics.Counter
	PacketsDropped    metrics.Counter
	PacketsDelivered  metrics.Counter
	RoutingUpdates    metrics.Counter
}

func (m Metrics) inc(c metrics.Counter, labels ...string) {
	if c == nil {
		return
	}
	c.With(labels...).Add(1)
}

// Node is the per-node Connection state (spec §3's Connection entity).
type Node struct {
	Self   addr.NodeAddress
	IsSink bool

	Parent     addr.NodeAddress
	ParentRSSI int16
	Metric     uint16
	BeaconSeqn uint16

	// Table is non-nil only at the sink.
	Table *routing.Table

	Tunables  Tunables
	Callbacks Callbacks
	Metrics   Metrics
	Log       log.Logger

	Broadcaster link.Broadcaster
	Unicaster   link.Unicaster

	// ScheduledTimer carries the router's pending beacon re-broadcast.
	// TopologyReportTimer carries the router's pending dedicated topology
	// report. They are deliberately two separate link.Timer slots (spec §9
	// open question: avoid reusing one timer's storage for two independent
	// deferred actions) and are themselves distinct from the sink's
	// recurring beacon-emission schedule, which is driven by a
	// private/periodic.Runner rather than a one-shot Timer.
	ScheduledTimer      link.Timer
	TopologyReportTimer link.Timer
	Rand                link.Random

	// Recorder is the optional procperf lifecycle telemetry sink. A nil
	// Recorder silently drops every Start/Done call, so wiring it in is
	// opt-in (spec §6's PacketID: "threaded through procperf telemetry
	// only, never placed on the wire").
	Recorder *procperf.Recorder
}

// NewNode constructs a Node in its just-opened state (spec §4.5): no
// parent, uninitialized metric, seqn 0. If isSink, metric is forced to 0
// and a routing table is allocated.
func NewNode(self addr.NodeAddress, isSink bool, tunables Tunables, logger log.Logger) *Node {
	n := &Node{
		Self:       self,
		IsSink:     isSink,
		Parent:     addr.Null,
		ParentRSSI: 0,
		Metric:     UninitializedMetric,
		BeaconSeqn: 0,
		Tunables:   tunables,
		Log:        logger,
	}
	if isSink {
		n.Metric = 0
		n.Table = routing.New(tunables.MaxPathLength)
	}
	return n
}

// IncMetric increments the counter that pick selects from n.Metrics,
// labeled with labels, ignoring nil counters.
func (n *Node) IncMetric(pick func(Metrics) metrics.Counter, labels ...string) {
	n.Metrics.inc(pick(n.Metrics), labels...)
}
