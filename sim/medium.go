package sim

import (
	"sync"

	"github.com/anapaya-labs/wsncollect/pkg/addr"
	"github.com/anapaya-labs/wsncollect/pkg/collect/link"
	"github.com/anapaya-labs/wsncollect/pkg/collect/packet"
	"github.com/anapaya-labs/wsncollect/pkg/log"
)

// SimLink defines one bidirectional, possibly asymmetric radio link in the
// simulated topology: b hears a's broadcasts at RSSIAB, and a hears b's at
// RSSIBA. Unicast frames carry no RSSI.
// Absence of a link between two addresses means they are out of range of
// each other in both directions.
type SimLink struct {
	A, B   addr.NodeAddress
	RSSIAB int16
	RSSIBA int16
}

// Medium is the simulated broadcast domain: every node within range of a
// sender (per the configured SimLink set) receives a copy of a broadcast
// frame, stamped with that link's RSSI. Grounded on the teacher's
// SenderFactory/Sender split (control/beaconing/originator.go), generalized
// from "one sender per beacon, one destination" to "one shared medium,
// every node in range".
type Medium struct {
	mu    sync.RWMutex
	links map[linkKey]int16
	nodes map[addr.NodeAddress]link.BroadcastReceiveFunc
	log   log.Logger
}

type linkKey struct {
	from, to addr.NodeAddress
}

// NewMedium creates an empty Medium. Links are added with AddLink before
// any node opens a broadcaster.
func NewMedium(logger log.Logger) *Medium {
	return &Medium{
		links: make(map[linkKey]int16),
		nodes: make(map[addr.NodeAddress]link.BroadcastReceiveFunc),
		log:   logger,
	}
}

// AddLink registers a bidirectional (possibly asymmetric) radio link.
func (m *Medium) AddLink(l SimLink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links[linkKey{l.A, l.B}] = l.RSSIAB
	m.links[linkKey{l.B, l.A}] = l.RSSIBA
}

func (m *Medium) register(self addr.NodeAddress, onRecv link.BroadcastReceiveFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes[self] = onRecv
}

// broadcaster is the per-node handle returned by Endpoint.OpenBroadcast.
type broadcaster struct {
	medium *Medium
	self   addr.NodeAddress
}

var _ link.Broadcaster = (*broadcaster)(nil)

func (b *broadcaster) NewFrame() packet.Buffer {
	return NewBuffer(defaultFrameCapacity)
}

// BroadcastSend delivers buf to every node the medium has a link from self
// to, each stamped with that link's RSSI (spec §6: "on receive, the
// callback runs with the packet buffer populated and sender address
// known").
func (b *broadcaster) BroadcastSend(buf packet.Buffer) error {
	sb, ok := buf.(*Buffer)
	if !ok {
		return nil
	}
	b.medium.mu.RLock()
	type delivery struct {
		to   addr.NodeAddress
		rssi int16
		recv link.BroadcastReceiveFunc
	}
	var deliveries []delivery
	for to, recv := range b.medium.nodes {
		if to == b.self {
			continue
		}
		if rssi, ok := b.medium.links[linkKey{b.self, to}]; ok {
			deliveries = append(deliveries, delivery{to, rssi, recv})
		}
	}
	b.medium.mu.RUnlock()

	for _, d := range deliveries {
		cp := sb.clone()
		cp.SetRSSI(d.rssi)
		d.recv(b.self, cp)
	}
	return nil
}
