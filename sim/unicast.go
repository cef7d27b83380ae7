package sim

import (
	"sync"

	"github.com/anapaya-labs/wsncollect/pkg/addr"
	"github.com/anapaya-labs/wsncollect/pkg/collect/link"
	"github.com/anapaya-labs/wsncollect/pkg/collect/packet"
)

// FailureInjector decides whether a unicast frame from -> to should be
// dropped, for exercising NoParent/link-down failure paths (spec §6 note:
// "sim.UnicastFabric ... with an optional failure injector").
type FailureInjector func(from, to addr.NodeAddress) bool

// UnicastFabric is the simulated single-hop point-to-point transport. A
// send only succeeds if a link exists between sender and destination
// (mirroring the medium's reachability) and the optional injector does not
// veto it.
type UnicastFabric struct {
	mu       sync.RWMutex
	links    map[linkKey]bool
	nodes    map[addr.NodeAddress]link.UnicastReceiveFunc
	injector FailureInjector
}

// NewUnicastFabric creates an empty fabric with no failure injection.
func NewUnicastFabric() *UnicastFabric {
	return &UnicastFabric{
		links: make(map[linkKey]bool),
		nodes: make(map[addr.NodeAddress]link.UnicastReceiveFunc),
	}
}

// AddLink marks a and b as able to reach each other directly. Reachability
// is intentionally independent from Medium's RSSI values: a real unicast
// transport commonly rides a separate, more reliable channel.
func (f *UnicastFabric) AddLink(a, b addr.NodeAddress) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.links[linkKey{a, b}] = true
	f.links[linkKey{b, a}] = true
}

// SetFailureInjector installs fn, replacing any previous injector.
func (f *UnicastFabric) SetFailureInjector(fn FailureInjector) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.injector = fn
}

func (f *UnicastFabric) register(self addr.NodeAddress, onRecv link.UnicastReceiveFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nodes[self] = onRecv
}

type unicaster struct {
	fabric *UnicastFabric
	self   addr.NodeAddress
}

var _ link.Unicaster = (*unicaster)(nil)

func (u *unicaster) NewFrame() packet.Buffer {
	return NewBuffer(defaultFrameCapacity)
}

// UnicastSend implements link.Unicaster. It returns false (spec §6:
// "returns success/failure; no retransmit above link ARQ") if there is no
// link to dest, the destination never opened a unicast endpoint, or the
// injector vetoes delivery.
func (u *unicaster) UnicastSend(dest addr.NodeAddress, buf packet.Buffer) bool {
	sb, ok := buf.(*Buffer)
	if !ok {
		return false
	}

	u.fabric.mu.RLock()
	connected := u.fabric.links[linkKey{u.self, dest}]
	recv, known := u.fabric.nodes[dest]
	injector := u.fabric.injector
	u.fabric.mu.RUnlock()

	if !connected || !known {
		return false
	}
	if injector != nil && injector(u.self, dest) {
		return false
	}

	recv(u.self, sb.clone())
	return true
}
