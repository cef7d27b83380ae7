package sim

import (
	"context"
	"sync"
	"time"

	"github.com/anapaya-labs/wsncollect/conn"
	"github.com/anapaya-labs/wsncollect/control/state"
	"github.com/anapaya-labs/wsncollect/pkg/addr"
	"github.com/anapaya-labs/wsncollect/pkg/log"
)

// NodeSpec describes one node to instantiate in a Network.
type NodeSpec struct {
	Addr   addr.NodeAddress
	IsSink bool
}

// Network wires a Medium, a UnicastFabric and a set of conn.Connections
// together, one per NodeSpec. Every Connection's callbacks already run
// synchronously off the Medium/UnicastFabric's calling goroutine (the
// in-memory transport has no separate I/O thread to hand off from), so
// there is no per-node event loop to coordinate here: Run just waits out
// the simulation duration and then closes every Connection, stopping the
// sink's periodic.Runner and any pending router timers.
type Network struct {
	Medium *Medium
	Fabric *UnicastFabric

	mu     sync.Mutex
	conns  map[addr.NodeAddress]*conn.Connection
	timers *TimerWheel
	log    log.Logger
}

// NewNetwork creates an empty Network with a fresh Medium and UnicastFabric.
func NewNetwork(logger log.Logger) *Network {
	return &Network{
		Medium: NewMedium(logger),
		Fabric: NewUnicastFabric(),
		conns:  make(map[addr.NodeAddress]*conn.Connection),
		timers: NewTimerWheel(),
		log:    logger,
	}
}

// AddLink registers both the broadcast-medium link (with RSSI) and the
// corresponding unicast-fabric reachability for the same pair of nodes.
func (nw *Network) AddLink(l SimLink) {
	nw.Medium.AddLink(l)
	nw.Fabric.AddLink(l.A, l.B)
}

// Open opens a conn.Connection for spec, using a fresh per-node Endpoint,
// TimerWheel-backed timers and a deterministically-seeded Rand.
func (nw *Network) Open(
	ctx context.Context,
	spec NodeSpec,
	tunables state.Tunables,
	callbacks state.Callbacks,
) (*conn.Connection, error) {
	ep := NewEndpoint(spec.Addr, nw.Medium, nw.Fabric)
	rnd := NewRand(int64(spec.Addr) + 1)
	nodeLogger := nw.log.With("node", spec.Addr)

	c, err := conn.Open(
		ctx, ep, spec.Addr, tunables.StartingChannel, spec.IsSink, tunables, callbacks,
		rnd, nw.timers.NewTimer(), nw.timers.NewTimer(), nodeLogger,
	)
	if err != nil {
		return nil, err
	}

	nw.mu.Lock()
	nw.conns[spec.Addr] = c
	nw.mu.Unlock()
	return c, nil
}

// Connection returns the previously-Open'd Connection for self, or nil.
func (nw *Network) Connection(self addr.NodeAddress) *conn.Connection {
	nw.mu.Lock()
	defer nw.mu.Unlock()
	return nw.conns[self]
}

// Run blocks for d, giving every node's timers and periodic tasks a chance
// to fire, then closes every Connection.
func (nw *Network) Run(ctx context.Context, d time.Duration) error {
	runCtx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	<-runCtx.Done()

	nw.mu.Lock()
	conns := make([]*conn.Connection, 0, len(nw.conns))
	for _, c := range nw.conns {
		conns = append(conns, c)
	}
	nw.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
	return nil
}
