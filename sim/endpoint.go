package sim

import (
	"github.com/anapaya-labs/wsncollect/pkg/addr"
	"github.com/anapaya-labs/wsncollect/pkg/collect/link"
)

var _ link.Endpoint = (*Endpoint)(nil)

// Endpoint binds one node address to a shared Medium and UnicastFabric,
// implementing link.Endpoint. conn.Open calls OpenBroadcast/OpenUnicast
// exactly once each per node, passing its own receive methods as the
// callbacks (spec §9: "explicit back-pointer", never field-offset
// recovery).
type Endpoint struct {
	Self   addr.NodeAddress
	Medium *Medium
	Fabric *UnicastFabric
}

// NewEndpoint creates an Endpoint for self, bound to medium and fabric.
func NewEndpoint(self addr.NodeAddress, medium *Medium, fabric *UnicastFabric) *Endpoint {
	return &Endpoint{Self: self, Medium: medium, Fabric: fabric}
}

// OpenBroadcast implements link.Endpoint. channel is accepted for contract
// compatibility but unused: the simulated medium does not model frequency
// separation.
func (e *Endpoint) OpenBroadcast(_ int, onRecv link.BroadcastReceiveFunc) (link.Broadcaster, error) {
	e.Medium.register(e.Self, onRecv)
	return &broadcaster{medium: e.Medium, self: e.Self}, nil
}

// OpenUnicast implements link.Endpoint.
func (e *Endpoint) OpenUnicast(_ int, onRecv link.UnicastReceiveFunc) (link.Unicaster, error) {
	e.Fabric.register(e.Self, onRecv)
	return &unicaster{fabric: e.Fabric, self: e.Self}, nil
}
