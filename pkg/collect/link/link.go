// Package link declares the external collaborator contracts the routing
// core requires (spec §6): broadcast and unicast datagram transports, a
// countdown-timer facility and a random-number source. The core never
// implements these itself; package sim provides an in-memory
// implementation for tests and the simulator CLI, and a real deployment
// would back them with actual radios.
package link

import (
	"time"

	"github.com/anapaya-labs/wsncollect/pkg/addr"
	"github.com/anapaya-labs/wsncollect/pkg/collect/packet"
)

// Broadcaster is the best-effort, no-delivery-guarantee broadcast medium.
type Broadcaster interface {
	// NewFrame returns a fresh packet.Buffer to build an outgoing broadcast
	// frame in.
	NewFrame() packet.Buffer
	// BroadcastSend transmits buf's current contents to every node in
	// range. It is best effort: a nil error only means the frame was handed
	// to the radio, not that anyone received it.
	BroadcastSend(buf packet.Buffer) error
}

// BroadcastReceiveFunc is invoked by the link layer when a broadcast frame
// arrives. sender is the transmitting node; buf exposes the received bytes
// and the frame's RSSI via buf.RSSI().
type BroadcastReceiveFunc func(sender addr.NodeAddress, buf packet.Buffer)

// Unicaster is the single-hop, acknowledged-or-not point-to-point
// transport. Success only means the link layer accepted the frame for
// transmission (spec §6: "no retransmit above link ARQ").
type Unicaster interface {
	// NewFrame returns a fresh packet.Buffer to build an outgoing unicast
	// frame in.
	NewFrame() packet.Buffer
	// UnicastSend transmits buf's current contents to dest. ok is false on
	// failure (e.g. dest unreachable).
	UnicastSend(dest addr.NodeAddress, buf packet.Buffer) (ok bool)
}

// UnicastReceiveFunc is invoked by the link layer when a unicast frame
// addressed to this node arrives.
type UnicastReceiveFunc func(from addr.NodeAddress, buf packet.Buffer)

// Endpoint binds broadcast and unicast transports to one node, using an
// explicit owner back-pointer instead of the teacher firmware's
// field-offset recovery trick (spec §4.5, §9): the receive callback handed
// to OpenBroadcast/OpenUnicast is itself bound to its owner (conn.Open
// passes its Connection's own methods), so callback installation never
// needs to know the layout of the struct that embeds it. The endpoint
// carries no separate owner value.
type Endpoint interface {
	OpenBroadcast(channel int, onRecv BroadcastReceiveFunc) (Broadcaster, error)
	OpenUnicast(channel int, onRecv UnicastReceiveFunc) (Unicaster, error)
}

// Timer is a one-shot countdown timer that can be rescheduled or cancelled,
// matching the ctimer_set/ctimer_reset/ctimer_stop contract the original
// firmware uses for both the periodic beacon and the scheduled
// re-broadcast/topology-report send (spec §4.3, §9).
type Timer interface {
	// Set arms the timer to fire fn after delay, replacing any pending
	// firing.
	Set(delay time.Duration, fn func())
	// Stop cancels a pending firing, if any. It is a no-op if the timer is
	// not currently armed.
	Stop()
}

// Random is the node's source of randomness (random_u16 in spec §6), used
// to jitter beacon re-broadcast and topology-report delays.
type Random interface {
	// Uint16 returns a random value in [0, 65536).
	Uint16() uint16
	// Duration returns a random duration in [0, max).
	Duration(max time.Duration) time.Duration
}
