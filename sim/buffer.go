// Package sim provides an in-memory implementation of the link layer
// contracts declared in pkg/collect/link (broadcast medium, unicast
// fabric, timers, randomness), used by tests and cmd/wsnsim. It is
// explicitly a development/test harness, not part of the routing core.
package sim

import "github.com/anapaya-labs/wsncollect/pkg/collect/packet"

// defaultFrameCapacity bounds how many header bytes a simulated frame can grow
// by, mirroring the fixed-size packet buffer of a real radio (spec §7,
// scenario S7: "grow/shrink exhaustion").
const defaultFrameCapacity = 64

var _ packet.Buffer = (*Buffer)(nil)

// Buffer is a fixed-capacity packet.Buffer backed by a plain byte slice.
// GrowHeader/ShrinkHeader move a logical "start" offset within cap,
// matching the teacher's in-place scion.Raw codec contract rather than
// reallocating on every header push.
type Buffer struct {
	backing []byte
	start   int
	end     int
	rssi    int16
}

// NewBuffer allocates a Buffer with the given fixed capacity.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = defaultFrameCapacity
	}
	b := &Buffer{backing: make([]byte, capacity)}
	b.start = capacity
	b.end = capacity
	return b
}

// GrowHeader implements packet.Buffer.
func (b *Buffer) GrowHeader(n int) bool {
	if n < 0 || b.start-n < 0 {
		return false
	}
	b.start -= n
	return true
}

// ShrinkHeader implements packet.Buffer.
func (b *Buffer) ShrinkHeader(n int) bool {
	if n < 0 || b.start+n > b.end {
		return false
	}
	b.start += n
	return true
}

// Bytes implements packet.Buffer.
func (b *Buffer) Bytes() []byte {
	return b.backing[b.start:b.end]
}

// Len implements packet.Buffer.
func (b *Buffer) Len() int {
	return b.end - b.start
}

// RSSI implements packet.Buffer.
func (b *Buffer) RSSI() int16 {
	return b.rssi
}

// SetRSSI stamps the simulated receive strength of this frame; called by
// Medium immediately before invoking a node's broadcast receive callback.
func (b *Buffer) SetRSSI(rssi int16) {
	b.rssi = rssi
}

// clone returns an independent copy of b's current contents, at full
// capacity, positioned as a freshly grown frame of b.Len() header bytes.
// Medium/UnicastFabric use this so each recipient gets its own buffer
// while the sender keeps using its own.
func (b *Buffer) clone() *Buffer {
	out := NewBuffer(len(b.backing))
	out.GrowHeader(b.Len())
	copy(out.Bytes(), b.Bytes())
	return out
}
