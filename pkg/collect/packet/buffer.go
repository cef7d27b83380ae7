// Package packet implements the on-wire layouts of the routing core (spec
// §4.1): the beacon frame, the collect header and its trailing address
// list. Codecs operate in place on a Buffer, the way the teacher's
// scion.Raw path type (pkg/slayers/path/scion/raw.go) decodes/serializes
// directly against caller-owned bytes instead of allocating its own.
package packet

// Buffer is the packet-buffer contract the routing core requires from the
// link layer (spec §6): in-place header growth/shrink plus raw access.
// GrowHeader reserves n bytes in front of the current contents (shifting
// nothing — the reserved bytes become the new front of the buffer for the
// caller to fill). ShrinkHeader drops the first n bytes of current
// contents. Both report failure instead of panicking: GrowHeader when the
// buffer's fixed capacity would be exceeded, ShrinkHeader when n exceeds
// the current length.
type Buffer interface {
	// GrowHeader reserves n header bytes. Returns false if the buffer does
	// not have n bytes of spare capacity.
	GrowHeader(n int) bool
	// ShrinkHeader drops the first n bytes of the current contents. Returns
	// false if n exceeds the current length.
	ShrinkHeader(n int) bool
	// Bytes returns the buffer's current contents (header followed by
	// payload). The returned slice aliases the buffer; writes through it are
	// visible to later reads until the next Grow/Shrink.
	Bytes() []byte
	// Len returns len(Bytes()).
	Len() int
	// RSSI returns the received-signal strength of the last frame delivered
	// into this buffer. Only meaningful for buffers populated by a receive
	// callback.
	RSSI() int16
}
