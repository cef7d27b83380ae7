package packet

import (
	"encoding/binary"

	"github.com/anapaya-labs/wsncollect/pkg/addr"
)

// CollectHeaderLen is the fixed wire size of a collect header:
// source(2) || hops(1) || is_command(1) || path_length(1).
const CollectHeaderLen = 5

// AddrLen is the wire size of one NodeAddress in an address list.
const AddrLen = 2

// CollectHeader is the header prepended to every ascending (collection) and
// descending (command) packet (spec §4.1 / §3).
type CollectHeader struct {
	Source     addr.NodeAddress
	Hops       uint8
	IsCommand  bool
	PathLength uint8
}

// DecodeCollectHeader parses a CollectHeader from the front of data. It
// returns ok == false if data is shorter than CollectHeaderLen.
func DecodeCollectHeader(data []byte) (CollectHeader, bool) {
	if len(data) < CollectHeaderLen {
		return CollectHeader{}, false
	}
	return CollectHeader{
		Source:     addr.NodeAddress(binary.LittleEndian.Uint16(data[0:2])),
		Hops:       data[2],
		IsCommand:  data[3] != 0,
		PathLength: data[4],
	}, true
}

// SerializeTo writes the header to the front of b, which must be at least
// CollectHeaderLen bytes.
func (h CollectHeader) SerializeTo(b []byte) {
	binary.LittleEndian.PutUint16(b[0:2], uint16(h.Source))
	b[2] = h.Hops
	if h.IsCommand {
		b[3] = 1
	} else {
		b[3] = 0
	}
	b[4] = h.PathLength
}

// ReadAddressList decodes n addresses starting at the front of data,
// left-to-right.
func ReadAddressList(data []byte, n int) []addr.NodeAddress {
	out := make([]addr.NodeAddress, n)
	for i := 0; i < n; i++ {
		off := i * AddrLen
		out[i] = addr.NodeAddress(binary.LittleEndian.Uint16(data[off : off+AddrLen]))
	}
	return out
}

// WriteAddressList encodes list left-to-right starting at the front of b,
// which must be at least len(list)*AddrLen bytes.
func WriteAddressList(b []byte, list []addr.NodeAddress) {
	for i, a := range list {
		off := i * AddrLen
		binary.LittleEndian.PutUint16(b[off:off+AddrLen], uint16(a))
	}
}
