package packet

import (
	"github.com/anapaya-labs/wsncollect/pkg/addr"
	"github.com/anapaya-labs/wsncollect/pkg/collect/collecterr"
)

// PushCollect grows buf's header by the size of hdr plus addrList and
// writes both at the front, in the layout
// CollectHeader || addrList[0] || addrList[1] || ...
// hdr.PathLength must already equal len(addrList).
func PushCollect(buf Buffer, hdr CollectHeader, addrList []addr.NodeAddress) error {
	if int(hdr.PathLength) != len(addrList) {
		return collecterr.Ctx(collecterr.ErrMalformedFrame,
			"path_length", hdr.PathLength, "addr_list_len", len(addrList))
	}
	total := CollectHeaderLen + len(addrList)*AddrLen
	if !buf.GrowHeader(total) {
		return collecterr.Ctx(collecterr.ErrBufferGrowFailed, "bytes", total)
	}
	b := buf.Bytes()
	hdr.SerializeTo(b)
	WriteAddressList(b[CollectHeaderLen:], addrList)
	return nil
}

// PeekCollect parses a CollectHeader and its address list from the front of
// buf without consuming them. It fails if the buffer is shorter than the
// declared header and address list.
func PeekCollect(buf Buffer) (CollectHeader, []addr.NodeAddress, error) {
	b := buf.Bytes()
	hdr, ok := DecodeCollectHeader(b)
	if !ok {
		return CollectHeader{}, nil, collecterr.Ctx(collecterr.ErrMalformedFrame,
			"len", len(b), "want_at_least", CollectHeaderLen)
	}
	need := CollectHeaderLen + int(hdr.PathLength)*AddrLen
	if len(b) < need {
		return CollectHeader{}, nil, collecterr.Ctx(collecterr.ErrMalformedFrame,
			"len", len(b), "want", need)
	}
	list := ReadAddressList(b[CollectHeaderLen:need], int(hdr.PathLength))
	return hdr, list, nil
}

// PopCollectAndAddrs shrinks buf by the header plus its address list,
// exposing the payload only.
func PopCollectAndAddrs(buf Buffer, pathLength uint8) error {
	total := CollectHeaderLen + int(pathLength)*AddrLen
	if !buf.ShrinkHeader(total) {
		return collecterr.Ctx(collecterr.ErrBufferShrinkFailed, "bytes", total)
	}
	return nil
}

// PopCollectOnly shrinks buf by just the fixed-size header, leaving any
// address list (used by the downward-forward terminus case, where
// PathLength is already 0).
func PopCollectOnly(buf Buffer) error {
	if !buf.ShrinkHeader(CollectHeaderLen) {
		return collecterr.Ctx(collecterr.ErrBufferShrinkFailed, "bytes", CollectHeaderLen)
	}
	return nil
}

// PopOneAddr shrinks buf by a single address (the downward-forward
// intermediate case, which removes only addrList[0]).
func PopOneAddr(buf Buffer) error {
	if !buf.ShrinkHeader(AddrLen) {
		return collecterr.Ctx(collecterr.ErrBufferShrinkFailed, "bytes", AddrLen)
	}
	return nil
}

// OverwriteCollectHeader rewrites just the fixed-size header fields at the
// front of buf, leaving the remaining bytes (address list or payload)
// untouched. The header must already have been accounted for in the
// buffer's current length.
func OverwriteCollectHeader(buf Buffer, hdr CollectHeader) error {
	b := buf.Bytes()
	if len(b) < CollectHeaderLen {
		return collecterr.Ctx(collecterr.ErrMalformedFrame, "len", len(b))
	}
	hdr.SerializeTo(b)
	return nil
}
