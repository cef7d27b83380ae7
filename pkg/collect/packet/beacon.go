package packet

import "encoding/binary"

// BeaconLen is the fixed wire size of a beacon frame: seqn(u16) || metric(u16).
const BeaconLen = 4

// BeaconFrame is the payload of a broadcast beacon (spec §4.1).
type BeaconFrame struct {
	Seqn   uint16
	Metric uint16
}

// DecodeBeaconFrame parses exactly BeaconLen bytes. It returns ok == false
// if data is not exactly BeaconLen bytes long (spec: "frame size differs
// from the beacon layout" is a reject condition, not a panic).
func DecodeBeaconFrame(data []byte) (BeaconFrame, bool) {
	if len(data) != BeaconLen {
		return BeaconFrame{}, false
	}
	return BeaconFrame{
		Seqn:   binary.LittleEndian.Uint16(data[0:2]),
		Metric: binary.LittleEndian.Uint16(data[2:4]),
	}, true
}

// SerializeTo writes the frame to b, which must be at least BeaconLen bytes.
func (f BeaconFrame) SerializeTo(b []byte) {
	binary.LittleEndian.PutUint16(b[0:2], f.Seqn)
	binary.LittleEndian.PutUint16(b[2:4], f.Metric)
}
