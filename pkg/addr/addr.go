// Package addr defines the node address type used throughout the routing
// core: a 16-bit identifier with a distinguished null value, analogous to
// the link-layer address of a physical radio.
package addr

import "fmt"

// NodeAddress identifies a node in the sensor network. It is compared by
// value equality, never by pointer identity.
type NodeAddress uint16

// Null is the distinguished "no address" value. A Connection with
// Parent == Null is unconnected.
const Null NodeAddress = 0

// IsNull reports whether a is the null address.
func (a NodeAddress) IsNull() bool {
	return a == Null
}

// String renders the address the way the original firmware logs linkaddr_t
// values: two hex octets separated by a colon.
func (a NodeAddress) String() string {
	return fmt.Sprintf("%02x:%02x", byte(a>>8), byte(a))
}
