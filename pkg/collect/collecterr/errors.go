// Package collecterr names the error taxonomy of the routing core (spec §7)
// as sentinel values, so callers can branch with errors.Is instead of
// string matching, while every concrete occurrence still carries its own
// key-value context via pkg/private/serrors.
package collecterr

import "github.com/anapaya-labs/wsncollect/pkg/private/serrors"

var (
	// ErrMalformedFrame: beacon size mismatch, or collect header too short.
	ErrMalformedFrame = serrors.New("malformed frame")
	// ErrNoParent: ascending send/forward attempted with parent == null.
	ErrNoParent = serrors.New("no parent")
	// ErrBufferGrowFailed: header allocation exhausts the packet buffer.
	ErrBufferGrowFailed = serrors.New("buffer grow failed")
	// ErrBufferShrinkFailed: shrink past the end of the current header.
	ErrBufferShrinkFailed = serrors.New("buffer shrink failed")
	// ErrLoopDetected: self already present in an ascending address list, or
	// a repeat found while walking a descending route.
	ErrLoopDetected = serrors.New("loop detected")
	// ErrNoPath: find_route could not reach the sink.
	ErrNoPath = serrors.New("no path")
	// ErrStaleBeacon: beacon.seqn < local.seqn.
	ErrStaleBeacon = serrors.New("stale beacon")
)

// Ctx annotates one of the sentinels above with key-value context while
// preserving its identity for errors.Is.
func Ctx(sentinel error, fields ...any) error {
	return serrors.WithCtx(sentinel, fields...)
}
