// Package routing implements the sink-only routing table (spec §4.2):
// the child->parent map built from observed ascending paths, and the
// source-route walk used to build descending commands.
//
// Grounded on my_routing_table.c/h (Andr35/wsn-project): the original uses
// a 65k-slot sparse array indexed by address; per the spec's representation
// note we use a compact map instead, keeping the same external contract.
package routing

import (
	"github.com/anapaya-labs/wsncollect/pkg/addr"
	"github.com/anapaya-labs/wsncollect/pkg/collect/collecterr"
)

// DefaultMaxPathLength is MAX_PATH_LENGTH (spec §4.2, §6).
const DefaultMaxPathLength = 10

// Table is the sink's view of the spanning tree, keyed by child address.
// A Table is not safe for concurrent use; the sink's Connection owns it and
// accesses it only from its own event loop (spec §5).
type Table struct {
	parentOf map[addr.NodeAddress]addr.NodeAddress
	// maxPathLength bounds the depth of FindRoute's walk before it gives up
	// and reports NoPath, matching the original's implicit bound.
	maxPathLength int
}

// New creates an empty routing table.
func New(maxPathLength int) *Table {
	if maxPathLength <= 0 {
		maxPathLength = DefaultMaxPathLength
	}
	return &Table{
		parentOf:      make(map[addr.NodeAddress]addr.NodeAddress),
		maxPathLength: maxPathLength,
	}
}

// Update records the latest observation: parent is child's parent. A later
// call for the same child overwrites the earlier parent (spec §3 invariant:
// "latest observation wins").
func (t *Table) Update(parent, child addr.NodeAddress) {
	t.parentOf[child] = parent
}

// ParentOf returns the latest known parent of child, or addr.Null if child
// has never been observed.
func (t *Table) ParentOf(child addr.NodeAddress) addr.NodeAddress {
	p, ok := t.parentOf[child]
	if !ok {
		return addr.Null
	}
	return p
}

// Size returns the number of distinct children currently recorded.
func (t *Table) Size() int {
	return len(t.parentOf)
}

// Children returns every child address currently recorded, in no
// particular order. Intended for diagnostics (e.g. cmd/wsnsim's routing
// table dump).
func (t *Table) Children() []addr.NodeAddress {
	out := make([]addr.NodeAddress, 0, len(t.parentOf))
	for child := range t.parentOf {
		out = append(out, child)
	}
	return out
}

// SourceRoute is an ordered, loop-free list of hops from the sink's direct
// neighbor (index 0) to the final destination (last index, inclusive).
type SourceRoute []addr.NodeAddress

// FindRoute walks parent pointers starting at dest until it reaches sink,
// collecting the nodes visited, then returns them reversed and with sink
// excluded: the first element is sink's direct neighbor, the last is dest
// (spec §4.2).
//
// If dest equals sink, FindRoute returns an empty, non-nil route: the sink
// does not route to itself, but that is the caller's (send_downward's) rule
// to enforce, not a routing failure (spec §4.2 edge case).
//
// It fails with ErrNoPath if an intermediate ParentOf lookup returns
// addr.Null before reaching sink, or if dest's parent chain exceeds the
// table's maxPathLength. It fails with ErrLoopDetected if any address
// repeats during the walk.
func (t *Table) FindRoute(sink, dest addr.NodeAddress) (SourceRoute, error) {
	if dest == sink {
		return SourceRoute{}, nil
	}

	// walk accumulates dest, then each ancestor, ending at sink (sink itself
	// is appended before the loop breaks, and dropped after it).
	walk := make([]addr.NodeAddress, 0, t.maxPathLength+1)
	seen := make(map[addr.NodeAddress]bool, t.maxPathLength+1)

	current := dest
	for {
		if seen[current] {
			return nil, collecterr.Ctx(collecterr.ErrLoopDetected, "at", current)
		}
		seen[current] = true
		walk = append(walk, current)

		if current == sink {
			break
		}
		if len(walk) > t.maxPathLength {
			return nil, collecterr.Ctx(collecterr.ErrNoPath,
				"dest", dest, "reason", "exceeds max path length", "max", t.maxPathLength)
		}

		parent := t.ParentOf(current)
		if parent.IsNull() {
			return nil, collecterr.Ctx(collecterr.ErrNoPath, "dest", dest, "stuck_at", current)
		}
		current = parent
	}

	// walk is [dest, ..., sink]; reverse and drop the trailing sink entry.
	route := make(SourceRoute, len(walk)-1)
	for i, n := 0, len(walk)-1; n > 0; i, n = i+1, n-1 {
		route[i] = walk[n-1]
	}
	return route, nil
}
