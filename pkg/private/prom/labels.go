// Package prom holds the shared Prometheus label names and result values
// used when labeling routing-core counters, so every engine reports
// results with the same vocabulary.
package prom

// Common label names.
const (
	LabelResult = "result"
	LabelPeer   = "peer"
)

// Common result label values.
const (
	Success     = "ok"
	ErrNetwork  = "err_network"
	ErrParse    = "err_parse"
	ErrNoParent = "err_no_parent"
	ErrBuffer   = "err_buffer"
	ErrLoop     = "err_loop"
	ErrNoPath   = "err_no_path"
	ErrStale    = "err_stale"
)
