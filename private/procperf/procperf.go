// Package procperf records lifecycle timestamps of beacons and collect
// packets to a CSV file for offline latency analysis, the way the
// teacher's private/procperf/procperf.go tracks beacon
// originate/propagate/receive times keyed by a beacon id. That
// implementation keys records by a hostname-derived id, which has no
// equivalent for a simulated node; this version keys them by a
// github.com/google/uuid assigned when the packet is created, and tracks
// collect/command packets as well as beacons.
package procperf

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/anapaya-labs/wsncollect/pkg/log"
)

// Stage names a point in a packet's lifecycle.
type Stage string

const (
	Originated Stage = "Originated"
	Propagated Stage = "Propagated"
	Received   Stage = "Received"
	Delivered  Stage = "Delivered"
)

type record struct {
	start time.Time
}

// Recorder writes one CSV row per completed stage. It is safe to share
// across nodes: cmd/wsnsim's run command attaches one Recorder to every
// node (or none, if telemetry is disabled).
type Recorder struct {
	mu      sync.Mutex
	file    *os.File
	pending map[uuid.UUID]record
}

// Open creates (or truncates) path and writes the CSV header. Callers must
// call Close when the recorder is no longer needed.
func Open(path string) (*Recorder, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0o666)
	if err != nil {
		return nil, err
	}
	if _, err := f.WriteString("id,stage,start,end,duration_us\n"); err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Recorder{file: f, pending: make(map[uuid.UUID]record)}, nil
}

// Close flushes and closes the underlying file.
func (r *Recorder) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	return r.file.Close()
}

// NewID allocates an id for a packet entering the network (at origination).
func NewID() uuid.UUID {
	return uuid.New()
}

// Start records that id began a stage at t.
func (r *Recorder) Start(id uuid.UUID, t time.Time) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[id] = record{start: t}
}

// Done records that id completed stage at t, writing one CSV row, and stops
// tracking id.
func (r *Recorder) Done(id uuid.UUID, stage Stage, t time.Time) {
	if r == nil {
		return
	}
	r.mu.Lock()
	rec, ok := r.pending[id]
	if ok {
		delete(r.pending, id)
	}
	r.mu.Unlock()
	if !ok {
		log.Debug("procperf: stage completed with no matching start", "id", id, "stage", stage)
		return
	}
	row := fmt.Sprintf("%s,%s,%s,%s,%d\n",
		id, stage, rec.start.Format(time.RFC3339Nano), t.Format(time.RFC3339Nano),
		t.Sub(rec.start).Microseconds())
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.file.WriteString(row); err != nil {
		log.Error("procperf: write failed", "err", err)
	}
}
