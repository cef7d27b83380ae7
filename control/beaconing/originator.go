// Copyright 2019 Anapaya Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package beaconing implements beacon origination (sink) and beacon
// reception (router) per spec §4.3.
package beaconing

import (
	"context"
	"time"

	"github.com/anapaya-labs/wsncollect/control/state"
	"github.com/anapaya-labs/wsncollect/pkg/collect/collecterr"
	"github.com/anapaya-labs/wsncollect/pkg/collect/packet"
	"github.com/anapaya-labs/wsncollect/pkg/metrics"
	"github.com/anapaya-labs/wsncollect/pkg/private/prom"
	"github.com/anapaya-labs/wsncollect/private/periodic"
	"github.com/anapaya-labs/wsncollect/private/procperf"
)

var _ periodic.Task = (*Originator)(nil)

// Originator originates beacons. It must only be used at the sink.
type Originator struct {
	Node *state.Node

	// Tick is mutable.
	Tick periodic.Tick
}

// NewOriginator creates an Originator bound to n, with its Tick set to n's
// beacon interval.
func NewOriginator(n *state.Node) *Originator {
	return &Originator{
		Node: n,
		Tick: periodic.NewTick(n.Tunables.BeaconInterval),
	}
}

// Name returns the task's name.
func (o *Originator) Name() string {
	return "beaconing_originator"
}

// Run originates one beacon. Called immediately on start and then every
// BeaconInterval by the periodic.Runner driving this task.
func (o *Originator) Run(_ context.Context) {
	o.Tick.SetNow(time.Now())
	if err := o.originateBeacon(); err != nil {
		o.Node.Log.Error("failed to originate beacon", "err", err)
	}
	o.Tick.UpdateLast()
}

// originateBeacon increments beacon_seqn and broadcasts {seqn, metric=0}
// (spec §4.3: "sink behavior").
func (o *Originator) originateBeacon() error {
	n := o.Node
	n.BeaconSeqn++

	id := procperf.NewID()
	n.Recorder.Start(id, time.Now())

	frame := packet.BeaconFrame{Seqn: n.BeaconSeqn, Metric: n.Metric}
	buf := n.Broadcaster.NewFrame()
	if !buf.GrowHeader(packet.BeaconLen) {
		n.IncMetric(func(m state.Metrics) metrics.Counter { return m.BeaconsOriginated }, prom.ErrBuffer)
		return collecterr.Ctx(collecterr.ErrBufferGrowFailed, "bytes", packet.BeaconLen)
	}
	frame.SerializeTo(buf.Bytes())

	if err := n.Broadcaster.BroadcastSend(buf); err != nil {
		n.IncMetric(func(m state.Metrics) metrics.Counter { return m.BeaconsOriginated }, prom.ErrNetwork)
		return collecterr.Ctx(collecterr.ErrMalformedFrame, "cause", err.Error())
	}

	n.Recorder.Done(id, procperf.Originated, time.Now())
	n.IncMetric(func(m state.Metrics) metrics.Counter { return m.BeaconsOriginated }, prom.Success)
	n.Log.Debug("beacon originated", "seqn", n.BeaconSeqn, "metric", n.Metric)
	return nil
}
