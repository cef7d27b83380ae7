package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anapaya-labs/wsncollect/pkg/addr"
	"github.com/anapaya-labs/wsncollect/pkg/log"
	"github.com/anapaya-labs/wsncollect/pkg/metrics"
)

func TestNewNodeRouterStartsUnconnected(t *testing.T) {
	n := NewNode(1, false, DefaultTunables(), log.Root())

	assert.True(t, n.Parent.IsNull())
	assert.Equal(t, UninitializedMetric, n.Metric)
	assert.Equal(t, uint16(0), n.BeaconSeqn)
	assert.Nil(t, n.Table, "a router must not allocate a routing table")
}

func TestNewNodeSinkStartsAtMetricZeroWithTable(t *testing.T) {
	n := NewNode(1, true, DefaultTunables(), log.Root())

	assert.Equal(t, uint16(0), n.Metric)
	require.NotNil(t, n.Table)
	assert.Equal(t, 0, n.Table.Size())
}

// fakeCounter records every With(labels...).Add call. It serves as both its
// own Counter and Incrementer, since With's only job here is to remember the
// labels it was bound with.
type fakeCounter struct {
	calls [][]string
}

func (c *fakeCounter) With(labels ...string) metrics.Incrementer {
	c.calls = append(c.calls, labels)
	return c
}
func (c *fakeCounter) Add(float64) {}

func TestIncMetricSkipsNilCounter(t *testing.T) {
	n := NewNode(1, false, DefaultTunables(), log.Root())
	assert.NotPanics(t, func() {
		n.IncMetric(func(m Metrics) metrics.Counter { return m.PacketsDropped }, "reason")
	})
}

func TestIncMetricForwardsLabelsToCounter(t *testing.T) {
	n := NewNode(1, false, DefaultTunables(), log.Root())
	c := &fakeCounter{}
	n.Metrics.PacketsDropped = c

	n.IncMetric(func(m Metrics) metrics.Counter { return m.PacketsDropped }, "no_parent")

	require.Len(t, c.calls, 1)
	assert.Equal(t, []string{"no_parent"}, c.calls[0])
}

func TestDefaultTunablesMatchSpecDefaults(t *testing.T) {
	tun := DefaultTunables()
	assert.Equal(t, int16(-95), tun.RSSIThreshold)
	assert.Equal(t, addr.NodeAddress(0), addr.Null)
}
