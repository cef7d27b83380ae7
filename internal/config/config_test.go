package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anapaya-labs/wsncollect/pkg/addr"
)

func TestDefaultMatchesStateDefaultTunables(t *testing.T) {
	cfg := Default()
	tun := cfg.Tunables()

	assert.Equal(t, 60*time.Second, tun.BeaconInterval)
	assert.Equal(t, 1*time.Second, tun.BeaconForwardDelayMax)
	assert.Equal(t, int16(-95), tun.RSSIThreshold)
	assert.Equal(t, 10, tun.MaxPathLength)
}

func TestLoadEmptyPathReturnsDefault(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "topology.yaml")
	yaml := `
beacon_interval_seconds: 5
rssi_threshold: -80
nodes:
  - addr: 1
    is_sink: true
  - addr: 2
    is_sink: false
  - addr: 3
    is_sink: false
links:
  - a: 1
    b: 2
    rssi_ab: -40
    rssi_ba: -45
  - a: 2
    b: 3
    rssi_ab: -50
    rssi_ba: -55
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.BeaconIntervalSeconds)
	assert.Equal(t, int16(-80), cfg.RSSIThreshold)
	// beacon_forward_delay_max_seconds was omitted, so it falls back to the default.
	assert.Equal(t, Default().BeaconForwardDelayMaxSeconds, cfg.BeaconForwardDelayMaxSeconds)

	require.Len(t, cfg.Nodes, 3)
	require.Len(t, cfg.Links, 2)
	assert.Equal(t, int16(-45), cfg.Links[0].RSSIBA)
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.Error(t, err)
}

func TestAddressesPutsSinkFirst(t *testing.T) {
	cfg := Config{Nodes: []NodeConfig{
		{Addr: 2, IsSink: false},
		{Addr: 3, IsSink: false},
		{Addr: 1, IsSink: true},
	}}

	got := cfg.Addresses()
	require.Len(t, got, 3)
	assert.Equal(t, addr.NodeAddress(1), got[0])
	assert.ElementsMatch(t, []addr.NodeAddress{2, 3}, got[1:])
}
