package slurm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig(readFixture(t, "scontrol-config.txt"))
	require.NoError(t, err)
	assert.Equal(t, DefaultMem{Kind: PerCPU, MB: 2048}, cfg.DefaultMem)
}

func TestParseConfig_Unlimited(t *testing.T) {
	cfg, err := ParseConfig([]byte("DefMemPerNode = UNLIMITED\nDefMemPerCPU = junk\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultMem{}, cfg.DefaultMem)
	assert.Equal(t, "unlimited", cfg.DefaultMem.String())
}

func TestParseConfig_PerNode(t *testing.T) {
	cfg, err := ParseConfig([]byte("DefMemPerNode = 64000\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultMem{Kind: PerNode, MB: 64000}, cfg.DefaultMem)
	assert.Equal(t, "64000M/node", cfg.DefaultMem.String())
}

func TestParsePartitions(t *testing.T) {
	cfg, err := ParseConfig(readFixture(t, "scontrol-config.txt"))
	require.NoError(t, err)
	require.NoError(t, ParsePartitions(cfg, readFixture(t, "scontrol-partition.txt")))

	assert.Equal(t, map[string]DefaultMem{
		"standard": {Kind: PerCPU, MB: 4000},
		"gpu":      {Kind: PerGPU, MB: 64000},
		"debug":    {},
	}, cfg.Partitions)

	assert.Equal(t, DefaultMem{Kind: PerCPU, MB: 4000}, cfg.NodeDefaultMem("standard"))
	assert.Equal(t, DefaultMem{Kind: PerGPU, MB: 64000}, cfg.NodeDefaultMem("gpu"))
	// Unlimited partitions fall back to the cluster default.
	assert.Equal(t, DefaultMem{Kind: PerCPU, MB: 2048}, cfg.NodeDefaultMem("debug"))
	assert.Equal(t, DefaultMem{Kind: PerCPU, MB: 2048}, cfg.NodeDefaultMem("unknown"))
}

func TestParsePartitions_KeyOrder(t *testing.T) {
	cfg := &Config{}
	data := []byte("PartitionName=mixed DefMemPerNode=100 DefMemPerGPU=200\n\nNodes=orphan\n")
	require.NoError(t, ParsePartitions(cfg, data))

	// GPU is checked before node.
	assert.Equal(t, map[string]DefaultMem{"mixed": {Kind: PerGPU, MB: 200}}, cfg.Partitions)
}

func TestNilConfigDefaultMem(t *testing.T) {
	var cfg *Config
	assert.Equal(t, DefaultMem{}, cfg.NodeDefaultMem("any"))
}
