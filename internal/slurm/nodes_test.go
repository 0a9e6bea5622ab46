package slurm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func ptr[T any](v T) *T {
	return &v
}

func TestParseNodeState(t *testing.T) {
	tests := []struct {
		value   string
		want    NodeState
		wantErr bool
	}{
		{value: "idle", want: NodeState{State: StateIdle, Responds: true}},
		{value: "mixed", want: NodeState{State: StateMixed, Responds: true}},
		{value: "down*", want: NodeState{State: StateDown, Responds: false}},
		{value: "idle~", want: NodeState{State: StateIdle, Responds: true}},
		{value: "mixed-", want: NodeState{State: StateMixed, Responds: true}},
		{value: "idle+drain", want: NodeState{State: StateIdle, Responds: true}},
		{value: "drained*+reboot", want: NodeState{State: StateDrained, Responds: false}},
		{value: "MAINT", want: NodeState{State: StateMaintenance, Responds: true}},
		{value: "powered_down", want: NodeState{State: StatePoweredDown, Responds: true}},
		{value: "sleepy", wantErr: true},
		{value: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := ParseNodeState(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNodeStateAvailability(t *testing.T) {
	available := []SlurmState{StateAllocated, StateCompleting, StateIdle, StateMixed, StateReserved, StatePlanned}
	for _, s := range available {
		assert.True(t, NodeState{State: s, Responds: true}.IsAvailable(), s)
		assert.False(t, NodeState{State: s, Responds: false}.IsAvailable(), s)
	}
	for _, s := range []SlurmState{StateDown, StateDrained, StateDraining, StateMaintenance, StatePoweredDown} {
		assert.False(t, NodeState{State: s, Responds: true}.IsAvailable(), s)
	}
}

func TestNodeStateString(t *testing.T) {
	assert.Equal(t, "Mixed", NodeState{State: StateMixed, Responds: true}.String())
	assert.Equal(t, "Down*", NodeState{State: StateDown}.String())
	assert.Equal(t, "Maintenance", NodeState{State: StateMaintenance, Responds: true}.String())
}

func TestParsePartitionName(t *testing.T) {
	p := ParsePartitionName("standard*")
	assert.Equal(t, PartitionName{Label: "standard", Default: true}, p)
	assert.Equal(t, "standard*", p.String())

	p = ParsePartitionName(" gpu ")
	assert.Equal(t, PartitionName{Label: "gpu"}, p)
	assert.Equal(t, "gpu", p.String())
}

func TestParseCPUState(t *testing.T) {
	got, err := ParseCPUState("32/24/8/64")
	require.NoError(t, err)
	assert.Equal(t, CPUState{Allocated: 32, Idle: 24, Other: 8, Total: 64}, got)

	for _, bad := range []string{"1/2/3", "1/2/3/4/5", "a/2/3/4", "1/-2/3/4", ""} {
		_, err := ParseCPUState(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseGPUs(t *testing.T) {
	tests := map[string]int{
		"(null)":                     0,
		"":                           0,
		"gpu:0":                      0,
		"gpu:4":                      4,
		"gpu:a100:4(S:0-1)":          4,
		"shard:8,gpu:h100:2(S:0)":    2,
		"gpu:a100:2(IDX:0-1),mps:0": 2,
		"gpu:a100:0(IDX:N/A)":        0,
	}
	for gres, want := range tests {
		got, err := parseGPUs(gres)
		require.NoError(t, err, gres)
		assert.Equal(t, want, got, gres)
	}

	_, err := parseGPUs("gpu:a100:many")
	assert.Error(t, err)
}

func TestParseNodes(t *testing.T) {
	nodes, err := ParseNodes(readFixture(t, "sinfo.txt"))
	require.NoError(t, err)
	require.Len(t, nodes, 6)

	want := &Node{
		Name:      "gpu01",
		Partition: PartitionName{Label: "gpu"},
		State:     NodeState{State: StateMixed, Responds: true},
		CPUs:      32,
		CPULoad:   ptr(8.0),
		CPUState:  CPUState{Allocated: 8, Idle: 24, Other: 0, Total: 32},
		Memory:    515000,
		MemAlloc:  131072,
		MemFree:   ptr(200000),
		GPUs:      4,
		GPUsUsed:  2,
	}
	if diff := cmp.Diff(want, nodes[4]); diff != "" {
		t.Errorf("ParseNodes() mismatch (-want +got):\n%s", diff)
	}

	down := nodes[3]
	assert.Equal(t, "node03", down.Name)
	assert.Nil(t, down.CPULoad)
	assert.Nil(t, down.MemFree)
	assert.False(t, down.State.Responds)
	assert.True(t, nodes[0].Partition.Default)
}

func TestParseNodes_Errors(t *testing.T) {
	header := "ALLOCMEM|CPUS|CPU_LOAD|CPUS(A/I/O/T)|FREE_MEM|GRES|GRES_USED|MEMORY|NODELIST|PARTITION|STATE\n"
	tests := map[string]string{
		"bad state":     "0|4|0.0|0/4/0/4|100|(null)|(null)|100|n1|p|sleepy\n",
		"bad cpus":      "0|four|0.0|0/4/0/4|100|(null)|(null)|100|n1|p|idle\n",
		"bad load":      "0|4|high|0/4/0/4|100|(null)|(null)|100|n1|p|idle\n",
		"bad cpu state": "0|4|0.0|0/4/0|100|(null)|(null)|100|n1|p|idle\n",
		"short row":     "0|4|0.0\n",
	}
	for name, line := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseNodes([]byte(header + line))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "sinfo line 2")
		})
	}

	_, err := ParseNodes([]byte("NODELIST|STATE\nn1|idle\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing columns")
}

func TestParseNodes_Empty(t *testing.T) {
	nodes, err := ParseNodes(nil)
	require.NoError(t, err)
	assert.Empty(t, nodes)
}
