package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"slurmboard/internal/config"
	"slurmboard/internal/runner"
	"slurmboard/internal/store"
)

const fixtureDir = "../../internal/slurm/testdata"

// execute runs the command tree with args and returns everything it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	for _, env := range []string{"SLURMBOARD_INTERVAL", "SLURMBOARD_THEME", "SLURMBOARD_DB", "SLURMBOARD_FIXTURES", "SLURMBOARD_DEBUG"} {
		t.Setenv(env, "")
	}

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// writeConfig writes a config file into a temp dir and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func missingConfig(t *testing.T) string {
	return filepath.Join(t.TempDir(), "config.yaml")
}

func TestVersion(t *testing.T) {
	for _, arg := range []string{"--version", "-v"} {
		out, err := execute(t, arg)
		require.NoError(t, err)
		assert.Equal(t, "slurmboard v"+version+"\n", out)
	}
}

func TestSnapshot_Table(t *testing.T) {
	out, err := execute(t, "snapshot", "--config", missingConfig(t), "--fixtures", fixtureDir)
	require.NoError(t, err)

	assert.Contains(t, out, "Partitions")
	assert.Contains(t, out, "standard*")
	assert.Contains(t, out, "gpu")
	assert.Contains(t, out, "debug")
	assert.NotContains(t, out, "node03")

	out, err = execute(t, "snapshot", "--nodes", "--config", missingConfig(t), "--fixtures", fixtureDir)
	require.NoError(t, err)
	assert.Contains(t, out, "node03")
	assert.Contains(t, out, "Down*")
}

func TestSnapshot_JSON(t *testing.T) {
	out, err := execute(t, "snapshot", "--json", "--nodes", "--config", missingConfig(t), "--fixtures", fixtureDir)
	require.NoError(t, err)

	var snap snapshotJSON
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	require.Len(t, snap.Partitions, 3)

	standard := snap.Partitions[0]
	assert.Equal(t, "standard", standard.Name)
	assert.True(t, standard.Default)
	assert.Equal(t, 3, standard.NodeCount)
	assert.Equal(t, 4, standard.Jobs)
	assert.Equal(t, 4, standard.Users)
	assert.Positive(t, standard.CPU.Capacity)

	require.Len(t, standard.Nodes, 3)
	down := standard.Nodes[2]
	assert.Equal(t, "node03", down.Name)
	assert.Equal(t, "Down*", down.State)
	assert.False(t, down.Available)

	assert.Equal(t, "gpu", snap.Partitions[1].Name)
	assert.Equal(t, "debug", snap.Partitions[2].Name)
}

func TestSnapshot_MissingFixtures(t *testing.T) {
	_, err := execute(t, "snapshot", "--config", missingConfig(t), "--fixtures", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to query slurm")
}

func TestInvalidConfig(t *testing.T) {
	path := writeConfig(t, "theme: neon\ninterval: -1s\n")
	_, err := execute(t, "snapshot", "--config", path, "--fixtures", fixtureDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid theme")
	assert.Contains(t, err.Error(), "must not be negative")
}

func TestRecordAndHistory(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")
	path := writeConfig(t, "history:\n  database_path: "+db+"\n")

	_, err := execute(t, "record", "--once", "--config", path, "--fixtures", fixtureDir)
	require.NoError(t, err)
	_, err = execute(t, "record", "--once", "--config", path, "--fixtures", fixtureDir)
	require.NoError(t, err)

	out, err := execute(t, "history", "--config", path, "--resource", "gpu")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	// Title, header, divider, then 3 partitions per recording.
	assert.Len(t, lines, 3+6)
	assert.Contains(t, out, "standard")

	out, err = execute(t, "history", "--config", path, "--partition", "gpu", "--limit", "1")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 4)

	out, err = execute(t, "history", "--config", path, "--partition", "nope")
	require.NoError(t, err)
	assert.Equal(t, "No samples recorded.\n", out)
}

func TestHistory_InvalidResource(t *testing.T) {
	_, err := execute(t, "history", "--config", missingConfig(t), "--resource", "disk")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid resource")
}

func TestRecord_NeedsInterval(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")
	path := writeConfig(t, "history:\n  database_path: "+db+"\n")

	_, err := execute(t, "record", "--interval", "0", "--config", path, "--fixtures", fixtureDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "positive interval")
}

func TestCapture(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "capture")
	out, err := execute(t, "capture", dir, "--config", missingConfig(t), "--fixtures", fixtureDir)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 4)

	for _, name := range []string{"sinfo.txt", "squeue.txt", "scontrol-config.txt", "scontrol-partition.txt"} {
		want, err := os.ReadFile(filepath.Join(fixtureDir, name))
		require.NoError(t, err)
		got, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Equal(t, string(want), string(got), name)
	}
}

func newTestRecorder(t *testing.T, fixtures string) (*recorder, *store.History) {
	t.Helper()
	history, err := store.OpenHistory(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { history.Close() })

	cfg := config.DefaultConfig()
	return &recorder{
		cfg:       cfg,
		collector: newCollector(cfg, runner.NewFixtureExecutor(fixtures)),
		history:   history,
		logger:    zap.NewNop(),
	}, history
}

func TestRecorder_Retry(t *testing.T) {
	rec, history := newTestRecorder(t, fixtureDir)
	require.NoError(t, rec.recordWithRetry(context.Background(), time.Second))

	samples, err := history.Query(context.Background(), store.Filter{Resource: store.ResourceCPU})
	require.NoError(t, err)
	assert.Len(t, samples, 3)
}

func TestRecorder_RetryGivesUp(t *testing.T) {
	rec, _ := newTestRecorder(t, t.TempDir())
	err := rec.recordWithRetry(context.Background(), 50*time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to query slurm")
}
