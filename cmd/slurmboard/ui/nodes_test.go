package ui

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slurmboard/internal/runner"
	"slurmboard/internal/slurm"
)

const fixtureDir = "../../../internal/slurm/testdata"

func newFixtureCollector() *slurm.Collector {
	return slurm.NewCollector(runner.NewFixtureExecutor(fixtureDir), slurm.DefaultBinaries(), time.Second)
}

func fixtureCluster(t *testing.T) (*slurm.Config, *slurm.Cluster) {
	t.Helper()
	c := newFixtureCollector()
	cfg, err := c.Config(context.Background())
	require.NoError(t, err)
	cluster, err := c.Collect(context.Background(), cfg)
	require.NoError(t, err)
	return cfg, cluster
}

func fixtureNodeTable(t *testing.T) nodeTable {
	t.Helper()
	_, cluster := fixtureCluster(t)
	nt := newNodeTable()
	nt.update(cluster.Partitions)
	return nt
}

func rowNames(nt nodeTable) []string {
	names := make([]string, len(nt.rows))
	for i, r := range nt.rows {
		switch r.kind {
		case rowPartition:
			names[i] = r.partition.Name.String()
		case rowNode:
			names[i] = r.node.Name
		}
	}
	return names
}

func TestNodeTable_Rows(t *testing.T) {
	nt := fixtureNodeTable(t)

	assert.Equal(t, []string{
		"standard*", "node01", "node02", "node03", "",
		"gpu", "gpu01", "gpu02", "",
		"debug", "node01",
	}, rowNames(nt))
	assert.True(t, nt.rows[3].last)
	assert.False(t, nt.rows[2].last)
	assert.Equal(t, 12, nt.height())

	// The first partition is selected initially.
	assert.Equal(t, 0, nt.selected)
	assert.Equal(t, "standard*", nt.title())
	assert.Len(t, nt.selectedJobs(), 4)
}

func TestNodeTable_Render(t *testing.T) {
	nt := fixtureNodeTable(t)
	lines := plainLines(nt.view(true).render(NewStyles(DarkTheme()), 100, 13))
	require.Len(t, lines, 13)

	assert.True(t, strings.HasPrefix(lines[0], "Node"))
	assert.Contains(t, lines[0], "Memory")
	assert.True(t, strings.HasPrefix(lines[1], "standard*"))
	assert.True(t, strings.HasPrefix(lines[2], " ┝ node01"))
	assert.True(t, strings.HasPrefix(lines[4], " ┕ node03"))
	assert.Contains(t, lines[4], "Down*")
	assert.Equal(t, strings.Repeat(" ", 98), lines[5][:98])
}

func TestNodeTable_ScrollSkipsSpacers(t *testing.T) {
	nt := fixtureNodeTable(t)

	nt.scroll(3)
	assert.Equal(t, 3, nt.selected)
	nt.scroll(1)
	assert.Equal(t, 5, nt.selected, "spacer is skipped going down")
	nt.scroll(-1)
	assert.Equal(t, 3, nt.selected, "spacer is skipped going up")

	nt.scroll(jumpSize)
	assert.Equal(t, 10, nt.selected)
	nt.scroll(-jumpSize)
	assert.Equal(t, 0, nt.selected)

	nt.scroll(pageSize)
	assert.Equal(t, 10, nt.selected)
	assert.Equal(t, "node01", nt.title())
	assert.Len(t, nt.selectedJobs(), 2)
}

func TestNodeTable_HideUnavailable(t *testing.T) {
	nt := fixtureNodeTable(t)

	nt.scroll(2)
	nt.setHideUnavailable(true)
	assert.Equal(t, []string{
		"standard*", "node01", "node02", "",
		"gpu", "gpu01", "",
		"debug", "node01",
	}, rowNames(nt))
	assert.Equal(t, 2, nt.selected, "visible selection is kept")
	assert.True(t, nt.rows[2].last)

	nt.setHideUnavailable(false)
	nt.scroll(1)
	require.Equal(t, "node03", nt.title())
	nt.setHideUnavailable(true)
	assert.Equal(t, "gpu", nt.title(), "hidden selection moves on to the next row")
}

func TestNodeTable_Sort(t *testing.T) {
	_, cluster := fixtureCluster(t)
	nt := newNodeTable()
	nt.update(cluster.Partitions)

	nt.setSortColumn(1)
	assert.Equal(t, nodeColNode, nt.sortColumn)
	nt.toggleSortOrder()
	assert.Equal(t, []string{"standard*", "node03", "node02", "node01"}, rowNames(nt)[:4])

	nt.sortColumn = nodeColJobs
	nt.sortDesc = false
	nt.rebuild()
	assert.Equal(t, []string{"standard*", "node02", "node03", "node01"}, rowNames(nt)[:4])

	// Sorting never reorders the partitions or the snapshot.
	assert.Equal(t, "gpu", rowNames(nt)[5])
	assert.Equal(t, "node01", cluster.Partitions[0].Nodes[0].Name)
}

func TestNodeTable_ToggleStartsAscending(t *testing.T) {
	nt := fixtureNodeTable(t)
	require.Equal(t, -1, nt.sortColumn)

	nt.toggleSortOrder()
	assert.Equal(t, nodeColNode, nt.sortColumn)
	assert.False(t, nt.sortDesc)
	assert.Equal(t, []string{"standard*", "node01", "node02", "node03"}, rowNames(nt)[:4])

	nt.toggleSortOrder()
	assert.True(t, nt.sortDesc)
	assert.Equal(t, []string{"standard*", "node03", "node02", "node01"}, rowNames(nt)[:4])
}

func TestNodeTable_Click(t *testing.T) {
	nt := fixtureNodeTable(t)

	nt.click(2)
	assert.Equal(t, 1, nt.selected)
	nt.click(5)
	assert.Equal(t, 1, nt.selected, "spacer rows are not selectable")
	nt.click(0)
	assert.Equal(t, 1, nt.selected, "header is not selectable")
	nt.click(50)
	assert.Equal(t, 1, nt.selected)
}

func TestNodeTable_UpdateKeepsSelection(t *testing.T) {
	nt := fixtureNodeTable(t)
	nt.scroll(6)
	require.Equal(t, "gpu01", nt.title())

	_, fresh := fixtureCluster(t)
	nt.update(fresh.Partitions)
	assert.Equal(t, 6, nt.selected)
	assert.Equal(t, "gpu01", nt.title())

	nt.update(nil)
	assert.Equal(t, -1, nt.selected)
	assert.Empty(t, nt.title())
	assert.Nil(t, nt.selectedJobs())
}

func TestCycleColumn(t *testing.T) {
	assert.Equal(t, 0, cycleColumn(-1, 1, 7))
	assert.Equal(t, 6, cycleColumn(-1, -1, 7))
	assert.Equal(t, 0, cycleColumn(6, 1, 7))
	assert.Equal(t, 6, cycleColumn(0, -1, 7))
	assert.Equal(t, 3, cycleColumn(1, 2, 7))
	assert.Equal(t, -1, cycleColumn(0, 1, 0))
}
