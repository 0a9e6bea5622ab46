package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slurmboard/internal/slurm"
)

func plainLines(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = ansi.Strip(l)
	}
	return out
}

func sampleTable() tableView {
	return tableView{
		columns: []column{
			{title: "Name"},
			{title: "Count", align: alignRight},
			{title: "Load", flex: true},
		},
		rows: []tableRow{
			{cells: []cell{textCell("a"), textCell("1"), utilCell(slurm.Utilization{Allocated: 1, Capacity: 1})}},
			{spacer: true},
			{cells: []cell{textCell("b"), textCell("22"), utilCell(slurm.Utilization{Capacity: 1})}},
		},
		sortColumn: 1,
		sortDesc:   true,
		selected:   0,
		focused:    true,
	}
}

func TestColumnWidths(t *testing.T) {
	widths := sampleTable().columnWidths(20)
	// The sort indicator widens the Count header to 7 cells.
	assert.Equal(t, []int{4, 7, 5}, widths)

	narrow := sampleTable().columnWidths(5)
	assert.Equal(t, 0, narrow[2])
}

func TestTableRender(t *testing.T) {
	lines := plainLines(sampleTable().render(NewStyles(DarkTheme()), 22, 5))
	require.Len(t, lines, 5)

	assert.Equal(t, "Name  Count ▼  Load   ", lines[0])
	assert.Equal(t, "a   "+"  "+"      1"+"  "+"█████"+" ▐", lines[1])
	assert.Equal(t, strings.Repeat(" ", 20)+" ▐", lines[2])
	assert.Equal(t, "b   "+"  "+"     22"+"  "+"█████"+" ▐", lines[3])
	assert.Equal(t, strings.Repeat(" ", 22), lines[4])

	for i, l := range lines {
		assert.Equal(t, 22, ansi.StringWidth(l), "line %d", i)
	}
}

func TestTableRender_Ascending(t *testing.T) {
	v := sampleTable()
	v.sortDesc = false
	lines := plainLines(v.render(NewStyles(DarkTheme()), 22, 2))
	assert.True(t, strings.HasPrefix(lines[0], "Name  Count ▲"))
}

func TestVisibleOffset(t *testing.T) {
	assert.Equal(t, 3, visibleOffset(0, 5, 10, 3))
	assert.Equal(t, 1, visibleOffset(4, 1, 10, 3))
	assert.Equal(t, 7, visibleOffset(8, 9, 10, 3))
	assert.Equal(t, 0, visibleOffset(5, -1, 4, 10))
	assert.Equal(t, 0, visibleOffset(2, 1, 10, 0))
}

func TestScrollThumb(t *testing.T) {
	start, length := scrollThumb(0, 5, 0)
	assert.Equal(t, 0, length)

	start, length = scrollThumb(3, 4, 0)
	assert.Equal(t, 0, start)
	assert.Equal(t, 3, length)

	start, length = scrollThumb(100, 10, 99)
	assert.Equal(t, 9, start)
	assert.Equal(t, 1, length)

	start, _ = scrollThumb(100, 10, 0)
	assert.Equal(t, 0, start)
}

func TestRowAt(t *testing.T) {
	assert.Equal(t, -1, rowAt(2, 5, 0))
	assert.Equal(t, 2, rowAt(2, 5, 1))
	assert.Equal(t, 4, rowAt(2, 5, 3))
	assert.Equal(t, -1, rowAt(2, 5, 4))
}

func TestFit(t *testing.T) {
	assert.Equal(t, "abc", fit("abcdef", 3, alignLeft))
	assert.Equal(t, "  ab", fit("ab", 4, alignRight))
	assert.Equal(t, "ab  ", fit("ab", 4, alignLeft))
}
