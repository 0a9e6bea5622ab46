package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/google/go-cmp/cmp"

	"slurmboard/internal/slurm"
)

func full(c barColor) barCell {
	return barCell{Glyph: "█", FG: c, BG: c}
}

func repeatCell(c barCell, n int) []barCell {
	cells := make([]barCell, n)
	for i := range cells {
		cells[i] = c
	}
	return cells
}

func TestBarCells(t *testing.T) {
	tests := []struct {
		name  string
		util  slurm.Utilization
		width int
		want  []barCell
	}{
		{
			name:  "allocated half",
			util:  slurm.Utilization{Allocated: 4, Capacity: 8},
			width: 8,
			want:  append(repeatCell(full(barAllocated), 4), repeatCell(full(barAvailable), 4)...),
		},
		{
			name:  "partial cell between segments",
			util:  slurm.Utilization{Utilized: 1, Allocated: 2, Capacity: 4},
			width: 10,
			want: append(append([]barCell{
				full(barUtilized), full(barUtilized),
				{Glyph: "▌", FG: barUtilized, BG: barAllocated},
				full(barAllocated), full(barAllocated),
			}), repeatCell(full(barAvailable), 5)...),
		},
		{
			name:  "unavailable tail",
			util:  slurm.Utilization{Allocated: 2, Unavailable: 2, Capacity: 8},
			width: 8,
			want: append(append(repeatCell(full(barAllocated), 2),
				repeatCell(full(barAvailable), 4)...), repeatCell(full(barUnavailable), 2)...),
		},
		{
			name:  "blocked after allocated",
			util:  slurm.Utilization{Allocated: 2, Blocked: 2, Capacity: 8},
			width: 4,
			want:  []barCell{full(barAllocated), full(barBlocked), full(barAvailable), full(barAvailable)},
		},
		{
			name:  "load above allocation",
			util:  slurm.Utilization{Utilized: 10, Allocated: 4, Capacity: 8},
			width: 8,
			want:  append(repeatCell(full(barUtilized), 4), repeatCell(full(barAvailable), 4)...),
		},
		{
			name:  "sliver too small to draw",
			util:  slurm.Utilization{Allocated: 1, Capacity: 80},
			width: 8,
			want:  repeatCell(full(barAvailable), 8),
		},
		{
			name:  "single cell",
			util:  slurm.Utilization{Allocated: 1, Capacity: 3},
			width: 1,
			want:  []barCell{{Glyph: "▎", FG: barAllocated, BG: barAvailable}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := barCells(tt.util, tt.width)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("barCells() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBarCells_Width(t *testing.T) {
	u := slurm.Utilization{Utilized: 2.3, Allocated: 3.7, Blocked: 1.1, Unavailable: 0.9, Capacity: 10}
	for width := 1; width <= 40; width++ {
		if got := len(barCells(u, width)); got != width {
			t.Errorf("width %d: got %d cells", width, got)
		}
	}
}

func TestBarCells_Empty(t *testing.T) {
	if cells := barCells(slurm.Utilization{}, 10); cells != nil {
		t.Errorf("expected no cells for zero capacity, got %v", cells)
	}
	if cells := barCells(slurm.Utilization{Capacity: 1}, 0); cells != nil {
		t.Errorf("expected no cells for zero width, got %v", cells)
	}
}

func TestRenderBar(t *testing.T) {
	s := NewStyles(DarkTheme())

	out := ansi.Strip(renderBar(s, slurm.Utilization{Allocated: 1, Capacity: 2}, 6))
	if out != strings.Repeat("█", 6) {
		t.Errorf("unexpected bar %q", out)
	}

	blank := renderBar(s, slurm.Utilization{}, 4)
	if blank != "    " {
		t.Errorf("expected blank bar for zero capacity, got %q", blank)
	}
}
