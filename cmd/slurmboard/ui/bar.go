package ui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"slurmboard/internal/slurm"
)

// barGlyphs are left-aligned blocks from 8/8 down to 1/8 of a cell.
var barGlyphs = [8]string{"█", "▉", "▊", "▋", "▌", "▍", "▎", "▏"}

type barColor int

const (
	barUtilized barColor = iota
	barAllocated
	barBlocked
	barAvailable
	barUnavailable
)

// barCell is one terminal cell of a utilization bar. The glyph is drawn in
// FG; the part of the cell it leaves uncovered shows BG.
type barCell struct {
	Glyph string
	FG    barColor
	BG    barColor
}

// barCells lays out u over width cells. Segments are, in order: utilized,
// allocated but idle, blocked, available and unavailable. Segment
// boundaries falling inside a cell are drawn with eighth blocks.
func barCells(u slurm.Utilization, width int) []barCell {
	if width <= 0 || u.Capacity <= 0 {
		return nil
	}

	available := math.Max(u.Capacity-u.Unavailable, 0)
	allocated := math.Min(u.Allocated, available)
	segments := []struct {
		end   float64
		color barColor
	}{
		// Load can exceed the allocation; only the allocated part is drawn.
		{math.Max(math.Min(u.Utilized, allocated), 0), barUtilized},
		{allocated, barAllocated},
		{math.Min(allocated+u.Blocked, available), barBlocked},
		{available, barAvailable},
		{u.Capacity, barUnavailable},
	}

	cells := make([]barCell, 0, width)
	lastEnd := 0.0
	lastColor := barUtilized
	for _, seg := range segments {
		end := seg.end / u.Capacity * float64(width)
		if end <= lastEnd {
			continue
		}

		if remainder := lastEnd - math.Floor(lastEnd); remainder > 0 {
			if eighths := int(remainder * 8); eighths > 0 {
				cells = append(cells, barCell{Glyph: barGlyphs[8-eighths], FG: lastColor, BG: seg.color})
				lastEnd += 1 - remainder
			} else {
				// Too little of the previous segment is left to draw.
				lastEnd -= remainder
			}
		}

		if end > lastEnd {
			for i := 0; i < int(end-lastEnd); i++ {
				cells = append(cells, barCell{Glyph: barGlyphs[0], FG: seg.color, BG: seg.color})
			}
			lastEnd = end
			lastColor = seg.color
		}
	}

	for len(cells) < width {
		cells = append(cells, barCell{Glyph: barGlyphs[0], FG: lastColor, BG: lastColor})
	}
	return cells[:width]
}

func (t Theme) barColor(c barColor) lipgloss.Color {
	switch c {
	case barUtilized:
		return t.Utilized
	case barAllocated:
		return t.Allocated
	case barBlocked:
		return t.Blocked
	case barAvailable:
		return t.Available
	default:
		return t.Unavailable
	}
}

// renderBar draws u as a bar exactly width cells wide.
func renderBar(s Styles, u slurm.Utilization, width int) string {
	if width <= 0 {
		return ""
	}
	cells := barCells(u, width)
	if len(cells) == 0 {
		return strings.Repeat(" ", width)
	}

	var b strings.Builder
	for i := 0; i < len(cells); {
		j := i
		var run strings.Builder
		for j < len(cells) && cells[j] == cells[i] {
			run.WriteString(cells[j].Glyph)
			j++
		}
		style := lipgloss.NewStyle().
			Foreground(s.Theme.barColor(cells[i].FG)).
			Background(s.Theme.barColor(cells[i].BG))
		b.WriteString(style.Render(run.String()))
		i = j
	}
	return b.String()
}
