package ui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"slurmboard/internal/slurm"
)

const (
	columnSpacing  = 2
	scrollbarWidth = 2
)

type align int

const (
	alignLeft align = iota
	alignRight
)

type tone int

const (
	toneNormal tone = iota
	toneDim
	toneUnavailable
)

// column describes one table column. Flex columns share the width left
// over by the fixed columns.
type column struct {
	title string
	align align
	flex  bool
}

// cell is either text or, when bar is set, a utilization bar.
type cell struct {
	text string
	bar  *slurm.Utilization
	tone tone
}

type tableRow struct {
	cells  []cell
	tone   tone
	spacer bool
}

// tableView is a render-ready snapshot of a table.
type tableView struct {
	columns    []column
	rows       []tableRow
	sortColumn int // -1 when unsorted
	sortDesc   bool
	selected   int // -1 when nothing is selected
	offset     int
	focused    bool
}

func textCell(text string) cell {
	return cell{text: text}
}

func utilCell(u slurm.Utilization) cell {
	return cell{bar: &u}
}

func (v tableView) header(i int) string {
	title := v.columns[i].title
	if i != v.sortColumn {
		return title
	}
	if v.sortDesc {
		return title + " ▼"
	}
	return title + " ▲"
}

// columnWidths sizes fixed columns to their widest cell and splits the rest
// of width evenly between flex columns.
func (v tableView) columnWidths(width int) []int {
	widths := make([]int, len(v.columns))
	fixed, flex := 0, 0
	for i, c := range v.columns {
		if c.flex {
			flex++
			continue
		}
		w := runewidth.StringWidth(v.header(i))
		for _, r := range v.rows {
			if i < len(r.cells) {
				if cw := runewidth.StringWidth(r.cells[i].text); cw > w {
					w = cw
				}
			}
		}
		widths[i] = w
		fixed += w
	}

	if flex > 0 {
		spacing := (len(v.columns) - 1) * columnSpacing
		share := (width - fixed - spacing) / flex
		if share < 0 {
			share = 0
		}
		for i, c := range v.columns {
			if c.flex {
				widths[i] = share
			}
		}
	}
	return widths
}

// visibleOffset returns the first row to draw so that the selection is in
// view, starting from offset.
func visibleOffset(offset, selected, rows, visible int) int {
	if visible <= 0 {
		return 0
	}
	if selected >= 0 {
		if selected < offset {
			offset = selected
		}
		if selected >= offset+visible {
			offset = selected - visible + 1
		}
	}
	if last := rows - visible; offset > last {
		offset = last
	}
	if offset < 0 {
		offset = 0
	}
	return offset
}

// scrollThumb returns the first track row and length of the scrollbar thumb.
func scrollThumb(rows, track, selected int) (int, int) {
	if rows == 0 || track <= 0 {
		return 0, 0
	}
	length := int(math.Round(float64(track*track) / float64(rows+track-1)))
	if length < 1 {
		length = 1
	}
	if length > track {
		length = track
	}
	if selected < 0 {
		selected = 0
	}
	start := 0
	if rows > 1 {
		start = int(math.Round(float64((track-length)*selected) / float64(rows-1)))
	}
	return start, length
}

// rowAt maps a line of a rendered table (0 is the header) scrolled to
// offset to a row index, or -1.
func rowAt(offset, rows, line int) int {
	if line < 1 {
		return -1
	}
	idx := offset + line - 1
	if idx >= rows {
		return -1
	}
	return idx
}

// render draws the table into exactly height lines of width cells.
func (v tableView) render(s Styles, width, height int) []string {
	if height <= 0 || width <= 0 {
		return nil
	}
	inner := width - scrollbarWidth
	if inner < 0 {
		inner = 0
	}
	widths := v.columnWidths(inner)

	lines := make([]string, 0, height)
	lines = append(lines, v.renderHeader(s, widths, inner)+strings.Repeat(" ", width-inner))

	visible := height - 1
	offset := visibleOffset(v.offset, v.selected, len(v.rows), visible)
	thumbStart, thumbLen := scrollThumb(len(v.rows), visible, v.selected)
	for i := 0; i < visible; i++ {
		line := strings.Repeat(" ", inner)
		if idx := offset + i; idx < len(v.rows) {
			line = v.renderRow(s, widths, inner, idx)
		}
		track := strings.Repeat(" ", width-inner)
		if i >= thumbStart && i < thumbStart+thumbLen && width-inner == scrollbarWidth {
			track = " " + s.Scrollbar.Render("▐")
		}
		lines = append(lines, line+track)
	}
	return lines
}

func (v tableView) renderHeader(s Styles, widths []int, inner int) string {
	cells := make([]cell, len(v.columns))
	for i := range v.columns {
		cells[i] = textCell(v.header(i))
	}
	return v.renderCells(s, cells, widths, inner, s.Header, false)
}

func (v tableView) renderRow(s Styles, widths []int, inner, idx int) string {
	row := v.rows[idx]
	base := s.tone(row.tone)
	selected := v.focused && idx == v.selected
	if selected {
		base = base.Reverse(true)
	}
	return v.renderCells(s, row.cells, widths, inner, base, selected)
}

func (v tableView) renderCells(s Styles, cells []cell, widths []int, inner int, base lipgloss.Style, selected bool) string {
	var b strings.Builder
	used := 0
	for i, c := range v.columns {
		if i > 0 {
			gap := min(columnSpacing, inner-used)
			if gap <= 0 {
				break
			}
			b.WriteString(base.Render(strings.Repeat(" ", gap)))
			used += gap
		}
		w := min(widths[i], inner-used)
		if w <= 0 {
			continue
		}

		var content cell
		if i < len(cells) {
			content = cells[i]
		}
		switch {
		case content.bar != nil:
			// Bars keep their colors on selected rows.
			b.WriteString(renderBar(s, *content.bar, w))
		case content.tone != toneNormal:
			style := s.tone(content.tone)
			if selected {
				style = style.Reverse(true)
			}
			b.WriteString(style.Render(fit(content.text, w, c.align)))
		default:
			b.WriteString(base.Render(fit(content.text, w, c.align)))
		}
		used += w
	}
	if used < inner {
		b.WriteString(base.Render(strings.Repeat(" ", inner-used)))
	}
	return b.String()
}

// fit truncates or pads text to exactly width cells.
func fit(text string, width int, a align) string {
	text = runewidth.Truncate(text, width, "")
	if a == alignRight {
		return runewidth.FillLeft(text, width)
	}
	return runewidth.FillRight(text, width)
}

func (s Styles) tone(t tone) lipgloss.Style {
	switch t {
	case toneDim:
		return s.Dim
	case toneUnavailable:
		return s.Unavailable
	default:
		return lipgloss.NewStyle()
	}
}
