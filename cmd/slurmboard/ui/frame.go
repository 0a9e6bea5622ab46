package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// paneFrame describes the border drawn around a pane.
type paneFrame struct {
	title string
	// joined draws ├ ┤ top corners, continuing the pane above.
	joined bool
	// bottom closes the frame; footer and status are drawn on it.
	bottom bool
	footer string
	status string
}

// renderPane frames the output of body, which must return lines of the
// given inner width.
func renderPane(s Styles, width, height int, f paneFrame, body func(width, height int) []string) []string {
	if width < 2 || height < 1 {
		return nil
	}

	left, right := "┌", "┐"
	if f.joined {
		left, right = "├", "┤"
	}
	title := ""
	if f.title != "" {
		title = s.Title.Render(f.title)
	}
	lines := []string{borderLine(s, width, left, right, title, "")}

	innerHeight := height - 1
	if f.bottom {
		innerHeight--
	}
	if innerHeight > 0 {
		content := body(width-2, innerHeight)
		side := s.Border.Render("│")
		for i := 0; i < innerHeight; i++ {
			line := ""
			if i < len(content) {
				line = content[i]
			}
			lines = append(lines, side+padLine(line, width-2)+side)
		}
	}

	if f.bottom && height > 1 {
		lines = append(lines, borderLine(s, width, "└", "┘", f.footer, f.status))
	}
	return lines
}

// borderLine draws a horizontal border with center in the middle and lead
// placed after the left corner. lead is cut short rather than overlapping
// center.
func borderLine(s Styles, width int, leftCorner, rightCorner, center, lead string) string {
	inner := width - 2
	if inner < 0 {
		return ""
	}
	if lipgloss.Width(center) > inner {
		center = ansi.Truncate(center, inner, "")
	}
	cw := lipgloss.Width(center)
	start := (inner - cw) / 2

	dash := func(n int) string {
		if n <= 0 {
			return ""
		}
		return s.Border.Render(strings.Repeat("─", n))
	}

	var b strings.Builder
	b.WriteString(s.Border.Render(leftCorner))
	used := 0
	// Keep one dash on either side of lead.
	if room := start - 2; lead != "" && room > 0 {
		lead = ansi.Truncate(lead, room, "")
		b.WriteString(dash(1))
		b.WriteString(lead)
		used = 1 + lipgloss.Width(lead)
	}
	b.WriteString(dash(start - used))
	b.WriteString(center)
	b.WriteString(dash(inner - start - cw))
	b.WriteString(s.Border.Render(rightCorner))
	return b.String()
}

// padLine truncates or pads a styled line to exactly width cells.
func padLine(line string, width int) string {
	w := lipgloss.Width(line)
	if w > width {
		return ansi.Truncate(line, width, "")
	}
	return line + strings.Repeat(" ", width-w)
}

// footerText renders key hints such as " <R> Refresh".
func footerText(s Styles, keys keyMap) string {
	var b strings.Builder
	for _, k := range keys.footer() {
		h := k.Help()
		b.WriteString(s.Key.Render(" <" + h.Key + "> "))
		b.WriteString(s.Body.Render(h.Desc))
	}
	b.WriteString(" ")
	return b.String()
}
