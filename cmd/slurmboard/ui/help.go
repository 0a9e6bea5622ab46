package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"

	"slurmboard/internal/logging"
)

// helpView is the scrollable help overlay.
type helpView struct {
	viewport viewport.Model
	markdown string
}

func newHelpView(keys keyMap) helpView {
	return helpView{
		viewport: viewport.New(0, 0),
		markdown: helpMarkdown(keys),
	}
}

func helpMarkdown(keys keyMap) string {
	var b strings.Builder
	b.WriteString("# slurmboard\n\n")
	b.WriteString("The upper pane lists partitions and their nodes. The lower pane lists the jobs of the selected partition or node.\n\n")
	b.WriteString("## Keys\n\n")
	b.WriteString("| Key | Action |\n|---|---|\n")
	for _, k := range keys.all() {
		h := k.Help()
		fmt.Fprintf(&b, "| `%s` | %s |\n", h.Key, h.Desc)
	}
	b.WriteString("\nThe mouse selects rows and the wheel scrolls the pane under the cursor.\n\n")
	b.WriteString("## Utilization bars\n\n")
	b.WriteString("- **Green**: in use\n")
	b.WriteString("- **Yellow**: allocated but idle\n")
	b.WriteString("- **Magenta**: blocked by the allocation of linked resources, such as memory reserved per CPU\n")
	b.WriteString("- **Gray**: available\n")
	b.WriteString("- **Black**: unavailable (node down, drained or not responding)\n")
	return b.String()
}

// resize renders the help text for the given size.
func (h *helpView) resize(width, height int, theme Theme) {
	width, height = max(width, 1), max(height, 1)
	h.viewport.Width = width
	h.viewport.Height = height

	content := h.markdown
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(theme.Name),
		glamour.WithWordWrap(max(width-4, 20)),
	)
	if err == nil {
		content, err = renderer.Render(h.markdown)
	}
	if err != nil {
		logging.UIError("Rendering help failed: %v", err)
		content = h.markdown
	}
	h.viewport.SetContent(content)
}

func (h *helpView) view(width, height int) []string {
	lines := strings.Split(h.viewport.View(), "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for i := range lines {
		lines[i] = padLine(lines[i], width)
	}
	return lines
}
