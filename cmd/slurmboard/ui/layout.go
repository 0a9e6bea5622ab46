package ui

const (
	// minSplitHeight is the smallest terminal height showing both panes.
	minSplitHeight = 9
	minNodeHeight  = 5
	minJobHeight   = 4
)

// layout splits the terminal height between the node and job panes.
type layout struct {
	both       bool
	nodeHeight int
	jobHeight  int
}

// computeLayout sizes the node pane to its content (plus a blank line
// marking the end of the list) and gives the job pane the rest. tableHeight
// is the node table's row count including the header.
func computeLayout(height, tableHeight int) layout {
	if height < minSplitHeight {
		return layout{nodeHeight: max(height, 0)}
	}
	nodeHeight := min(max(tableHeight+2, minNodeHeight), height-minJobHeight)
	return layout{both: true, nodeHeight: nodeHeight, jobHeight: height - nodeHeight}
}

// nodeTableHeight is the number of lines available to the node table.
func (l layout) nodeTableHeight() int {
	if l.both {
		// Top border only; the job pane closes the frame.
		return l.nodeHeight - 1
	}
	return l.nodeHeight - 2
}

func (l layout) jobTableHeight() int {
	if !l.both {
		return 0
	}
	return l.jobHeight - 2
}
