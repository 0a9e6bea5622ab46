package ui

import (
	"cmp"
	"sort"
	"strconv"
	"strings"

	"slurmboard/internal/slurm"
)

const (
	nodeColNode = iota
	nodeColState
	nodeColUsers
	nodeColJobs
	nodeColCPUs
	nodeColMemory
	nodeColGPUs
)

var nodeColumns = []column{
	{title: "Node"},
	{title: "State"},
	{title: "Users", align: alignRight},
	{title: "Jobs", align: alignRight},
	{title: "CPUs", flex: true},
	{title: "Memory", flex: true},
	{title: "GPUs", flex: true},
}

type nodeRowKind int

const (
	rowSpacer nodeRowKind = iota
	rowPartition
	rowNode
)

type nodeRow struct {
	kind      nodeRowKind
	partition *slurm.Partition
	node      *slurm.Node
	last      bool
}

type rowKey struct {
	kind      nodeRowKind
	partition string
	node      string
}

func (r nodeRow) key() rowKey {
	k := rowKey{kind: r.kind}
	if r.partition != nil {
		k.partition = r.partition.Name.Label
	}
	if r.node != nil {
		k.node = r.node.Name
	}
	return k
}

// nodeTable lists partitions, each followed by its nodes, with a blank row
// between partitions.
type nodeTable struct {
	partitions      []*slurm.Partition
	rows            []nodeRow
	hideUnavailable bool
	// memPerCPU overrides the Slurm default when positive.
	memPerCPU  int
	sortColumn int
	sortDesc   bool
	selected   int
	offset     int
}

func newNodeTable() nodeTable {
	return nodeTable{sortColumn: -1, selected: -1}
}

// update replaces the partitions. The selected row is kept when it still
// exists and clamped otherwise.
func (t *nodeTable) update(partitions []*slurm.Partition) {
	t.partitions = partitions
	t.rebuild()
}

func (t *nodeTable) setHideUnavailable(hide bool) {
	if t.hideUnavailable != hide {
		t.hideUnavailable = hide
		t.rebuild()
	}
}

func (t *nodeTable) setMemPerCPU(memPerCPU int) {
	if t.memPerCPU != memPerCPU {
		t.memPerCPU = memPerCPU
		t.rebuild()
	}
}

func (t *nodeTable) setSortColumn(delta int) {
	t.sortColumn = cycleColumn(t.sortColumn, delta, len(nodeColumns))
	t.rebuild()
}

// toggleSortOrder flips the sort order. Without a sort column it starts
// sorting by node name, ascending.
func (t *nodeTable) toggleSortOrder() {
	if t.sortColumn < 0 {
		t.sortColumn = nodeColNode
		t.sortDesc = false
	} else {
		t.sortDesc = !t.sortDesc
	}
	t.rebuild()
}

func (t *nodeTable) rebuild() {
	var key *rowKey
	if t.selected >= 0 && t.selected < len(t.rows) {
		k := t.rows[t.selected].key()
		key = &k
	}

	var rows []nodeRow
	for _, p := range t.partitions {
		rows = append(rows, nodeRow{kind: rowPartition, partition: p})
		nodes := t.visibleNodes(p)
		for i, n := range nodes {
			rows = append(rows, nodeRow{kind: rowNode, partition: p, node: n, last: i == len(nodes)-1})
		}
		rows = append(rows, nodeRow{kind: rowSpacer})
	}
	if len(rows) > 0 {
		rows = rows[:len(rows)-1]
	}
	t.rows = rows

	if key != nil && key.kind != rowSpacer {
		for i, r := range t.rows {
			if r.key() == *key {
				t.selected = i
				return
			}
		}
	}
	t.scroll(0)
}

// visibleNodes returns the nodes of p to list, sorted by the sort column.
// The partition itself is never reordered.
func (t *nodeTable) visibleNodes(p *slurm.Partition) []*slurm.Node {
	nodes := make([]*slurm.Node, 0, len(p.Nodes))
	for _, n := range p.Nodes {
		if !t.hideUnavailable || n.State.IsAvailable() {
			nodes = append(nodes, n)
		}
	}
	if t.sortColumn < 0 {
		return nodes
	}

	sort.SliceStable(nodes, func(i, j int) bool {
		c := t.compareNodes(nodes[i], nodes[j])
		if t.sortDesc {
			c = -c
		}
		if c == 0 {
			c = strings.Compare(nodes[i].Name, nodes[j].Name)
		}
		return c < 0
	})
	return nodes
}

func (t *nodeTable) compareNodes(a, b *slurm.Node) int {
	switch t.sortColumn {
	case nodeColNode:
		return strings.Compare(a.Name, b.Name)
	case nodeColState:
		return strings.Compare(a.State.String(), b.State.String())
	case nodeColUsers:
		return cmp.Compare(a.Users(), b.Users())
	case nodeColJobs:
		return cmp.Compare(len(a.Jobs), len(b.Jobs))
	case nodeColCPUs:
		return cmp.Compare(usedFraction(a.CPUUtilization(a.MemPerCPU(t.memPerCPU))),
			usedFraction(b.CPUUtilization(b.MemPerCPU(t.memPerCPU))))
	case nodeColMemory:
		return cmp.Compare(usedFraction(a.MemUtilization()), usedFraction(b.MemUtilization()))
	case nodeColGPUs:
		return cmp.Compare(usedFraction(a.GPUUtilization(a.MemPerCPU(t.memPerCPU))),
			usedFraction(b.GPUUtilization(b.MemPerCPU(t.memPerCPU))))
	}
	return 0
}

// usedFraction is the share of capacity that is allocated or blocked.
func usedFraction(u slurm.Utilization) float64 {
	if u.Capacity <= 0 {
		return 0
	}
	return (u.Allocated + u.Blocked) / u.Capacity
}

// scroll moves the selection by delta rows. Spacer rows are skipped in the
// direction of travel.
func (t *nodeTable) scroll(delta int) {
	if len(t.rows) == 0 {
		t.selected = -1
		return
	}
	sel := clamp(max(t.selected, 0)+delta, 0, len(t.rows)-1)
	dir := 1
	if delta < 0 {
		dir = -1
	}
	t.selected = t.nearestSelectable(sel, dir)
}

func (t *nodeTable) nearestSelectable(from, dir int) int {
	for _, d := range []int{dir, -dir} {
		for i := from; i >= 0 && i < len(t.rows); i += d {
			if t.rows[i].kind != rowSpacer {
				return i
			}
		}
	}
	return -1
}

// click selects the row at line of the rendered table. Spacers and the
// header are ignored.
func (t *nodeTable) click(line int) {
	if idx := rowAt(t.offset, len(t.rows), line); idx >= 0 && t.rows[idx].kind != rowSpacer {
		t.selected = idx
	}
}

// selection returns the selected partition and, for node rows, the node.
func (t *nodeTable) selection() (*slurm.Partition, *slurm.Node) {
	if t.selected < 0 || t.selected >= len(t.rows) {
		return nil, nil
	}
	r := t.rows[t.selected]
	return r.partition, r.node
}

// selectedJobs returns the jobs of the selected node or partition.
func (t *nodeTable) selectedJobs() []*slurm.Job {
	p, n := t.selection()
	switch {
	case n != nil:
		return n.Jobs
	case p != nil:
		return p.Jobs
	}
	return nil
}

// title names the selected node or partition.
func (t *nodeTable) title() string {
	p, n := t.selection()
	switch {
	case n != nil:
		return n.Name
	case p != nil:
		return p.Name.String()
	}
	return ""
}

// height is the number of lines needed to show every row plus the header.
func (t *nodeTable) height() int {
	return len(t.rows) + 1
}

func (t *nodeTable) view(focused bool) tableView {
	rows := make([]tableRow, len(t.rows))
	for i, r := range t.rows {
		switch r.kind {
		case rowPartition:
			rows[i] = t.partitionRow(r.partition)
		case rowNode:
			rows[i] = t.nodeRow(r.node, r.last)
		default:
			rows[i] = tableRow{spacer: true}
		}
	}
	return tableView{
		columns:    nodeColumns,
		rows:       rows,
		sortColumn: t.sortColumn,
		sortDesc:   t.sortDesc,
		selected:   t.selected,
		offset:     t.offset,
		focused:    focused,
	}
}

func (t *nodeTable) partitionRow(p *slurm.Partition) tableRow {
	u := p.Utilization(t.memPerCPU)
	return tableRow{cells: []cell{
		textCell(p.Name.String()),
		textCell(""),
		textCell(strconv.Itoa(p.Users())),
		textCell(strconv.Itoa(len(p.Jobs))),
		utilCell(u.CPU),
		utilCell(u.Mem),
		utilCell(u.GPU),
	}}
}

func (t *nodeTable) nodeRow(n *slurm.Node, last bool) tableRow {
	branch := "┝"
	if last {
		branch = "┕"
	}
	state := textCell(n.State.String())
	if !n.State.IsAvailable() {
		state.tone = toneUnavailable
	}
	perCPU := n.MemPerCPU(t.memPerCPU)
	return tableRow{cells: []cell{
		textCell(" " + branch + " " + n.Name),
		state,
		textCell(strconv.Itoa(n.Users())),
		textCell(strconv.Itoa(len(n.Jobs))),
		utilCell(n.CPUUtilization(perCPU)),
		utilCell(n.MemUtilization()),
		utilCell(n.GPUUtilization(perCPU)),
	}}
}

// cycleColumn moves a sort column by delta, wrapping around. An unset
// column (-1) starts from either end.
func cycleColumn(current, delta, n int) int {
	if n == 0 {
		return -1
	}
	if current < 0 {
		if delta < 0 {
			return n - 1
		}
		return 0
	}
	return ((current+delta)%n + n) % n
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
