package ui

import (
	"cmp"
	"sort"
	"strconv"
	"strings"

	"slurmboard/internal/slurm"
)

const (
	jobColID = iota
	jobColUser
	jobColState
	jobColRuntime
	jobColNodes
	jobColTasks
	jobColCPUs
	jobColGPUs
	jobColMemory
	jobColNodelist
	jobColName
)

var jobColumns = []column{
	{title: "JobID"},
	{title: "User"},
	{title: "State"},
	{title: "Runtime", align: alignRight},
	{title: "Nodes", align: alignRight},
	{title: "Tasks", align: alignRight},
	{title: "CPUs", align: alignRight},
	{title: "GPUs", align: alignRight},
	{title: "Memory", align: alignRight},
	{title: "Nodelist"},
	{title: "Name", flex: true},
}

const noJobsLabel = "No jobs found"

// jobTable lists the jobs of the current node selection.
type jobTable struct {
	jobs       []*slurm.Job
	sortColumn int
	sortDesc   bool
	selected   int
	offset     int
}

func newJobTable() jobTable {
	return jobTable{sortColumn: jobColRuntime, sortDesc: true, selected: -1}
}

// update replaces the listed jobs, keeping the selected job when it is
// still listed.
func (t *jobTable) update(jobs []*slurm.Job) {
	var selectedID string
	if t.selected >= 0 && t.selected < len(t.jobs) {
		selectedID = t.jobs[t.selected].ID
	}

	t.jobs = append(t.jobs[:0:0], jobs...)
	t.sort()

	for i, j := range t.jobs {
		if selectedID != "" && j.ID == selectedID {
			t.selected = i
			return
		}
	}
	t.scroll(0)
}

func (t *jobTable) sort() {
	sort.SliceStable(t.jobs, func(i, j int) bool {
		c := compareJobs(t.jobs[i], t.jobs[j], t.sortColumn)
		if t.sortDesc {
			c = -c
		}
		if c == 0 {
			c = slurm.CompareID(t.jobs[i].ID, t.jobs[j].ID)
		}
		return c < 0
	})
}

func compareJobs(a, b *slurm.Job, column int) int {
	switch column {
	case jobColID:
		return slurm.CompareID(a.ID, b.ID)
	case jobColUser:
		return strings.Compare(a.User, b.User)
	case jobColState:
		return strings.Compare(string(a.State), string(b.State))
	case jobColRuntime:
		return a.Runtime.Compare(b.Runtime)
	case jobColNodes:
		return cmp.Compare(a.Nodes, b.Nodes)
	case jobColTasks:
		return cmp.Compare(a.Tasks, b.Tasks)
	case jobColCPUs:
		return cmp.Compare(a.CPUs, b.CPUs)
	case jobColGPUs:
		return cmp.Compare(a.GPUs, b.GPUs)
	case jobColMemory:
		return cmp.Compare(a.Mem, b.Mem)
	case jobColNodelist:
		return strings.Compare(a.RawNodelist, b.RawNodelist)
	case jobColName:
		return strings.Compare(a.Name, b.Name)
	}
	return 0
}

func (t *jobTable) setSortColumn(delta int) {
	t.sortColumn = cycleColumn(t.sortColumn, delta, len(jobColumns))
	t.resort()
}

func (t *jobTable) toggleSortOrder() {
	t.sortDesc = !t.sortDesc
	t.resort()
}

func (t *jobTable) resort() {
	t.update(t.jobs)
}

func (t *jobTable) scroll(delta int) {
	if len(t.jobs) == 0 {
		t.selected = -1
		return
	}
	t.selected = clamp(max(t.selected, 0)+delta, 0, len(t.jobs)-1)
}

// click selects the job at line of the rendered table.
func (t *jobTable) click(line int) {
	if idx := rowAt(t.offset, len(t.jobs), line); idx >= 0 {
		t.selected = idx
	}
}

func (t *jobTable) view(focused bool) tableView {
	rows := make([]tableRow, len(t.jobs))
	for i, j := range t.jobs {
		row := tableRow{cells: []cell{
			textCell(j.ID),
			textCell(j.User),
			textCell(string(j.State)),
			textCell(j.Runtime.String()),
			textCell(strconv.Itoa(j.Nodes)),
			textCell(strconv.Itoa(j.Tasks)),
			textCell(strconv.Itoa(j.CPUs)),
			textCell(strconv.Itoa(j.GPUs)),
			textCell(FormatMB(j.Mem)),
			textCell(j.RawNodelist),
			textCell(j.Name),
		}}
		if !j.IsRunning() {
			row.tone = toneDim
		}
		rows[i] = row
	}
	return tableView{
		columns:    jobColumns,
		rows:       rows,
		sortColumn: t.sortColumn,
		sortDesc:   t.sortDesc,
		selected:   t.selected,
		offset:     t.offset,
		focused:    focused,
	}
}

// render draws the job table, or a boxed notice when there are no jobs.
func (t *jobTable) render(s Styles, focused bool, width, height int) []string {
	if len(t.jobs) > 0 {
		return t.view(focused).render(s, width, height)
	}

	lines := make([]string, height)
	for i := range lines {
		lines[i] = strings.Repeat(" ", width)
	}
	box := []string{
		"┌" + strings.Repeat("─", len(noJobsLabel)) + "┐",
		"│" + noJobsLabel + "│",
		"└" + strings.Repeat("─", len(noJobsLabel)) + "┘",
	}
	boxWidth := len(noJobsLabel) + 2
	if boxWidth > width || len(box) > height {
		return lines
	}
	top := (height - len(box)) / 2
	left := (width - boxWidth) / 2
	for i, b := range box {
		lines[top+i] = strings.Repeat(" ", left) + s.Border.Render(b) + strings.Repeat(" ", width-left-boxWidth)
	}
	return lines
}
