package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"slurmboard/internal/config"
	"slurmboard/internal/logging"
	"slurmboard/internal/slurm"
)

// Source collects cluster snapshots.
type Source interface {
	Config(ctx context.Context) (*slurm.Config, error)
	Collect(ctx context.Context, cfg *slurm.Config) (*slurm.Cluster, error)
}

// Recorder appends snapshots to the utilization history.
type Recorder interface {
	Record(ctx context.Context, cluster *slurm.Cluster, memPerCPU int) (string, error)
}

// Options configures a Model.
type Options struct {
	Context  context.Context
	Source   Source
	Recorder Recorder // nil disables history
	Config   *config.Config

	// SlurmConfig and Cluster seed the first frame. Without a cluster the
	// model refreshes as soon as it starts.
	SlurmConfig *slurm.Config
	Cluster     *slurm.Cluster
}

// ConfigReloadedMsg hands a reloaded configuration to a running Model.
type ConfigReloadedMsg struct {
	Config *config.Config
}

type refreshRequestMsg struct{}

type refreshMsg struct {
	cluster *slurm.Cluster
	config  *slurm.Config
	err     error
}

type tickMsg struct {
	id int
}

type recordedMsg struct {
	snapshotID string
	err        error
}

type pane int

const (
	paneNodes pane = iota
	paneJobs
)

const (
	// forcedRefreshInterval limits how often a held-down refresh key collects.
	forcedRefreshInterval = time.Second
	pageSize              = 10
	jumpSize              = 1 << 30
)

// Model is the dashboard.
type Model struct {
	ctx      context.Context
	source   Source
	recorder Recorder
	cfg      *config.Config
	slurmCfg *slurm.Config
	cluster  *slurm.Cluster

	styles   Styles
	keys     keyMap
	spinner  spinner.Model
	help     helpView
	showHelp bool

	nodes nodeTable
	jobs  jobTable
	focus pane

	width  int
	height int

	interval    time.Duration
	tickID      int
	refreshing  bool
	lastRefresh time.Time
	lastErr     error
	now         func() time.Time
}

// NewModel creates the dashboard model.
func NewModel(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	styles := NewStyles(DetectTheme(cfg.Theme))
	keys := defaultKeyMap()
	m := Model{
		ctx:      ctx,
		source:   opts.Source,
		recorder: opts.Recorder,
		cfg:      cfg,
		slurmCfg: opts.SlurmConfig,
		styles:   styles,
		keys:     keys,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.Spinner)),
		help:     newHelpView(keys),
		nodes:    newNodeTable(),
		jobs:     newJobTable(),
		focus:    paneNodes,
		interval: cfg.GetInterval(),
		now:      time.Now,
	}
	m.nodes.hideUnavailable = cfg.HideUnavailable
	m.nodes.memPerCPU = cfg.DefMemPerCPU

	if opts.Cluster != nil {
		m.applyCluster(opts.Cluster)
		m.lastRefresh = m.now()
	}
	return m
}

// Init starts the refresh ticker, and a first refresh when no snapshot
// was given.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.scheduleTick()}
	if m.cluster == nil {
		cmds = append(cmds, func() tea.Msg { return refreshRequestMsg{} })
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.showHelp {
			m.help.resize(m.width-2, m.height-2, m.styles.Theme)
		}
		m.syncOffsets()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case refreshRequestMsg:
		return m, m.startRefresh()

	case tickMsg:
		if msg.id != m.tickID {
			// Scheduled under a previous interval.
			return m, nil
		}
		return m, tea.Batch(m.startRefresh(), m.scheduleTick())

	case refreshMsg:
		m.refreshing = false
		if msg.err != nil {
			m.lastErr = msg.err
			logging.CollectWarn("Refresh failed, keeping last snapshot: %v", msg.err)
			return m, nil
		}
		m.lastErr = nil
		m.slurmCfg = msg.config
		m.applyCluster(msg.cluster)
		return m, m.recordCmd(msg.cluster)

	case recordedMsg:
		if msg.err != nil {
			m.lastErr = fmt.Errorf("recording history: %w", msg.err)
			logging.UIError("Recording history failed: %v", msg.err)
		} else {
			logging.UIDebug("Recorded snapshot %s", msg.snapshotID)
		}
		return m, nil

	case ConfigReloadedMsg:
		return m, m.applyConfig(msg.Config)

	case spinner.TickMsg:
		if !m.refreshing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		switch {
		case key.Matches(msg, m.keys.Close):
			m.showHelp = false
			return m, nil
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.help.viewport, cmd = m.help.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Hide):
		m.nodes.setHideUnavailable(!m.nodes.hideUnavailable)
		m.syncJobs()
	case key.Matches(msg, m.keys.Refresh):
		cmd = m.forceRefresh()
	case key.Matches(msg, m.keys.Up):
		m.scroll(-1)
	case key.Matches(msg, m.keys.Down):
		m.scroll(1)
	case key.Matches(msg, m.keys.PageUp):
		m.scroll(-pageSize)
	case key.Matches(msg, m.keys.PageDown):
		m.scroll(pageSize)
	case key.Matches(msg, m.keys.Home):
		m.scroll(-jumpSize)
	case key.Matches(msg, m.keys.End):
		m.scroll(jumpSize)
	case key.Matches(msg, m.keys.Left):
		m.setSortColumn(-1)
	case key.Matches(msg, m.keys.Right):
		m.setSortColumn(1)
	case key.Matches(msg, m.keys.Sort):
		m.toggleSortOrder()
	case key.Matches(msg, m.keys.Focus):
		m.toggleFocus()
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		m.help.resize(m.width-2, m.height-2, m.styles.Theme)
	}
	m.syncOffsets()
	return m, cmd
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		var cmd tea.Cmd
		m.help.viewport, cmd = m.help.viewport.Update(msg)
		return m, cmd
	}

	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		m.wheel(msg.Y, -1)
	case msg.Button == tea.MouseButtonWheelDown:
		m.wheel(msg.Y, 1)
	case msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress:
		m.click(msg.Y)
	default:
		return m, nil
	}
	m.syncOffsets()
	return m, nil
}

func (m *Model) layout() layout {
	return computeLayout(m.height, m.nodes.height())
}

// paneAt maps a screen row to a pane and a line of that pane's table, where
// line 0 is the table header. Borders, including the seam, are not part of
// either pane.
func (m *Model) paneAt(y int) (pane, int, bool) {
	l := m.layout()
	if l.both && y >= l.nodeHeight {
		line := y - l.nodeHeight - 1
		return paneJobs, line, line >= 0 && line < l.jobTableHeight()
	}
	line := y - 1
	return paneNodes, line, line >= 0 && line < l.nodeTableHeight()
}

func (m *Model) click(y int) {
	p, line, ok := m.paneAt(y)
	if !ok {
		return
	}
	if m.focus != p {
		m.toggleFocus()
	}
	switch p {
	case paneNodes:
		m.nodes.click(line)
		m.syncJobs()
	case paneJobs:
		m.jobs.click(line)
	}
}

func (m *Model) wheel(y, delta int) {
	p, _, ok := m.paneAt(y)
	if !ok {
		return
	}
	m.scrollPane(p, delta)
}

func (m *Model) scroll(delta int) {
	m.scrollPane(m.focus, delta)
}

func (m *Model) scrollPane(p pane, delta int) {
	switch p {
	case paneNodes:
		m.nodes.scroll(delta)
		m.syncJobs()
	case paneJobs:
		m.jobs.scroll(delta)
	}
}

func (m *Model) toggleFocus() {
	if m.focus == paneNodes {
		m.focus = paneJobs
	} else {
		m.focus = paneNodes
	}
}

func (m *Model) setSortColumn(delta int) {
	if m.focus == paneNodes {
		m.nodes.setSortColumn(delta)
		m.syncJobs()
		return
	}
	m.jobs.setSortColumn(delta)
}

func (m *Model) toggleSortOrder() {
	if m.focus == paneNodes {
		m.nodes.toggleSortOrder()
		m.syncJobs()
		return
	}
	m.jobs.toggleSortOrder()
}

func (m *Model) applyCluster(cluster *slurm.Cluster) {
	m.cluster = cluster
	m.nodes.update(cluster.Partitions)
	m.syncJobs()
	m.syncOffsets()
}

// syncJobs shows the jobs of the current node selection.
func (m *Model) syncJobs() {
	m.jobs.update(m.nodes.selectedJobs())
}

// syncOffsets scrolls both tables so that their selections are visible.
func (m *Model) syncOffsets() {
	l := m.layout()
	m.nodes.offset = visibleOffset(m.nodes.offset, m.nodes.selected, len(m.nodes.rows), l.nodeTableHeight()-1)
	m.jobs.offset = visibleOffset(m.jobs.offset, m.jobs.selected, len(m.jobs.jobs), l.jobTableHeight()-1)
}

func (m *Model) applyConfig(cfg *config.Config) tea.Cmd {
	prev := m.cfg
	m.cfg = cfg

	m.styles = NewStyles(DetectTheme(cfg.Theme))
	m.spinner.Style = m.styles.Spinner
	if prev == nil || prev.HideUnavailable != cfg.HideUnavailable {
		m.nodes.setHideUnavailable(cfg.HideUnavailable)
	}
	m.nodes.setMemPerCPU(cfg.DefMemPerCPU)
	m.syncJobs()
	m.syncOffsets()
	if m.showHelp {
		m.help.resize(m.width-2, m.height-2, m.styles.Theme)
	}

	interval := cfg.GetInterval()
	if interval == m.interval {
		return nil
	}
	logging.UI("Refresh interval changed from %s to %s", m.interval, interval)
	m.interval = interval
	m.tickID++
	return m.scheduleTick()
}

func (m *Model) scheduleTick() tea.Cmd {
	if m.interval <= 0 {
		return nil
	}
	id := m.tickID
	return tea.Tick(m.interval, func(time.Time) tea.Msg {
		return tickMsg{id: id}
	})
}

// forceRefresh refreshes unless the last refresh started less than a
// second ago.
func (m *Model) forceRefresh() tea.Cmd {
	if m.now().Sub(m.lastRefresh) < forcedRefreshInterval {
		logging.UIDebug("Ignoring refresh request; last refresh was %s ago", m.now().Sub(m.lastRefresh))
		return nil
	}
	return m.startRefresh()
}

// startRefresh collects a new snapshot in the background. At most one
// refresh is in flight.
func (m *Model) startRefresh() tea.Cmd {
	if m.refreshing || m.source == nil {
		return nil
	}
	m.refreshing = true
	m.lastRefresh = m.now()

	ctx, source, cfg := m.ctx, m.source, m.slurmCfg
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		return collect(ctx, source, cfg)
	})
}

func collect(ctx context.Context, source Source, cfg *slurm.Config) refreshMsg {
	timer := logging.StartTimer(logging.CategoryCollect, "refresh")
	defer timer.Stop()

	if cfg == nil {
		var err error
		if cfg, err = source.Config(ctx); err != nil {
			return refreshMsg{err: err}
		}
	}
	cluster, err := source.Collect(ctx, cfg)
	if err != nil {
		return refreshMsg{err: err}
	}
	return refreshMsg{cluster: cluster, config: cfg}
}

func (m *Model) recordCmd(cluster *slurm.Cluster) tea.Cmd {
	if m.recorder == nil {
		return nil
	}
	ctx, recorder, memPerCPU := m.ctx, m.recorder, m.cfg.DefMemPerCPU
	return func() tea.Msg {
		id, err := recorder.Record(ctx, cluster, memPerCPU)
		return recordedMsg{snapshotID: id, err: err}
	}
}

func (m Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}
	s := m.styles
	footer := footerText(s, m.keys)

	if m.showHelp {
		lines := renderPane(s, m.width, m.height, paneFrame{
			title:  " Help ",
			bottom: true,
			footer: s.Key.Render(" <Esc> ") + s.Body.Render("Close "),
		}, m.help.view)
		return strings.Join(lines, "\n")
	}

	l := m.layout()
	nodeBody := func(w, h int) []string {
		return m.nodes.view(m.focus == paneNodes).render(s, w, h)
	}
	if !l.both {
		lines := renderPane(s, m.width, l.nodeHeight, paneFrame{
			title:  " Partitions ",
			bottom: true,
			footer: footer,
			status: m.status(),
		}, nodeBody)
		return strings.Join(lines, "\n")
	}

	lines := renderPane(s, m.width, l.nodeHeight, paneFrame{title: " Partitions "}, nodeBody)
	title := ""
	if name := m.nodes.title(); name != "" {
		title = " " + name + " "
	}
	lines = append(lines, renderPane(s, m.width, l.jobHeight, paneFrame{
		title:  title,
		joined: true,
		bottom: true,
		footer: footer,
		status: m.status(),
	}, func(w, h int) []string {
		return m.jobs.render(s, m.focus == paneJobs, w, h)
	})...)
	return strings.Join(lines, "\n")
}

// status describes the last refresh for the bottom border.
func (m Model) status() string {
	s := m.styles
	switch {
	case m.refreshing:
		return " " + m.spinner.View() + s.Status.Render(" Refreshing ")
	case m.lastErr != nil:
		return s.Error.Render(" " + strings.Join(strings.Fields(m.lastErr.Error()), " ") + " ")
	case m.cluster != nil:
		return s.Status.Render(" Updated " + m.cluster.CollectedAt.Format("15:04:05") + " ")
	}
	return ""
}
