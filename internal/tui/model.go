package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/cpuwatch/internal/distributor"
	apperrors "github.com/agbru/cpuwatch/internal/errors"
)

// Layout constants for the dashboard.
const (
	headerHeight  = 1
	footerHeight  = 1
	minBodyHeight = 6
	// minChartHeight keeps room for the average chart below the cores.
	minChartHeight = 6
)

// LayoutManager holds the terminal size and splits it between panels.
type LayoutManager struct {
	width  int
	height int
}

func (l LayoutManager) bodyHeight() int {
	return max(l.height-headerHeight-footerHeight, minBodyHeight)
}

// coresHeight sizes the cores panel to its rows, leaving room for the chart.
func (l LayoutManager) coresHeight(cores, columns int) int {
	rows := (cores + columns - 1) / max(columns, 1)
	want := rows + 3 // title and border
	return min(want, max(l.bodyHeight()-minChartHeight, 3))
}

// Model is the root bubbletea model of the dashboard.
type Model struct {
	header HeaderModel
	cores  CoresModel
	chart  ChartModel
	footer FooterModel
	keymap KeyMap

	LayoutManager

	ctx    context.Context
	cancel context.CancelFunc
	sub    distributor.Subscription

	paused bool
	closed bool
}

// NewModel creates a dashboard reading from sub.
func NewModel(parent context.Context, sub distributor.Subscription, strategy, version string) Model {
	ctx, cancel := context.WithCancel(parent)
	return Model{
		header: NewHeaderModel(version, strategy),
		cores:  NewCoresModel(),
		chart:  NewChartModel(),
		footer: NewFooterModel(),
		keymap: DefaultKeyMap(),
		ctx:    ctx,
		cancel: cancel,
		sub:    sub,
	}
}

// Init starts the snapshot wait, the clock and the first memory reading.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitForSnapshotCmd(m.ctx, m.sub),
		tickCmd(),
		sampleSysStatsCmd(m.ctx),
	)
}

// Update handles all incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layoutPanels()
		return m, nil

	case SnapshotMsg:
		// Keep consuming while paused so the subscription stays current;
		// the view simply freezes.
		if !m.paused {
			m.cores.Update(msg.Snapshot.Cores)
			m.chart.AddSample(msg.Snapshot.Average())
			m.header.SetSeq(msg.Snapshot.Seq)
			m.layoutPanels()
		}
		return m, waitForSnapshotCmd(m.ctx, m.sub)

	case ClosedMsg:
		m.closed = true
		m.footer.SetClosed(true)
		if errors.Is(msg.Err, distributor.ErrClosed) {
			// The sampler stopped; leave the last frame visible until the
			// user quits.
			return m, nil
		}
		return m, tea.Quit

	case TickMsg:
		m.header.SetNow(time.Time(msg))
		if m.closed {
			return m, tickCmd()
		}
		return m, tea.Batch(tickCmd(), sampleSysStatsCmd(m.ctx))

	case SysStatsMsg:
		if msg.Err == nil {
			m.header.SetMemory(msg.MemPercent)
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.cancel()
		return m, tea.Quit

	case key.Matches(msg, m.keymap.Pause):
		m.paused = !m.paused
		m.footer.SetPaused(m.paused)
		return m, nil

	case key.Matches(msg, m.keymap.Help):
		m.footer.ToggleHelp()
		return m, nil
	}
	return m, nil
}

func (m *Model) layoutPanels() {
	m.header.SetWidth(m.width)
	m.footer.SetWidth(m.width)
	m.cores.SetSize(m.width, 0)
	ch := m.coresHeight(len(m.cores.cores), m.cores.columns())
	m.cores.SetSize(m.width, ch)
	m.chart.SetSize(m.width, m.bodyHeight()-ch)
}

// View renders the dashboard.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.header.View(),
		m.cores.View(),
		m.chart.View(),
		m.footer.View(m.keymap),
	)
}

// Run shows the dashboard until the user quits or ctx is cancelled. It
// subscribes to dist for its whole lifetime and returns an exit code.
func Run(ctx context.Context, dist distributor.Distributor, strategy, version string, opts ...tea.ProgramOption) int {
	initTUIStyles()

	sub, err := dist.Subscribe()
	if err != nil {
		return apperrors.ExitErrorGeneric
	}
	defer dist.Unsubscribe(sub)

	model := NewModel(ctx, sub, strategy, version)
	defer model.cancel()

	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	if _, err := tea.NewProgram(model, opts...).Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return apperrors.ExitErrorCanceled
		}
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}
