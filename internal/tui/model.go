package tui

import (
	"context"
	"time"

	"feargreed-dashboard/internal/dashboard"
	"feargreed-dashboard/internal/domain"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
)

// Dashboard is the session controller the TUI drives.
type Dashboard interface {
	Snapshot() dashboard.Snapshot
	LoadData(ctx context.Context, forceRefresh bool) (dashboard.Snapshot, error)
	AutoRefresh(ctx context.Context) error
	SwitchMode(ctx context.Context, mode domain.Mode) (dashboard.Snapshot, error)
	ToggleManual(ctx context.Context) (dashboard.Snapshot, error)
	Nudge(delta int) (dashboard.Snapshot, bool)
	Preset(v int) (dashboard.Snapshot, bool)
	Random() (dashboard.Snapshot, bool)
	ChartSeries(days int) []domain.HistoricalPoint
}

type Services struct {
	Context         context.Context
	Dashboard       Dashboard
	Clock           clockwork.Clock
	RefreshInterval time.Duration
	Username        string
}

const (
	defaultRefreshInterval = 5 * time.Minute
	redrawInterval         = 30 * time.Second
	defaultChartDays       = 7
	chartHeight            = 6
	maxArticles            = 6
	defaultWidth           = 80
	manualHint             = "Press m to switch to manual mode first"
)

type AppModel struct {
	svc Services

	snap      dashboard.Snapshot
	chart     []domain.HistoricalPoint
	chartDays int
	loading   bool
	err       error
	hint      string
	theme     Theme

	width  int
	height int

	spinner spinner.Model
	help    help.Model
}

type snapshotMsg struct {
	snap dashboard.Snapshot
	err  error
}

type refreshTickMsg time.Time

type redrawTickMsg time.Time

func NewAppModel(svc Services) *AppModel {
	if svc.Context == nil {
		svc.Context = context.Background()
	}
	if svc.Clock == nil {
		svc.Clock = clockwork.NewRealClock()
	}
	if svc.RefreshInterval <= 0 {
		svc.RefreshInterval = defaultRefreshInterval
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &AppModel{
		svc:       svc,
		snap:      svc.Dashboard.Snapshot(),
		chartDays: defaultChartDays,
		loading:   true,
		theme:     Dark,
		width:     defaultWidth,
		spinner:   sp,
		help:      help.New(),
	}
}

// SetSize fits the layout to the terminal.
func (m *AppModel) SetSize(width, height int) {
	if width > 0 {
		m.width = width
		m.help.Width = width
	}
	if height > 0 {
		m.height = height
	}
}

func (m *AppModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load(false), m.scheduleRefresh(), scheduleRedraw())
}

func (m *AppModel) load(force bool) tea.Cmd {
	ctx, d := m.svc.Context, m.svc.Dashboard
	return func() tea.Msg {
		snap, err := d.LoadData(ctx, force)
		return snapshotMsg{snap: snap, err: err}
	}
}

func (m *AppModel) autoRefresh() tea.Cmd {
	ctx, d := m.svc.Context, m.svc.Dashboard
	return func() tea.Msg {
		err := d.AutoRefresh(ctx)
		return snapshotMsg{snap: d.Snapshot(), err: err}
	}
}

func (m *AppModel) switchMode(mode domain.Mode) tea.Cmd {
	ctx, d := m.svc.Context, m.svc.Dashboard
	return func() tea.Msg {
		snap, err := d.SwitchMode(ctx, mode)
		return snapshotMsg{snap: snap, err: err}
	}
}

func (m *AppModel) toggleManual() tea.Cmd {
	ctx, d := m.svc.Context, m.svc.Dashboard
	return func() tea.Msg {
		snap, err := d.ToggleManual(ctx)
		return snapshotMsg{snap: snap, err: err}
	}
}

func (m *AppModel) scheduleRefresh() tea.Cmd {
	return tea.Tick(m.svc.RefreshInterval, func(t time.Time) tea.Msg {
		return refreshTickMsg(t)
	})
}

func scheduleRedraw() tea.Cmd {
	return tea.Tick(redrawInterval, func(t time.Time) tea.Msg {
		return redrawTickMsg(t)
	})
}
