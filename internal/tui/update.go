package tui

import (
	"feargreed-dashboard/internal/dashboard"
	"feargreed-dashboard/internal/domain"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case snapshotMsg:
		m.loading = false
		m.err = msg.err
		m.apply(msg.snap)

	case refreshTickMsg:
		return m, tea.Batch(m.autoRefresh(), m.scheduleRefresh())

	case redrawTickMsg:
		return m, scheduleRedraw()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *AppModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	m.hint = ""
	switch {
	case key.Matches(msg, keys.Quit):
		return tea.Quit
	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, keys.Crypto):
		return m.startLoad(m.switchMode(domain.ModeCrypto))
	case key.Matches(msg, keys.Stock):
		return m.startLoad(m.switchMode(domain.ModeStock))
	case key.Matches(msg, keys.Refresh):
		if m.snap.Manual {
			m.hint = "Manual mode: press m to return to live data"
			return nil
		}
		return m.startLoad(m.load(true))
	case key.Matches(msg, keys.Manual):
		return m.startLoad(m.toggleManual())
	case key.Matches(msg, keys.FarLeft):
		m.manual(m.svc.Dashboard.Nudge(-10))
	case key.Matches(msg, keys.FarRight):
		m.manual(m.svc.Dashboard.Nudge(10))
	case key.Matches(msg, keys.Left):
		m.manual(m.svc.Dashboard.Nudge(-1))
	case key.Matches(msg, keys.Right):
		m.manual(m.svc.Dashboard.Nudge(1))
	case key.Matches(msg, keys.Presets):
		idx := int(msg.String()[0] - '1')
		m.manual(m.svc.Dashboard.Preset(dashboard.Presets[idx]))
	case key.Matches(msg, keys.Random):
		m.manual(m.svc.Dashboard.Random())
	case key.Matches(msg, keys.Week):
		m.chartDays = 7
		m.chart = m.svc.Dashboard.ChartSeries(m.chartDays)
	case key.Matches(msg, keys.Month):
		m.chartDays = 30
		m.chart = m.svc.Dashboard.ChartSeries(m.chartDays)
	}
	return nil
}

func (m *AppModel) startLoad(cmd tea.Cmd) tea.Cmd {
	m.loading = true
	return cmd
}

func (m *AppModel) manual(snap dashboard.Snapshot, ok bool) {
	if !ok {
		m.hint = manualHint
		return
	}
	m.apply(snap)
}

func (m *AppModel) apply(snap dashboard.Snapshot) {
	m.snap = snap
	m.chart = m.svc.Dashboard.ChartSeries(m.chartDays)
}
