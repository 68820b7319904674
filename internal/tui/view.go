package tui

import (
	"fmt"
	"strings"

	"feargreed-dashboard/internal/dashboard"
	"feargreed-dashboard/internal/domain"
	"feargreed-dashboard/internal/news"

	"github.com/charmbracelet/lipgloss"
)

const (
	minGaugeWidth = 20
	maxGaugeWidth = 60
	statsWidth    = 30
)

func (m *AppModel) View() string {
	t := m.theme
	width := m.width

	sections := []string{
		m.viewHeader(),
		"",
		m.viewIndex(),
		"",
		m.viewChart(),
		"",
		m.viewNews(),
		"",
		m.viewStatus(),
		m.help.View(keys),
	}
	return lipgloss.NewStyle().
		Foreground(t.Text).
		Width(width).
		Padding(0, 1).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m *AppModel) viewHeader() string {
	t := m.theme
	title := lipgloss.NewStyle().Bold(true).Foreground(t.Primary).Render("Fear & Greed Index")

	var tabs []string
	for _, mode := range domain.Modes {
		style := lipgloss.NewStyle().Padding(0, 1).Foreground(t.Muted)
		if mode == m.snap.Mode {
			style = style.Bold(true).Foreground(t.Text).Underline(true)
		}
		tabs = append(tabs, style.Render(mode.Label()))
	}

	header := title + "  " + strings.Join(tabs, "")
	if m.svc.Username != "" {
		header += lipgloss.NewStyle().Foreground(t.Muted).Render("  @" + m.svc.Username)
	}
	return header
}

func (m *AppModel) viewIndex() string {
	t := m.theme
	value := m.snap.CurrentValue
	color := ClassColor(m.snap.Classification)

	big := lipgloss.NewStyle().Bold(true).Foreground(color).Render(fmt.Sprintf("%3d", value))
	label := lipgloss.NewStyle().Bold(true).Foreground(color).Render(string(m.snap.Classification))
	gauge := RenderGauge(value, m.gaugeWidth())
	left := lipgloss.JoinVertical(lipgloss.Left, big+"  "+label, "", gauge)

	stats := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Padding(0, 1).
		Width(statsWidth).
		Render(m.viewStats())

	if m.width >= m.gaugeWidth()+statsWidth+8 {
		return lipgloss.JoinHorizontal(lipgloss.Top, left, "   ", stats)
	}
	return lipgloss.JoinVertical(lipgloss.Left, left, "", stats)
}

func (m *AppModel) gaugeWidth() int {
	w := m.width - statsWidth - 12
	if w > maxGaugeWidth {
		w = maxGaugeWidth
	}
	if w < minGaugeWidth {
		w = minGaugeWidth
	}
	return w
}

func (m *AppModel) viewStats() string {
	t := m.theme
	muted := lipgloss.NewStyle().Foreground(t.Muted)
	row := func(name, value string) string {
		return muted.Render(fmt.Sprintf("%-13s", name)) + value
	}

	stats := m.snap.Stats
	change := "n/a"
	if stats.HasChange24h {
		change = dashboard.FormatChange(stats.Change24h)
		if stats.HasChangePct {
			change += fmt.Sprintf(" (%+.1f%%)", stats.Change24hPct)
		}
		change = lipgloss.NewStyle().Foreground(ChangeColor(stats.Change24h)).Render(change)
	}
	trend := "n/a"
	if stats.HasTrend7d {
		arrow := "↓"
		if stats.TrendUp() {
			arrow = "↑"
		}
		trend = lipgloss.NewStyle().
			Foreground(ChangeColor(stats.Trend7d)).
			Render(arrow + " " + dashboard.FormatChange(stats.Trend7d))
	}

	return strings.Join([]string{
		row("Current", fmt.Sprintf("%d", m.snap.CurrentValue)),
		row("24h change", change),
		row("7-day trend", trend),
		row("Sentiment", lipgloss.NewStyle().Foreground(ClassColor(m.snap.Classification)).Render(string(m.snap.Classification))),
		row("Updated", dashboard.FormatUpdated(m.snap.LastUpdated, m.svc.Clock.Now())),
	}, "\n")
}

// RenderGauge draws a banded 0-100 bar with a needle above value.
func RenderGauge(value, width int) string {
	if width < minGaugeWidth {
		width = minGaugeWidth
	}
	value = domain.ClampValue(value)
	pos := value * (width - 1) / domain.MaxValue

	needle := strings.Repeat(" ", pos) + lipgloss.NewStyle().Bold(true).Render("▼")

	var bar strings.Builder
	for i := 0; i < width; i++ {
		v := i * domain.MaxValue / (width - 1)
		bar.WriteString(lipgloss.NewStyle().Foreground(ValueColor(v)).Render("█"))
	}

	scale := []rune(strings.Repeat(" ", width))
	copy(scale, []rune("0"))
	copy(scale[width/2-1:], []rune("50"))
	copy(scale[width-3:], []rune("100"))

	return needle + "\n" + bar.String() + "\n" + string(scale)
}

func (m *AppModel) viewChart() string {
	t := m.theme
	title := lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("Last %d days", m.chartDays))
	if len(m.chart) == 0 {
		return title + "\n" + lipgloss.NewStyle().Foreground(t.Muted).Render("No history available")
	}
	w := m.width - 4
	if w < minGaugeWidth {
		w = minGaugeWidth
	}
	axis := lipgloss.NewStyle().Foreground(t.Muted).Render(ChartAxis(m.chartDays, w))
	return lipgloss.JoinVertical(lipgloss.Left, title, RenderChart(m.chart, w, chartHeight), axis)
}

func (m *AppModel) viewNews() string {
	t := m.theme
	title := lipgloss.NewStyle().Bold(true).Render("Market News")
	articles := m.snap.Articles
	if len(articles) == 0 {
		return title + "\n" + lipgloss.NewStyle().Foreground(t.Muted).Render("No news articles available at the moment.")
	}
	if len(articles) > maxArticles {
		articles = articles[:maxArticles]
	}

	now := m.svc.Clock.Now()
	meta := lipgloss.NewStyle().Foreground(t.Subtext)
	lines := []string{title}
	for _, a := range articles {
		head := lipgloss.NewStyle().Bold(true).Render(a.Title)
		if a.Sentiment != domain.BucketNeutral {
			badge := lipgloss.NewStyle().Foreground(BucketColor(a.Sentiment)).Render("[" + strings.ToUpper(string(a.Sentiment)) + "]")
			head = badge + " " + head
		}
		info := a.Source + " · " + news.RelativeTime(a.PublishedAt, now)
		if a.URL == "#" {
			info += "  (Demo article)"
		}
		lines = append(lines, "• "+head, "  "+meta.Render(info))
	}
	return strings.Join(lines, "\n")
}

func (m *AppModel) viewStatus() string {
	t := m.theme
	parts := []string{m.snap.Mode.Label()}
	if m.snap.Manual {
		parts = append(parts, lipgloss.NewStyle().Foreground(t.Warning).Render("MANUAL"))
	} else {
		parts = append(parts, "AUTO")
	}
	if m.snap.IsMock() {
		parts = append(parts, lipgloss.NewStyle().Foreground(t.Warning).Render("MOCK DATA"))
	}
	if m.loading {
		parts = append(parts, m.spinner.View()+" loading")
	}

	switch {
	case m.snap.Notice != "":
		parts = append(parts, lipgloss.NewStyle().Foreground(t.Error).Render(m.snap.Notice))
	case m.err != nil:
		parts = append(parts, lipgloss.NewStyle().Foreground(t.Error).Render("Refresh failed: "+m.err.Error()))
	case m.hint != "":
		parts = append(parts, lipgloss.NewStyle().Foreground(t.Muted).Render(m.hint))
	}
	return strings.Join(parts, " | ")
}
