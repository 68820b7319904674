package tui

import (
	"strings"
	"testing"
	"time"

	"feargreed-dashboard/internal/domain"

	"github.com/charmbracelet/x/ansi"
)

func TestRenderGaugeNeedlePosition(t *testing.T) {
	tests := []struct {
		value int
		width int
		pos   int
	}{
		{0, 21, 0},
		{50, 21, 10},
		{100, 21, 20},
		{150, 21, 20},
	}
	for _, tc := range tests {
		lines := strings.Split(ansi.Strip(RenderGauge(tc.value, tc.width)), "\n")
		if len(lines) != 3 {
			t.Fatalf("expected needle, bar and scale, got %d lines", len(lines))
		}
		if got := strings.IndexRune(lines[0], '▼'); got != tc.pos {
			t.Fatalf("value %d: expected needle at %d, got %d", tc.value, tc.pos, got)
		}
		if n := len([]rune(lines[1])); n != tc.width {
			t.Fatalf("expected bar of %d cells, got %d", tc.width, n)
		}
		if !strings.HasPrefix(lines[2], "0") || !strings.HasSuffix(lines[2], "100") {
			t.Fatalf("unexpected scale %q", lines[2])
		}
	}
}

func TestRenderChartDimensions(t *testing.T) {
	points := []domain.HistoricalPoint{{Value: 10}, {Value: 50}, {Value: 100}}
	out := ansi.Strip(RenderChart(points, 12, 4))
	rows := strings.Split(out, "\n")
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}
	for _, r := range rows {
		if n := len([]rune(r)); n != 12 {
			t.Fatalf("expected 12 columns, got %d in %q", n, r)
		}
	}
	if !strings.HasSuffix(rows[0], "████") {
		t.Fatalf("a value of 100 should fill the top row, got %q", rows[0])
	}
}

func TestRenderChartEmpty(t *testing.T) {
	if RenderChart(nil, 10, 4) != "" {
		t.Fatal("expected empty chart for no points")
	}
}

func TestResampleAverages(t *testing.T) {
	points := []domain.HistoricalPoint{{Value: 10}, {Value: 20}, {Value: 30}, {Value: 40}}
	got := resample(points, 2)
	if got[0] != 15 || got[1] != 35 {
		t.Fatalf("unexpected resample: %v", got)
	}
}

func TestViewShowsReadingAndNews(t *testing.T) {
	d := newStubDashboard()
	m := newTestModel(d)

	snap := d.snap
	snap.CurrentValue = 15
	snap.Classification = domain.ExtremeFear
	reading := domain.SentimentReading{Mode: domain.ModeCrypto, Value: 15, IsMock: true}
	snap.Reading = &reading
	snap.Articles = []domain.NewsArticle{{
		Title:       "Bitcoin Drops Below Key Support Level",
		Source:      "CoinDesk",
		URL:         "#",
		Sentiment:   domain.BucketFear,
		PublishedAt: m.svc.Clock.Now().Add(-3 * time.Hour).UTC().Format(time.RFC3339),
	}}
	m.Update(snapshotMsg{snap: snap})

	view := ansi.Strip(m.View())
	for _, want := range []string{"Extreme Fear", "MOCK DATA", "[FEAR]", "CoinDesk · 3 hours ago", "(Demo article)", "Crypto", "AUTO"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}

func TestViewWithoutNews(t *testing.T) {
	m := newTestModel(newStubDashboard())
	m.loading = false
	view := ansi.Strip(m.View())
	if !strings.Contains(view, "No news articles available at the moment.") {
		t.Fatalf("expected empty news message:\n%s", view)
	}
	if !strings.Contains(view, "No history available") {
		t.Fatalf("expected empty chart message:\n%s", view)
	}
}
