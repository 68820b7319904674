package tui

import (
	"strconv"
	"strings"

	"feargreed-dashboard/internal/domain"

	"github.com/charmbracelet/lipgloss"
)

// Eighth-block glyphs, index n fills n/8 of a cell.
var blocks = [9]rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// RenderChart draws points (oldest first) as an area chart on a fixed 0-100
// scale. Each column takes the colour of its sentiment band. Columns are
// stretched to fill width when there are fewer points than columns.
func RenderChart(points []domain.HistoricalPoint, width, height int) string {
	if len(points) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	cols := resample(points, width)
	levels := height * 8

	rows := make([]string, height)
	for row := range rows {
		floor := (height - 1 - row) * 8
		var sb strings.Builder
		for _, v := range cols {
			fill := v*levels/domain.MaxValue - floor
			if v > 0 && fill <= 0 && row == height-1 {
				fill = 1
			}
			switch {
			case fill <= 0:
				sb.WriteRune(' ')
				continue
			case fill > 8:
				fill = 8
			}
			sb.WriteString(lipgloss.NewStyle().Foreground(ValueColor(v)).Render(string(blocks[fill])))
		}
		rows[row] = sb.String()
	}
	return strings.Join(rows, "\n")
}

// resample maps points onto n columns, averaging when squeezing and
// repeating when stretching.
func resample(points []domain.HistoricalPoint, n int) []int {
	out := make([]int, n)
	if len(points) >= n {
		bucket := float64(len(points)) / float64(n)
		for i := range out {
			start := int(float64(i) * bucket)
			end := int(float64(i+1) * bucket)
			if end <= start {
				end = start + 1
			}
			sum := 0
			for _, p := range points[start:end] {
				sum += p.Value
			}
			out[i] = sum / (end - start)
		}
		return out
	}
	for i := range out {
		out[i] = points[i*len(points)/n].Value
	}
	return out
}

// ChartAxis labels the chart ends for a span of days.
func ChartAxis(days, width int) string {
	left := "-" + strconv.Itoa(days) + "d"
	right := "now"
	gap := width - len(left) - len(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}
