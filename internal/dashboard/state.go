package dashboard

import (
	"fmt"
	"time"

	"feargreed-dashboard/internal/domain"
)

// DefaultValue is displayed before the first reading arrives.
const DefaultValue = 50

// Presets are the one-key manual values.
var Presets = []int{0, 25, 50, 75, 100}

// State is the per-session view state. It is never persisted.
type State struct {
	Mode         domain.Mode
	Manual       bool
	CurrentValue int
	LastUpdated  time.Time
}

type Stats struct {
	Change24h     int
	Change24hPct  float64
	HasChange24h  bool
	HasChangePct  bool
	Trend7d       int
	HasTrend7d    bool
	LastUpdatedAt time.Time
}

// TrendUp reports the direction of the seven day move.
func (s Stats) TrendUp() bool {
	return s.Trend7d >= 0
}

// Snapshot is what a surface renders.
type Snapshot struct {
	State
	Classification domain.Classification
	Reading        *domain.SentimentReading
	Articles       []domain.NewsArticle
	Stats          Stats
	Notice         string
}

// IsMock reports whether the displayed live data is synthetic.
func (s Snapshot) IsMock() bool {
	return s.Reading != nil && s.Reading.IsMock
}

// ComputeStats derives the 24h change from historical[1] and the seven day
// trend from historical[6].
func ComputeStats(r domain.SentimentReading) Stats {
	stats := Stats{LastUpdatedAt: time.UnixMilli(r.Timestamp)}
	if len(r.Historical) > 1 {
		yesterday := r.Historical[1].Value
		stats.Change24h = r.Value - yesterday
		stats.HasChange24h = true
		if yesterday != 0 {
			stats.Change24hPct = float64(stats.Change24h) / float64(yesterday) * 100
			stats.HasChangePct = true
		}
		if len(r.Historical) >= 7 {
			stats.Trend7d = r.Value - r.Historical[6].Value
			stats.HasTrend7d = true
		}
	}
	return stats
}

// FormatUpdated renders the "last updated" label.
func FormatUpdated(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	minutes := int(now.Sub(t) / time.Minute)
	switch {
	case minutes < 1:
		return "Just now"
	case minutes < 60:
		return fmt.Sprintf("%d min ago", minutes)
	case minutes < 24*60:
		hours := minutes / 60
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	default:
		return t.Local().Format("1/2/2006, 3:04:05 PM")
	}
}

// FormatChange renders a signed change such as "+4" or "-7".
func FormatChange(n int) string {
	if n >= 0 {
		return fmt.Sprintf("+%d", n)
	}
	return fmt.Sprintf("%d", n)
}
