package news

import (
	"fmt"
	"time"
)

const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// RelativeTime renders publishedAt as "N minutes ago", "N hours ago" or
// "N days ago", switching to a plain date after a week. Input that does
// not parse is returned as is.
func RelativeTime(publishedAt string, now time.Time) string {
	published, err := time.Parse(time.RFC3339, publishedAt)
	if err != nil {
		return publishedAt
	}

	diff := now.Sub(published)
	if diff < 0 {
		diff = 0
	}

	minutes := int(diff / time.Minute)
	hours := int(diff / time.Hour)
	days := int(diff / (24 * time.Hour))

	switch {
	case minutes < 60:
		return plural(minutes, "minute")
	case hours < 24:
		return plural(hours, "hour")
	case days < 7:
		return plural(days, "day")
	default:
		return published.Format("1/2/2006")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
