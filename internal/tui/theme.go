package tui

import (
	"feargreed-dashboard/internal/domain"

	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Border  lipgloss.Color
	Muted   lipgloss.Color
	Text    lipgloss.Color
	Subtext lipgloss.Color
	Primary lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
}

var Dark = Theme{
	Border:  lipgloss.Color("#4D4C57"),
	Muted:   lipgloss.Color("#858392"),
	Text:    lipgloss.Color("#DFDBDD"),
	Subtext: lipgloss.Color("#AAAAAA"),
	Primary: lipgloss.Color("#6B50FF"),
	Warning: lipgloss.Color("#FFD300"),
	Error:   lipgloss.Color("#E94090"),
}

var classColors = map[domain.Classification]lipgloss.Color{
	domain.ExtremeFear:  lipgloss.Color("#d32f2f"),
	domain.Fear:         lipgloss.Color("#ff6f00"),
	domain.Neutral:      lipgloss.Color("#ffd600"),
	domain.Greed:        lipgloss.Color("#7cb342"),
	domain.ExtremeGreed: lipgloss.Color("#2e7d32"),
}

// ClassColor is the display colour for a sentiment band.
func ClassColor(c domain.Classification) lipgloss.Color {
	if color, ok := classColors[c]; ok {
		return color
	}
	return classColors[domain.Neutral]
}

// ValueColor colours a raw 0-100 value by its band.
func ValueColor(v int) lipgloss.Color {
	return ClassColor(domain.Classify(v))
}

// ChangeColor is green for non-negative moves and red otherwise.
func ChangeColor(n int) lipgloss.Color {
	if n >= 0 {
		return classColors[domain.Greed]
	}
	return classColors[domain.ExtremeFear]
}

func BucketColor(b domain.Bucket) lipgloss.Color {
	switch b {
	case domain.BucketFear:
		return classColors[domain.Fear]
	case domain.BucketGreed:
		return classColors[domain.Greed]
	default:
		return classColors[domain.Neutral]
	}
}
