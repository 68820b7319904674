package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Crypto   key.Binding
	Stock    key.Binding
	Refresh  key.Binding
	Manual   key.Binding
	Left     key.Binding
	Right    key.Binding
	FarLeft  key.Binding
	FarRight key.Binding
	Presets  key.Binding
	Random   key.Binding
	Week     key.Binding
	Month    key.Binding
	Help     key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Crypto:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "crypto")),
	Stock:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stocks")),
	Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Manual:   key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "manual")),
	Left:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "-1")),
	Right:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "+1")),
	FarLeft:  key.NewBinding(key.WithKeys("shift+left", "H"), key.WithHelp("⇧←", "-10")),
	FarRight: key.NewBinding(key.WithKeys("shift+right", "L"), key.WithHelp("⇧→", "+10")),
	Presets:  key.NewBinding(key.WithKeys("1", "2", "3", "4", "5"), key.WithHelp("1-5", "preset")),
	Random:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "random")),
	Week:     key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "7 days")),
	Month:    key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "30 days")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Crypto, k.Stock, k.Refresh, k.Manual, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Crypto, k.Stock, k.Refresh, k.Manual},
		{k.Left, k.Right, k.FarLeft, k.FarRight},
		{k.Presets, k.Random, k.Week, k.Month},
		{k.Help, k.Quit},
	}
}
