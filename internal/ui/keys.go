package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	PlayPause key.Binding
	Back      key.Binding
	Forward   key.Binding
	VolUp     key.Binding
	VolDown   key.Binding
	Mute      key.Binding
	Slower    key.Binding
	Faster    key.Binding
	Repeat    key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		PlayPause: key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		Back:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "-10s")),
		Forward:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "+10s")),
		VolUp:     key.NewBinding(key.WithKeys("up", "k", "+", "="), key.WithHelp("↑", "volume up")),
		VolDown:   key.NewBinding(key.WithKeys("down", "j", "-"), key.WithHelp("↓", "volume down")),
		Mute:      key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mute")),
		Slower:    key.NewBinding(key.WithKeys("<", ","), key.WithHelp("<", "slower")),
		Faster:    key.NewBinding(key.WithKeys(">", "."), key.WithHelp(">", "faster")),
		Repeat:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "repeat")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:      key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PlayPause, k.Back, k.Forward, k.Mute, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.PlayPause, k.Back, k.Forward},
		{k.VolUp, k.VolDown, k.Mute},
		{k.Slower, k.Faster, k.Repeat},
		{k.Help, k.Quit},
	}
}
