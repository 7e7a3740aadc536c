package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/olivier-w/neonpulse/internal/player"
)

type startMsg struct{}
type eventMsg player.Event
type eventsClosedMsg struct{}

func waitEvent(ch <-chan player.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg(ev)
	}
}
