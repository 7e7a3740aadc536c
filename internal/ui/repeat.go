package ui

import "github.com/olivier-w/neonpulse/internal/player"

// RepeatMode decides what the model does when the controller reports
// player.EventEnded. There is only ever one source loaded, so repeating
// means replaying it from the start; the controller rewinds on Play once
// the source has ended.
type RepeatMode int

const (
	RepeatOff RepeatMode = iota
	RepeatOne
)

// Next toggles repeat.
func (r RepeatMode) Next() RepeatMode {
	if r == RepeatOne {
		return RepeatOff
	}
	return RepeatOne
}

// Replays reports whether an event of kind k should start the source again.
func (r RepeatMode) Replays(k player.EventKind) bool {
	return r == RepeatOne && k == player.EventEnded
}

func (r RepeatMode) String() string {
	if r == RepeatOne {
		return "one"
	}
	return "off"
}

// Icon is the status line marker, empty when repeat is off.
func (r RepeatMode) Icon() string {
	if r == RepeatOne {
		return "[repeat]"
	}
	return ""
}
