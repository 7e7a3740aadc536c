package ui

import (
	"fmt"
	"strings"

	"github.com/olivier-w/neonpulse/internal/player"
)

func renderProgressBar(elapsed, total float64, width int) string {
	width = max(1, width)

	var ratio float64
	if total > 0 {
		ratio = elapsed / total
	}
	ratio = max(0, min(1, ratio))

	filled := int(ratio * float64(width))
	return strings.Repeat("━", filled) + strings.Repeat("─", width-filled)
}

// barRatio maps a column inside a bar of the given width to a position in
// [0, 1]. ok is false when x is outside the bar.
func barRatio(x, start, width int) (float64, bool) {
	if width <= 0 || x < start || x >= start+width {
		return 0, false
	}
	if width == 1 {
		return 0, true
	}
	return float64(x-start) / float64(width-1), true
}

func renderVolume(s player.PlaybackState) string {
	if s.Muted {
		return "muted"
	}
	return fmt.Sprintf("vol %d%%", int(s.Volume*100+0.5))
}
