package player

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by commands issued after Teardown.
var ErrClosed = errors.New("player: controller closed")

// ErrUnknownLength is returned when seeking into a source whose length the
// decoder does not report. Rewinding to the start is still allowed.
var ErrUnknownLength = errors.New("player: stream length unknown")

// PlaybackError reports a media source that could not be opened, decoded or
// started. It is never fatal; playback state reverts to Idle or Paused.
type PlaybackError struct {
	Op     string
	Source string
	Err    error
}

func (e *PlaybackError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("playback %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("playback %s %s: %v", e.Op, e.Source, e.Err)
}

func (e *PlaybackError) Unwrap() error { return e.Err }

// GraphCreationError reports that the processing graph could not be built,
// usually because no output device is available. Transport commands keep
// working without a graph.
type GraphCreationError struct {
	Err error
}

func (e *GraphCreationError) Error() string {
	return fmt.Sprintf("creating processing graph: %v", e.Err)
}

func (e *GraphCreationError) Unwrap() error { return e.Err }
