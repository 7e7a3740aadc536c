package player

import "time"

// Status is the transport state of a Controller.
type Status int

const (
	Idle Status = iota
	Playing
	Paused
	Closed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// PlaybackState is a snapshot of the transport. Only the Controller
// mutates it; everyone else receives copies.
type PlaybackState struct {
	Status      Status
	CurrentTime time.Duration
	Duration    time.Duration
	Volume      float64
	Muted       bool
	Rate        float64
}

// IsPlaying reports whether the transport is advancing.
func (s PlaybackState) IsPlaying() bool { return s.Status == Playing }

// EffectiveVolume is the gain applied to the output.
func (s PlaybackState) EffectiveVolume() float64 {
	if s.Muted {
		return 0
	}
	return s.Volume
}

// EventKind identifies a controller notification.
type EventKind int

const (
	EventMetadata EventKind = iota
	EventTimeUpdate
	EventState
	EventEnded
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventMetadata:
		return "metadata"
	case EventTimeUpdate:
		return "timeupdate"
	case EventState:
		return "state"
	case EventEnded:
		return "ended"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is pushed on the controller's event channel. State is the snapshot
// taken when the event was emitted. Metadata is set for EventMetadata and
// Err for EventError.
type Event struct {
	Kind     EventKind
	State    PlaybackState
	Metadata Metadata
	Err      error
}
