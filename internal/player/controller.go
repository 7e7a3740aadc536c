package player

import (
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/olivier-w/neonpulse/internal/analysis"
)

const (
	defaultVolume       = 0.8
	defaultPollInterval = 250 * time.Millisecond
	eventBuffer         = 16
)

// Source is a decoded media stream the controller can play and seek.
// *Stream implements it.
type Source interface {
	io.Reader
	Position() time.Duration
	Duration() time.Duration
	SeekTo(t time.Duration) error
	SetRate(rate float64)
	Ended() bool
	Err() error
	Close() error
}

// SourceOpener opens the media source at path.
type SourceOpener func(path string) (Source, error)

// OpenSource opens path as a Stream.
func OpenSource(path string) (Source, error) {
	s, err := OpenStream(path)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Options configures a Controller. Start from DefaultOptions.
type Options struct {
	OpenDevice DeviceOpener
	OpenSource SourceOpener
	Analysis   analysis.Config
	Volume     float64
	Muted      bool
	Rate       float64
	// PollInterval is how often the monitor checks position and end of
	// stream. Zero or less disables the monitor.
	PollInterval time.Duration
}

// DefaultOptions plays files through oto.
func DefaultOptions() Options {
	return Options{
		OpenDevice:   OpenOtoDevice,
		OpenSource:   OpenSource,
		Analysis:     analysis.DefaultConfig(),
		Volume:       defaultVolume,
		Rate:         1,
		PollInterval: defaultPollInterval,
	}
}

// Controller owns the processing graph for one media source and the
// transport state machine around it:
//
//	Idle --play--> Playing --pause--> Paused --play--> Playing
//	any --teardown--> Closed
//
// The graph is built on the first successful Play and reused until
// Teardown. State changes are pushed on Events.
type Controller struct {
	path string
	opts Options

	mu      sync.Mutex
	src     Source
	graph   *graph
	meta    Metadata
	state   PlaybackState
	events  chan Event
	stopMon chan struct{}
	closed  bool
}

// New returns an idle controller for path. Nothing is opened until Load or
// Play.
func New(path string, opts Options) (*Controller, error) {
	if err := opts.Analysis.Validate(); err != nil {
		return nil, fmt.Errorf("analysis: %w", err)
	}
	if !validVolume(opts.Volume) {
		return nil, fmt.Errorf("invalid volume %v", opts.Volume)
	}
	if !validRate(opts.Rate) {
		return nil, fmt.Errorf("invalid playback rate %v", opts.Rate)
	}
	if opts.OpenDevice == nil {
		opts.OpenDevice = OpenOtoDevice
	}
	if opts.OpenSource == nil {
		opts.OpenSource = OpenSource
	}

	return &Controller{
		path: path,
		opts: opts,
		state: PlaybackState{
			Status: Idle,
			Volume: opts.Volume,
			Muted:  opts.Muted,
			Rate:   opts.Rate,
		},
		events:  make(chan Event, eventBuffer),
		stopMon: make(chan struct{}),
	}, nil
}

// Events delivers notifications until Teardown closes the channel. Events
// are dropped when the buffer is full; State is always authoritative.
func (c *Controller) Events() <-chan Event { return c.events }

// Path returns the media source reference.
func (c *Controller) Path() string { return c.path }

// State returns a snapshot of the transport.
func (c *Controller) State() PlaybackState {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.syncTimeLocked()
	return c.state
}

// Metadata returns tags read when the source was loaded.
func (c *Controller) Metadata() Metadata {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.meta
}

// GraphState reports the processing graph lifecycle.
func (c *Controller) GraphState() GraphState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.graph == nil {
		if c.closed {
			return GraphClosed
		}
		return GraphUncreated
	}
	return c.graph.state
}

// Analyzer returns the graph's analyzer, or nil before the graph exists and
// after Teardown. The caller must not use it after Teardown.
func (c *Controller) Analyzer() *analysis.Analyzer {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.graph == nil || c.closed {
		return nil
	}
	return c.graph.analyzer
}

// Load opens the media source if it is not open yet.
func (c *Controller) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	return c.loadLocked()
}

func (c *Controller) loadLocked() error {
	if c.src != nil {
		return nil
	}
	src, err := c.opts.OpenSource(c.path)
	if err != nil {
		perr := &PlaybackError{Op: "open", Source: c.path, Err: err}
		c.emit(Event{Kind: EventError, Err: perr})
		return perr
	}
	src.SetRate(c.state.Rate)

	c.src = src
	c.state.Duration = src.Duration()
	c.state.CurrentTime = src.Position()
	c.meta = ReadMetadata(c.path)
	c.emit(Event{Kind: EventMetadata, Metadata: c.meta})
	return nil
}

// Play starts or resumes playback, building the processing graph on first
// use. Playing at the end of the source restarts it from the beginning.
func (c *Controller) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if err := c.loadLocked(); err != nil {
		return err
	}
	if c.state.Status == Playing {
		return nil
	}

	if c.graph == nil {
		if err := c.createGraphLocked(); err != nil {
			c.emit(Event{Kind: EventError, Err: err})
			return err
		}
	} else if err := c.graph.resume(); err != nil {
		perr := &PlaybackError{Op: "resume", Source: c.path, Err: err}
		c.emit(Event{Kind: EventError, Err: perr})
		return perr
	}

	if c.src.Ended() || (c.state.Duration > 0 && c.src.Position() >= c.state.Duration) {
		if err := c.src.SeekTo(0); err != nil {
			perr := &PlaybackError{Op: "rewind", Source: c.path, Err: err}
			c.emit(Event{Kind: EventError, Err: perr})
			return perr
		}
		c.graph.flush(false)
	}

	c.graph.start()
	c.state.Status = Playing
	c.syncTimeLocked()
	c.emit(Event{Kind: EventState})
	return nil
}

func (c *Controller) createGraphLocked() error {
	device, err := c.opts.OpenDevice()
	if err != nil {
		return &GraphCreationError{Err: err}
	}
	g, err := newGraph(device, c.src, c.opts.Analysis, c.state.EffectiveVolume())
	if err != nil {
		_ = device.Close()
		return &GraphCreationError{Err: err}
	}
	c.graph = g

	if c.opts.PollInterval > 0 {
		go c.monitor(c.opts.PollInterval)
	}
	return nil
}

// Pause stops the transport and suspends the graph without closing it.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.state.Status != Playing {
		return
	}
	c.pauseLocked()
	c.emit(Event{Kind: EventState})
}

func (c *Controller) pauseLocked() {
	c.syncTimeLocked()
	c.state.Status = Paused
	if c.graph != nil {
		if err := c.graph.suspend(); err != nil {
			c.emit(Event{Kind: EventError, Err: &PlaybackError{Op: "suspend", Source: c.path, Err: err}})
		}
	}
}

// PlayPause toggles between Playing and Paused.
func (c *Controller) PlayPause() error {
	if c.State().IsPlaying() {
		c.Pause()
		return nil
	}
	return c.Play()
}

// Seek moves to t clamped to [0, Duration]. Queued output is flushed so the
// new position is heard immediately. The transport status is unchanged.
// Sources of unknown length can only be rewound to the start.
func (c *Controller) Seek(t time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.seekLocked(t)
}

func (c *Controller) seekLocked(t time.Duration) {
	if err := c.loadLocked(); err != nil {
		return
	}
	t = max(0, t)
	if c.state.Duration > 0 {
		t = min(t, c.state.Duration)
	} else if t > 0 {
		c.emit(Event{Kind: EventError, Err: &PlaybackError{Op: "seek", Source: c.path, Err: ErrUnknownLength}})
		return
	}
	if err := c.src.SeekTo(t); err != nil {
		c.emit(Event{Kind: EventError, Err: &PlaybackError{Op: "seek", Source: c.path, Err: err}})
		return
	}
	if c.graph != nil {
		c.graph.flush(c.state.Status == Playing)
	}
	c.state.CurrentTime = t
	c.emit(Event{Kind: EventTimeUpdate})
}

// Skip seeks relative to the current position.
func (c *Controller) Skip(delta time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.syncTimeLocked()
	c.seekLocked(c.state.CurrentTime + delta)
}

// SetVolume sets the output volume. Values outside [0, 1] are rejected.
func (c *Controller) SetVolume(v float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || !validVolume(v) {
		return false
	}
	c.state.Volume = v
	c.applyGainLocked()
	c.emit(Event{Kind: EventState})
	return true
}

// SetMuted silences the output while keeping the stored volume.
func (c *Controller) SetMuted(muted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.state.Muted == muted {
		return
	}
	c.state.Muted = muted
	c.applyGainLocked()
	c.emit(Event{Kind: EventState})
}

func (c *Controller) applyGainLocked() {
	if c.graph != nil {
		c.graph.setGain(c.state.EffectiveVolume())
	}
}

// SetPlaybackRate changes the playback speed. Rates outside (0, MaxRate]
// are rejected.
func (c *Controller) SetPlaybackRate(r float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || !validRate(r) {
		return false
	}
	c.state.Rate = r
	if c.src != nil {
		c.src.SetRate(r)
	}
	c.emit(Event{Kind: EventState})
	return true
}

// Teardown stops playback, closes the graph and the source and closes the
// event channel. It is safe to call any number of times.
func (c *Controller) Teardown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.syncTimeLocked()
	close(c.stopMon)

	if c.graph != nil {
		_ = c.graph.close()
	}
	if c.src != nil {
		_ = c.src.Close()
	}
	c.state.Status = Closed
	c.emit(Event{Kind: EventState})
	c.closed = true
	close(c.events)
}

func (c *Controller) monitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stopMon:
			return
		case <-ticker.C:
			c.poll()
		}
	}
}

// poll publishes the position and detects errors and the end of the source.
func (c *Controller) poll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.state.Status != Playing {
		return
	}

	if err := c.src.Err(); err != nil {
		c.failLocked("decode", err)
		return
	}
	if err := c.graph.sink.Err(); err != nil {
		c.failLocked("output", err)
		return
	}

	if c.src.Ended() && !c.graph.sink.IsPlaying() {
		c.pauseLocked()
		if c.state.Duration > 0 {
			c.state.CurrentTime = c.state.Duration
		}
		c.emit(Event{Kind: EventState})
		c.emit(Event{Kind: EventEnded})
		return
	}

	c.syncTimeLocked()
	c.emit(Event{Kind: EventTimeUpdate})
}

func (c *Controller) failLocked(op string, err error) {
	c.pauseLocked()
	c.emit(Event{Kind: EventError, Err: &PlaybackError{Op: op, Source: c.path, Err: err}})
	c.emit(Event{Kind: EventState})
}

// syncTimeLocked copies the source position into the state. A zero
// Duration means the length is unknown and the position is left unclamped.
func (c *Controller) syncTimeLocked() {
	if c.src == nil || c.closed {
		return
	}
	c.state.CurrentTime = c.src.Position()
	if c.state.Duration > 0 {
		c.state.CurrentTime = min(c.state.CurrentTime, c.state.Duration)
	}
}

// emit never blocks; callers hold mu, so it cannot race with Teardown
// closing the channel.
func (c *Controller) emit(ev Event) {
	if c.closed {
		return
	}
	ev.State = c.state
	select {
	case c.events <- ev:
	default:
	}
}

func validVolume(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}
