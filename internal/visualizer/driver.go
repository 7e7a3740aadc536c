package visualizer

import (
	"fmt"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/olivier-w/neonpulse/internal/analysis"
	"github.com/olivier-w/neonpulse/internal/log"
	"github.com/olivier-w/neonpulse/internal/render"
)

const (
	DefaultFPS = 30
	MaxFPS     = 120

	// maxStep caps how far elapsed time advances in one frame, so a stalled
	// terminal does not make the animation jump.
	maxStep = 250 * time.Millisecond
)

var lastID int64

func nextID() int {
	return int(atomic.AddInt64(&lastID, 1))
}

// FrameSource supplies frequency frames. *analysis.Analyzer satisfies it.
type FrameSource interface {
	CaptureFrame(dst analysis.FrequencyFrame) analysis.FrequencyFrame
}

// Canvas receives one draw per frame. *render.Surface satisfies it.
type Canvas interface {
	Draw(p render.Params) error
	View() string
}

// BandSink receives the bands of every drawn frame.
type BandSink interface {
	Publish(t float64, bands analysis.BandEnergies)
}

// FrameMsg schedules one animation frame.
type FrameMsg struct {
	id   int
	tag  int
	Time time.Time
}

// Option configures a Driver.
type Option func(*Driver)

// WithFPS sets the frame rate, clamped to [1, MaxFPS].
func WithFPS(fps int) Option {
	return func(d *Driver) {
		d.fps = max(1, min(MaxFPS, fps))
	}
}

// WithSmoothing enables spring smoothing of the band values.
func WithSmoothing(on bool) Option {
	return func(d *Driver) {
		d.smooth = on
	}
}

// WithBandSink forwards every frame's bands to sink.
func WithBandSink(sink BandSink) Option {
	return func(d *Driver) {
		d.sink = sink
	}
}

// Driver runs the per-frame capture, aggregate and draw loop on the
// bubbletea tick. It is not safe for concurrent use; all calls come from
// the program's Update goroutine.
type Driver struct {
	id     int
	tag    int
	fps    int
	smooth bool

	canvas Canvas
	src    FrameSource
	sink   BandSink

	frame   analysis.FrequencyFrame
	spring  bandSpring
	bands   analysis.BandEnergies
	elapsed time.Duration
	last    time.Time

	width, height int
	running       bool
	frames        int
	failures      int
}

// NewDriver returns a stopped driver drawing onto canvas.
func NewDriver(canvas Canvas, opts ...Option) *Driver {
	d := &Driver{
		id:     nextID(),
		fps:    DefaultFPS,
		canvas: canvas,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.spring = newBandSpring(d.fps)
	return d
}

// ID returns the driver's unique id.
func (d *Driver) ID() int { return d.id }

// Attach sets the frame source and starts the loop if it is not running.
// Attaching a nil source is a no-op.
func (d *Driver) Attach(src FrameSource) tea.Cmd {
	if src == nil {
		return nil
	}
	d.src = src
	if d.running {
		return nil
	}
	d.running = true
	d.tag++
	d.last = time.Time{}
	d.spring.reset()
	log.Debugf("visualizer: loop started at %d fps", d.fps)
	return d.tick()
}

// Stop cancels the loop. Ticks already in flight are ignored.
func (d *Driver) Stop() {
	if !d.running {
		return
	}
	d.running = false
	d.tag++
	log.Debugf("visualizer: loop stopped after %d frames, %d failed", d.frames, d.failures)
}

// Resize records the viewport in terminal cells. It takes effect on the
// next frame.
func (d *Driver) Resize(width, height int) {
	d.width = max(0, width)
	d.height = max(0, height)
}

// Update handles FrameMsg and returns the next tick.
func (d *Driver) Update(msg tea.Msg) tea.Cmd {
	fm, ok := msg.(FrameMsg)
	if !ok {
		return nil
	}
	if fm.id != d.id || fm.tag != d.tag || !d.running {
		return nil
	}
	d.step(fm.Time)
	return d.tick()
}

// View returns the last drawn frame.
func (d *Driver) View() string {
	if d.canvas == nil {
		return ""
	}
	return d.canvas.View()
}

func (d *Driver) Running() bool                { return d.running }
func (d *Driver) Bands() analysis.BandEnergies { return d.bands }
func (d *Driver) Elapsed() time.Duration       { return d.elapsed }
func (d *Driver) Frames() int                  { return d.frames }
func (d *Driver) Failures() int                { return d.failures }

func (d *Driver) tick() tea.Cmd {
	id, tag := d.id, d.tag
	return tea.Tick(time.Second/time.Duration(d.fps), func(t time.Time) tea.Msg {
		return FrameMsg{id: id, tag: tag, Time: t}
	})
}

// step advances one frame. A failing frame is counted and skipped.
func (d *Driver) step(now time.Time) {
	if !d.last.IsZero() && now.After(d.last) {
		d.elapsed += min(now.Sub(d.last), maxStep)
	}
	d.last = now

	if err := d.render(); err != nil {
		d.failures++
		log.Debugf("visualizer: frame skipped: %v", err)
		return
	}
	d.frames++
}

func (d *Driver) render() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	d.frame = d.src.CaptureFrame(d.frame)
	bands := analysis.Aggregate(d.frame)
	if d.smooth {
		bands = d.spring.step(bands)
	}
	d.bands = bands

	t := d.elapsed.Seconds()
	if d.canvas != nil {
		if err := d.canvas.Draw(render.Params{
			Time:   t,
			Bands:  bands,
			Width:  d.width,
			Height: d.height,
		}); err != nil {
			return err
		}
	}
	if d.sink != nil {
		d.sink.Publish(t, bands)
	}
	return nil
}
