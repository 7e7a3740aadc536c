package visualizer

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/olivier-w/neonpulse/internal/analysis"
	"github.com/olivier-w/neonpulse/internal/render"
)

type stubSource struct {
	value    uint8
	bins     int
	captures int
	panics   bool
}

func (s *stubSource) CaptureFrame(dst analysis.FrequencyFrame) analysis.FrequencyFrame {
	s.captures++
	if s.panics {
		panic("capture failed")
	}
	if cap(dst) < s.bins {
		dst = make(analysis.FrequencyFrame, s.bins)
	}
	dst = dst[:s.bins]
	for i := range dst {
		dst[i] = s.value
	}
	return dst
}

type stubCanvas struct {
	draws []render.Params
	err   error
}

func (c *stubCanvas) Draw(p render.Params) error {
	if c.err != nil {
		return c.err
	}
	c.draws = append(c.draws, p)
	return nil
}

func (c *stubCanvas) View() string {
	if len(c.draws) == 0 {
		return ""
	}
	return "frame"
}

type stubSink struct {
	times []float64
	bands []analysis.BandEnergies
}

func (s *stubSink) Publish(t float64, b analysis.BandEnergies) {
	s.times = append(s.times, t)
	s.bands = append(s.bands, b)
}

func frameAt(d *Driver, t time.Time) FrameMsg {
	return FrameMsg{id: d.id, tag: d.tag, Time: t}
}

func TestAttachStartsLoopOnce(t *testing.T) {
	d := NewDriver(&stubCanvas{})
	if d.Attach(nil) != nil {
		t.Fatal("attaching nil should not start the loop")
	}
	if d.Running() {
		t.Fatal("driver running without a source")
	}

	src := &stubSource{bins: 64}
	if d.Attach(src) == nil {
		t.Fatal("first Attach should return a tick")
	}
	tag := d.tag
	if d.Attach(src) != nil {
		t.Fatal("second Attach should not start another loop")
	}
	if d.tag != tag {
		t.Fatal("second Attach changed the tag")
	}
}

func TestFrameDrawsBandsAndReschedules(t *testing.T) {
	canvas := &stubCanvas{}
	sink := &stubSink{}
	d := NewDriver(canvas, WithBandSink(sink))
	d.Resize(80, 24)
	d.Attach(&stubSource{bins: 128, value: 255})

	start := time.Unix(100, 0)
	if d.Update(frameAt(d, start)) == nil {
		t.Fatal("frame should reschedule")
	}
	if d.Update(frameAt(d, start.Add(100*time.Millisecond))) == nil {
		t.Fatal("frame should reschedule")
	}

	if len(canvas.draws) != 2 {
		t.Fatalf("draws = %d, want 2", len(canvas.draws))
	}
	p := canvas.draws[1]
	if p.Width != 80 || p.Height != 24 {
		t.Fatalf("viewport = %dx%d, want 80x24", p.Width, p.Height)
	}
	if p.Bands != (analysis.BandEnergies{Low: 1, Mid: 1, High: 1}) {
		t.Fatalf("bands = %+v, want all ones", p.Bands)
	}
	if canvas.draws[0].Time != 0 || p.Time != 0.1 {
		t.Fatalf("times = %v, %v; want 0, 0.1", canvas.draws[0].Time, p.Time)
	}
	if len(sink.times) != 2 || sink.bands[1] != p.Bands {
		t.Fatalf("sink got %d frames", len(sink.times))
	}
	if d.View() != "frame" {
		t.Fatalf("View = %q", d.View())
	}
}

func TestElapsedStepIsCapped(t *testing.T) {
	d := NewDriver(&stubCanvas{})
	d.Attach(&stubSource{bins: 32})

	start := time.Unix(0, 0)
	d.Update(frameAt(d, start))
	d.Update(frameAt(d, start.Add(10*time.Second)))
	if d.Elapsed() != maxStep {
		t.Fatalf("elapsed = %v, want %v", d.Elapsed(), maxStep)
	}
}

func TestStaleTicksAreDropped(t *testing.T) {
	canvas := &stubCanvas{}
	d := NewDriver(canvas)
	d.Attach(&stubSource{bins: 32})

	stale := FrameMsg{id: d.id, tag: d.tag - 1, Time: time.Now()}
	if d.Update(stale) != nil {
		t.Fatal("stale tick rescheduled")
	}
	other := FrameMsg{id: d.id + 1000, tag: d.tag, Time: time.Now()}
	if d.Update(other) != nil {
		t.Fatal("tick for another driver rescheduled")
	}
	if d.Update(tea.KeyMsg{}) != nil {
		t.Fatal("unrelated message rescheduled")
	}
	if len(canvas.draws) != 0 {
		t.Fatalf("draws = %d, want 0", len(canvas.draws))
	}
}

func TestStopCancelsLoop(t *testing.T) {
	canvas := &stubCanvas{}
	src := &stubSource{bins: 32}
	d := NewDriver(canvas)
	d.Attach(src)

	inFlight := frameAt(d, time.Now())
	d.Stop()
	d.Stop()

	if d.Running() {
		t.Fatal("driver still running after Stop")
	}
	if d.Update(inFlight) != nil {
		t.Fatal("tick after Stop rescheduled")
	}
	if src.captures != 0 || len(canvas.draws) != 0 {
		t.Fatal("frame processed after Stop")
	}

	if d.Attach(src) == nil {
		t.Fatal("Attach after Stop should restart the loop")
	}
	if d.Update(inFlight) != nil {
		t.Fatal("tick from the previous run accepted")
	}
}

func TestFailingFrameDoesNotStopLoop(t *testing.T) {
	canvas := &stubCanvas{err: errors.New("boom")}
	src := &stubSource{bins: 32}
	d := NewDriver(canvas)
	d.Attach(src)

	if d.Update(frameAt(d, time.Now())) == nil {
		t.Fatal("loop stopped after a draw error")
	}
	src.panics = true
	if d.Update(frameAt(d, time.Now())) == nil {
		t.Fatal("loop stopped after a capture panic")
	}
	if d.Failures() != 2 || d.Frames() != 0 {
		t.Fatalf("failures = %d, frames = %d", d.Failures(), d.Frames())
	}

	src.panics = false
	canvas.err = nil
	d.Update(frameAt(d, time.Now()))
	if d.Frames() != 1 {
		t.Fatalf("frames = %d, want 1 after recovery", d.Frames())
	}
}

func TestSmoothingEasesTowardTarget(t *testing.T) {
	d := NewDriver(&stubCanvas{}, WithSmoothing(true), WithFPS(60))
	d.Attach(&stubSource{bins: 64, value: 255})

	now := time.Unix(0, 0)
	d.Update(frameAt(d, now))
	first := d.Bands().Low
	if first <= 0 || first >= 1 {
		t.Fatalf("first smoothed value = %v, want strictly between 0 and 1", first)
	}
	for i := range 120 {
		d.Update(frameAt(d, now.Add(time.Duration(i+1)*time.Second/60)))
	}
	if got := d.Bands().Low; got < 0.99 || got > 1 {
		t.Fatalf("settled value = %v, want ~1", got)
	}
}

func TestResizeClampsNegative(t *testing.T) {
	canvas := &stubCanvas{}
	d := NewDriver(canvas)
	d.Resize(-3, -1)
	d.Attach(&stubSource{bins: 32})
	d.Update(frameAt(d, time.Now()))
	if p := canvas.draws[0]; p.Width != 0 || p.Height != 0 {
		t.Fatalf("viewport = %dx%d, want 0x0", p.Width, p.Height)
	}
}

func TestWithFPSClamps(t *testing.T) {
	if d := NewDriver(nil, WithFPS(0)); d.fps != 1 {
		t.Fatalf("fps = %d, want 1", d.fps)
	}
	if d := NewDriver(nil, WithFPS(1000)); d.fps != MaxFPS {
		t.Fatalf("fps = %d, want %d", d.fps, MaxFPS)
	}
}
