package player

import (
	"fmt"

	"github.com/olivier-w/neonpulse/internal/analysis"
)

// GraphState is the lifecycle of the processing graph.
type GraphState int

const (
	GraphUncreated GraphState = iota
	GraphActive
	GraphSuspended
	GraphClosed
)

func (s GraphState) String() string {
	switch s {
	case GraphUncreated:
		return "uncreated"
	case GraphActive:
		return "active"
	case GraphSuspended:
		return "suspended"
	case GraphClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// graph routes source → tap → sink on one output device. It owns the tap
// and the analyzer reading it; once closed it is never reused.
type graph struct {
	device   Device
	src      Source
	tap      *analysis.Tap
	analyzer *analysis.Analyzer
	sink     Sink
	gain     float64
	state    GraphState
}

func newGraph(device Device, src Source, cfg analysis.Config, gain float64) (*graph, error) {
	tap := analysis.NewTap(src, cfg.FFTSize())
	an, err := analysis.NewAnalyzer(tap, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating analyzer: %w", err)
	}

	g := &graph{
		device:   device,
		src:      src,
		tap:      tap,
		analyzer: an,
		gain:     gain,
		state:    GraphActive,
	}
	g.sink = device.NewSink(tap)
	g.sink.SetVolume(gain)
	return g, nil
}

func (g *graph) start() {
	if g.state == GraphActive {
		g.sink.Play()
	}
}

// suspend stops the sink from pulling and suspends the device. The tap is
// cleared so the analyzer decays toward silence while paused.
func (g *graph) suspend() error {
	if g.state != GraphActive {
		return nil
	}
	g.sink.Pause()
	g.tap.Reset()
	if err := g.device.Suspend(); err != nil {
		return err
	}
	g.state = GraphSuspended
	return nil
}

func (g *graph) resume() error {
	if g.state != GraphSuspended {
		return nil
	}
	if err := g.device.Resume(); err != nil {
		return err
	}
	g.state = GraphActive
	return nil
}

// flush discards audio queued in the sink by replacing it, and clears the
// tap so analysis restarts from the new position.
func (g *graph) flush(playing bool) {
	if g.state == GraphClosed {
		return
	}
	g.sink.Pause()
	g.tap.Reset()
	g.sink = g.device.NewSink(g.tap)
	g.sink.SetVolume(g.gain)
	if playing && g.state == GraphActive {
		g.sink.Play()
	}
}

func (g *graph) setGain(v float64) {
	g.gain = v
	if g.state != GraphClosed {
		g.sink.SetVolume(v)
	}
}

// close is idempotent.
func (g *graph) close() error {
	if g.state == GraphClosed {
		return nil
	}
	g.state = GraphClosed
	g.sink.Pause()
	g.tap.Release()
	return g.device.Close()
}
