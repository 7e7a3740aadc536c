package player

import (
	"io"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// Sink pulls PCM from a reader and plays it. *oto.Player implements it.
type Sink interface {
	Play()
	Pause()
	IsPlaying() bool
	SetVolume(volume float64)
	Err() error
}

// Device is an audio output shared by the sinks it creates.
type Device interface {
	NewSink(r io.Reader) Sink
	Suspend() error
	Resume() error
	Close() error
}

// DeviceOpener opens the output device for a new processing graph.
type DeviceOpener func() (Device, error)

var (
	globalOtoCtx *oto.Context
	otoOnce      sync.Once
	otoInitErr   error
)

// oto allows one context per process.
func initOto() (*oto.Context, error) {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   SampleRate,
			ChannelCount: ChannelCount,
			Format:       oto.FormatSignedInt16LE,
		}
		var ready chan struct{}
		globalOtoCtx, ready, otoInitErr = oto.NewContext(op)
		if otoInitErr == nil {
			<-ready
		}
	})
	return globalOtoCtx, otoInitErr
}

type otoDevice struct {
	ctx *oto.Context

	mu     sync.Mutex
	sinks  []*oto.Player
	closed bool
}

// OpenOtoDevice returns a Device backed by the process-wide oto context.
func OpenOtoDevice() (Device, error) {
	ctx, err := initOto()
	if err != nil {
		return nil, err
	}
	if err := ctx.Resume(); err != nil {
		return nil, err
	}
	return &otoDevice{ctx: ctx}, nil
}

func (d *otoDevice) NewSink(r io.Reader) Sink {
	p := d.ctx.NewPlayer(r)

	d.mu.Lock()
	d.sinks = append(d.sinks[:0], p)
	d.mu.Unlock()
	return p
}

func (d *otoDevice) Suspend() error { return d.ctx.Suspend() }
func (d *otoDevice) Resume() error  { return d.ctx.Resume() }

// Close pauses the last sink. The oto context itself lives for the process.
func (d *otoDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	for _, p := range d.sinks {
		p.Pause()
	}
	d.sinks = nil
	return nil
}
