package render

import (
	"errors"
	"math"

	"github.com/muesli/termenv"

	"github.com/olivier-w/neonpulse/internal/analysis"
)

var (
	// ErrDisposed is returned by Draw after Dispose.
	ErrDisposed = errors.New("render: surface disposed")
	// ErrEmptyViewport is returned by Draw for a zero-sized viewport. The
	// previous frame is kept.
	ErrEmptyViewport = errors.New("render: empty viewport")
)

// Params are the inputs of one frame. Width and Height are in terminal
// cells; each cell holds two vertically stacked pixels.
type Params struct {
	Time   float64 // seconds since the loop started
	Bands  analysis.BandEnergies
	Width  int
	Height int
}

// Surface is a software drawing surface: an RGB framebuffer, a full-frame
// quad, the shading program and the camera framing, encoded to terminal text
// after every draw. It is owned by the render loop and not safe for
// concurrent use.
type Surface struct {
	width, height int // cells
	fb            []byte
	quad          *Quad
	program       *Program
	camera        Camera
	enc           *encoder
	frame         string
	resizes       int
	disposed      bool
}

// NewSurface returns a surface that encodes for profile.
func NewSurface(profile termenv.Profile) *Surface {
	return &Surface{
		quad:    NewQuad(),
		program: NewProgram(),
		camera:  NewCamera(),
		enc:     newEncoder(profile),
	}
}

// Draw shades one frame. A changed viewport is applied first: the
// framebuffer, the resolution uniform and the camera are updated together.
func (s *Surface) Draw(p Params) error {
	if s.disposed {
		return ErrDisposed
	}
	if p.Width <= 0 || p.Height <= 0 {
		return ErrEmptyViewport
	}
	if p.Width != s.width || p.Height != s.height {
		s.applyViewport(p.Width, p.Height)
	}

	u := &s.program.Uniforms
	u.Time = p.Time
	u.Low = unit(p.Bands.Low)
	u.Mid = unit(p.Bands.Mid)
	u.High = unit(p.Bands.High)
	s.program.prepare()

	w := s.width
	fb := s.fb
	s.quad.Rasterize(w, s.height*2, func(x, y int, uv [2]float64) {
		r, g, b := s.program.Shade(uv).RGB255()
		off := (y*w + x) * 3
		fb[off] = r
		fb[off+1] = g
		fb[off+2] = b
	})

	s.frame = s.enc.encode(s.fb, s.width, s.height)
	return nil
}

func (s *Surface) applyViewport(w, h int) {
	s.width, s.height = w, h
	s.fb = make([]byte, w*h*2*3)
	px, py := float64(w), float64(h*2)
	s.program.Uniforms.Resolution = [2]float64{px, py}
	s.camera.SetAspect(px / py)
	s.resizes++
}

// unit maps NaN to 0 and clamps to [0,1].
func unit(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return max(0, min(v, 1))
}

// View returns the last drawn frame, or "" before the first draw and after
// Dispose.
func (s *Surface) View() string { return s.frame }

// Size returns the applied viewport in cells.
func (s *Surface) Size() (int, int) { return s.width, s.height }

// Camera returns the current framing.
func (s *Surface) Camera() Camera { return s.camera }

// Uniforms returns the values used by the last draw.
func (s *Surface) Uniforms() Uniforms {
	if s.program == nil {
		return Uniforms{}
	}
	return s.program.Uniforms
}

// Disposed reports whether Dispose has run.
func (s *Surface) Disposed() bool { return s.disposed }

// Dispose releases the framebuffer, geometry, program and encoder. Later
// calls do nothing.
func (s *Surface) Dispose() {
	if s.disposed {
		return
	}
	s.disposed = true
	s.fb = nil
	s.quad = nil
	s.program = nil
	if s.enc != nil {
		s.enc.release()
		s.enc = nil
	}
	s.frame = ""
	s.width, s.height = 0, 0
}
