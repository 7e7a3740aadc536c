package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

const (
	DefaultBinCount    = 1024
	MinBinCount        = 32
	MaxBinCount        = 16384
	DefaultSmoothing   = 0.8
	DefaultMinDecibels = -100.0
	DefaultMaxDecibels = -30.0
)

// Config controls how an Analyzer turns samples into byte magnitudes.
type Config struct {
	// BinCount is the number of frequency bins per frame. The FFT window
	// is twice this size.
	BinCount int
	// Smoothing blends each capture with the previous one, 0 disables it.
	Smoothing   float64
	MinDecibels float64
	MaxDecibels float64
}

// DefaultConfig returns the browser analyser defaults.
func DefaultConfig() Config {
	return Config{
		BinCount:    DefaultBinCount,
		Smoothing:   DefaultSmoothing,
		MinDecibels: DefaultMinDecibels,
		MaxDecibels: DefaultMaxDecibels,
	}
}

// FFTSize returns the sample window length for c.
func (c Config) FFTSize() int {
	return 2 * c.BinCount
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.BinCount < MinBinCount || c.BinCount > MaxBinCount || c.BinCount&(c.BinCount-1) != 0 {
		return fmt.Errorf("bin count must be a power of two in [%d, %d], got %d", MinBinCount, MaxBinCount, c.BinCount)
	}
	if math.IsNaN(c.Smoothing) || c.Smoothing < 0 || c.Smoothing >= 1 {
		return fmt.Errorf("smoothing must be in [0, 1), got %v", c.Smoothing)
	}
	if math.IsNaN(c.MinDecibels) || math.IsNaN(c.MaxDecibels) || c.MinDecibels >= c.MaxDecibels {
		return fmt.Errorf("min decibels (%v) must be below max decibels (%v)", c.MinDecibels, c.MaxDecibels)
	}
	return nil
}

// Sampler supplies the most recent mono samples. *Tap implements it.
type Sampler interface {
	Snapshot(dst []float64) int
}

// Analyzer produces byte frequency frames from a Sampler with the same
// contract as a browser AnalyserNode: Blackman window, magnitude scaled by
// the window length, smoothing across captures, then a linear mapping of
// [MinDecibels, MaxDecibels] onto [0, 255].
//
// An Analyzer is not safe for concurrent use; it belongs to the render loop.
type Analyzer struct {
	cfg      Config
	src      Sampler
	fft      *fourier.FFT
	window   []float64
	input    []float64
	coeffs   []complex128
	smoothed []float64
}

// NewAnalyzer validates cfg and preallocates every buffer a capture needs.
func NewAnalyzer(src Sampler, cfg Config) (*Analyzer, error) {
	if src == nil {
		return nil, fmt.Errorf("analyzer: nil sampler")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("analyzer: %w", err)
	}

	size := cfg.FFTSize()
	coeffs := make([]float64, size)
	for i := range coeffs {
		coeffs[i] = 1
	}
	window.Blackman(coeffs)

	return &Analyzer{
		cfg:      cfg,
		src:      src,
		fft:      fourier.NewFFT(size),
		window:   coeffs,
		input:    make([]float64, size),
		coeffs:   make([]complex128, size/2+1),
		smoothed: make([]float64, cfg.BinCount),
	}, nil
}

// BinCount returns the number of bins in every captured frame.
func (a *Analyzer) BinCount() int { return a.cfg.BinCount }

// Config returns the analyzer configuration.
func (a *Analyzer) Config() Config { return a.cfg }

// CaptureFrame fills dst with the current byte magnitudes and returns it,
// growing dst only when its capacity is smaller than the bin count.
func (a *Analyzer) CaptureFrame(dst FrequencyFrame) FrequencyFrame {
	n := a.cfg.BinCount
	if cap(dst) < n {
		dst = make(FrequencyFrame, n)
	}
	dst = dst[:n]

	a.src.Snapshot(a.input)
	for i := range a.input {
		a.input[i] *= a.window[i]
	}
	a.fft.Coefficients(a.coeffs, a.input)

	scale := 1 / float64(len(a.input))
	tau := a.cfg.Smoothing
	for k := range n {
		mag := cmplx.Abs(a.coeffs[k]) * scale
		s := tau*a.smoothed[k] + (1-tau)*mag
		if math.IsNaN(s) || math.IsInf(s, 0) {
			s = 0
		}
		a.smoothed[k] = s
		dst[k] = byteMagnitude(s, a.cfg.MinDecibels, a.cfg.MaxDecibels)
	}
	return dst
}

// Reset clears the smoothing history.
func (a *Analyzer) Reset() {
	for i := range a.smoothed {
		a.smoothed[i] = 0
	}
}

func byteMagnitude(mag, minDB, maxDB float64) uint8 {
	if mag <= 0 {
		return 0
	}
	db := 20 * math.Log10(mag)
	v := math.Floor(MaxMagnitude * (db - minDB) / (maxDB - minDB))
	switch {
	case v < 0:
		return 0
	case v > MaxMagnitude:
		return MaxMagnitude
	}
	return uint8(v)
}
