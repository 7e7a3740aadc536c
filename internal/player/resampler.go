package player

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/resample"
)

// converter brings stereo source frames to SampleRate with one polyphase
// FIR per channel. The filter delay is dropped from the head of the output
// after every reset and the tail is pushed out by flush.
type converter struct {
	ch       [2]*resample.Resampler
	in       [2][]float64
	up, down int
	delay    int
	lead     int
	tail     []float64
}

func newConverter(srcRate int) (*converter, error) {
	c := &converter{}
	for i := range c.ch {
		r, err := resample.NewForRates(float64(srcRate), SampleRate, resample.WithQuality(resample.QualityBalanced))
		if err != nil {
			return nil, err
		}
		c.ch[i] = r
	}
	c.up, c.down = c.ch[0].Ratio()
	taps := len(c.ch[0].Prototype())
	c.delay = int(math.Round(float64(taps-1) / float64(2*c.down)))
	c.tail = make([]float64, c.ch[0].TapsPerPhase())
	c.reset()
	return c, nil
}

func (c *converter) reset() {
	for _, r := range c.ch {
		r.Reset()
	}
	c.lead = c.delay
}

// process converts interleaved stereo frames and appends them to dst.
func (c *converter) process(dst, frames []int16) []int16 {
	n := len(frames) / 2
	if n == 0 {
		return dst
	}
	for i := range c.in {
		if cap(c.in[i]) < n {
			c.in[i] = make([]float64, n)
		}
		c.in[i] = c.in[i][:n]
	}
	for f := range n {
		c.in[0][f] = float64(frames[f*2])
		c.in[1][f] = float64(frames[f*2+1])
	}
	return c.emit(dst, c.ch[0].Process(c.in[0]), c.ch[1].Process(c.in[1]))
}

// flush appends the frames still held in the filters once the source ends.
func (c *converter) flush(dst []int16) []int16 {
	return c.emit(dst, c.ch[0].Process(c.tail), c.ch[1].Process(c.tail))
}

func (c *converter) emit(dst []int16, l, r []float64) []int16 {
	n := min(len(l), len(r))
	skip := min(c.lead, n)
	c.lead -= skip
	for i := skip; i < n; i++ {
		dst = append(dst, clip16(l[i]), clip16(r[i]))
	}
	return dst
}

// outputFrames maps a source frame index to the output frame index.
func (c *converter) outputFrames(src int64) int64 {
	return int64(math.Round(float64(src) * float64(c.up) / float64(c.down)))
}

func clip16(v float64) int16 {
	return int16(max(math.MinInt16, min(math.MaxInt16, math.Round(v))))
}
