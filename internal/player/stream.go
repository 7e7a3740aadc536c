package player

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"sync"
	"time"
)

const (
	// SampleRate is the output rate of every Stream.
	SampleRate = 48000
	// ChannelCount is the output channel count of every Stream.
	ChannelCount = 2
	// FrameSize is the size of one output frame: 16-bit stereo.
	FrameSize = ChannelCount * 2

	// MaxRate is the fastest accepted playback rate.
	MaxRate = 16.0

	readChunkFrames = 4096
	compactEvery    = 1024
)

// Stream decodes a media file into 48 kHz 16-bit stereo PCM in two stages.
// Sources at another rate are first converted to SampleRate by a polyphase
// resampler; the playback rate is then applied by a linear interpolator over
// the converted frames, so rate changes shift pitch. Mono sources are
// duplicated to both channels; sources with more than two channels keep the
// first two.
//
// Read is called from the audio output goroutine while the controller seeks
// and changes rate, so all state is guarded by mu.
type Stream struct {
	mu       sync.Mutex
	dec      pcmDecoder
	closer   io.Closer
	channels int
	srcRate  float64
	frames   int64      // source length, 0 when unknown
	conv     *converter // nil when the source is already at SampleRate
	step     float64
	pos      float64 // converted frame under the next output frame
	buf      []int16 // converted stereo frames starting at bufStart
	bufStart int64
	srcNext  int64 // next source frame to decode
	scratch  []int16
	stereo   []int16
	eof      bool
	ended    bool
	err      error
	closed   bool
}

// OpenStream opens path and prepares a decoder for it.
func OpenStream(path string) (*Stream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	dec, err := newDecoder(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	s, err := newStream(dec, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

func newStream(dec pcmDecoder, closer io.Closer) (*Stream, error) {
	if dec.SampleRate() <= 0 || dec.Channels() <= 0 {
		return nil, fmt.Errorf("invalid stream layout: %d Hz, %d channels", dec.SampleRate(), dec.Channels())
	}
	s := &Stream{
		dec:      dec,
		closer:   closer,
		channels: dec.Channels(),
		srcRate:  float64(dec.SampleRate()),
		frames:   max(0, dec.Frames()),
		step:     1,
		scratch:  make([]int16, readChunkFrames*dec.Channels()),
		stereo:   make([]int16, 0, readChunkFrames*2),
	}
	if dec.SampleRate() != SampleRate {
		conv, err := newConverter(dec.SampleRate())
		if err != nil {
			return nil, fmt.Errorf("resampling %d Hz: %w", dec.SampleRate(), err)
		}
		s.conv = conv
	}
	return s, nil
}

// Read fills p with whole output frames. It returns io.EOF once the source
// is exhausted and the decode error, if any, after that.
func (s *Stream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, io.EOF
	}
	if s.err != nil {
		return 0, s.err
	}

	out := len(p) / FrameSize
	n := 0
	for n < out {
		i := int64(s.pos)
		s.fill(i + 1)
		avail := s.bufEnd()
		if i >= avail {
			break
		}

		at := (i - s.bufStart) * 2
		l, r := s.buf[at], s.buf[at+1]
		if i+1 < avail {
			frac := s.pos - float64(i)
			l = lerp(l, s.buf[at+2], frac)
			r = lerp(r, s.buf[at+3], frac)
		}
		binary.LittleEndian.PutUint16(p[n*FrameSize:], uint16(l))
		binary.LittleEndian.PutUint16(p[n*FrameSize+2:], uint16(r))
		n++
		s.pos += s.step

		if n%compactEvery == 0 {
			s.compact()
		}
	}
	s.compact()

	if n == 0 {
		if s.err != nil {
			return 0, s.err
		}
		s.ended = true
		return 0, io.EOF
	}
	return n * FrameSize, nil
}

func (s *Stream) bufEnd() int64 {
	return s.bufStart + int64(len(s.buf)/2)
}

// fill decodes until converted frame idx is buffered or the source ends.
func (s *Stream) fill(idx int64) {
	for !s.eof && s.err == nil && s.bufEnd() <= idx {
		n, err := s.dec.ReadFrames(s.scratch)
		s.stereo = s.stereo[:0]
		for f := range n {
			l := s.scratch[f*s.channels]
			r := l
			if s.channels > 1 {
				r = s.scratch[f*s.channels+1]
			}
			s.stereo = append(s.stereo, l, r)
		}
		s.srcNext += int64(n)
		if s.conv != nil {
			s.buf = s.conv.process(s.buf, s.stereo)
		} else {
			s.buf = append(s.buf, s.stereo...)
		}

		switch {
		case err == io.EOF:
			s.eof = true
			s.drain()
		case err != nil:
			s.err = err
		case n == 0:
			s.err = io.ErrNoProgress
		}
	}
}

// drain flushes the resampler at the end of the source and trims the output
// to the length the source frames map to.
func (s *Stream) drain() {
	if s.conv == nil {
		return
	}
	s.buf = s.conv.flush(s.buf)
	end := max(s.bufStart, s.conv.outputFrames(s.srcNext))
	if extra := s.bufEnd() - end; extra > 0 {
		s.buf = s.buf[:len(s.buf)-int(extra)*2]
	}
}

// compact drops buffered frames that lie behind the read position.
func (s *Stream) compact() {
	drop := min(int64(s.pos)-s.bufStart, int64(len(s.buf)/2))
	if drop <= 0 {
		return
	}
	s.buf = s.buf[:copy(s.buf, s.buf[drop*2:])]
	s.bufStart += drop
}

func lerp(a, b int16, t float64) int16 {
	return int16(math.Round(float64(a) + (float64(b)-float64(a))*t))
}

// Position returns the playback position in the source. It is clamped to
// Duration unless the length is unknown.
func (s *Stream) Position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	pos := time.Duration(s.pos / SampleRate * float64(time.Second))
	if s.frames > 0 {
		pos = min(pos, s.Duration())
	}
	return pos
}

// Duration returns the length of the source, or 0 when the decoder cannot
// tell.
func (s *Stream) Duration() time.Duration {
	return s.framesToDuration(float64(s.frames))
}

func (s *Stream) framesToDuration(frames float64) time.Duration {
	return time.Duration(frames / s.srcRate * float64(time.Second))
}

// SeekTo moves to t, clamped to the length of the source. Buffered frames
// are discarded and a previous end of stream or decode error is cleared.
// When the length is unknown only a rewind to the start is accepted.
func (s *Stream) SeekTo(t time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	frame := max(0, int64(math.Round(t.Seconds()*s.srcRate)))
	if s.frames > 0 {
		frame = min(frame, s.frames)
	} else if frame > 0 {
		return ErrUnknownLength
	}

	out := frame
	if s.conv != nil {
		s.conv.reset()
		out = s.conv.outputFrames(frame)
	}
	s.buf = s.buf[:0]
	s.bufStart = out
	s.pos = float64(out)
	s.srcNext = frame
	s.ended = false
	s.err = nil
	s.eof = false

	if s.frames > 0 && frame >= s.frames {
		s.eof = true
		return nil
	}
	if err := s.dec.SeekFrame(frame); err != nil {
		s.err = err
		return err
	}
	return nil
}

// SetRate scales how fast the source is consumed. Rates outside (0, MaxRate]
// are ignored.
func (s *Stream) SetRate(rate float64) {
	if !validRate(rate) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.step = rate
}

// Ended reports whether Read has reached the end of the source.
func (s *Stream) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

// Err returns the decode error that stopped the stream, if any.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close releases the underlying file. Safe to call more than once.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

func validRate(r float64) bool {
	return !math.IsNaN(r) && r > 0 && r <= MaxRate
}
