package player

import (
	"encoding/binary"
	"errors"
	"io"
	"testing"
	"time"
)

// rampDecoder yields frame i as the value offset+i*scale on every channel,
// with the second channel negated. An unknown decoder hides its length.
type rampDecoder struct {
	frames     int64
	sampleRate int
	channels   int
	scale      int
	offset     int
	pos        int64
	failAt     int64
	unknown    bool
}

func (d *rampDecoder) ReadFrames(dst []int16) (int, error) {
	n := 0
	for n < len(dst)/d.channels && d.pos < d.frames && (d.failAt == 0 || d.pos < d.failAt) {
		for ch := range d.channels {
			v := int16(int64(d.offset) + d.pos*int64(d.scale))
			if ch == 1 {
				v = -v
			}
			dst[n*d.channels+ch] = v
		}
		n++
		d.pos++
	}
	if n == 0 {
		if d.failAt > 0 && d.pos >= d.failAt {
			return 0, errors.New("bad block")
		}
		return 0, io.EOF
	}
	return n, nil
}

func (d *rampDecoder) SeekFrame(frame int64) error {
	d.pos = frame
	return nil
}

func (d *rampDecoder) Frames() int64 {
	if d.unknown {
		return 0
	}
	return d.frames
}

func (d *rampDecoder) SampleRate() int { return d.sampleRate }
func (d *rampDecoder) Channels() int   { return d.channels }

func mustStream(t *testing.T, dec pcmDecoder, closer io.Closer) *Stream {
	t.Helper()
	s, err := newStream(dec, closer)
	if err != nil {
		t.Fatalf("newStream: %v", err)
	}
	return s
}

func readAllFrames(t *testing.T, s *Stream) [][2]int16 {
	t.Helper()
	data, err := io.ReadAll(s)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(data)%FrameSize != 0 {
		t.Fatalf("read %d bytes, not frame aligned", len(data))
	}
	out := make([][2]int16, len(data)/FrameSize)
	for i := range out {
		out[i][0] = int16(binary.LittleEndian.Uint16(data[i*FrameSize:]))
		out[i][1] = int16(binary.LittleEndian.Uint16(data[i*FrameSize+2:]))
	}
	return out
}

func TestStreamPassesThroughAtOutputRate(t *testing.T) {
	s := mustStream(t, &rampDecoder{frames: 480, sampleRate: SampleRate, channels: 2, scale: 1}, nil)

	frames := readAllFrames(t, s)
	if len(frames) != 480 {
		t.Fatalf("got %d frames, want 480", len(frames))
	}
	for i, f := range frames {
		if f[0] != int16(i) || f[1] != -int16(i) {
			t.Fatalf("frame %d = %v", i, f)
		}
	}
	if !s.Ended() {
		t.Fatal("expected Ended after EOF")
	}
	if s.Position() != s.Duration() {
		t.Fatalf("position %v != duration %v at end", s.Position(), s.Duration())
	}
}

func TestStreamDoubleRateConsumesTwiceAsFast(t *testing.T) {
	s := mustStream(t, &rampDecoder{frames: 4800, sampleRate: SampleRate, channels: 2, scale: 1}, nil)
	s.SetRate(2)

	buf := make([]byte, 100*FrameSize)
	n, err := s.Read(buf)
	if err != nil || n != len(buf) {
		t.Fatalf("Read = %d, %v", n, err)
	}
	if want := s.framesToDuration(200); s.Position() != want {
		t.Fatalf("position = %v, want %v", s.Position(), want)
	}
	if got := int16(binary.LittleEndian.Uint16(buf[99*FrameSize:])); got != 198 {
		t.Fatalf("last frame = %d, want 198", got)
	}
}

func TestStreamUpsamplesAndDuplicatesMono(t *testing.T) {
	s := mustStream(t, &rampDecoder{frames: 4, sampleRate: SampleRate / 2, channels: 1, scale: 100}, nil)

	frames := readAllFrames(t, s)
	if len(frames) != 8 {
		t.Fatalf("got %d frames, want 8", len(frames))
	}
	for i, f := range frames {
		if f[0] != f[1] {
			t.Fatalf("frame %d = %v, want both channels equal", i, f)
		}
	}
	if s.Duration() != s.framesToDuration(4) {
		t.Fatalf("duration = %v", s.Duration())
	}
}

func TestStreamResamplesKeepingLevelAndLength(t *testing.T) {
	s := mustStream(t, &rampDecoder{frames: 44100, sampleRate: 44100, channels: 2, offset: 1000}, nil)

	frames := readAllFrames(t, s)
	if len(frames) != SampleRate {
		t.Fatalf("got %d frames, want %d", len(frames), SampleRate)
	}
	for i := 200; i < len(frames)-200; i++ {
		f := frames[i]
		if f[0] < 998 || f[0] > 1002 || f[1] > -998 || f[1] < -1002 {
			t.Fatalf("frame %d = %v, want about ±1000", i, f)
		}
	}
	if s.Position() != time.Second {
		t.Fatalf("position at end = %v, want 1s", s.Position())
	}
}

func TestStreamRateAppliesAfterResampling(t *testing.T) {
	s := mustStream(t, &rampDecoder{frames: 44100, sampleRate: 44100, channels: 2, offset: 1000}, nil)
	s.SetRate(2)

	frames := readAllFrames(t, s)
	if len(frames) != SampleRate/2 {
		t.Fatalf("got %d frames at double rate, want %d", len(frames), SampleRate/2)
	}
}

func TestStreamUnknownLength(t *testing.T) {
	s := mustStream(t, &rampDecoder{frames: 4800, sampleRate: SampleRate, channels: 2, scale: 1, unknown: true}, nil)
	if s.Duration() != 0 {
		t.Fatalf("duration = %v, want 0", s.Duration())
	}

	frames := readAllFrames(t, s)
	if len(frames) != 4800 {
		t.Fatalf("got %d frames, want 4800", len(frames))
	}
	if s.Position() != 100*time.Millisecond {
		t.Fatalf("position = %v, want 100ms", s.Position())
	}

	if err := s.SeekTo(50 * time.Millisecond); !errors.Is(err, ErrUnknownLength) {
		t.Fatalf("SeekTo = %v, want ErrUnknownLength", err)
	}
	if s.Position() != 100*time.Millisecond {
		t.Fatalf("rejected seek moved position to %v", s.Position())
	}

	if err := s.SeekTo(0); err != nil {
		t.Fatalf("rewind: %v", err)
	}
	if s.Ended() || s.Position() != 0 {
		t.Fatalf("after rewind ended=%v position=%v", s.Ended(), s.Position())
	}
	if n, err := s.Read(make([]byte, 64)); n != 64 || err != nil {
		t.Fatalf("Read after rewind = %d, %v", n, err)
	}
}

func TestNewStreamRejectsInvalidLayout(t *testing.T) {
	if _, err := newStream(&rampDecoder{sampleRate: 0, channels: 2}, nil); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
}

func TestStreamKeepsFirstTwoChannels(t *testing.T) {
	s := mustStream(t, &rampDecoder{frames: 3, sampleRate: SampleRate, channels: 6, scale: 10}, nil)
	frames := readAllFrames(t, s)
	if len(frames) != 3 || frames[2][0] != 20 || frames[2][1] != -20 {
		t.Fatalf("frames = %v", frames)
	}
}

func TestStreamSeekClampsAndClearsEnd(t *testing.T) {
	s := mustStream(t, &rampDecoder{frames: 48000, sampleRate: SampleRate, channels: 2, scale: 0}, nil)

	if err := s.SeekTo(-time.Second); err != nil {
		t.Fatalf("SeekTo: %v", err)
	}
	if s.Position() != 0 {
		t.Fatalf("position = %v, want 0", s.Position())
	}

	if err := s.SeekTo(5 * time.Second); err != nil {
		t.Fatalf("SeekTo: %v", err)
	}
	if s.Position() != time.Second {
		t.Fatalf("position = %v, want 1s", s.Position())
	}
	if n, err := s.Read(make([]byte, 64)); n != 0 || err != io.EOF {
		t.Fatalf("Read at end = %d, %v", n, err)
	}
	if !s.Ended() {
		t.Fatal("expected Ended at end")
	}

	if err := s.SeekTo(500 * time.Millisecond); err != nil {
		t.Fatalf("SeekTo: %v", err)
	}
	if s.Ended() {
		t.Fatal("Ended not cleared by seek")
	}
	if n, err := s.Read(make([]byte, 64)); n != 64 || err != nil {
		t.Fatalf("Read after seek = %d, %v", n, err)
	}
}

func TestStreamSetRateIgnoresInvalid(t *testing.T) {
	s := mustStream(t, &rampDecoder{frames: 100, sampleRate: SampleRate, channels: 2, scale: 1}, nil)
	for _, r := range []float64{0, -2, MaxRate * 2} {
		s.SetRate(r)
	}
	if s.step != 1 {
		t.Fatalf("step = %v, want 1", s.step)
	}
}

func TestStreamReportsDecodeError(t *testing.T) {
	s := mustStream(t, &rampDecoder{frames: 100000, sampleRate: SampleRate, channels: 2, scale: 0, failAt: 10}, nil)

	n, err := s.Read(make([]byte, 1000*FrameSize))
	if err != nil || n != 10*FrameSize {
		t.Fatalf("first Read = %d, %v", n, err)
	}
	if _, err := s.Read(make([]byte, 1000*FrameSize)); err == nil {
		t.Fatal("expected decode error")
	}
	if s.Err() == nil {
		t.Fatal("Err() = nil after decode failure")
	}
	if s.Ended() {
		t.Fatal("decode failure reported as end of stream")
	}
}

type closeCounter struct{ n int }

func (c *closeCounter) Close() error {
	c.n++
	return nil
}

func TestStreamCloseIsIdempotent(t *testing.T) {
	cc := &closeCounter{}
	s := mustStream(t, &rampDecoder{frames: 10, sampleRate: SampleRate, channels: 2}, cc)
	_ = s.Close()
	_ = s.Close()
	if cc.n != 1 {
		t.Fatalf("closer called %d times, want 1", cc.n)
	}
	if n, err := s.Read(make([]byte, 16)); n != 0 || err != io.EOF {
		t.Fatalf("Read after Close = %d, %v", n, err)
	}
	if err := s.SeekTo(0); !errors.Is(err, ErrClosed) {
		t.Fatalf("SeekTo after Close = %v, want ErrClosed", err)
	}
}
