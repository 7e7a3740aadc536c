package player

import (
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func writeWAV(t *testing.T, path string, sampleRate, bitDepth, channels int, data []int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, bitDepth, channels, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  sampleRate,
		},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
}

func sineWAVData(sampleRate, channels int, seconds float64) []int {
	frames := int(float64(sampleRate) * seconds)
	data := make([]int, 0, frames*channels)
	for i := range frames {
		v := int(8000 * math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate)))
		for range channels {
			data = append(data, v)
		}
	}
	return data
}

func TestOpenStreamWAVFixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	writeWAV(t, path, 44100, 16, 2, sineWAVData(44100, 2, 1))

	s, err := OpenStream(path)
	if err != nil {
		t.Fatalf("OpenStream: %v", err)
	}
	defer s.Close()

	if s.Duration() != time.Second {
		t.Fatalf("duration = %v, want 1s", s.Duration())
	}

	data, err := io.ReadAll(s)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	frames := len(data) / FrameSize
	if frames < SampleRate-1 || frames > SampleRate+1 {
		t.Fatalf("resampled to %d frames, want ~%d", frames, SampleRate)
	}
	if !s.Ended() {
		t.Fatal("expected Ended after reading the whole file")
	}

	if err := s.SeekTo(500 * time.Millisecond); err != nil {
		t.Fatalf("SeekTo: %v", err)
	}
	rest, err := io.ReadAll(s)
	if err != nil {
		t.Fatalf("ReadAll after seek: %v", err)
	}
	if got := len(rest) / FrameSize; got < SampleRate/2-1 || got > SampleRate/2+1 {
		t.Fatalf("read %d frames after seeking to the middle, want ~%d", got, SampleRate/2)
	}
}

func TestOpenStreamSniffsUnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.dat")
	writeWAV(t, path, 8000, 16, 1, sineWAVData(8000, 1, 0.25))

	s, err := OpenStream(path)
	if err != nil {
		t.Fatalf("OpenStream: %v", err)
	}
	defer s.Close()
	if s.Duration() != 250*time.Millisecond {
		t.Fatalf("duration = %v, want 250ms", s.Duration())
	}
}

func TestOpenStreamRejectsUnknownContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("definitely not audio"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := OpenStream(path)
	if !errors.Is(err, errUnsupportedFormat) {
		t.Fatalf("OpenStream error = %v, want errUnsupportedFormat", err)
	}
}

func TestWAVDecoder24BitToInt16(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deep.wav")
	writeWAV(t, path, 8000, 24, 1, []int{0x123456, -0x123456, 0, 0x7FFFFF})

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	dec, err := newWAVDecoder(f)
	if err != nil {
		t.Fatalf("newWAVDecoder: %v", err)
	}
	if dec.Frames() != 4 || dec.Channels() != 1 {
		t.Fatalf("layout = %d frames, %d channels", dec.Frames(), dec.Channels())
	}

	dst := make([]int16, 8)
	n, err := dec.ReadFrames(dst)
	if err != nil || n != 4 {
		t.Fatalf("ReadFrames = %d, %v", n, err)
	}
	want := []int16{4660, -4661, 0, 32767}
	for i, w := range want {
		if dst[i] != w {
			t.Fatalf("sample %d = %d, want %d", i, dst[i], w)
		}
	}
	if n, err := dec.ReadFrames(dst); n != 0 || err != io.EOF {
		t.Fatalf("ReadFrames at end = %d, %v", n, err)
	}
}

func TestReadMetadataFallsBackToFilename(t *testing.T) {
	for _, path := range []string{"/nowhere/My Song.flac", "/nowhere/Other Song.mp3"} {
		m := ReadMetadata(path)
		want := filepath.Base(path)
		want = want[:len(want)-len(filepath.Ext(want))]
		if m.Title != want {
			t.Fatalf("ReadMetadata(%q).Title = %q, want %q", path, m.Title, want)
		}
	}
}

func TestMetadataDisplayTitle(t *testing.T) {
	if got := (Metadata{Title: "Song"}).DisplayTitle(); got != "Song" {
		t.Fatalf("DisplayTitle = %q", got)
	}
	if got := (Metadata{Title: "Song", Artist: "Band"}).DisplayTitle(); got != "Band - Song" {
		t.Fatalf("DisplayTitle = %q", got)
	}
}
