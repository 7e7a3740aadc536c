package player

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/h2non/filetype"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

// pcmDecoder is implemented by all format-specific decoders. Samples are
// interleaved 16-bit values in the source's own channel layout and rate.
type pcmDecoder interface {
	// ReadFrames decodes up to len(dst)/Channels() frames and returns the
	// number of frames written. It returns 0, io.EOF at the end of the data.
	ReadFrames(dst []int16) (int, error)
	SeekFrame(frame int64) error
	// Frames returns the total length in frames, or 0 when it is unknown.
	Frames() int64
	SampleRate() int
	Channels() int
}

var errUnsupportedFormat = errors.New("unsupported format")

// newDecoder picks a decoder by file extension and falls back to sniffing
// the file header when the extension is missing or unknown.
func newDecoder(f *os.File) (pcmDecoder, error) {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(f.Name())), ".")
	if !knownFormat(format) {
		sniffed, err := sniffFormat(f)
		if err != nil {
			return nil, err
		}
		format = sniffed
	}

	switch format {
	case "mp3":
		return newMP3Decoder(f)
	case "wav":
		return newWAVDecoder(f)
	case "flac":
		return newFLACDecoder(f)
	case "ogg":
		return newOGGDecoder(f)
	default:
		return nil, fmt.Errorf("%w: %q", errUnsupportedFormat, format)
	}
}

func knownFormat(format string) bool {
	switch format {
	case "mp3", "wav", "flac", "ogg":
		return true
	}
	return false
}

func sniffFormat(f *os.File) (string, error) {
	head := make([]byte, 262)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", fmt.Errorf("reading header: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewinding: %w", err)
	}
	kind, err := filetype.Match(head[:n])
	if err != nil || kind == filetype.Unknown {
		return "", fmt.Errorf("%w: unrecognized content", errUnsupportedFormat)
	}
	return kind.Extension, nil
}

func clampToInt16(v float32) int16 {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return int16(v * 32767)
}

// readEOF folds a short final read into a clean end of stream.
func readEOF(frames int, err error) (int, error) {
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		if frames > 0 {
			return frames, nil
		}
		return 0, io.EOF
	}
	return frames, err
}

// --- MP3 decoder ---

type mp3Decoder struct {
	dec *mp3.Decoder
	raw []byte
}

func newMP3Decoder(f *os.File) (*mp3Decoder, error) {
	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("decoding MP3: %w", err)
	}
	return &mp3Decoder{dec: dec}, nil
}

func (d *mp3Decoder) ReadFrames(dst []int16) (int, error) {
	frames := len(dst) / 2
	need := frames * 4
	if cap(d.raw) < need {
		d.raw = make([]byte, need)
	}
	raw := d.raw[:need]

	n, err := io.ReadFull(d.dec, raw)
	got := n / 4
	for i := range got * 2 {
		dst[i] = int16(binary.LittleEndian.Uint16(raw[i*2:]))
	}
	return readEOF(got, err)
}

func (d *mp3Decoder) SeekFrame(frame int64) error {
	_, err := d.dec.Seek(frame*4, io.SeekStart)
	return err
}

func (d *mp3Decoder) Frames() int64   { return d.dec.Length() / 4 }
func (d *mp3Decoder) SampleRate() int { return d.dec.SampleRate() }
func (d *mp3Decoder) Channels() int   { return 2 }

// --- WAV decoder ---

const wavFormatFloat = 3

type wavDecoder struct {
	file         io.ReadSeeker
	raw          []byte
	pos          int64 // frames
	frames       int64
	pcmStart     int64 // byte offset in file where PCM data begins
	sampleRate   int
	channels     int
	srcBitDepth  int
	float        bool
	srcFrameSize int // bytes per sample frame in source format
}

func newWAVDecoder(f io.ReadSeeker) (*wavDecoder, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file")
	}

	// FwdToPCM positions the reader at the start of PCM data
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("reading WAV PCM data: %w", err)
	}

	channels := int(dec.NumChans)
	bitDepth := int(dec.BitDepth)
	float := dec.WavAudioFormat == wavFormatFloat
	switch {
	case channels < 1:
		return nil, fmt.Errorf("WAV has no channels")
	case float && bitDepth != 32:
		return nil, fmt.Errorf("unsupported WAV float depth %d", bitDepth)
	case bitDepth != 8 && bitDepth != 16 && bitDepth != 24 && bitDepth != 32:
		return nil, fmt.Errorf("unsupported WAV bit depth %d", bitDepth)
	}
	srcFrameSize := channels * bitDepth / 8

	pcmStart, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("getting PCM start position: %w", err)
	}

	return &wavDecoder{
		file:         f,
		frames:       dec.PCMLen() / int64(srcFrameSize),
		pcmStart:     pcmStart,
		sampleRate:   int(dec.SampleRate),
		channels:     channels,
		srcBitDepth:  bitDepth,
		float:        float,
		srcFrameSize: srcFrameSize,
	}, nil
}

func (d *wavDecoder) ReadFrames(dst []int16) (int, error) {
	frames := int64(len(dst) / d.channels)
	if rem := d.frames - d.pos; frames > rem {
		frames = rem
	}
	if frames <= 0 {
		return 0, io.EOF
	}

	need := int(frames) * d.srcFrameSize
	if cap(d.raw) < need {
		d.raw = make([]byte, need)
	}
	raw := d.raw[:need]

	n, err := io.ReadFull(d.file, raw)
	got := n / d.srcFrameSize
	width := d.srcBitDepth / 8
	for i := range got * d.channels {
		dst[i] = d.sample(raw[i*width:])
	}
	d.pos += int64(got)
	return readEOF(got, err)
}

func (d *wavDecoder) sample(b []byte) int16 {
	if d.float {
		return clampToInt16(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	}
	switch d.srcBitDepth {
	case 8:
		// 8-bit WAV is unsigned
		return int16((int(b[0]) - 128) << 8)
	case 16:
		return int16(binary.LittleEndian.Uint16(b))
	case 24:
		return int16(uint16(b[1]) | uint16(b[2])<<8)
	default:
		return int16(binary.LittleEndian.Uint32(b) >> 16)
	}
}

func (d *wavDecoder) SeekFrame(frame int64) error {
	frame = max(0, min(frame, d.frames))
	if _, err := d.file.Seek(d.pcmStart+frame*int64(d.srcFrameSize), io.SeekStart); err != nil {
		return err
	}
	d.pos = frame
	return nil
}

func (d *wavDecoder) Frames() int64   { return d.frames }
func (d *wavDecoder) SampleRate() int { return d.sampleRate }
func (d *wavDecoder) Channels() int   { return d.channels }

// --- FLAC decoder ---

type flacDecoder struct {
	stream     *flac.Stream
	block      []int16
	pending    []int16
	skip       int64 // frames to drop after a seek lands early
	frames     int64
	sampleRate int
	channels   int
	bps        int
}

func newFLACDecoder(f io.ReadSeeker) (*flacDecoder, error) {
	stream, err := flac.NewSeek(f)
	if err != nil {
		return nil, fmt.Errorf("decoding FLAC: %w", err)
	}

	info := stream.Info
	return &flacDecoder{
		stream:     stream,
		frames:     int64(info.NSamples),
		sampleRate: int(info.SampleRate),
		channels:   int(info.NChannels),
		bps:        int(info.BitsPerSample),
	}, nil
}

func (d *flacDecoder) ReadFrames(dst []int16) (int, error) {
	for len(d.pending) == 0 {
		frame, err := d.stream.ParseNext()
		if err != nil {
			return 0, err
		}

		nSamples := int(frame.Subframes[0].NSamples)
		d.block = d.block[:0]
		for i := range nSamples {
			for ch := range d.channels {
				sample := int(frame.Subframes[ch].Samples[i])
				switch {
				case d.bps > 16:
					sample >>= (d.bps - 16)
				case d.bps < 16:
					sample <<= (16 - d.bps)
				}
				d.block = append(d.block, int16(max(-32768, min(32767, sample))))
			}
		}
		d.pending = d.block

		if d.skip > 0 {
			drop := min(d.skip, int64(nSamples))
			d.pending = d.pending[drop*int64(d.channels):]
			d.skip -= drop
		}
	}

	usable := (len(dst) / d.channels) * d.channels
	n := copy(dst[:usable], d.pending)
	d.pending = d.pending[n:]
	return n / d.channels, nil
}

func (d *flacDecoder) SeekFrame(frame int64) error {
	frame = max(0, min(frame, d.frames))
	got, err := d.stream.Seek(uint64(frame))
	if err != nil {
		return err
	}
	d.pending = nil
	d.skip = max(0, frame-int64(got))
	return nil
}

func (d *flacDecoder) Frames() int64   { return d.frames }
func (d *flacDecoder) SampleRate() int { return d.sampleRate }
func (d *flacDecoder) Channels() int   { return d.channels }

// --- OGG Vorbis decoder ---

type oggDecoder struct {
	reader     *oggvorbis.Reader
	samples    []float32
	frames     int64
	sampleRate int
	channels   int
}

func newOGGDecoder(f io.ReadSeeker) (*oggDecoder, error) {
	reader, err := oggvorbis.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("decoding OGG: %w", err)
	}

	return &oggDecoder{
		reader:     reader,
		frames:     reader.Length(),
		sampleRate: reader.SampleRate(),
		channels:   reader.Channels(),
	}, nil
}

func (d *oggDecoder) ReadFrames(dst []int16) (int, error) {
	usable := (len(dst) / d.channels) * d.channels
	if cap(d.samples) < usable {
		d.samples = make([]float32, usable)
	}
	samples := d.samples[:usable]

	n, err := d.reader.Read(samples)
	got := n / d.channels
	for i := range got * d.channels {
		dst[i] = clampToInt16(samples[i])
	}
	return readEOF(got, err)
}

func (d *oggDecoder) SeekFrame(frame int64) error {
	return d.reader.SetPosition(max(0, min(frame, d.frames)))
}

func (d *oggDecoder) Frames() int64   { return d.frames }
func (d *oggDecoder) SampleRate() int { return d.sampleRate }
func (d *oggDecoder) Channels() int   { return d.channels }
