package analysis

import (
	"encoding/binary"
	"io"
	"sync"
)

// tapFrameSize is the size of one 16-bit stereo frame in bytes.
const tapFrameSize = 4

// Tap passes a 16-bit little-endian stereo PCM stream through unchanged while
// keeping the most recent samples, mixed to mono, in a ring buffer. It sits
// between the media stream and the output sink so the analyzer sees exactly
// what is being played.
type Tap struct {
	src   io.Reader
	mu    sync.Mutex
	ring  []float64
	w     int // write position
	fill  int // number of valid samples
	carry []byte
}

// NewTap wraps src with a ring holding size mono samples.
func NewTap(src io.Reader, size int) *Tap {
	if size < 1 {
		size = 1
	}
	return &Tap{
		src:   src,
		ring:  make([]float64, size),
		carry: make([]byte, 0, tapFrameSize),
	}
}

// Read reads from the underlying stream and records every complete frame.
func (t *Tap) Read(p []byte) (int, error) {
	n, err := t.src.Read(p)
	if n > 0 {
		t.capture(p[:n])
	}
	return n, err
}

func (t *Tap) capture(b []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.ring == nil {
		return
	}

	// Reads are not guaranteed to end on a frame boundary.
	if len(t.carry) > 0 {
		need := tapFrameSize - len(t.carry)
		if len(b) < need {
			t.carry = append(t.carry, b...)
			return
		}
		t.carry = append(t.carry, b[:need]...)
		t.push(t.carry)
		t.carry = t.carry[:0]
		b = b[need:]
	}

	for len(b) >= tapFrameSize {
		t.push(b[:tapFrameSize])
		b = b[tapFrameSize:]
	}
	t.carry = append(t.carry, b...)
}

func (t *Tap) push(frame []byte) {
	l := int16(binary.LittleEndian.Uint16(frame))
	r := int16(binary.LittleEndian.Uint16(frame[2:]))
	t.ring[t.w] = (float64(l) + float64(r)) / 65536.0
	t.w = (t.w + 1) % len(t.ring)
	if t.fill < len(t.ring) {
		t.fill++
	}
}

// Snapshot copies the most recent len(dst) samples into dst in chronological
// order. When fewer samples have been captured the front of dst is zeroed.
// It returns the number of captured samples copied.
func (t *Tap) Snapshot(dst []float64) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := len(dst)
	avail := t.fill
	if avail > n {
		avail = n
	}
	pad := n - avail
	for i := range pad {
		dst[i] = 0
	}
	if avail == 0 {
		return 0
	}

	size := len(t.ring)
	start := (t.w - avail + size) % size
	for i := range avail {
		dst[pad+i] = t.ring[(start+i)%size]
	}
	return avail
}

// Size returns the ring capacity in samples, or 0 once released.
func (t *Tap) Size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.ring)
}

// Reset discards captured samples, e.g. after a seek.
func (t *Tap) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.w = 0
	t.fill = 0
	t.carry = t.carry[:0]
}

// Release drops the ring. Reads keep passing audio through; snapshots
// return silence. Safe to call more than once.
func (t *Tap) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ring = nil
	t.w = 0
	t.fill = 0
	t.carry = t.carry[:0]
}
