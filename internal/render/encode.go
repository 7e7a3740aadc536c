package render

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/muesli/termenv"
)

// ASCII brightness ramp from darkest to brightest.
// Chosen for good perceptual spacing in monospace fonts.
const asciiRamp = " .:-=+*#%@"

const (
	ansiReset     = termenv.CSI + termenv.ResetSeq + "m"
	upperHalf     = "▀"
	maxCachedSeqs = 4096
)

// ParseColorMode maps a configured color mode to a termenv profile.
// "auto" inspects the environment, honoring NO_COLOR.
func ParseColorMode(mode string) (termenv.Profile, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "auto":
		return termenv.NewOutput(os.Stdout).EnvColorProfile(), nil
	case "truecolor", "24bit":
		return termenv.TrueColor, nil
	case "256", "ansi256":
		return termenv.ANSI256, nil
	case "16", "ansi":
		return termenv.ANSI, nil
	case "none", "off", "ascii":
		return termenv.Ascii, nil
	default:
		return termenv.Ascii, fmt.Errorf("unknown color mode %q", mode)
	}
}

type seqKey struct {
	r, g, b uint8
	bg      bool
}

// encoder turns an RGB24 framebuffer into terminal text.
type encoder struct {
	profile termenv.Profile
	sb      strings.Builder
	cache   map[seqKey]string
	num     []byte
}

func newEncoder(profile termenv.Profile) *encoder {
	return &encoder{
		profile: profile,
		cache:   make(map[seqKey]string),
	}
}

// encode renders a w×(2*rows) framebuffer into rows terminal lines.
func (e *encoder) encode(fb []byte, w, rows int) string {
	e.sb.Reset()
	// Generous pre-allocation: worst case ~40 bytes per cell (two color escapes).
	e.sb.Grow(w * rows * 40)

	if e.profile == termenv.Ascii {
		e.encodeASCII(fb, w, rows)
	} else {
		e.encodeHalfBlock(fb, w, rows)
	}
	return e.sb.String()
}

// encodeHalfBlock uses "▀" with fg = top pixel, bg = bottom pixel, packing
// two pixel rows into one terminal row.
func (e *encoder) encodeHalfBlock(fb []byte, w, rows int) {
	var lastFg, lastBg seqKey
	for row := range rows {
		top := fb[row*2*w*3:]
		bot := fb[(row*2+1)*w*3:]
		first := true

		for col := range w {
			o := col * 3
			fg := seqKey{r: top[o], g: top[o+1], b: top[o+2]}
			bg := seqKey{r: bot[o], g: bot[o+1], b: bot[o+2], bg: true}

			if first || fg != lastFg {
				e.writeColor(fg)
				lastFg = fg
			}
			if first || bg != lastBg {
				e.writeColor(bg)
				lastBg = bg
			}
			first = false
			e.sb.WriteString(upperHalf)
		}

		e.sb.WriteString(ansiReset)
		if row < rows-1 {
			e.sb.WriteByte('\n')
		}
	}
}

func (e *encoder) writeColor(k seqKey) {
	if e.profile == termenv.TrueColor {
		// Formatting directly is cheaper than caching 16M colors.
		e.num = e.num[:0]
		e.num = append(e.num, termenv.CSI...)
		if k.bg {
			e.num = append(e.num, "48;2;"...)
		} else {
			e.num = append(e.num, "38;2;"...)
		}
		e.num = strconv.AppendUint(e.num, uint64(k.r), 10)
		e.num = append(e.num, ';')
		e.num = strconv.AppendUint(e.num, uint64(k.g), 10)
		e.num = append(e.num, ';')
		e.num = strconv.AppendUint(e.num, uint64(k.b), 10)
		e.num = append(e.num, 'm')
		e.sb.Write(e.num)
		return
	}

	seq, ok := e.cache[k]
	if !ok {
		if len(e.cache) >= maxCachedSeqs {
			clear(e.cache)
		}
		c := e.profile.Color(fmt.Sprintf("#%02x%02x%02x", k.r, k.g, k.b))
		if c != nil {
			seq = termenv.CSI + c.Sequence(k.bg) + "m"
		}
		e.cache[k] = seq
	}
	e.sb.WriteString(seq)
}

// encodeASCII maps each cell to a brightness character from the average of
// its two pixels.
func (e *encoder) encodeASCII(fb []byte, w, rows int) {
	for row := range rows {
		top := fb[row*2*w*3:]
		bot := fb[(row*2+1)*w*3:]
		for col := range w {
			o := col * 3
			lum := (int(luminance(top[o], top[o+1], top[o+2])) + int(luminance(bot[o], bot[o+1], bot[o+2]))) / 2
			e.sb.WriteByte(brightnessChar(uint8(lum)))
		}
		if row < rows-1 {
			e.sb.WriteByte('\n')
		}
	}
}

func (e *encoder) release() {
	e.cache = nil
	e.num = nil
	e.sb = strings.Builder{}
}

// luminance computes perceived brightness (ITU-R BT.601).
func luminance(r, g, b uint8) uint8 {
	// 0.299*R + 0.587*G + 0.114*B using integer math.
	return uint8((299*int(r) + 587*int(g) + 114*int(b)) / 1000)
}

// brightnessChar maps a 0-255 luminance to an ASCII character.
func brightnessChar(lum uint8) byte {
	idx := int(lum) * (len(asciiRamp) - 1) / 255
	return asciiRamp[idx]
}
