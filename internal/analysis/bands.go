package analysis

// MaxMagnitude is the largest value a frequency bin can hold.
const MaxMagnitude = 255

// FrequencyFrame holds one byte magnitude per frequency bin, lowest
// frequency first. A frame is only meaningful for the instant it was captured.
type FrequencyFrame []uint8

// BandEnergies are the mean magnitudes of the low, mid and high bin ranges,
// each normalized to [0,1].
type BandEnergies struct {
	Low  float64
	Mid  float64
	High float64
}

// Sum returns Low+Mid+High.
func (b BandEnergies) Sum() float64 {
	return b.Low + b.Mid + b.High
}

// Split returns the exclusive end indices of the low and mid ranges for a
// frame of n bins. The split keeps the proportions of the classic 1024-bin
// layout (8 low bins, 16 mid bins, the rest high) and guarantees at least one
// bin per range for n >= 3.
func Split(n int) (lowEnd, midEnd int) {
	lowEnd = n / 128
	if lowEnd < 1 {
		lowEnd = 1
	}
	midEnd = 3 * n / 128
	if midEnd <= lowEnd {
		midEnd = lowEnd + 1
	}
	return lowEnd, midEnd
}

// Aggregate reduces a frame to its three band energies. It is pure: equal
// frames always produce equal results. Frames with fewer than three bins
// aggregate to zero.
func Aggregate(frame FrequencyFrame) BandEnergies {
	n := len(frame)
	if n < 3 {
		return BandEnergies{}
	}
	lowEnd, midEnd := Split(n)
	return BandEnergies{
		Low:  meanMagnitude(frame[:lowEnd]),
		Mid:  meanMagnitude(frame[lowEnd:midEnd]),
		High: meanMagnitude(frame[midEnd:]),
	}
}

func meanMagnitude(bins FrequencyFrame) float64 {
	sum := 0
	for _, b := range bins {
		sum += int(b)
	}
	return float64(sum) / (float64(len(bins)) * MaxMagnitude)
}
