package analysis

import "testing"

func TestSplitKeepsClassicLayout(t *testing.T) {
	lowEnd, midEnd := Split(1024)
	if lowEnd != 8 || midEnd != 24 {
		t.Fatalf("Split(1024) = (%d, %d), want (8, 24)", lowEnd, midEnd)
	}
}

func TestSplitScalesWithBinCount(t *testing.T) {
	tests := []struct {
		n        int
		low, mid int
	}{
		{n: 32, low: 1, mid: 2},
		{n: 256, low: 2, mid: 6},
		{n: 2048, low: 16, mid: 48},
		{n: 16384, low: 128, mid: 384},
	}
	for _, tt := range tests {
		lowEnd, midEnd := Split(tt.n)
		if lowEnd != tt.low || midEnd != tt.mid {
			t.Errorf("Split(%d) = (%d, %d), want (%d, %d)", tt.n, lowEnd, midEnd, tt.low, tt.mid)
		}
		if lowEnd < 1 || midEnd-lowEnd < 1 || tt.n-midEnd < 1 {
			t.Errorf("Split(%d) left an empty range", tt.n)
		}
	}
}

func TestAggregateAllZero(t *testing.T) {
	got := Aggregate(make(FrequencyFrame, 1024))
	if got != (BandEnergies{}) {
		t.Fatalf("Aggregate(zeros) = %+v, want zero", got)
	}
}

func TestAggregateAllMax(t *testing.T) {
	frame := make(FrequencyFrame, 1024)
	for i := range frame {
		frame[i] = MaxMagnitude
	}
	got := Aggregate(frame)
	if got.Low != 1 || got.Mid != 1 || got.High != 1 {
		t.Fatalf("Aggregate(max) = %+v, want all ones", got)
	}
}

func TestAggregateAveragesEachRange(t *testing.T) {
	frame := make(FrequencyFrame, 1024)
	for i := 0; i < 8; i++ {
		frame[i] = 255
	}
	for i := 8; i < 24; i++ {
		frame[i] = 51
	}
	// Half of the high range at full scale.
	for i := 24; i < 24+500; i++ {
		frame[i] = 255
	}

	got := Aggregate(frame)
	if got.Low != 1 {
		t.Errorf("Low = %v, want 1", got.Low)
	}
	if got.Mid != 0.2 {
		t.Errorf("Mid = %v, want 0.2", got.Mid)
	}
	if got.High != 0.5 {
		t.Errorf("High = %v, want 0.5", got.High)
	}
}

func TestAggregateIsDeterministicAndInRange(t *testing.T) {
	frame := make(FrequencyFrame, 512)
	for i := range frame {
		frame[i] = uint8((i * 37) % 256)
	}
	first := Aggregate(frame)
	second := Aggregate(frame)
	if first != second {
		t.Fatalf("Aggregate not deterministic: %+v != %+v", first, second)
	}
	for _, v := range []float64{first.Low, first.Mid, first.High} {
		if v < 0 || v > 1 {
			t.Fatalf("band value %v out of [0,1]", v)
		}
	}
}

func TestAggregateShortFrameIsZero(t *testing.T) {
	if got := Aggregate(FrequencyFrame{255, 255}); got != (BandEnergies{}) {
		t.Fatalf("Aggregate(short) = %+v, want zero", got)
	}
	if got := Aggregate(nil); got != (BandEnergies{}) {
		t.Fatalf("Aggregate(nil) = %+v, want zero", got)
	}
}

func TestAggregateThreeBins(t *testing.T) {
	got := Aggregate(FrequencyFrame{255, 0, 255})
	if got.Low != 1 || got.Mid != 0 || got.High != 1 {
		t.Fatalf("Aggregate(3 bins) = %+v", got)
	}
}
