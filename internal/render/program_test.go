package render

import (
	"math"
	"testing"
)

func shadeAt(bands [3]float64, uv [2]float64) (uint8, uint8, uint8) {
	p := NewProgram()
	p.Uniforms = Uniforms{
		Time:       0,
		Resolution: [2]float64{100, 100},
		Low:        bands[0],
		Mid:        bands[1],
		High:       bands[2],
	}
	p.prepare()
	return p.Shade(uv).RGB255()
}

func TestShadeSilentCornerIsBlack(t *testing.T) {
	r, g, b := shadeAt([3]float64{}, [2]float64{0, 0})
	if r != 0 || g != 0 || b != 0 {
		t.Fatalf("corner = (%d,%d,%d), want black", r, g, b)
	}
}

func TestShadeCenterGlowsWithEnergy(t *testing.T) {
	r, g, b := shadeAt([3]float64{1, 1, 1}, [2]float64{0.5, 0.5})
	if r != 255 || g != 255 || b != 255 {
		t.Fatalf("center at full energy = (%d,%d,%d), want white", r, g, b)
	}

	r, g, b = shadeAt([3]float64{}, [2]float64{0.5, 0.5})
	if r == 255 && g == 255 && b == 255 {
		t.Fatal("silent center should take the outer ring color, got white")
	}
}

func TestRingRadiusFollowsBands(t *testing.T) {
	p := NewProgram()
	p.Uniforms.Resolution = [2]float64{1, 1}
	p.Uniforms.Low = 0.3
	p.prepare()
	want := 0.3 + 0.1*math.Sin(0.3*5)
	if math.Abs(p.radii[0]-want) > 1e-12 {
		t.Fatalf("inner radius = %v, want %v", p.radii[0], want)
	}
}

func TestSmoothstepFallingEdge(t *testing.T) {
	tests := []struct {
		x, want float64
	}{
		{x: -1, want: 1},
		{x: 0, want: 1},
		{x: 0.005, want: 0.5},
		{x: 0.01, want: 0},
		{x: 1, want: 0},
	}
	for _, tt := range tests {
		if got := smoothstep(0.01, 0, tt.x); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("smoothstep(0.01, 0, %v) = %v, want %v", tt.x, got, tt.want)
		}
	}
}
