package render

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Uniforms are the per-frame inputs of the shading program.
type Uniforms struct {
	Time       float64 // seconds
	Resolution [2]float64
	Low        float64
	Mid        float64
	High       float64
}

// Program shades pastel neon rings that pulse with the three bands: each
// band drives the radius of one ring, the sum of all three wobbles their
// edges and lights a glow at the center.
type Program struct {
	Uniforms Uniforms

	// Derived once per frame by prepare.
	t          float64
	aspect     float64
	energy     float64
	radii      [3]float64
	ringColors [3]colorful.Color
}

// NewProgram returns a program with zeroed uniforms.
func NewProgram() *Program {
	return &Program{}
}

func (p *Program) prepare() {
	u := p.Uniforms
	p.t = u.Time * 0.5
	p.aspect = 1
	if u.Resolution[1] > 0 {
		p.aspect = u.Resolution[0] / u.Resolution[1]
	}
	p.energy = u.Low + u.Mid + u.High
	p.radii = [3]float64{
		0.3 + 0.1*math.Sin(p.t*2+u.Low*5),
		0.5 + 0.1*math.Sin(p.t*1.5+u.Mid*4),
		0.7 + 0.1*math.Sin(p.t+u.High*3),
	}
	p.ringColors = [3]colorful.Color{
		pastelNeon(u.Low),
		pastelNeon(u.Mid + 0.33),
		pastelNeon(u.High + 0.66),
	}
}

var ringWarp = [3]float64{0.3, 0.2, 0.1}

// Shade returns the color at uv. prepare must have run for the frame.
func (p *Program) Shade(uv [2]float64) colorful.Color {
	x := (uv[0]*2 - 1) * p.aspect
	y := uv[1]*2 - 1
	dist := math.Hypot(x, y)

	distortion := math.Sin(math.Atan2(y, x)*8+p.t*3) * 0.1 * p.energy
	var s [3]float64
	for i := range s {
		s[i] = smoothstep(0.01, 0, dist-p.radii[i]+distortion*ringWarp[i])
	}

	c1 := p.ringColors[0]
	col := colorful.Color{R: c1.R * s[0], G: c1.G * s[0], B: c1.B * s[0]}
	col = col.BlendRgb(p.ringColors[1], s[1])
	col = col.BlendRgb(p.ringColors[2], s[2])

	glow := math.Exp(-dist*2) * p.energy * 0.5
	col.R += 0.9 * glow
	col.G += 0.9 * glow
	col.B += glow

	return colorful.Color{
		R: soften(col.R),
		G: soften(col.G),
		B: soften(col.B),
	}.Clamped()
}

// pastelNeon is a cosine palette running through pink, cyan, yellow and
// lavender as t goes from 0 to 1.
func pastelNeon(t float64) colorful.Color {
	const (
		ar, ag, ab = 0.95, 0.75, 0.95
		br, bg, bb = 0.70, 0.95, 0.95
		cr, cg, cb = 0.95, 0.95, 0.75
		dr, dg, db = 0.80, 0.70, 0.95
	)
	return colorful.Color{
		R: ar + br*math.Cos(2*math.Pi*(cr*t+dr)),
		G: ag + bg*math.Cos(2*math.Pi*(cg*t+dg)),
		B: ab + bb*math.Cos(2*math.Pi*(cb*t+db)),
	}
}

// smoothstep also accepts edge0 > edge1, giving the falling edge.
func smoothstep(edge0, edge1, x float64) float64 {
	t := (x - edge0) / (edge1 - edge0)
	t = max(0, min(t, 1))
	return t * t * (3 - 2*t)
}

func soften(v float64) float64 {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	return math.Pow(v, 0.85)
}
