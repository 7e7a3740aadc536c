package visualizer

import (
	"github.com/charmbracelet/harmonica"

	"github.com/olivier-w/neonpulse/internal/analysis"
)

const (
	springFrequency = 9.0
	springDamping   = 1.0
)

// bandSpring eases each band toward its latest value.
type bandSpring struct {
	spring harmonica.Spring
	pos    [3]float64
	vel    [3]float64
}

func newBandSpring(fps int) bandSpring {
	return bandSpring{spring: harmonica.NewSpring(harmonica.FPS(fps), springFrequency, springDamping)}
}

func (s *bandSpring) step(target analysis.BandEnergies) analysis.BandEnergies {
	in := [3]float64{target.Low, target.Mid, target.High}
	for i, v := range in {
		s.pos[i], s.vel[i] = s.spring.Update(s.pos[i], s.vel[i], v)
		s.pos[i] = max(0, min(1, s.pos[i]))
	}
	return analysis.BandEnergies{Low: s.pos[0], Mid: s.pos[1], High: s.pos[2]}
}

func (s *bandSpring) reset() {
	s.pos = [3]float64{}
	s.vel = [3]float64{}
}
