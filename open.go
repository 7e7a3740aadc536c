package main

import (
	"fmt"
	"os"

	"github.com/olivier-w/neonpulse/internal/config"
	"github.com/olivier-w/neonpulse/internal/media"
	"github.com/olivier-w/neonpulse/internal/player"
	"github.com/olivier-w/neonpulse/internal/render"
	"github.com/olivier-w/neonpulse/internal/ui"
	"github.com/olivier-w/neonpulse/internal/visualizer"
)

// session carries what every playback screen is built from.
type session struct {
	cfg  *config.Config
	sink visualizer.BandSink // nil unless --serve is set
}

// buildPlaybackModel opens path and wires the controller, the surface and
// the frame driver into a player screen. Nothing is played yet.
func (s *session) buildPlaybackModel(path string) (ui.Model, error) {
	info, err := os.Stat(path)
	if err != nil {
		return ui.Model{}, err
	}
	if info.IsDir() {
		return ui.Model{}, fmt.Errorf("%s is a directory", path)
	}

	profile, err := render.ParseColorMode(s.cfg.Visual.Color)
	if err != nil {
		return ui.Model{}, err
	}

	opts := player.DefaultOptions()
	opts.Analysis = s.cfg.AnalysisConfig()
	opts.Volume = s.cfg.Audio.Volume
	opts.Muted = s.cfg.Audio.Muted
	opts.Rate = s.cfg.Audio.Rate

	ctrl, err := player.New(path, opts)
	if err != nil {
		return ui.Model{}, err
	}
	if err := ctrl.Load(); err != nil {
		ctrl.Teardown()
		return ui.Model{}, fmt.Errorf("%w (supported: %s)", err, media.SupportedExtsList())
	}

	driverOpts := []visualizer.Option{
		visualizer.WithFPS(s.cfg.Visual.FPS),
		visualizer.WithSmoothing(s.cfg.Visual.Smooth),
	}
	if s.sink != nil {
		driverOpts = append(driverOpts, visualizer.WithBandSink(s.sink))
	}

	surface := render.NewSurface(profile)
	return ui.New(ctrl, visualizer.NewDriver(surface, driverOpts...), surface), nil
}
