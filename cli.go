package main

import (
	"github.com/spf13/cobra"

	"github.com/olivier-w/neonpulse/internal/config"
)

var version = "dev"

// flagValues holds CLI flags. They override the config file only when set.
type flagValues struct {
	configPath string
	volume     float64
	muted      bool
	rate       float64
	fps        int
	bins       int
	color      string
	smooth     bool
	logLevel   string
	logFile    string
	serve      string
}

func newRootCmd(run func(cfg *config.Config, path string) error) *cobra.Command {
	var fv flagValues
	def := config.Default()

	rootCmd := &cobra.Command{
		Use:           "neonpulse [file]",
		Short:         "Audio-reactive terminal visualizer",
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(fv.configPath)
			if err != nil {
				return err
			}
			applyFlags(cmd, &fv, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			var path string
			if len(args) > 0 {
				path = args[0]
			}
			return run(cfg, path)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&fv.configPath, "config", "c", "",
		"Config file (default ./"+config.DefaultFile+" when present)")
	flags.Float64VarP(&fv.volume, "volume", "v", def.Audio.Volume, "Initial volume, 0 to 1")
	flags.BoolVar(&fv.muted, "muted", false, "Start muted")
	flags.Float64VarP(&fv.rate, "rate", "r", def.Audio.Rate, "Playback rate")
	flags.IntVar(&fv.fps, "fps", def.Visual.FPS, "Visual frames per second")
	flags.IntVar(&fv.bins, "bins", def.Analysis.Bins, "Frequency bins, a power of two from 32 to 16384")
	flags.StringVar(&fv.color, "color", def.Visual.Color, "Color mode: auto, truecolor, 256, 16 or none")
	flags.BoolVar(&fv.smooth, "smooth", false, "Spring-smooth the band energies")
	flags.StringVar(&fv.logLevel, "log-level", def.LogLevel, "Log level: debug, info, warn or error")
	flags.StringVar(&fv.logFile, "log-file", "", "Write logs to this file")
	flags.StringVar(&fv.serve, "serve", "", "Broadcast band energies over WebSocket on this address")

	return rootCmd
}

func applyFlags(cmd *cobra.Command, fv *flagValues, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("volume") {
		cfg.Audio.Volume = fv.volume
	}
	if flags.Changed("muted") {
		cfg.Audio.Muted = fv.muted
	}
	if flags.Changed("rate") {
		cfg.Audio.Rate = fv.rate
	}
	if flags.Changed("fps") {
		cfg.Visual.FPS = fv.fps
	}
	if flags.Changed("bins") {
		cfg.Analysis.Bins = fv.bins
	}
	if flags.Changed("color") {
		cfg.Visual.Color = fv.color
	}
	if flags.Changed("smooth") {
		cfg.Visual.Smooth = fv.smooth
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = fv.logLevel
	}
	if flags.Changed("log-file") {
		cfg.LogFile = fv.logFile
	}
	if flags.Changed("serve") {
		cfg.Serve.Addr = fv.serve
	}
}
