package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/olivier-w/neonpulse/internal/analysis"
	"github.com/olivier-w/neonpulse/internal/log"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "neonpulse.yaml"

const envPrefix = "NEONPULSE_"

const (
	MinFPS  = 1
	MaxFPS  = 120
	MaxRate = 16.0
)

// Config is the application configuration, loaded from YAML.
type Config struct {
	LogLevel string         `yaml:"log_level"`
	LogFile  string         `yaml:"log_file"` // empty disables logging
	Audio    AudioConfig    `yaml:"audio"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Visual   VisualConfig   `yaml:"visual"`
	Serve    ServeConfig    `yaml:"serve"`
}

// AudioConfig holds the initial transport settings.
type AudioConfig struct {
	Volume float64 `yaml:"volume"`
	Muted  bool    `yaml:"muted"`
	Rate   float64 `yaml:"rate"`
}

// AnalysisConfig mirrors analysis.Config.
type AnalysisConfig struct {
	Bins        int     `yaml:"bins"`
	Smoothing   float64 `yaml:"smoothing"`
	MinDecibels float64 `yaml:"min_decibels"`
	MaxDecibels float64 `yaml:"max_decibels"`
}

// VisualConfig controls the render loop.
type VisualConfig struct {
	FPS    int    `yaml:"fps"`
	Color  string `yaml:"color"`  // auto, truecolor, 256, 16 or none
	Smooth bool   `yaml:"smooth"` // spring-smooth the band values
}

// ServeConfig enables the band broadcast endpoint.
type ServeConfig struct {
	Addr string `yaml:"addr"` // e.g. "127.0.0.1:8077", empty disables
}

// Default returns the built-in configuration.
func Default() *Config {
	a := analysis.DefaultConfig()
	return &Config{
		LogLevel: "info",
		Audio: AudioConfig{
			Volume: 0.8,
			Rate:   1,
		},
		Analysis: AnalysisConfig{
			Bins:        a.BinCount,
			Smoothing:   a.Smoothing,
			MinDecibels: a.MinDecibels,
			MaxDecibels: a.MaxDecibels,
		},
		Visual: VisualConfig{
			FPS:   30,
			Color: "auto",
		},
	}
}

// Load reads the configuration at path. With an empty path DefaultFile is
// used when it exists, otherwise the defaults. Environment overrides are
// applied after the file, then the result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found", path)
			}
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if _, ok := log.ParseLevel(c.LogLevel); !ok {
		return fmt.Errorf("log_level %q is not one of debug, info, warn, error", c.LogLevel)
	}
	if math.IsNaN(c.Audio.Volume) || c.Audio.Volume < 0 || c.Audio.Volume > 1 {
		return fmt.Errorf("audio.volume must be in [0, 1], got %v", c.Audio.Volume)
	}
	if math.IsNaN(c.Audio.Rate) || c.Audio.Rate <= 0 || c.Audio.Rate > MaxRate {
		return fmt.Errorf("audio.rate must be in (0, %v], got %v", MaxRate, c.Audio.Rate)
	}
	if err := c.AnalysisConfig().Validate(); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}
	if c.Visual.FPS < MinFPS || c.Visual.FPS > MaxFPS {
		return fmt.Errorf("visual.fps must be in [%d, %d], got %d", MinFPS, MaxFPS, c.Visual.FPS)
	}
	switch strings.ToLower(c.Visual.Color) {
	case "auto", "truecolor", "24bit", "256", "ansi256", "16", "ansi", "none", "off", "ascii":
	default:
		return fmt.Errorf("visual.color %q is not one of auto, truecolor, 256, 16, none", c.Visual.Color)
	}
	return nil
}

// AnalysisConfig converts the analysis section.
func (c *Config) AnalysisConfig() analysis.Config {
	return analysis.Config{
		BinCount:    c.Analysis.Bins,
		Smoothing:   c.Analysis.Smoothing,
		MinDecibels: c.Analysis.MinDecibels,
		MaxDecibels: c.Analysis.MaxDecibels,
	}
}

// applyEnvOverrides reads NEONPULSE_* variables. Values that fail to parse
// are ignored.
func (c *Config) applyEnvOverrides() {
	if val, ok := lookupEnv("LOG_LEVEL"); ok {
		c.LogLevel = val
	}
	if val, ok := lookupEnv("LOG_FILE"); ok {
		c.LogFile = val
	}
	if val, ok := lookupEnv("VOLUME"); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			c.Audio.Volume = f
		}
	}
	if val, ok := lookupEnv("MUTED"); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			c.Audio.Muted = b
		}
	}
	if val, ok := lookupEnv("RATE"); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			c.Audio.Rate = f
		}
	}
	if val, ok := lookupEnv("BINS"); ok {
		if n, err := strconv.Atoi(val); err == nil {
			c.Analysis.Bins = n
		}
	}
	if val, ok := lookupEnv("FPS"); ok {
		if n, err := strconv.Atoi(val); err == nil {
			c.Visual.FPS = n
		}
	}
	if val, ok := lookupEnv("COLOR"); ok {
		c.Visual.Color = val
	}
	if val, ok := lookupEnv("SMOOTH"); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			c.Visual.Smooth = b
		}
	}
	if val, ok := lookupEnv("SERVE"); ok {
		c.Serve.Addr = val
	}
}

func lookupEnv(name string) (string, bool) {
	val, ok := os.LookupEnv(envPrefix + name)
	if ok {
		log.Debugf("config: %s%s overrides the file value", envPrefix, name)
	}
	return val, ok
}
