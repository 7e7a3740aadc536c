package main

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/olivier-w/neonpulse/internal/config"
	"github.com/olivier-w/neonpulse/internal/log"
	"github.com/olivier-w/neonpulse/internal/transport"
	"github.com/olivier-w/neonpulse/internal/ui"
)

func main() {
	if err := newRootCmd(run).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, path string) error {
	if cfg.LogFile != "" {
		f, err := tea.LogToFile(cfg.LogFile, "neonpulse")
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		log.SetOutput(f)
	}
	level, _ := log.ParseLevel(cfg.LogLevel)
	log.SetLevel(level)

	s := &session{cfg: cfg}
	if cfg.Serve.Addr != "" {
		b := transport.NewBroadcaster()
		if _, err := b.Listen(cfg.Serve.Addr); err != nil {
			return fmt.Errorf("serving bands: %w", err)
		}
		defer b.Close()
		s.sink = b
	}

	var model tea.Model
	if path == "" {
		model = newStartupModel(s.buildPlaybackModel)
	} else {
		m, err := s.buildPlaybackModel(path)
		if err != nil {
			return err
		}
		model = m
	}

	program := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithFPS(max(60, cfg.Visual.FPS)),
	)
	final, err := program.Run()

	// Quitting tears the player down already; this covers the error paths.
	if pm, ok := final.(ui.Model); ok {
		pm.Shutdown()
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
