package main

import (
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"specviz/cmd"
	"specviz/internal/audio"
	"specviz/internal/config"
	"specviz/internal/log"
	"specviz/internal/tui"
	"specviz/pkg/build"
)

// main runs in three phases:
//
// 1. Startup (cold path): parse flags and config, initialize PortAudio,
// handle one-off commands like device listing.
//
// 2. Concurrent (hot path): the capture callback feeds the sample ring,
// the background analyzer publishes spectrum frames, and the terminal
// UI reads snapshots at its own refresh rate.
//
// 3. Shutdown (cold path): stop the capture stream first, let the
// analyzer drain, restore the terminal.
func main() {
	// ==================== STARTUP PHASE ====================

	// Two busy threads: the PortAudio callback and the analysis loop.
	// The UI is mostly idle between ticks.
	runtime.GOMAXPROCS(2)

	cfg, err := cmd.ParseArgs()
	if err != nil {
		log.Fatalf("%v", err)
	}

	if level, ok := log.ParseLevel(cfg.LogLevel); ok {
		log.SetLevel(level)
	}
	info := build.GetInfo()
	log.Debugf("%s %s (%s)", info.Name, info.Version, info.Commit)

	if err := audio.Initialize(); err != nil {
		log.Fatalf("%v", err)
	}
	defer audio.Terminate()

	if cfg.Command == "list" {
		if err := audio.ListDevices(); err != nil {
			log.Fatalf("%v", err)
		}
		return
	}

	if !cfg.TUIMode {
		return
	}

	// ==================== CONCURRENT PHASE ====================

	store := config.NewStore(cfg)

	// Construction fails only when no input device can be opened at
	// all; everything after this point degrades gracefully instead.
	engine, err := audio.NewEngine(cfg, store)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := engine.Start(); err != nil {
		log.Fatalf("%v", err)
	}

	devices, err := audio.InputDevices()
	if err != nil {
		log.Warnf("Could not enumerate input devices: %v", err)
	}

	// The alternate screen owns the terminal now; keep log noise out
	// of it.
	log.SetOutput(io.Discard)

	program := tea.NewProgram(
		tui.New(engine, store, devices),
		tea.WithAltScreen(),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		program.Quit()
	}()

	_, runErr := program.Run()

	// ==================== SHUTDOWN PHASE ====================

	log.SetOutput(os.Stderr)

	if err := engine.Close(); err != nil {
		log.Errorf("Error closing audio engine: %v", err)
	}
	if runErr != nil {
		log.Fatalf("%v", runErr)
	}
}
