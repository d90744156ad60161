// Package config holds the visualizer configuration: immutable startup
// settings (device, sample rate, FFT size) validated at the boundary,
// and a Store of runtime-mutable display knobs read by the analyzer
// each cycle.
package config

import (
	"fmt"
	"time"

	"specviz/pkg/bitint"
)

// ErrInvalidConfig tags configuration values rejected at the boundary
// before they can reach the analysis pipeline.
var ErrInvalidConfig = fmt.Errorf("invalid configuration")

const (
	// Defaults for the capture and analysis pipeline.
	DefaultDeviceID    = MinDeviceID // System default input device
	DefaultSampleRate  = 44100       // CD-quality audio
	DefaultFFTSize     = 2048        // Frequency resolution vs. latency trade-off
	DefaultWindow      = "hann"      // FFT window function
	DefaultLowLatency  = false       // Standard latency mode
	DefaultBarCount    = 32          // Display bars
	DefaultSensitivity = 1.0         // Magnitude gain
	DefaultLogLevel    = "info"
	DefaultCommand     = ""

	DefaultRefresh = 16 * time.Millisecond // ~60 FPS

	// Hardware and processing limits.
	MinDeviceID   = -1     // -1 represents the system default device
	MinSampleRate = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate = 192000 // Maximum supported sample rate (Hz)
	MinFFTSize    = 256    // Minimum FFT window (power of 2)
	MaxFFTSize    = 8192   // Maximum FFT window (power of 2)

	// Display knob bounds. SetBarCount accepts any count >= MinBarCount;
	// the keyboard steps move within [BarCountStepMin, MaxBarCount].
	MinBarCount     = 1
	MaxBarCount     = 128
	BarCountStep    = 8
	BarCountStepMin = 8

	MinSensitivity  = 0.1
	MaxSensitivity  = 10.0
	SensitivityStep = 1.2 // Multiplicative step

	MinRefresh  = 8 * time.Millisecond
	MaxRefresh  = 100 * time.Millisecond
	RefreshStep = 4 * time.Millisecond

	// RingWindows sizes the sample ring in FFT windows. A few windows of
	// slack absorb scheduling jitter between the callback and the analyzer.
	RingWindows = 8
)

// Schemes lists the display color schemes in cycling order.
var Schemes = []string{"rainbow", "blue", "green", "red", "purple", "cyan", "yellow"}

// Config holds the startup configuration, built from defaults, an
// optional YAML file and command line flags.
type Config struct {
	// Audio device settings.
	DeviceID   int     `yaml:"device"`      // Input device index (-1 for default)
	SampleRate float64 `yaml:"sample_rate"` // Sample rate in Hz
	LowLatency bool    `yaml:"low_latency"` // Request low latency from the device

	// Analysis settings.
	FFTSize int    `yaml:"fft_size"` // FFT window size (power of 2)
	Window  string `yaml:"window"`   // Window function name (e.g. "hann")

	// Display settings.
	BarCount    int           `yaml:"bars"`         // Number of spectrum bars
	Sensitivity float64       `yaml:"sensitivity"`  // Magnitude gain
	Refresh     time.Duration `yaml:"-"`            // Render interval, parsed in UnmarshalYAML
	ColorScheme string        `yaml:"color_scheme"` // One of Schemes

	// Debug options.
	LogLevel string `yaml:"log_level"`
	Command  string `yaml:"-"` // One-off command to execute (e.g. "list")
	TUIMode  bool   `yaml:"-"` // Terminal UI mode enabled
}

// NewConfig returns a Config populated with defaults. This is the base
// configuration before the YAML file and flags are applied.
func NewConfig() *Config {
	return &Config{
		DeviceID:    DefaultDeviceID,
		SampleRate:  DefaultSampleRate,
		LowLatency:  DefaultLowLatency,
		FFTSize:     DefaultFFTSize,
		Window:      DefaultWindow,
		BarCount:    DefaultBarCount,
		Sensitivity: DefaultSensitivity,
		Refresh:     DefaultRefresh,
		ColorScheme: Schemes[0],
		LogLevel:    DefaultLogLevel,
		Command:     DefaultCommand,
	}
}

// Validate rejects configurations the analysis pipeline must never see.
func (c *Config) Validate() error {
	if c.SampleRate < MinSampleRate || c.SampleRate > MaxSampleRate {
		return fmt.Errorf("%w: sample rate %.0f Hz outside [%d, %d]",
			ErrInvalidConfig, c.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if !bitint.IsPowerOfTwo(c.FFTSize) {
		return fmt.Errorf("%w: fft size must be a power of 2, got %d", ErrInvalidConfig, c.FFTSize)
	}
	if c.FFTSize < MinFFTSize || c.FFTSize > MaxFFTSize {
		return fmt.Errorf("%w: fft size %d outside [%d, %d]",
			ErrInvalidConfig, c.FFTSize, MinFFTSize, MaxFFTSize)
	}
	if c.BarCount < MinBarCount || c.BarCount > MaxBarCount {
		return fmt.Errorf("%w: bar count %d outside [%d, %d]",
			ErrInvalidConfig, c.BarCount, MinBarCount, MaxBarCount)
	}
	if c.Sensitivity < MinSensitivity || c.Sensitivity > MaxSensitivity {
		return fmt.Errorf("%w: sensitivity %.2f outside [%.1f, %.1f]",
			ErrInvalidConfig, c.Sensitivity, MinSensitivity, MaxSensitivity)
	}
	if c.Refresh < MinRefresh || c.Refresh > MaxRefresh {
		return fmt.Errorf("%w: refresh interval %s outside [%s, %s]",
			ErrInvalidConfig, c.Refresh, MinRefresh, MaxRefresh)
	}
	if c.DeviceID < MinDeviceID {
		return fmt.Errorf("%w: device id %d", ErrInvalidConfig, c.DeviceID)
	}
	if schemeIndex(c.ColorScheme) < 0 {
		return fmt.Errorf("%w: unknown color scheme %q", ErrInvalidConfig, c.ColorScheme)
	}
	return nil
}

func schemeIndex(name string) int {
	for i, s := range Schemes {
		if s == name {
			return i
		}
	}
	return -1
}
