package config

import (
	"fmt"
	"math"
	"sync/atomic"
	"time"
)

// Store holds the runtime-mutable display knobs. The UI mutates them in
// response to key presses; the analyzer and render loop read them once
// per cycle. Every field is an atomic so neither side ever blocks the
// other, and any mutation is observed within one cycle.
type Store struct {
	barCount    atomic.Int64
	sensitivity atomic.Uint64 // float64 bits
	refresh     atomic.Int64  // nanoseconds
	deviceID    atomic.Int64
	scheme      atomic.Int64 // index into Schemes
}

// NewStore seeds a Store from a validated startup Config.
func NewStore(cfg *Config) *Store {
	s := &Store{}
	s.barCount.Store(int64(cfg.BarCount))
	s.sensitivity.Store(math.Float64bits(cfg.Sensitivity))
	s.refresh.Store(int64(cfg.Refresh))
	s.deviceID.Store(int64(cfg.DeviceID))
	s.scheme.Store(int64(schemeIndex(cfg.ColorScheme)))
	return s
}

// BarCount returns the current number of spectrum bars.
func (s *Store) BarCount() int {
	return int(s.barCount.Load())
}

// SetBarCount applies a new bar count, rejecting invalid values before
// they can reach the analyzer.
func (s *Store) SetBarCount(n int) error {
	if n < MinBarCount || n > MaxBarCount {
		return fmt.Errorf("%w: bar count %d outside [%d, %d]", ErrInvalidConfig, n, MinBarCount, MaxBarCount)
	}
	s.barCount.Store(int64(n))
	return nil
}

// IncreaseBarCount steps the bar count up by BarCountStep, clamped to MaxBarCount.
func (s *Store) IncreaseBarCount() {
	n := s.BarCount() + BarCountStep
	if n > MaxBarCount {
		n = MaxBarCount
	}
	s.barCount.Store(int64(n))
}

// DecreaseBarCount steps the bar count down by BarCountStep, clamped to
// BarCountStepMin.
func (s *Store) DecreaseBarCount() {
	n := s.BarCount() - BarCountStep
	if n < BarCountStepMin {
		n = BarCountStepMin
	}
	s.barCount.Store(int64(n))
}

// Sensitivity returns the current magnitude gain.
func (s *Store) Sensitivity() float64 {
	return math.Float64frombits(s.sensitivity.Load())
}

// SetSensitivity applies a new gain, rejecting values outside the valid range.
func (s *Store) SetSensitivity(v float64) error {
	if v < MinSensitivity || v > MaxSensitivity || math.IsNaN(v) {
		return fmt.Errorf("%w: sensitivity %.2f outside [%.1f, %.1f]", ErrInvalidConfig, v, MinSensitivity, MaxSensitivity)
	}
	s.sensitivity.Store(math.Float64bits(v))
	return nil
}

// IncreaseSensitivity multiplies the gain by SensitivityStep, clamped to MaxSensitivity.
func (s *Store) IncreaseSensitivity() {
	v := s.Sensitivity() * SensitivityStep
	if v > MaxSensitivity {
		v = MaxSensitivity
	}
	s.sensitivity.Store(math.Float64bits(v))
}

// DecreaseSensitivity divides the gain by SensitivityStep, clamped to MinSensitivity.
func (s *Store) DecreaseSensitivity() {
	v := s.Sensitivity() / SensitivityStep
	if v < MinSensitivity {
		v = MinSensitivity
	}
	s.sensitivity.Store(math.Float64bits(v))
}

// Refresh returns the current render interval.
func (s *Store) Refresh() time.Duration {
	return time.Duration(s.refresh.Load())
}

// FasterRefresh shortens the render interval by RefreshStep, clamped to MinRefresh.
func (s *Store) FasterRefresh() {
	d := s.Refresh() - RefreshStep
	if d < MinRefresh {
		d = MinRefresh
	}
	s.refresh.Store(int64(d))
}

// SlowerRefresh lengthens the render interval by RefreshStep, clamped to MaxRefresh.
func (s *Store) SlowerRefresh() {
	d := s.Refresh() + RefreshStep
	if d > MaxRefresh {
		d = MaxRefresh
	}
	s.refresh.Store(int64(d))
}

// DeviceID returns the currently selected input device.
func (s *Store) DeviceID() int {
	return int(s.deviceID.Load())
}

// SetDeviceID records the selected input device after a successful switch.
func (s *Store) SetDeviceID(id int) {
	s.deviceID.Store(int64(id))
}

// Scheme returns the name of the active color scheme.
func (s *Store) Scheme() string {
	return Schemes[int(s.scheme.Load())%len(Schemes)]
}

// NextScheme cycles to the next color scheme.
func (s *Store) NextScheme() {
	s.scheme.Store((s.scheme.Load() + 1) % int64(len(Schemes)))
}
