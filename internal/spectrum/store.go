// SPDX-License-Identifier: MIT

// Package spectrum owns the smoothed bar-magnitude state shared between
// the analyzer (writer) and the render loop (reader).
//
// Smoothing is asymmetric: rising bars are adopted immediately while
// falling bars step down by a fixed amount per published frame, which
// gives rising bars and gently falling trails instead of flicker.
// Readers get copy-on-publish snapshots through an atomic pointer, so a
// snapshot is never torn and never blocks the analyzer.
package spectrum

import "sync/atomic"

// DefaultDecayStep is the per-cycle fall applied to a bar whose new raw
// value is below its smoothed value. A bar at full scale reaches zero
// in 1/DefaultDecayStep cycles of silence.
const DefaultDecayStep = 0.05

// Store holds the most recent smoothed spectrum. Publish must be called
// from a single goroutine (the analyzer); Snapshot is safe to call
// concurrently from any goroutine.
type Store struct {
	decayStep float64
	smoothed  []float64 // writer-owned smoothing state
	snap      atomic.Pointer[[]float64]
}

// NewStore creates a Store with barCount bars, all starting at zero.
func NewStore(barCount int, decayStep float64) *Store {
	if decayStep <= 0 {
		decayStep = DefaultDecayStep
	}
	s := &Store{
		decayStep: decayStep,
		smoothed:  make([]float64, barCount),
	}
	initial := make([]float64, barCount)
	s.snap.Store(&initial)
	return s
}

// Publish folds a raw spectrum frame into the smoothing state and makes
// the result visible to readers. Values are expected in [0, 1] and are
// clamped on the way in. A frame with a different bar count resets the
// smoothing state at the new length, so readers never observe a
// mixed-length spectrum.
func (s *Store) Publish(frame []float64) {
	if len(frame) != len(s.smoothed) {
		s.smoothed = make([]float64, len(frame))
	}

	for i, raw := range frame {
		if raw < 0 || raw != raw { // clamp negatives and NaN to silence
			raw = 0
		} else if raw > 1 {
			raw = 1
		}

		cur := s.smoothed[i]
		if raw >= cur {
			// Attack: adopt rising values immediately.
			cur = raw
		} else {
			// Decay: bounded step down, never below the raw value.
			cur -= s.decayStep
			if cur < raw {
				cur = raw
			}
		}
		s.smoothed[i] = cur
	}

	out := make([]float64, len(s.smoothed))
	copy(out, s.smoothed)
	s.snap.Store(&out)
}

// Snapshot returns a copy of the latest smoothed spectrum. The returned
// slice is owned by the caller. The copy is taken from an immutable
// published frame, so it is always complete and consistent.
func (s *Store) Snapshot() []float64 {
	cur := *s.snap.Load()
	out := make([]float64, len(cur))
	copy(out, cur)
	return out
}

// SnapshotInto copies the latest smoothed spectrum into dst and returns
// the number of bars copied. Allocation-free variant of Snapshot for
// callers that reuse a buffer; if dst is shorter than the spectrum the
// copy is truncated.
func (s *Store) SnapshotInto(dst []float64) int {
	return copy(dst, *s.snap.Load())
}

// Bars returns the bar count of the latest published spectrum.
func (s *Store) Bars() int {
	return len(*s.snap.Load())
}
