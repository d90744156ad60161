// SPDX-License-Identifier: MIT

// Package analysis turns raw audio samples into normalized per-bar
// spectrum magnitudes. Each cycle pops one FFT window from the sample
// ring, applies a tapering window, transforms it, groups the magnitude
// bins into logarithmically spaced bands and publishes the result to
// the magnitude store.
package analysis

import (
	"fmt"
	"math"
	"math/cmplx"
	"sync/atomic"

	"gonum.org/v1/gonum/dsp/fourier"

	"specviz/internal/config"
	"specviz/internal/ring"
	"specviz/internal/spectrum"
	"specviz/pkg/bitint"
)

// dynamicRange is the span of the decibel-to-display mapping. A bar at
// full scale sits at 0 dBFS; a bar dynamicRange dB below full scale (or
// quieter) renders as zero.
const dynamicRange = 60.0

// magnitudeFloor guards the log compression against log(0) on silence.
// Corresponds to -120 dBFS, far below the visible range.
const magnitudeFloor = 1e-6

// Analyzer consumes sample frames from the ring and publishes smoothed
// spectrum frames. All buffers are pre-allocated; ProcessCycle performs
// no allocation unless the bar count changed since the previous cycle.
// It must be driven from a single goroutine.
type Analyzer struct {
	fftSize    int
	sampleRate float64
	fft        *fourier.FFT

	ring  *ring.Buffer
	store *spectrum.Store
	cfg   *config.Store

	window    []float64
	normGain  float64 // 2/sum(window): scales the peak bin of a full-scale sine to ~1
	frame     []float64
	coeffs    []complex128
	magnitude []float64
	bars      []float64

	bands     *bandMap
	underruns atomic.Uint64
}

// NewAnalyzer creates an Analyzer reading from rb and publishing to st.
// The bar count and sensitivity are read from cfg on every cycle.
func NewAnalyzer(fftSize int, sampleRate float64, windowType WindowFunc, rb *ring.Buffer, st *spectrum.Store, cfg *config.Store) (*Analyzer, error) {
	if !bitint.IsPowerOfTwo(fftSize) {
		return nil, fmt.Errorf("fft size must be a power of 2, got %d", fftSize)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %f", sampleRate)
	}

	win := windowCoefficients(fftSize, windowType)
	var winSum float64
	for _, w := range win {
		winSum += w
	}

	// Real FFT of n samples yields n/2+1 bins.
	outputSize := fftSize/2 + 1

	return &Analyzer{
		fftSize:    fftSize,
		sampleRate: sampleRate,
		fft:        fourier.NewFFT(fftSize),
		ring:       rb,
		store:      st,
		cfg:        cfg,
		window:     win,
		normGain:   2.0 / winSum,
		frame:      make([]float64, fftSize),
		coeffs:     make([]complex128, outputSize),
		magnitude:  make([]float64, outputSize),
	}, nil
}

// ProcessCycle runs one analysis cycle. It returns false without
// publishing when fewer than one window of samples is buffered, so the
// display decays naturally instead of stuttering. Any bar count or
// sensitivity change is picked up before the frame is produced, so a
// published frame always has the currently configured length.
func (a *Analyzer) ProcessCycle() bool {
	barCount := a.cfg.BarCount()
	sensitivity := a.cfg.Sensitivity()

	// Recompute the bin-to-bar mapping lazily on any key change.
	if !a.bands.matches(a.sampleRate, a.fftSize, barCount) {
		a.bands = newBandMap(a.sampleRate, a.fftSize, barCount)
		a.bars = make([]float64, barCount)
	}

	if !a.ring.PopFrame(a.frame) {
		a.underruns.Add(1)
		return false
	}

	for i := range a.frame {
		a.frame[i] *= a.window[i]
	}

	a.fft.Coefficients(a.coeffs, a.frame)
	for i, c := range a.coeffs {
		a.magnitude[i] = cmplx.Abs(c) * a.normGain
	}

	for b := 0; b < barCount; b++ {
		lo, hi := a.bands.edges[b], a.bands.edges[b+1]
		if hi > len(a.magnitude) {
			hi = len(a.magnitude)
		}
		peak := 0.0
		for i := lo; i < hi; i++ {
			if a.magnitude[i] > peak {
				peak = a.magnitude[i]
			}
		}
		a.bars[b] = compress(peak, sensitivity)
	}

	a.store.Publish(a.bars)
	return true
}

// compress maps a linear band magnitude to a display value in [0, 1]
// using decibel compression and the configured sensitivity gain.
func compress(magnitude, sensitivity float64) float64 {
	if magnitude < magnitudeFloor {
		magnitude = magnitudeFloor
	}
	db := 20 * math.Log10(magnitude)
	v := (db + dynamicRange) / dynamicRange * sensitivity
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Underruns returns how many cycles were skipped for lack of samples.
// Underruns are expected around device switches and are never errors.
func (a *Analyzer) Underruns() uint64 {
	return a.underruns.Load()
}

// FFTSize returns the configured FFT window size.
func (a *Analyzer) FFTSize() int {
	return a.fftSize
}

// SampleRate returns the configured sample rate in Hz.
func (a *Analyzer) SampleRate() float64 {
	return a.sampleRate
}
