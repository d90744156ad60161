// SPDX-License-Identifier: MIT
package utils

import (
	"math"
	"testing"
)

func TestGenerateSineWave(t *testing.T) {
	const (
		size       = 4096
		sampleRate = 44100.0
		frequency  = 1000.0
	)

	buffer := GenerateSineWave(size, sampleRate, frequency)

	if len(buffer) != size {
		t.Fatalf("expected %d samples, got %d", size, len(buffer))
	}

	// Amplitude stays within the 0.9 full-scale bound.
	for i, s := range buffer {
		if math.Abs(s) > 0.9+1e-9 {
			t.Fatalf("sample %d out of range: %f", i, s)
		}
	}

	// One full period later the signal repeats.
	period := int(math.Floor(sampleRate / frequency))
	if diff := math.Abs(buffer[0] - buffer[period*10]); diff > 0.05 {
		t.Errorf("signal not periodic: diff %f after 10 periods", diff)
	}
}

func TestFindPeakBar(t *testing.T) {
	tests := []struct {
		name string
		bars []float64
		want int
	}{
		{"empty", nil, -1},
		{"single", []float64{0.5}, 0},
		{"middle peak", []float64{0.1, 0.9, 0.2}, 1},
		{"first of equal peaks", []float64{0.5, 0.5}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FindPeakBar(tt.bars); got != tt.want {
				t.Errorf("FindPeakBar(%v) = %d, want %d", tt.bars, got, tt.want)
			}
		})
	}
}
