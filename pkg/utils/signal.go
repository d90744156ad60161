// Package utils provides deterministic test signals for the analysis
// pipeline tests.
package utils

import "math"

// GenerateSineWave returns size samples of a pure sine at frequency Hz,
// normalized to ~0.9 full scale.
func GenerateSineWave(size int, sampleRate, frequency float64) []float64 {
	buffer := make([]float64, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = math.Sin(2*math.Pi*frequency*t) * 0.9
	}
	return buffer
}

// GenerateComplexWave returns a 440Hz fundamental with two harmonics,
// useful for exercising multiple bands at once.
func GenerateComplexWave(size int, sampleRate float64) []float64 {
	buffer := make([]float64, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = math.Sin(2*math.Pi*440*t)*0.5 +
			math.Sin(2*math.Pi*880*t)*0.3 +
			math.Sin(2*math.Pi*1320*t)*0.2
	}
	return buffer
}

// GenerateSilence returns size zero-valued samples.
func GenerateSilence(size int) []float64 {
	return make([]float64, size)
}

// FindPeakBar returns the index of the largest value in bars,
// or -1 for an empty slice.
func FindPeakBar(bars []float64) int {
	if len(bars) == 0 {
		return -1
	}
	peak := 0
	for i := 1; i < len(bars); i++ {
		if bars[i] > bars[peak] {
			peak = i
		}
	}
	return peak
}
