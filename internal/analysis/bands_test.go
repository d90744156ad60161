package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBandMapEdges(t *testing.T) {
	tests := []struct {
		name       string
		sampleRate float64
		fftSize    int
		barCount   int
	}{
		{"default", 44100, 2048, 32},
		{"single bar", 44100, 2048, 1},
		{"many bars", 48000, 4096, 128},
		{"small fft", 44100, 256, 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newBandMap(tt.sampleRate, tt.fftSize, tt.barCount)
			require.Len(t, m.edges, tt.barCount+1)

			maxBin := tt.fftSize / 2
			assert.GreaterOrEqual(t, m.edges[0], 1, "first edge must skip the DC bin")
			for i := 1; i < len(m.edges); i++ {
				assert.Greater(t, m.edges[i], m.edges[i-1],
					"edges must be strictly ascending (edge %d)", i)
				assert.LessOrEqual(t, m.edges[i], maxBin+1,
					"edges must not pass Nyquist (edge %d)", i)
			}
		})
	}
}

func TestBandMapIsLogarithmic(t *testing.T) {
	m := newBandMap(44100, 4096, 16)

	// High bands must group more bins than low bands.
	lowWidth := m.edges[1] - m.edges[0]
	highWidth := m.edges[16] - m.edges[15]
	assert.Greater(t, highWidth, lowWidth)
}

func TestBandMapMatches(t *testing.T) {
	m := newBandMap(44100, 2048, 32)

	assert.True(t, m.matches(44100, 2048, 32))
	assert.False(t, m.matches(44100, 2048, 48), "bar count change must invalidate the cache")
	assert.False(t, m.matches(48000, 2048, 32), "sample rate change must invalidate the cache")
	assert.False(t, m.matches(44100, 4096, 32), "fft size change must invalidate the cache")

	var nilMap *bandMap
	assert.False(t, nilMap.matches(44100, 2048, 32))
}
