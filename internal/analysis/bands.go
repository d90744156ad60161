package analysis

import "math"

// minBandFreq is the low edge of the first display band. Anything below
// is dominated by DC and windowing artifacts.
const minBandFreq = 20.0

// bandMap caches the logarithmic grouping of FFT bins into display
// bars for one (sampleRate, fftSize, barCount) key. Low bands span few
// bins, high bands span many, matching perceptual frequency resolution.
type bandMap struct {
	sampleRate float64
	fftSize    int
	barCount   int
	edges      []int // barCount+1 ascending bin indexes; band b is [edges[b], edges[b+1])
}

// newBandMap computes band edges from minBandFreq up to Nyquist,
// geometrically spaced, snapped to bin indexes and forced strictly
// ascending so every band covers at least one bin where possible.
func newBandMap(sampleRate float64, fftSize, barCount int) *bandMap {
	binWidth := sampleRate / float64(fftSize)
	maxBin := fftSize / 2 // mirror half and anything above Nyquist discarded

	low := minBandFreq
	if low < binWidth {
		low = binWidth
	}
	high := sampleRate / 2
	ratio := high / low

	edges := make([]int, barCount+1)
	for i := range edges {
		f := low * math.Pow(ratio, float64(i)/float64(barCount))
		bin := int(math.Round(f / binWidth))
		if bin < 1 {
			bin = 1 // skip the DC bin
		}
		if bin > maxBin {
			bin = maxBin
		}
		edges[i] = bin
	}

	// Force strictly ascending edges; geometric spacing collapses
	// neighbours at the low end where bands are narrower than one bin.
	for i := 1; i < len(edges); i++ {
		if edges[i] <= edges[i-1] {
			edges[i] = edges[i-1] + 1
		}
		if edges[i] > maxBin+1 {
			edges[i] = maxBin + 1
		}
	}

	return &bandMap{
		sampleRate: sampleRate,
		fftSize:    fftSize,
		barCount:   barCount,
		edges:      edges,
	}
}

// matches reports whether the cached map is valid for the given key.
func (m *bandMap) matches(sampleRate float64, fftSize, barCount int) bool {
	return m != nil &&
		m.sampleRate == sampleRate &&
		m.fftSize == fftSize &&
		m.barCount == barCount
}
