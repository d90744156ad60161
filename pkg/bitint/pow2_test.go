// SPDX-License-Identifier: MIT
package bitint

import "testing"

func TestNextPowerOfTwo(t *testing.T) {
	tests := []struct {
		name string
		in   int
		want int
	}{
		{"zero", 0, 1},
		{"negative", -8, 1},
		{"one", 1, 1},
		{"exact power preserved", 1024, 1024},
		{"rounds up", 1000, 1024},
		{"just above power", 1025, 2048},
		{"small", 3, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextPowerOfTwo(tt.in); got != tt.want {
				t.Errorf("NextPowerOfTwo(%d) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsPowerOfTwo(t *testing.T) {
	tests := []struct {
		name string
		in   int
		want bool
	}{
		{"one", 1, true},
		{"typical fft size", 2048, true},
		{"not a power", 2047, false},
		{"zero", 0, false},
		{"negative power magnitude", -8, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPowerOfTwo(tt.in); got != tt.want {
				t.Errorf("IsPowerOfTwo(%d) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNextPowerOfTwoNoAllocs(t *testing.T) {
	allocs := testing.AllocsPerRun(100, func() {
		_ = NextPowerOfTwo(1000)
		_ = IsPowerOfTwo(1024)
	})
	if allocs > 0 {
		t.Errorf("expected zero allocations, got %.1f", allocs)
	}
}
