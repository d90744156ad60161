package analysis

import (
	"math"
	"testing"
)

func TestParseWindowFunc(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    WindowFunc
		wantErr bool
	}{
		{"hann", "hann", Hann, false},
		{"hanning alias", "Hanning", Hann, false},
		{"case insensitive", "BLACKMAN", Blackman, false},
		{"hamming", "hamming", Hamming, false},
		{"nuttall", "nuttall", Nuttall, false},
		{"unknown falls back to hann", "sinc", Hann, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseWindowFunc(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseWindowFunc(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseWindowFunc(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestWindowCoefficients(t *testing.T) {
	const n = 1024
	coeffs := windowCoefficients(n, Hann)

	if len(coeffs) != n {
		t.Fatalf("expected %d coefficients, got %d", n, len(coeffs))
	}

	// Hann tapers to zero at the edges and peaks near the middle.
	if coeffs[0] > 1e-9 {
		t.Errorf("Hann edge coefficient = %f, want ~0", coeffs[0])
	}
	if math.Abs(coeffs[n/2]-1.0) > 0.01 {
		t.Errorf("Hann center coefficient = %f, want ~1", coeffs[n/2])
	}
	for i, c := range coeffs {
		if c < 0 || c > 1 {
			t.Fatalf("coefficient %d out of range: %f", i, c)
		}
	}
}
