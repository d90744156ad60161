// SPDX-License-Identifier: MIT
package audio

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"specviz/internal/config"
	"specviz/internal/ring"
)

func popAll(t *testing.T, rb *ring.Buffer, n int) []float64 {
	t.Helper()
	out := make([]float64, n)
	if !rb.PopFrame(out) {
		t.Fatalf("expected %d buffered samples, have %d", n, rb.Len())
	}
	return out
}

func TestPushSamplesMono(t *testing.T) {
	rb := ring.New(64)
	in := []float32{0.1, -0.2, 0.3, -0.4}

	pushSamples(rb, in, 1)

	got := popAll(t, rb, len(in))
	for i, v := range in {
		if math.Abs(got[i]-float64(v)) > 1e-9 {
			t.Errorf("sample %d = %f, want %f", i, got[i], v)
		}
	}
}

func TestPushSamplesStereoAverages(t *testing.T) {
	rb := ring.New(64)
	// Three stereo frames, left and right distinct.
	in := []float32{1.0, 0.0, 0.5, -0.5, -1.0, 1.0}
	want := []float64{0.5, 0.0, 0.0}

	pushSamples(rb, in, 2)

	got := popAll(t, rb, len(want))
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("frame %d = %f, want %f", i, got[i], want[i])
		}
	}
}

func TestPushSamplesIgnoresPartialFrame(t *testing.T) {
	rb := ring.New(64)
	// Two complete stereo frames plus a dangling left sample.
	in := []float32{0.2, 0.4, 0.6, 0.8, 0.99}

	pushSamples(rb, in, 2)

	if got := rb.Len(); got != 2 {
		t.Errorf("ring holds %d samples, want 2 (partial frame dropped)", got)
	}
}

func TestPushSamplesQuadDownmix(t *testing.T) {
	rb := ring.New(64)
	in := []float32{0.4, 0.4, 0.4, 0.4, 1.0, 0.0, 0.0, 0.0}
	want := []float64{0.4, 0.25}

	pushSamples(rb, in, 4)

	got := popAll(t, rb, len(want))
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-6 {
			t.Errorf("frame %d = %f, want %f", i, got[i], want[i])
		}
	}
}

// TestSwitchSequenceDropsStaleSamples runs the ring operations a device
// switch performs, with the capture of the old stream stopped before
// the drain request and the new stream pushing after it. The first
// frame produced afterwards must hold samples only from the new stream.
func TestSwitchSequenceDropsStaleSamples(t *testing.T) {
	rb := ring.New(256)

	stale := make([]float32, 128)
	for i := range stale {
		stale[i] = 0.5
	}
	pushSamples(rb, stale, 1)

	rb.RequestDrain()

	fresh := make([]float32, 128)
	for i := range fresh {
		fresh[i] = -0.25
	}
	pushSamples(rb, fresh, 1)

	frame := make([]float64, 64)
	if !rb.PopFrame(frame) {
		t.Fatal("no frame available from the new stream")
	}
	for i, v := range frame {
		if v != -0.25 {
			t.Fatalf("frame[%d] = %f: stale sample leaked across the switch", i, v)
		}
	}
}

// TestRecoverStopsOnCancel verifies that recovery abandons its backoff
// as soon as the context is cancelled, without entering the
// persistent-error state.
func TestRecoverStopsOnCancel(t *testing.T) {
	s := &Source{
		ring:       ring.New(64),
		lastGoodID: config.MinDeviceID,
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Recover(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Recover returned %v, want context.Canceled", err)
	}
	if s.Failed() {
		t.Error("cancelled recovery must not mark the source failed")
	}

	// Cancelling mid-backoff returns well before the retry budget runs
	// out.
	ctx, cancel = context.WithCancel(context.Background())
	timer := time.AfterFunc(20*time.Millisecond, cancel)
	defer timer.Stop()

	begin := time.Now()
	err := s.Recover(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Recover returned %v, want context.Canceled", err)
	}
	if elapsed := time.Since(begin); elapsed > time.Second {
		t.Errorf("Recover took %s after cancellation", elapsed)
	}
	if s.Failed() {
		t.Error("cancelled recovery must not mark the source failed")
	}
}

func TestPushSamplesZeroAlloc(t *testing.T) {
	rb := ring.New(4096)
	in := make([]float32, 256)
	scratch := make([]float64, 128)

	allocs := testing.AllocsPerRun(100, func() {
		pushSamples(rb, in, 2)
		rb.PopFrame(scratch)
	})
	if allocs != 0 {
		t.Errorf("capture path allocated %.1f times per run, want 0", allocs)
	}
}
