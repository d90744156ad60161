package spectrum

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotLengthAndRange(t *testing.T) {
	s := NewStore(16, DefaultDecayStep)

	// Out-of-range raw values are clamped on the way in.
	frame := make([]float64, 16)
	frame[0] = -0.5
	frame[1] = 1.5
	frame[2] = math.NaN()
	frame[3] = 0.42
	s.Publish(frame)

	snap := s.Snapshot()
	require.Len(t, snap, 16)
	for i, v := range snap {
		assert.GreaterOrEqual(t, v, 0.0, "bar %d", i)
		assert.LessOrEqual(t, v, 1.0, "bar %d", i)
		assert.False(t, math.IsNaN(v), "bar %d is NaN", i)
	}
	assert.Equal(t, 0.42, snap[3])
}

func TestInitialStateIsZero(t *testing.T) {
	s := NewStore(8, DefaultDecayStep)
	snap := s.Snapshot()
	require.Len(t, snap, 8)
	for _, v := range snap {
		assert.Zero(t, v)
	}
}

func TestAttackIsImmediate(t *testing.T) {
	s := NewStore(4, DefaultDecayStep)
	s.Publish([]float64{0.1, 0.1, 0.1, 0.1})
	s.Publish([]float64{0.9, 0.2, 0.9, 0.2})

	snap := s.Snapshot()
	assert.Equal(t, 0.9, snap[0], "rising value must be adopted at once")
	assert.Equal(t, 0.9, snap[2])
}

func TestDecayIsMonotonicAndBounded(t *testing.T) {
	const decayStep = 0.05
	s := NewStore(1, decayStep)
	s.Publish([]float64{1.0})

	zero := []float64{0.0}
	prev := s.Snapshot()[0]
	require.Equal(t, 1.0, prev)

	// One publish per cycle of silence: the value falls by exactly
	// decayStep each cycle until it reaches zero.
	maxCycles := int(1.0/decayStep) + 1
	reached := -1
	for cycle := 1; cycle <= maxCycles; cycle++ {
		s.Publish(zero)
		cur := s.Snapshot()[0]
		assert.Less(t, cur, prev, "cycle %d: decay must be monotonic", cycle)
		assert.GreaterOrEqual(t, cur, 0.0)
		if cur == 0 {
			reached = cycle
			break
		}
		prev = cur
	}
	require.NotEqual(t, -1, reached, "value never reached zero within %d cycles", maxCycles)
	assert.Equal(t, int(1.0/decayStep), reached, "decay cycle count must be deterministic")
}

func TestSilenceConvergence(t *testing.T) {
	s := NewStore(8, DefaultDecayStep)
	frame := []float64{0.7, 0.3, 1.0, 0.05, 0.6, 0.2, 0.9, 0.4}
	s.Publish(frame)

	zero := make([]float64, 8)
	for i := 0; i < 25; i++ {
		s.Publish(zero)
	}

	const epsilon = 1e-9
	for i, v := range s.Snapshot() {
		assert.LessOrEqual(t, v, epsilon, "bar %d did not converge", i)
		assert.False(t, math.IsNaN(v))
		assert.GreaterOrEqual(t, v, 0.0)
	}
}

func TestBarCountChangeResetsState(t *testing.T) {
	s := NewStore(4, DefaultDecayStep)
	s.Publish([]float64{1, 1, 1, 1})
	require.Len(t, s.Snapshot(), 4)

	// A different-length frame replaces the smoothing state wholesale:
	// the very next snapshot has the new length and carries nothing
	// over from the old bars.
	next := []float64{0.3, 0.3, 0.3, 0.3, 0.3, 0.3, 0.3, 0.3}
	s.Publish(next)

	snap := s.Snapshot()
	require.Len(t, snap, 8)
	assert.Equal(t, 8, s.Bars())
	for i, v := range snap {
		assert.Equal(t, 0.3, v, "bar %d", i)
	}
}

func TestSnapshotInto(t *testing.T) {
	s := NewStore(4, DefaultDecayStep)
	s.Publish([]float64{0.1, 0.2, 0.3, 0.4})

	dst := make([]float64, 4)
	n := s.SnapshotInto(dst)
	require.Equal(t, 4, n)
	assert.Equal(t, []float64{0.1, 0.2, 0.3, 0.4}, dst)
}

// TestConcurrentPublishSnapshot exercises the copy-on-publish path
// under the race detector: readers must always see a complete spectrum
// of a single publish, never a torn mix.
func TestConcurrentPublishSnapshot(t *testing.T) {
	s := NewStore(32, DefaultDecayStep)

	var readers sync.WaitGroup
	stop := make(chan struct{})
	pubDone := make(chan struct{})

	go func() {
		defer close(pubDone)
		frame := make([]float64, 32)
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			level := float64(i%10) / 10
			for j := range frame {
				frame[j] = level
			}
			s.Publish(frame)
		}
	}()

	for r := 0; r < 4; r++ {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for i := 0; i < 1000; i++ {
				snap := s.Snapshot()
				if len(snap) != 32 {
					t.Errorf("torn snapshot: length %d", len(snap))
					return
				}
				// All bars of one publish share the same level.
				for _, v := range snap[1:] {
					if v != snap[0] {
						t.Errorf("torn snapshot: mixed values %f and %f", snap[0], v)
						return
					}
				}
			}
		}()
	}

	readers.Wait()
	close(stop)
	<-pubDone
}
