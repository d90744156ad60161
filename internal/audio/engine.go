// SPDX-License-Identifier: MIT

package audio

import (
	"context"
	"errors"
	"sync"
	"time"

	"specviz/internal/analysis"
	"specviz/internal/config"
	"specviz/internal/log"
	"specviz/internal/ring"
	"specviz/internal/spectrum"
)

// streamStallTimeout is how long the analysis loop tolerates producing
// no frames before treating the capture stream as interrupted.
const streamStallTimeout = 2 * time.Second

// Engine wires the capture source, sample ring, analyzer and magnitude
// store into one unit with a single lifecycle. Three timing domains
// meet here: the hardware capture callback (producer), the periodic
// analysis loop owned by the engine (consumer), and the render loop,
// which only ever reads store snapshots.
type Engine struct {
	cfg    *config.Store
	ring   *ring.Buffer
	source *Source
	store  *spectrum.Store

	analyzer *analysis.Analyzer

	mu     sync.Mutex // serializes every source lifecycle mutation: Switch, recovery, Close
	cancel context.CancelFunc
	done   chan struct{}
}

// NewEngine builds the capture and analysis pipeline from a validated
// startup configuration. Construction fails only if no input device can
// be resolved at all or the analysis parameters are unusable.
func NewEngine(cfg *config.Config, store *config.Store) (*Engine, error) {
	rb := ring.New(cfg.FFTSize * config.RingWindows)

	source, err := NewSource(rb, cfg.DeviceID, cfg.SampleRate, cfg.LowLatency)
	if err != nil {
		return nil, err
	}

	windowType, err := analysis.ParseWindowFunc(cfg.Window)
	if err != nil {
		log.Warnf("Audio: %v, using Hann", err)
	}

	mag := spectrum.NewStore(store.BarCount(), spectrum.DefaultDecayStep)

	analyzer, err := analysis.NewAnalyzer(cfg.FFTSize, cfg.SampleRate, windowType, rb, mag, store)
	if err != nil {
		return nil, err
	}

	return &Engine{
		cfg:      store,
		ring:     rb,
		source:   source,
		store:    mag,
		analyzer: analyzer,
	}, nil
}

// Start opens the capture stream and launches the background analysis
// loop. The loop runs until Close.
func (e *Engine) Start() error {
	if err := e.source.Start(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.done = make(chan struct{})
	go e.run(ctx)
	return nil
}

// run is the analysis scheduling loop. Its cadence is decoupled from
// the capture callback: it ticks at half a window duration so it keeps
// pace with capture without polling hot. When the pipeline produces
// nothing for streamStallTimeout the stream is presumed dead and a
// recovery attempt is made.
func (e *Engine) run(ctx context.Context) {
	defer close(e.done)

	interval := time.Duration(float64(e.analyzer.FFTSize()) / e.analyzer.SampleRate() / 2 * float64(time.Second))
	if interval < 5*time.Millisecond {
		interval = 5 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastProduced := time.Now()
	for {
		select {
		case <-ctx.Done():
			// Drain whatever complete windows remain so no samples are
			// silently discarded on shutdown.
			for e.analyzer.ProcessCycle() {
			}
			return
		case <-ticker.C:
			if e.analyzer.ProcessCycle() {
				lastProduced = time.Now()
				continue
			}
			if time.Since(lastProduced) < streamStallTimeout || e.source.Failed() {
				continue
			}
			log.Warnf("Audio: no samples for %s, attempting stream recovery", streamStallTimeout)
			e.mu.Lock()
			err := e.source.Recover(ctx)
			e.mu.Unlock()
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Errorf("Audio: %v; freezing last spectrum", err)
			}
			lastProduced = time.Now()
		}
	}
}

// Switch replaces the capture device mid-run. On success the config
// store records the new device ID.
func (e *Engine) Switch(deviceID int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.source.Switch(deviceID); err != nil {
		return err
	}
	e.cfg.SetDeviceID(e.source.Device().ID)
	return nil
}

// Store exposes the magnitude store for the render loop. Readers only.
func (e *Engine) Store() *spectrum.Store {
	return e.store
}

// Device returns a description of the active capture device.
func (e *Engine) Device() Device {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.source.Device()
}

// SampleRate returns the capture sample rate in Hz.
func (e *Engine) SampleRate() float64 {
	return e.source.SampleRate()
}

// DroppedSamples returns the ring's overflow counter. Non-fatal by
// design; surfaced for the status line and logs.
func (e *Engine) DroppedSamples() uint64 {
	return e.ring.Dropped()
}

// Underruns returns how many analysis cycles found too few samples.
func (e *Engine) Underruns() uint64 {
	return e.analyzer.Underruns()
}

// Close tears the pipeline down. The loop context is cancelled first so
// an in-flight recovery aborts its backoff instead of holding the lock;
// then the capture stream is stopped under the lock, and the analysis
// loop is waited out after draining the remaining complete windows. A
// cancelled recovery never reopens a stream, so nothing capture-side
// survives Close.
func (e *Engine) Close() error {
	if e.cancel != nil {
		e.cancel()
	}

	e.mu.Lock()
	err := e.source.Stop()
	e.mu.Unlock()

	if e.cancel != nil {
		<-e.done
		e.cancel = nil
	}
	return err
}
