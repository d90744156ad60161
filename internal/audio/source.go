// SPDX-License-Identifier: MIT

// Package audio implements live audio capture on PortAudio and the
// engine that connects capture, spectral analysis and the magnitude
// store.
//
// Thread safety:
//   - The capture callback runs on the PortAudio thread and only does a
//     bounded, allocation-free, lock-free push into the sample ring.
//   - Stream lifecycle (start/stop/switch/recover) is serialized by the
//     owning Engine.
package audio

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/gordonklaus/portaudio"

	"specviz/internal/config"
	"specviz/internal/log"
	"specviz/internal/ring"
)

var (
	// ErrDeviceUnavailable means no matching device existed at open or
	// switch time. Recoverable by falling back to the system default.
	ErrDeviceUnavailable = errors.New("audio device unavailable")

	// ErrStreamInterrupted means the capture stream died mid-run and
	// could not be reopened within the retry budget.
	ErrStreamInterrupted = errors.New("audio stream interrupted")
)

const (
	// maxReopenAttempts bounds Recover's retry loop before the source
	// enters the persistent-error state.
	maxReopenAttempts = 5
	reopenBackoff     = 250 * time.Millisecond
)

// Source owns one live capture stream and produces the mono sample
// stream for the ring. It is the single producer side of the ring.
type Source struct {
	ring       *ring.Buffer
	sampleRate float64
	lowLatency bool

	device     *portaudio.DeviceInfo
	deviceID   int
	lastGoodID int
	channels   int
	stream     *portaudio.Stream

	failed atomic.Bool // set after Recover exhausts its retry budget
}

// NewSource resolves the requested device (falling back to the system
// default when unavailable) but does not open a stream yet. A nil error
// guarantees Start can be attempted.
func NewSource(rb *ring.Buffer, deviceID int, sampleRate float64, lowLatency bool) (*Source, error) {
	s := &Source{
		ring:       rb,
		sampleRate: sampleRate,
		lowLatency: lowLatency,
		lastGoodID: config.MinDeviceID,
	}
	if err := s.resolve(deviceID); err != nil {
		return nil, err
	}
	return s, nil
}

// resolve binds the source to the device with the given ID, falling
// back to the system default if that device is unavailable.
func (s *Source) resolve(deviceID int) error {
	device, err := InputDevice(deviceID)
	if err != nil {
		if deviceID == config.MinDeviceID {
			return err
		}
		log.Warnf("Audio: device %d unavailable (%v), falling back to default", deviceID, err)
		device, err = InputDevice(config.MinDeviceID)
		if err != nil {
			return err
		}
		deviceID = config.MinDeviceID
	}

	channels := device.MaxInputChannels
	if channels > 2 {
		channels = 2 // capture at most a stereo pair; it is mixed to mono anyway
	}

	s.device = device
	s.deviceID = deviceID
	s.channels = channels
	return nil
}

// Start opens and starts the capture stream on the resolved device.
func (s *Source) Start() error {
	latency := s.device.DefaultHighInputLatency
	if s.lowLatency {
		latency = s.device.DefaultLowInputLatency
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: s.channels,
			Device:   s.device,
			Latency:  latency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0, // capture only
			Device:   nil,
		},
		FramesPerBuffer: portaudio.FramesPerBufferUnspecified,
		SampleRate:      s.sampleRate,
	}

	stream, err := portaudio.OpenStream(params, s.captureCallback)
	if err != nil {
		return fmt.Errorf("opening stream on %s: %w", s.device.Name, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("starting stream on %s: %w", s.device.Name, err)
	}

	s.stream = stream
	s.lastGoodID = s.deviceID
	s.failed.Store(false)
	log.Infof("Audio: capturing from %s (%d ch, %.0f Hz)", s.device.Name, s.channels, s.sampleRate)
	return nil
}

// Stop stops and closes the capture stream. Safe to call when no
// stream is open.
func (s *Source) Stop() error {
	if s.stream == nil {
		return nil
	}
	if err := s.stream.Stop(); err != nil {
		return err
	}
	if err := s.stream.Close(); err != nil {
		return err
	}
	s.stream = nil
	return nil
}

// Switch atomically replaces the capture stream with one on the device
// with the given ID. Samples buffered before the switch are flagged
// stale, so the analyzer discards them before its next frame and the
// next published spectrum holds samples only from the new device. On
// failure the previous device is restored, then the system default; the
// returned error describes the failed switch.
func (s *Source) Switch(deviceID int) error {
	if err := s.Stop(); err != nil {
		log.Warnf("Audio: error stopping stream during switch: %v", err)
	}

	prevID := s.lastGoodID
	if err := s.resolve(deviceID); err != nil {
		s.restore(prevID)
		return err
	}

	s.ring.RequestDrain()

	if err := s.Start(); err != nil {
		s.restore(prevID)
		return fmt.Errorf("switching to device %d: %w", deviceID, err)
	}
	return nil
}

// restore attempts to bring back the last-known-good device, then the
// system default. Failures here leave the source stopped; the engine's
// stall watchdog picks it up via Recover.
func (s *Source) restore(deviceID int) {
	if err := s.resolve(deviceID); err == nil {
		if err := s.Start(); err == nil {
			log.Infof("Audio: restored previous device %s", s.device.Name)
			return
		}
	}
	if err := s.resolve(config.MinDeviceID); err == nil {
		if err := s.Start(); err == nil {
			log.Infof("Audio: restored default input device")
			return
		}
	}
	log.Errorf("Audio: could not restore any capture device")
}

// Recover reopens the stream after an interruption, with bounded
// backoff. It first retries the current device, then the system
// default. Cancelling ctx aborts the backoff waits immediately, so
// shutdown is never held up by a recovery in progress. After the retry
// budget is exhausted the source enters a persistent-error state: no
// producer runs, the store stops receiving frames and the display
// freezes on the last smoothed spectrum.
func (s *Source) Recover(ctx context.Context) error {
	if err := s.Stop(); err != nil {
		log.Warnf("Audio: error stopping dead stream: %v", err)
	}

	for attempt := 1; attempt <= maxReopenAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reopenBackoff * time.Duration(attempt)):
		}

		if err := s.resolve(s.lastGoodID); err == nil {
			if err := s.Start(); err == nil {
				log.Infof("Audio: stream recovered on attempt %d", attempt)
				return nil
			}
		}
		if err := s.resolve(config.MinDeviceID); err == nil {
			if err := s.Start(); err == nil {
				log.Infof("Audio: stream recovered on default device (attempt %d)", attempt)
				return nil
			}
		}
		log.Warnf("Audio: reopen attempt %d/%d failed", attempt, maxReopenAttempts)
	}

	s.failed.Store(true)
	return fmt.Errorf("%w: gave up after %d attempts", ErrStreamInterrupted, maxReopenAttempts)
}

// Failed reports whether the source has entered the persistent-error
// state after exhausting its reopen attempts.
func (s *Source) Failed() bool {
	return s.failed.Load()
}

// Device returns a description of the currently bound device.
func (s *Source) Device() Device {
	return Device{
		ID:                s.deviceID,
		Name:              s.device.Name,
		MaxInputChannels:  s.device.MaxInputChannels,
		DefaultSampleRate: s.device.DefaultSampleRate,
	}
}

// SampleRate returns the capture sample rate in Hz.
func (s *Source) SampleRate() float64 {
	return s.sampleRate
}

// captureCallback is the hardware-driven capture entry point.
// Performance critical: runs on the PortAudio thread with real-time
// constraints. It only mixes to mono and pushes into the ring; no
// allocation, no locks, no unbounded work. Overflow is the ring's
// drop-newest policy, never a stall.
func (s *Source) captureCallback(in []float32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	pushSamples(s.ring, in, s.channels)
}

// pushSamples mixes interleaved frames down to mono and pushes each
// resulting sample. Split out of the callback for testability.
func pushSamples(rb *ring.Buffer, in []float32, channels int) {
	if channels <= 1 {
		for _, v := range in {
			rb.Push(float64(v))
		}
		return
	}

	inv := 1.0 / float64(channels)
	for i := 0; i+channels <= len(in); i += channels {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(in[i+c])
		}
		rb.Push(sum * inv)
	}
}
