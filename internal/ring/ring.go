// SPDX-License-Identifier: MIT

// Package ring implements the single-producer/single-consumer sample
// queue between the audio capture callback and the spectral analyzer.
//
// The producer side is wait-free: Push never blocks, never allocates
// and never takes a lock, which makes it safe to call from the
// real-time capture callback. The consumer pops whole analysis frames
// or nothing. This buffer is the only synchronization point between the
// two timing domains, and it supports exactly one producer and one
// consumer goroutine.
package ring

import (
	"sync/atomic"

	"specviz/pkg/bitint"
)

// Buffer is a fixed-capacity SPSC circular buffer of audio samples.
// Capacity is rounded up to a power of 2 so wraparound is a mask, not
// a modulo.
type Buffer struct {
	buf  []float64
	mask uint64

	head    atomic.Uint64 // consumer position, advanced only by PopFrame
	tail    atomic.Uint64 // producer position, advanced only by Push
	dropped atomic.Uint64 // samples rejected while full

	drainReq atomic.Uint64 // drain generation requested, any goroutine
	drainAck atomic.Uint64 // drain generation applied, consumer side
	drainPos atomic.Uint64 // tail position the pending drain discards up to
}

// New creates a Buffer holding at least capacity samples.
func New(capacity int) *Buffer {
	n := bitint.NextPowerOfTwo(capacity)
	return &Buffer{
		buf:  make([]float64, n),
		mask: uint64(n - 1),
	}
}

// Push appends one sample. If the buffer is full the newest sample is
// dropped, the drop counter is incremented and Push returns false.
// Producer side only; wait-free.
func (b *Buffer) Push(sample float64) bool {
	tail := b.tail.Load()
	if tail-b.head.Load() > b.mask {
		b.dropped.Add(1)
		return false
	}
	b.buf[tail&b.mask] = sample
	b.tail.Store(tail + 1)
	return true
}

// PopFrame copies exactly len(dst) samples into dst and consumes them.
// If fewer samples are buffered it copies nothing and returns false,
// so a frame is always complete or absent. A pending drain request is
// applied before anything is popped. Consumer side only.
func (b *Buffer) PopFrame(dst []float64) bool {
	if req := b.drainReq.Load(); req != b.drainAck.Load() {
		if pos := b.drainPos.Load(); pos > b.head.Load() {
			b.head.Store(pos)
		}
		b.drainAck.Store(req)
	}

	n := uint64(len(dst))
	if n == 0 {
		return true
	}
	head := b.head.Load()
	if b.tail.Load()-head < n {
		return false
	}
	for i := range dst {
		dst[i] = b.buf[(head+uint64(i))&b.mask]
	}
	b.head.Store(head + n)
	return true
}

// Len returns the number of buffered samples. Exact only from the
// consumer side; the producer may append concurrently.
func (b *Buffer) Len() int {
	return int(b.tail.Load() - b.head.Load())
}

// Cap returns the fixed capacity in samples.
func (b *Buffer) Cap() int {
	return len(b.buf)
}

// Dropped returns the total number of samples rejected on overflow.
func (b *Buffer) Dropped() uint64 {
	return b.dropped.Load()
}

// RequestDrain marks every sample buffered so far as stale. The
// consumer discards them at the start of its next PopFrame; samples
// pushed after the request are kept. head stays consumer-owned, so
// RequestDrain is safe from any goroutine even while a pop is in
// flight, e.g. between closing one capture stream and starting the
// next, so no stale samples leak across a device switch.
func (b *Buffer) RequestDrain() {
	b.drainPos.Store(b.tail.Load())
	b.drainReq.Add(1)
}
