package audio

import (
	"encoding/binary"
	"sync"
)

// SampleRingBuffer keeps the most recent int16 samples up to a fixed
// capacity. One goroutine writes, any number read.
type SampleRingBuffer struct {
	mu   sync.RWMutex
	buf  []int16
	head int
	full bool
}

// NewSampleRingBuffer returns a ring holding up to capacity samples.
func NewSampleRingBuffer(capacity int) *SampleRingBuffer {
	return &SampleRingBuffer{buf: make([]int16, capacity)} //nolint:exhaustruct // zero head, not full
}

// Write appends samples, discarding the oldest once the ring is full.
// Bulk copies in at most two segments around the wrap point.
func (b *SampleRingBuffer) Write(samples []int16) {
	if len(samples) == 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	capacity := len(b.buf)

	// Only the last capacity samples can survive anyway.
	if len(samples) >= capacity {
		copy(b.buf, samples[len(samples)-capacity:])
		b.head = 0
		b.full = true

		return
	}

	n := copy(b.buf[b.head:], samples)
	if n < len(samples) {
		copy(b.buf, samples[n:])
	}

	b.head = (b.head + len(samples)) % capacity
	if !b.full && b.head < len(samples) {
		b.full = true
	}
}

// ReadSamples returns up to n of the newest samples, oldest first. It
// returns nil when the ring is empty or n is not positive.
func (b *SampleRingBuffer) ReadSamples(n int) []int16 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	avail := b.head
	if b.full {
		avail = len(b.buf)
	}

	if n > avail {
		n = avail
	}

	if n <= 0 {
		return nil
	}

	capacity := len(b.buf)
	start := (b.head - n + capacity) % capacity

	out := make([]int16, n)

	m := copy(out, b.buf[start:min(start+n, capacity)])
	if m < n {
		copy(out[m:], b.buf)
	}

	return out
}

// Count returns how many valid samples the ring currently holds.
func (b *SampleRingBuffer) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.full {
		return len(b.buf)
	}

	return b.head
}

// BytesToInt16 reinterprets little-endian S16 PCM bytes as samples. A
// trailing odd byte is dropped.
func BytesToInt16(data []byte) []int16 {
	n := len(data) / 2
	if n == 0 {
		return nil
	}

	samples := make([]int16, n)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[2*i:]))
	}

	return samples
}
