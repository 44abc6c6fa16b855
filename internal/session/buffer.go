package session

import (
	"sync"
	"time"

	"github.com/jmylchreest/voxd/internal/capture"
)

// Buffer accumulates PCM frames for one recording session.
// It is append-only while recording, consumed exactly once by the
// transcription step, and discarded afterwards. It never touches disk.
type Buffer struct {
	mu      sync.Mutex
	samples []float32
}

// NewBuffer creates an empty audio buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Append adds a frame of samples to the buffer.
func (b *Buffer) Append(frame []float32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.samples = append(b.samples, frame...)
}

// Samples returns the accumulated samples.
func (b *Buffer) Samples() []float32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.samples
}

// Len returns the number of accumulated samples.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.samples)
}

// Duration returns the audio duration represented by the buffer.
func (b *Buffer) Duration() time.Duration {
	return time.Duration(b.Len()) * time.Second / capture.SampleRate
}

// Discard releases the buffered audio.
func (b *Buffer) Discard() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.samples = nil
}
