// ABOUTME: Bounded drop-oldest ring of interleaved stereo frames
// ABOUTME: A Batch holds the audio produced during one real video frame
package buffer

import "github.com/Resonate-Protocol/avsync/pkg/audio"

// Batch is a fixed-capacity ring of interleaved int16 samples. Appending past
// capacity evicts the oldest whole frames first.
type Batch struct {
	buf   []int16 // capacity*Channels samples
	start int     // index of the oldest sample
	n     int     // samples held
	out   []int16 // linearized view returned by Samples
}

// NewBatch allocates a batch holding up to frames stereo frames
func NewBatch(frames int) *Batch {
	if frames < 1 {
		frames = 1
	}
	return &Batch{
		buf: make([]int16, frames*audio.Channels),
		out: make([]int16, 0, frames*audio.Channels),
	}
}

// Capacity returns the frame capacity
func (b *Batch) Capacity() int {
	return len(b.buf) / audio.Channels
}

// Len returns the number of samples held
func (b *Batch) Len() int {
	return b.n
}

// Frames returns the number of frames held
func (b *Batch) Frames() int {
	return b.n / audio.Channels
}

// Append adds samples (an even count) and returns how many old samples were
// evicted to make room
func (b *Batch) Append(samples []int16) int {
	size := len(b.buf)
	dropped := 0

	if len(samples) >= size {
		dropped = b.n + len(samples) - size
		copy(b.buf, samples[len(samples)-size:])
		b.start = 0
		b.n = size
		return dropped
	}

	if overflow := b.n + len(samples) - size; overflow > 0 {
		b.start = (b.start + overflow) % size
		b.n -= overflow
		dropped = overflow
	}

	end := (b.start + b.n) % size
	copied := copy(b.buf[end:], samples)
	copy(b.buf, samples[copied:])
	b.n += len(samples)

	return dropped
}

// Samples returns the held samples oldest first. The slice is owned by the
// batch and stays valid until the next Append or Reset.
func (b *Batch) Samples() []int16 {
	b.out = b.out[:0]
	if b.n == 0 {
		return b.out
	}

	end := b.start + b.n
	if end <= len(b.buf) {
		b.out = append(b.out, b.buf[b.start:end]...)
	} else {
		b.out = append(b.out, b.buf[b.start:]...)
		b.out = append(b.out, b.buf[:end-len(b.buf)]...)
	}
	return b.out
}

// Reset empties the batch without releasing its storage
func (b *Batch) Reset() {
	b.start = 0
	b.n = 0
	b.out = b.out[:0]
}
