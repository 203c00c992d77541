// ABOUTME: Discarding audio output for headless runs and tests
// ABOUTME: Counts what it is given without touching a device
package output

import "sync/atomic"

// Null accepts and discards audio
type Null struct {
	gain
	sampleRate int
	channels   int
	open       atomic.Bool
	samples    atomic.Int64
	writes     atomic.Int64
}

// NewNull creates a discarding output
func NewNull() *Null {
	n := &Null{}
	n.reset()
	return n
}

// Open records the format
func (n *Null) Open(sampleRate, channels int) error {
	n.sampleRate = sampleRate
	n.channels = channels
	n.open.Store(true)
	return nil
}

// Write counts samples
func (n *Null) Write(samples []int16) error {
	if !n.open.Load() {
		return ErrNotOpen
	}
	n.samples.Add(int64(len(samples)))
	n.writes.Add(1)
	return nil
}

// Close marks the output closed
func (n *Null) Close() error {
	n.open.Store(false)
	return nil
}

// SampleRate returns the rate passed to Open
func (n *Null) SampleRate() int {
	return n.sampleRate
}

// Samples returns the total samples written
func (n *Null) Samples() int64 {
	return n.samples.Load()
}

// Writes returns the number of Write calls
func (n *Null) Writes() int64 {
	return n.writes.Load()
}
