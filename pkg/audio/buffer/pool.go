// ABOUTME: Bounded free list of reusable audio batches
// ABOUTME: Pre-filled at construction so steady state never allocates
package buffer

import "sync"

// Pool recycles batches. It never holds more than its capacity; batches
// returned beyond that are left to the garbage collector.
type Pool struct {
	mu        sync.Mutex
	free      []*Batch
	size      int
	frames    int
	allocated int64
}

// NewPool creates a pool of size batches, each holding frames stereo frames
func NewPool(size, frames int) *Pool {
	p := &Pool{
		free:   make([]*Batch, 0, size),
		size:   size,
		frames: frames,
	}
	for i := 0; i < size; i++ {
		p.free = append(p.free, NewBatch(frames))
	}
	return p
}

// Get returns an empty batch, allocating one if the pool is exhausted
func (p *Pool) Get() *Batch {
	p.mu.Lock()
	defer p.mu.Unlock()

	if n := len(p.free); n > 0 {
		b := p.free[n-1]
		p.free[n-1] = nil
		p.free = p.free[:n-1]
		return b
	}

	p.allocated++
	return NewBatch(p.frames)
}

// Put resets b and keeps it if the pool has room
func (p *Pool) Put(b *Batch) {
	if b == nil {
		return
	}
	b.Reset()

	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.free) < p.size && b.Capacity() == p.frames {
		p.free = append(p.free, b)
	}
}

// Free returns the number of idle batches
func (p *Pool) Free() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}

// Size returns the pool capacity
func (p *Pool) Size() int {
	return p.size
}

// Allocated returns how many batches were allocated after construction
func (p *Pool) Allocated() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.allocated
}
