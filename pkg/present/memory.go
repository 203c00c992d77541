// ABOUTME: In-memory ARGB8888 presentation surface
// ABOUTME: Keeps the last presented image for headless runs, status and tests
package present

import (
	"encoding/binary"
	"errors"
	"sync"
)

// ErrClosed is returned by Present after Close
var ErrClosed = errors.New("surface closed")

// Memory is a surface backed by a byte slice. Pixels is drawn into by the
// pacer; Present publishes it as the visible frame.
type Memory struct {
	width  int
	height int
	back   []byte

	mu       sync.RWMutex
	front    []byte
	presents int64
	closed   bool
}

// NewMemory allocates a width x height surface
func NewMemory(width, height int) *Memory {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return &Memory{
		width:  width,
		height: height,
		back:   make([]byte, width*height*4),
		front:  make([]byte, width*height*4),
	}
}

// Pixels returns the draw buffer
func (m *Memory) Pixels() []byte {
	return m.back
}

// Width returns the width in pixels
func (m *Memory) Width() int {
	return m.width
}

// Height returns the height in pixels
func (m *Memory) Height() int {
	return m.height
}

// Present copies the draw buffer to the visible frame
func (m *Memory) Present() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	copy(m.front, m.back)
	m.presents++
	return nil
}

// Presents returns the number of successful presents
func (m *Memory) Presents() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.presents
}

// At returns the visible ARGB value at x, y, or 0 outside the surface
func (m *Memory) At(x, y int) uint32 {
	if x < 0 || y < 0 || x >= m.width || y >= m.height {
		return 0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return binary.LittleEndian.Uint32(m.front[(y*m.width+x)*4:])
}

// Snapshot copies the visible frame into dst, growing it if needed
func (m *Memory) Snapshot(dst []byte) []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if cap(dst) < len(m.front) {
		dst = make([]byte, len(m.front))
	}
	dst = dst[:len(m.front)]
	copy(dst, m.front)
	return dst
}

// Close makes further presents fail
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
