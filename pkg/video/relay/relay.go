// ABOUTME: Latest-wins video frame hand-off between engine callback and pacer
// ABOUTME: Also owns the declare-once pixel format state and its converter
package relay

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Resonate-Protocol/avsync/pkg/video/pixel"
	"github.com/sirupsen/logrus"
)

// ErrFormatLocked is returned when an engine declares a second, different format
var ErrFormatLocked = errors.New("pixel format already declared")

// Frame is one full raster copied out of the engine
type Frame struct {
	Data   []byte
	Width  int
	Height int
	Pitch  int
	Format pixel.Format
}

// Stats tracks relay activity
type Stats struct {
	Published  int64
	Taken      int64
	Superseded int64 // frames overwritten before the pacer took them
	Rejected   int64 // malformed publishes
}

// Relay holds at most one undrawn frame. Publish is called from the engine's
// video callback and Take from the pacer; the reader never waits.
type Relay struct {
	mu       sync.Mutex
	pending  *Frame
	spare    *Frame
	fallback pixel.Format

	format   pixel.Format
	declared bool
	conv     *pixel.Converter

	stats Stats
}

// New creates a relay that assumes fallback until the engine declares a format
func New(fallback pixel.Format) *Relay {
	if !fallback.Valid() {
		fallback = pixel.DefaultFormat
	}
	return &Relay{
		fallback: fallback,
		format:   fallback,
	}
}

// DeclareFormat records the engine's pixel format. The first declaration wins
// and builds the converter; repeating it is a no-op.
func (r *Relay) DeclareFormat(f pixel.Format) error {
	if !f.Valid() {
		logrus.WithField("format", int(f)).Warn("Ignoring unknown pixel format declaration")
		return fmt.Errorf("%w: %d", pixel.ErrInvalidFormat, int(f))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.declared {
		if r.format == f {
			return nil
		}
		logrus.WithFields(logrus.Fields{
			"current":   r.format,
			"requested": f,
		}).Warn("Pixel format is immutable for the session, ignoring redeclaration")
		return fmt.Errorf("%w: %s", ErrFormatLocked, r.format)
	}

	r.format = f
	r.declared = true
	r.conv = pixel.NewConverter(f)

	logrus.WithFields(logrus.Fields{
		"format":          f,
		"bytes_per_pixel": f.BytesPerPixel(),
	}).Info("Engine will send pixel data in declared format")

	return nil
}

// Format returns the declared format, or the fallback if none was declared
func (r *Relay) Format() pixel.Format {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.format
}

// Declared reports whether the engine declared a format
func (r *Relay) Declared() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.declared
}

// Converter returns the converter for the current format, building the
// fallback converter on first use
func (r *Relay) Converter() *pixel.Converter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conv == nil {
		r.conv = pixel.NewConverter(r.format)
	}
	return r.conv
}

// Publish copies the engine's raster and replaces any unread frame.
// Malformed input is logged and dropped.
func (r *Relay) Publish(data []byte, width, height, pitch int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	bpp := r.format.BytesPerPixel()
	if len(data) == 0 || width <= 0 || height <= 0 || pitch < width*bpp {
		r.stats.Rejected++
		logrus.WithFields(logrus.Fields{
			"bytes":  len(data),
			"width":  width,
			"height": height,
			"pitch":  pitch,
		}).Warn("Dropping empty or malformed video frame")
		return
	}

	if need := pitch*(height-1) + width*bpp; len(data) < need {
		r.stats.Rejected++
		logrus.WithFields(logrus.Fields{
			"bytes": len(data),
			"need":  need,
		}).Warn("Dropping truncated video frame")
		return
	}

	frame := r.spare
	r.spare = nil
	if frame == nil {
		frame = &Frame{}
	}

	frame.Data = append(frame.Data[:0], data...)
	frame.Width = width
	frame.Height = height
	frame.Pitch = pitch
	frame.Format = r.format

	if r.pending != nil {
		r.stats.Superseded++
		r.spare = r.pending
	}
	r.pending = frame
	r.stats.Published++
}

// Take returns and clears the held frame. The frame is owned by the caller
// until it is handed back with Recycle.
func (r *Relay) Take() (*Frame, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pending == nil {
		return nil, false
	}

	frame := r.pending
	r.pending = nil
	r.stats.Taken++

	return frame, true
}

// Recycle hands a taken frame's buffer back for reuse by Publish
func (r *Relay) Recycle(frame *Frame) {
	if frame == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.spare == nil {
		r.spare = frame
	}
}

// Stats returns relay counters
func (r *Relay) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}
