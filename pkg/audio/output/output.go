// ABOUTME: Audio output interface definition
// ABOUTME: Common interface for audio playback backends plus software gain
package output

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/Resonate-Protocol/avsync/pkg/audio"
	"github.com/sirupsen/logrus"
)

// ErrNotOpen is returned by Write before a successful Open
var ErrNotOpen = errors.New("output not initialized")

// Output represents an audio output device
type Output interface {
	// Open initializes the output device
	Open(sampleRate, channels int) error

	// Write outputs interleaved int16 samples
	Write(samples []int16) error

	// Close releases output resources
	Close() error
}

// VolumeControl is implemented by outputs with software gain
type VolumeControl interface {
	SetVolume(volume int)
	SetMuted(muted bool)
	Volume() int
	Muted() bool
}

// New returns the named backend: "oto", "malgo" or "null"
func New(name string) (Output, error) {
	switch strings.ToLower(name) {
	case "oto", "":
		return NewOto(), nil
	case "malgo":
		return NewMalgo(), nil
	case "null", "none":
		return NewNull(), nil
	default:
		return nil, fmt.Errorf("unknown audio output %q", name)
	}
}

// gain holds volume state shared between the UI and the audio goroutine
type gain struct {
	volume atomic.Int32
	muted  atomic.Bool
}

func (g *gain) reset() {
	g.volume.Store(100)
	g.muted.Store(false)
}

// SetVolume sets the volume (0-100)
func (g *gain) SetVolume(volume int) {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	g.volume.Store(int32(volume))
	logrus.WithField("volume", volume).Debug("Volume set")
}

// SetMuted sets mute state
func (g *gain) SetMuted(muted bool) {
	g.muted.Store(muted)
	logrus.WithField("muted", muted).Debug("Mute changed")
}

// Volume returns current volume
func (g *gain) Volume() int {
	return int(g.volume.Load())
}

// Muted returns mute state
func (g *gain) Muted() bool {
	return g.muted.Load()
}

// apply writes the gain-adjusted samples into dst, reusing its storage
func (g *gain) apply(dst, samples []int16) []int16 {
	return applyVolume(dst, samples, g.Volume(), g.Muted())
}

// applyVolume applies volume and mute to samples with clipping protection
func applyVolume(dst, samples []int16, volume int, muted bool) []int16 {
	if cap(dst) < len(samples) {
		dst = make([]int16, len(samples))
	}
	dst = dst[:len(samples)]

	if muted || volume <= 0 {
		clear(dst)
		return dst
	}
	if volume >= 100 {
		copy(dst, samples)
		return dst
	}

	for i, s := range samples {
		dst[i] = audio.ClampInt16(int32(s) * int32(volume) / 100)
	}
	return dst
}
