// ABOUTME: Boundary between the synchronization core and a push-model media engine
// ABOUTME: Defines the engine interface, its three callback slots and timing info
package engine

import (
	"errors"
	"fmt"

	"github.com/Resonate-Protocol/avsync/pkg/video/pixel"
)

// ErrNotInitialized is returned when an engine is driven before Init
var ErrNotInitialized = errors.New("engine not initialized")

// Callbacks are invoked synchronously from inside RunOneTick
type Callbacks struct {
	// Video delivers one raster in the declared pixel format
	Video func(data []byte, width, height, pitch int)
	// Audio delivers interleaved stereo int16 samples and returns frames consumed
	Audio func(samples []int16) int
	// PixelFormat declares the raster format, normally once before the first frame
	PixelFormat func(format pixel.Format)
}

// AVInfo describes the content's native timing
type AVInfo struct {
	FPS        float64
	SampleRate float64
	BaseWidth  int
	BaseHeight int
}

// Validate reports timing the pacer cannot work with
func (i AVInfo) Validate() error {
	if i.FPS <= 0 {
		return fmt.Errorf("invalid content frame rate %v", i.FPS)
	}
	if i.SampleRate <= 0 {
		return fmt.Errorf("invalid content sample rate %v", i.SampleRate)
	}
	return nil
}

// Engine produces audio and video at its own pace when ticked
type Engine interface {
	Init() error
	SetCallbacks(cb Callbacks)
	AVInfo() AVInfo
	RunOneTick()
	Close() error
}
