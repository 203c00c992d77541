// ABOUTME: Engine that plays an audio file and renders a stereo level meter
// ABOUTME: Decodes MP3 or FLAC, looping, at a chosen content frame rate
package media

import (
	"encoding/binary"
	"fmt"

	"github.com/Resonate-Protocol/avsync/pkg/audio"
	"github.com/Resonate-Protocol/avsync/pkg/engine"
	"github.com/Resonate-Protocol/avsync/pkg/video/pixel"
	"github.com/sirupsen/logrus"
)

const (
	colorBackground = 0xFF101018
	colorLow        = 0xFF20C040
	colorMid        = 0xFFE0C020
	colorHigh       = 0xFFE02020
)

// Config selects the file and the video cadence
type Config struct {
	Path   string
	FPS    float64
	Width  int
	Height int
}

// DefaultConfig returns a 60fps 256x144 meter for path
func DefaultConfig(path string) Config {
	return Config{Path: path, FPS: 60, Width: 256, Height: 144}
}

// Engine plays a file through the engine callbacks
type Engine struct {
	cfg      Config
	cb       engine.Callbacks
	src      source
	declared bool

	sampleAcc float64
	samples   []int16
	raster    []byte
	peakL     float64
	peakR     float64
	readErrs  int64
}

// New creates a media engine; the file is opened by Init
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// newWithSource builds an engine around an already open source
func newWithSource(cfg Config, src source) *Engine {
	return &Engine{cfg: cfg, src: src}
}

// Init opens the file and allocates the meter raster
func (e *Engine) Init() error {
	if e.cfg.FPS <= 0 {
		return fmt.Errorf("invalid content frame rate %v", e.cfg.FPS)
	}
	if e.cfg.Width <= 0 || e.cfg.Height <= 0 {
		return fmt.Errorf("invalid meter size %dx%d", e.cfg.Width, e.cfg.Height)
	}

	if e.src == nil {
		src, err := openSource(e.cfg.Path)
		if err != nil {
			return fmt.Errorf("media engine: %w", err)
		}
		e.src = src
	}

	if e.src.SampleRate() <= 0 {
		return fmt.Errorf("media engine: %s reports sample rate %d", e.src.Title(), e.src.SampleRate())
	}

	e.raster = make([]byte, e.cfg.Width*e.cfg.Height*4)

	logrus.WithFields(logrus.Fields{
		"title":       e.src.Title(),
		"fps":         e.cfg.FPS,
		"sample_rate": e.src.SampleRate(),
	}).Info("Media engine initialized")

	return nil
}

// SetCallbacks registers the output callbacks
func (e *Engine) SetCallbacks(cb engine.Callbacks) {
	e.cb = cb
}

// AVInfo reports the file's sample rate and the configured frame rate
func (e *Engine) AVInfo() engine.AVInfo {
	info := engine.AVInfo{
		FPS:        e.cfg.FPS,
		BaseWidth:  e.cfg.Width,
		BaseHeight: e.cfg.Height,
	}
	if e.src != nil {
		info.SampleRate = float64(e.src.SampleRate())
	}
	return info
}

// Title returns the playing file's name
func (e *Engine) Title() string {
	if e.src == nil {
		return ""
	}
	return e.src.Title()
}

// RunOneTick decodes one frame's worth of audio and draws its levels
func (e *Engine) RunOneTick() {
	if e.src == nil || e.raster == nil {
		logrus.Warn("Media engine ticked before Init")
		return
	}

	if !e.declared {
		if e.cb.PixelFormat != nil {
			e.cb.PixelFormat(pixel.ARGB8888)
		}
		e.declared = true
	}

	e.sampleAcc += float64(e.src.SampleRate()) / e.cfg.FPS
	frames := int(e.sampleAcc)
	e.sampleAcc -= float64(frames)

	need := frames * audio.Channels
	if cap(e.samples) < need {
		e.samples = make([]int16, need)
	}
	samples := e.samples[:need]

	n, err := e.src.Read(samples)
	if err != nil {
		e.readErrs++
		logrus.WithError(err).WithField("title", e.src.Title()).Warn("Audio decode failed")
	}
	samples = samples[:n-n%audio.Channels]

	if len(samples) > 0 && e.cb.Audio != nil {
		e.cb.Audio(samples)
	}

	e.measure(samples)
	e.render()

	if e.cb.Video != nil {
		e.cb.Video(e.raster, e.cfg.Width, e.cfg.Height, e.cfg.Width*4)
	}
}

// Close closes the file
func (e *Engine) Close() error {
	if e.src == nil {
		return nil
	}
	err := e.src.Close()
	e.src = nil
	return err
}

// Levels returns the current peak meters in 0..1
func (e *Engine) Levels() (left, right float64) {
	return e.peakL, e.peakR
}

// measure updates peak meters with a simple decay
func (e *Engine) measure(samples []int16) {
	var l, r float64
	for i := 0; i+1 < len(samples); i += 2 {
		l = max(l, abs16(samples[i]))
		r = max(r, abs16(samples[i+1]))
	}
	e.peakL = max(l, e.peakL*0.85)
	e.peakR = max(r, e.peakR*0.85)
}

func abs16(v int16) float64 {
	f := float64(v) / 32768.0
	if f < 0 {
		return -f
	}
	return f
}

func (e *Engine) render() {
	w := e.cfg.Width
	pixel.Fill(e.raster, colorBackground)

	half := w / 2
	gap := max(1, w/32)
	e.drawBar(gap, half-gap, e.peakL)
	e.drawBar(half+gap, w-gap, e.peakR)
}

func (e *Engine) drawBar(x0, x1 int, level float64) {
	w, h := e.cfg.Width, e.cfg.Height
	top := h - int(level*float64(h))
	for y := max(top, 0); y < h; y++ {
		var c uint32 = colorLow
		switch frac := 1 - float64(y)/float64(h); {
		case frac > 0.9:
			c = colorHigh
		case frac > 0.7:
			c = colorMid
		}
		for x := x0; x < x1 && x < w; x++ {
			binary.LittleEndian.PutUint32(e.raster[(y*w+x)*4:], c)
		}
	}
}
