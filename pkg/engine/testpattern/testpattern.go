// ABOUTME: Synthetic engine producing a sine tone and scrolling colour bars
// ABOUTME: Exercises the pacer end to end without any real media
package testpattern

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/Resonate-Protocol/avsync/pkg/audio"
	"github.com/Resonate-Protocol/avsync/pkg/engine"
	"github.com/Resonate-Protocol/avsync/pkg/video/pixel"
	"github.com/sirupsen/logrus"
)

// Config controls the generated content
type Config struct {
	Width        int
	Height       int
	FPS          float64
	SampleRate   float64
	Format       pixel.Format
	ToneHz       float64
	Volume       float64 // 0..1
	SkipEvery    int     // omit video on every Nth tick, 0 disables
	PitchPadding int     // extra bytes per row
}

// DefaultConfig returns a 320x240 60fps RGB565 pattern with a 440Hz tone
func DefaultConfig() Config {
	return Config{
		Width:      320,
		Height:     240,
		FPS:        60,
		SampleRate: 48000,
		Format:     pixel.RGB565,
		ToneHz:     440,
		Volume:     0.5,
	}
}

var bars = [...][3]uint8{
	{255, 255, 255},
	{255, 255, 0},
	{0, 255, 255},
	{0, 255, 0},
	{255, 0, 255},
	{255, 0, 0},
	{0, 0, 255},
	{0, 0, 0},
}

// Engine generates a test pattern
type Engine struct {
	cfg         Config
	cb          engine.Callbacks
	initialized bool
	declared    bool

	frame       uint64
	sampleIndex uint64
	sampleAcc   float64

	pitch   int
	raster  []byte
	samples []int16
}

// New creates a test pattern engine
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Init validates the configuration and allocates the raster
func (e *Engine) Init() error {
	if e.cfg.Width <= 0 || e.cfg.Height <= 0 {
		return fmt.Errorf("invalid pattern size %dx%d", e.cfg.Width, e.cfg.Height)
	}
	if !e.cfg.Format.Valid() {
		return fmt.Errorf("%w: %d", pixel.ErrInvalidFormat, int(e.cfg.Format))
	}
	if err := e.AVInfo().Validate(); err != nil {
		return err
	}
	if e.cfg.PitchPadding < 0 {
		e.cfg.PitchPadding = 0
	}

	e.pitch = e.cfg.Width*e.cfg.Format.BytesPerPixel() + e.cfg.PitchPadding
	e.raster = make([]byte, e.pitch*e.cfg.Height)
	e.initialized = true

	logrus.WithFields(logrus.Fields{
		"width":       e.cfg.Width,
		"height":      e.cfg.Height,
		"fps":         e.cfg.FPS,
		"sample_rate": e.cfg.SampleRate,
		"format":      e.cfg.Format,
	}).Info("Test pattern engine initialized")

	return nil
}

// SetCallbacks registers the output callbacks
func (e *Engine) SetCallbacks(cb engine.Callbacks) {
	e.cb = cb
}

// AVInfo reports the configured timing
func (e *Engine) AVInfo() engine.AVInfo {
	return engine.AVInfo{
		FPS:        e.cfg.FPS,
		SampleRate: e.cfg.SampleRate,
		BaseWidth:  e.cfg.Width,
		BaseHeight: e.cfg.Height,
	}
}

// RunOneTick emits one frame's worth of audio and, unless skipped, one raster
func (e *Engine) RunOneTick() {
	if !e.initialized {
		logrus.Warn("Test pattern ticked before Init")
		return
	}

	if !e.declared {
		if e.cb.PixelFormat != nil {
			e.cb.PixelFormat(e.cfg.Format)
		}
		e.declared = true
	}

	e.emitAudio()

	e.frame++
	if e.cfg.SkipEvery > 0 && e.frame%uint64(e.cfg.SkipEvery) == 0 {
		return
	}

	e.render()
	if e.cb.Video != nil {
		e.cb.Video(e.raster, e.cfg.Width, e.cfg.Height, e.pitch)
	}
}

// Close releases nothing; the engine holds no external resources
func (e *Engine) Close() error {
	e.initialized = false
	return nil
}

// Frames returns the number of ticks run
func (e *Engine) Frames() uint64 {
	return e.frame
}

func (e *Engine) emitAudio() {
	e.sampleAcc += e.cfg.SampleRate / e.cfg.FPS
	n := int(e.sampleAcc)
	e.sampleAcc -= float64(n)
	if n == 0 {
		return
	}

	need := n * audio.Channels
	if cap(e.samples) < need {
		e.samples = make([]int16, need)
	}
	samples := e.samples[:need]

	for i := 0; i < n; i++ {
		t := float64(e.sampleIndex+uint64(i)) / e.cfg.SampleRate
		v := int16(math.Sin(2*math.Pi*e.cfg.ToneHz*t) * 32767.0 * e.cfg.Volume)
		samples[i*2] = v
		samples[i*2+1] = v
	}
	e.sampleIndex += uint64(n)

	if e.cb.Audio != nil {
		e.cb.Audio(samples)
	}
}

func (e *Engine) render() {
	bpp := e.cfg.Format.BytesPerPixel()
	barWidth := e.cfg.Width / len(bars)
	if barWidth == 0 {
		barWidth = 1
	}
	shift := int(e.frame % uint64(e.cfg.Width))

	row := e.raster[:e.cfg.Width*bpp]
	for x := 0; x < e.cfg.Width; x++ {
		c := bars[((x+shift)/barWidth)%len(bars)]
		putPixel(row[x*bpp:], e.cfg.Format, Encode(e.cfg.Format, c[0], c[1], c[2]))
	}
	for y := 1; y < e.cfg.Height; y++ {
		copy(e.raster[y*e.pitch:], row)
	}
}

// Encode packs an opaque colour into the raw value of the given format
func Encode(format pixel.Format, r, g, b uint8) uint32 {
	switch format {
	case pixel.RGB565:
		return uint32(r>>3)<<11 | uint32(g>>2)<<5 | uint32(b>>3)
	case pixel.ARGB1555:
		return 1<<15 | uint32(r>>3)<<10 | uint32(g>>3)<<5 | uint32(b>>3)
	default:
		return 0xFF000000 | uint32(r)<<16 | uint32(g)<<8 | uint32(b)
	}
}

func putPixel(dst []byte, format pixel.Format, raw uint32) {
	if format.BytesPerPixel() == 2 {
		binary.LittleEndian.PutUint16(dst, uint16(raw))
		return
	}
	binary.LittleEndian.PutUint32(dst, raw)
}
