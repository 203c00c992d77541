// ABOUTME: Tests for the test pattern engine
// ABOUTME: Verifies callback order, audio cadence, skipping and pixel encoding
package testpattern

import (
	"testing"

	"github.com/Resonate-Protocol/avsync/pkg/engine"
	"github.com/Resonate-Protocol/avsync/pkg/video/pixel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capture struct {
	formats []pixel.Format
	frames  int
	samples int
	width   int
	height  int
	pitch   int
	order   []string
}

func (c *capture) callbacks() engine.Callbacks {
	return engine.Callbacks{
		Video: func(data []byte, w, h, pitch int) {
			c.frames++
			c.width, c.height, c.pitch = w, h, pitch
			c.order = append(c.order, "video")
		},
		Audio: func(samples []int16) int {
			c.samples += len(samples)
			c.order = append(c.order, "audio")
			return len(samples) / 2
		},
		PixelFormat: func(f pixel.Format) {
			c.formats = append(c.formats, f)
			c.order = append(c.order, "format")
		},
	}
}

func TestImplementsEngine(t *testing.T) {
	var _ engine.Engine = (*Engine)(nil)
}

func TestDeclaresFormatOnce(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Format = pixel.ARGB1555
	e := New(cfg)
	require.NoError(t, e.Init())

	c := &capture{}
	e.SetCallbacks(c.callbacks())

	for i := 0; i < 5; i++ {
		e.RunOneTick()
	}

	assert.Equal(t, []pixel.Format{pixel.ARGB1555}, c.formats)
	assert.Equal(t, []string{"format", "audio", "video"}, c.order[:3])
	assert.Equal(t, 5, c.frames)
	assert.Equal(t, uint64(5), e.Frames())
}

func TestAudioCadence(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FPS = 60.0988
	cfg.SampleRate = 32040
	e := New(cfg)
	require.NoError(t, e.Init())

	c := &capture{}
	e.SetCallbacks(c.callbacks())

	for i := 0; i < 600; i++ {
		e.RunOneTick()
	}

	// 600 ticks is just under ten seconds of content
	ticks := 600.0
	want := int(32040.0 / 60.0988 * ticks)
	assert.InDelta(t, want*2, c.samples, 2)
}

func TestSkipEvery(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SkipEvery = 2
	e := New(cfg)
	require.NoError(t, e.Init())

	c := &capture{}
	e.SetCallbacks(c.callbacks())

	for i := 0; i < 10; i++ {
		e.RunOneTick()
	}

	assert.Equal(t, 5, c.frames)
	assert.Positive(t, c.samples)
}

func TestPitchPadding(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Width = 16
	cfg.Height = 4
	cfg.PitchPadding = 8
	e := New(cfg)
	require.NoError(t, e.Init())

	c := &capture{}
	e.SetCallbacks(c.callbacks())
	e.RunOneTick()

	assert.Equal(t, 16, c.width)
	assert.Equal(t, 4, c.height)
	assert.Equal(t, 16*2+8, c.pitch)
}

func TestInitRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero width", func(c *Config) { c.Width = 0 }},
		{"bad format", func(c *Config) { c.Format = pixel.Format(9) }},
		{"zero fps", func(c *Config) { c.FPS = 0 }},
		{"zero rate", func(c *Config) { c.SampleRate = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, New(cfg).Init())
		})
	}
}

func TestTickBeforeInit(t *testing.T) {
	e := New(DefaultConfig())
	c := &capture{}
	e.SetCallbacks(c.callbacks())

	require.NotPanics(t, e.RunOneTick)
	assert.Zero(t, c.frames)
}

func TestEncodeRoundTrips(t *testing.T) {
	for _, f := range []pixel.Format{pixel.RGB565, pixel.ARGB1555, pixel.ARGB8888} {
		conv := pixel.NewConverter(f)
		assert.Equal(t, uint32(0xFFFF0000), conv.Convert(Encode(f, 255, 0, 0)), f.String())
		assert.Equal(t, uint32(0xFFFFFFFF), conv.Convert(Encode(f, 255, 255, 255)), f.String())
		assert.Equal(t, uint32(0xFF000000), conv.Convert(Encode(f, 0, 0, 0)), f.String())
	}
}
