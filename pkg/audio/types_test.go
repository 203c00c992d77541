// ABOUTME: Tests for audio types
// ABOUTME: Tests frame math and sample conversion helpers
package audio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFramesIn(t *testing.T) {
	tests := []struct {
		name     string
		rate     int
		duration time.Duration
		expected int
	}{
		{"64ms at 48k", 48000, 64 * time.Millisecond, 3072},
		{"64ms at 44.1k", 44100, 64 * time.Millisecond, 2822},
		{"one second", 32040, time.Second, 32040},
		{"zero", 48000, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Stereo(tt.rate).FramesIn(tt.duration))
		})
	}
}

func TestDuration(t *testing.T) {
	assert.Equal(t, 10*time.Millisecond, Stereo(48000).Duration(480))
	assert.Equal(t, time.Duration(0), Format{}.Duration(480))
}

func TestFrames(t *testing.T) {
	assert.Equal(t, 0, Frames(nil))
	assert.Equal(t, 2, Frames([]int16{1, 2, 3, 4}))
	assert.Equal(t, 2, Frames([]int16{1, 2, 3, 4, 5}))
}

func TestClampInt16(t *testing.T) {
	tests := []struct {
		input    int32
		expected int16
	}{
		{0, 0},
		{100, 100},
		{40000, 32767},
		{-40000, -32768},
		{32767, 32767},
		{-32768, -32768},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ClampInt16(tt.input))
	}
}

func TestPutInt16LE(t *testing.T) {
	out := PutInt16LE(nil, []int16{0x0102, -1})
	assert.Equal(t, []byte{0x02, 0x01, 0xFF, 0xFF}, out)

	// Reuses a large enough destination
	buf := make([]byte, 16)
	out = PutInt16LE(buf, []int16{1})
	assert.Len(t, out, 2)
	assert.Equal(t, &buf[0], &out[0])
}
