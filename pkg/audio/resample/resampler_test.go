// ABOUTME: Tests for the linear resampler
// ABOUTME: Checks output sizing, interpolation and passthrough
package resample

import (
	"testing"

	"github.com/Resonate-Protocol/avsync/pkg/audio/buffer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImplementsStretcher(t *testing.T) {
	var _ buffer.Stretcher = (*Resampler)(nil)
}

func TestProcessDoublesBatch(t *testing.T) {
	r := New(24000, 48000, 2)

	in := make([]int16, 800*2)
	for i := range in {
		in[i] = int16(i / 2 * 10)
	}

	out := r.Process(in)
	assert.Len(t, out, len(in)*2)
	assert.Equal(t, 2.0, r.Ratio())
}

func TestProcessInterpolates(t *testing.T) {
	r := New(1, 2, 2)

	out := r.Process([]int16{0, 100, 10, 200})
	require.Len(t, out, 8)
	assert.Equal(t, []int16{0, 100, 5, 150, 10, 200, 10, 200}, out)
}

func TestProcessPassthrough(t *testing.T) {
	r := New(48000, 48000, 2)
	in := []int16{1, 2, 3, 4}
	assert.Equal(t, in, r.Process(in))
}

func TestFractionalCarry(t *testing.T) {
	// 3 -> 4 frames per 3 input frames, carried across chunks
	r := New(3, 4, 2)

	total := 0
	for i := 0; i < 3; i++ {
		total += len(r.Process(make([]int16, 2*2)))
	}
	assert.Equal(t, 8*2, total)

	r.Reset()
	assert.Equal(t, 0.0, r.carry)
}

func TestDownsample(t *testing.T) {
	r := New(48000, 24000, 2)
	out := r.Process(make([]int16, 100*2))
	assert.Len(t, out, 50*2)
}

func TestResampleRespectsOutputSize(t *testing.T) {
	r := New(1, 4, 2)
	out := make([]int16, 6)
	n := r.Resample([]int16{1, 1, 2, 2}, out)
	assert.Equal(t, 6, n)
}

func TestEmptyInput(t *testing.T) {
	r := New(24000, 48000, 2)
	assert.Empty(t, r.Process(nil))
}

func TestSamplesNeeded(t *testing.T) {
	r := New(24000, 48000, 2)
	assert.Equal(t, 400, r.OutputSamplesNeeded(200))
	assert.Equal(t, 100, r.InputSamplesNeeded(200))
}
