// ABOUTME: Tests for pacing state computation
// ABOUTME: Covers fixed-refresh, VRR and override decisions
package pacer

import (
	"testing"
	"time"

	"github.com/Resonate-Protocol/avsync/pkg/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixed(hz float64) StaticDisplay {
	return StaticDisplay{Hz: hz, ModeList: ModesAt(1920, 1080, hz)}
}

func TestComputeStateHalfRate(t *testing.T) {
	s, err := ComputeState(fixed(60), engine.AVInfo{FPS: 30, SampleRate: 48000}, Options{})
	require.NoError(t, err)

	assert.False(t, s.VRR)
	assert.Equal(t, 2, s.SwapInterval)
	assert.Equal(t, 1, s.BFIFactor)
	assert.Equal(t, 60.0, s.TargetFPS)
	assert.Equal(t, 96000.0, s.EffectiveSampleRate)
	assert.Equal(t, 2.0, s.ResampleRatio())

	in, out := s.StretchRates()
	assert.Equal(t, 48000, in)
	assert.Equal(t, 96000, out)

	assert.InDelta(t, float64(time.Second/60), float64(s.TickInterval()), float64(time.Microsecond))
	assert.InDelta(t, float64(time.Second/30), float64(s.FrameInterval()), float64(time.Microsecond))
}

func TestComputeStateNearMatch(t *testing.T) {
	// NTSC console content on a 60Hz panel
	s, err := ComputeState(fixed(60), engine.AVInfo{FPS: 60.0988, SampleRate: 32040}, Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, s.SwapInterval)
	assert.Equal(t, 0, s.BFIFactor)
	assert.Equal(t, 1.0, s.ResampleRatio())
	assert.InDelta(t, 32040*60/60.0988, s.EffectiveSampleRate, 0.001)
	assert.Equal(t, 31987, s.DeviceSampleRate())

	in, out := s.StretchRates()
	assert.Equal(t, in, out)
}

func TestComputeStateVRR(t *testing.T) {
	d := StaticDisplay{Hz: 144, ModeList: ModesAt(2560, 1440, 48, 60, 75, 90, 120, 144)}
	s, err := ComputeState(d, engine.AVInfo{FPS: 59.94, SampleRate: 44100}, Options{})
	require.NoError(t, err)

	assert.True(t, s.VRR)
	assert.Equal(t, 1, s.SwapInterval)
	assert.Equal(t, 0, s.BFIFactor)
	assert.Equal(t, 59.94, s.TargetFPS)
	assert.Equal(t, 44100.0, s.EffectiveSampleRate)
	assert.Equal(t, 1.0, s.ResampleRatio())
}

func TestComputeStateQuarterRate(t *testing.T) {
	s, err := ComputeState(fixed(240), engine.AVInfo{FPS: 60, SampleRate: 48000}, Options{})
	require.NoError(t, err)
	assert.Equal(t, 4, s.SwapInterval)
	assert.Equal(t, 3, s.BFIFactor)
}

func TestComputeStateSlowPanel(t *testing.T) {
	// Content faster than the panel never gets a swap interval below one
	s, err := ComputeState(fixed(30), engine.AVInfo{FPS: 60, SampleRate: 48000}, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, s.SwapInterval)
	assert.Equal(t, 0, s.BFIFactor)
	assert.Equal(t, 24000.0, s.EffectiveSampleRate)
}

func TestComputeStateOptions(t *testing.T) {
	info := engine.AVInfo{FPS: 30, SampleRate: 48000}

	s, err := ComputeState(fixed(60), info, Options{DisableBFI: true})
	require.NoError(t, err)
	assert.Equal(t, 2, s.SwapInterval)
	assert.Equal(t, 0, s.BFIFactor)

	on := true
	s, err = ComputeState(fixed(60), info, Options{ForceVRR: &on})
	require.NoError(t, err)
	assert.True(t, s.VRR)
	assert.Equal(t, 30.0, s.TargetFPS)

	off := false
	d := StaticDisplay{Hz: 144, ModeList: ModesAt(2560, 1440, 48, 144)}
	s, err = ComputeState(d, engine.AVInfo{FPS: 60, SampleRate: 48000}, Options{ForceVRR: &off})
	require.NoError(t, err)
	assert.False(t, s.VRR)
	assert.Equal(t, 2, s.SwapInterval)
}

func TestComputeStateErrors(t *testing.T) {
	good := engine.AVInfo{FPS: 60, SampleRate: 48000}

	_, err := ComputeState(nil, good, Options{})
	assert.ErrorIs(t, err, ErrInvalidDisplay)

	_, err = ComputeState(StaticDisplay{Hz: 0}, good, Options{})
	assert.ErrorIs(t, err, ErrInvalidDisplay)

	_, err = ComputeState(fixed(60), engine.AVInfo{FPS: 0, SampleRate: 48000}, Options{})
	assert.ErrorIs(t, err, ErrInvalidContent)
}

func TestStateString(t *testing.T) {
	s := State{MonitorHz: 60, ContentFPS: 30, SwapInterval: 2, BFIFactor: 1, TargetFPS: 60, EffectiveSampleRate: 96000}
	assert.Contains(t, s.String(), "swap=2")
	assert.Contains(t, s.String(), "bfi=1")
}
