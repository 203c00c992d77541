// ABOUTME: Tests for the VRR readiness heuristic
// ABOUTME: Covers off-grid rate counting and range checks
package pacer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsVRRCapable(t *testing.T) {
	tests := []struct {
		name    string
		rates   []float64
		content float64
		want    bool
	}{
		{"gaming panel", []float64{48, 60, 75, 90, 120, 144}, 59.94, true},
		{"single 60Hz", []float64{60}, 60, false},
		{"grid rates only", []float64{60, 75, 120}, 60, false},
		{"one off-grid rate", []float64{60, 144}, 60, false},
		{"content above range", []float64{48, 144}, 165, false},
		{"content below range", []float64{48, 144}, 30, false},
		{"fractional rates", []float64{59.94, 119.88, 60}, 60, true},
		{"duplicates count once", []float64{144, 144, 60}, 60, false},
		{"no modes", nil, 60, false},
		{"zero content", []float64{48, 144}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			modes := ModesAt(1920, 1080, tt.rates...)
			assert.Equal(t, tt.want, IsVRRCapable(modes, tt.content))
		})
	}
}

func TestIsVRRCapableIgnoresBogusModes(t *testing.T) {
	modes := []Mode{
		{Width: 1920, Height: 1080, RefreshMilliHz: 0},
		{Width: 1920, Height: 1080, RefreshMilliHz: 48000},
		{Width: 1920, Height: 1080, RefreshMilliHz: 144000},
	}
	assert.True(t, IsVRRCapable(modes, 60))
}

func TestMilliHz(t *testing.T) {
	assert.Equal(t, 59940, MilliHz(59.94))
	assert.Equal(t, 60000, MilliHz(60))
	assert.Equal(t, 59.94, Mode{RefreshMilliHz: 59940}.RefreshHz())
}

func TestStaticDisplay(t *testing.T) {
	d := StaticDisplay{Hz: 60, ModeList: ModesAt(800, 600, 60)}
	assert.Equal(t, 60.0, d.RefreshHz())
	assert.Len(t, d.Modes(), 1)
}
