// ABOUTME: Display capability boundary and the VRR readiness heuristic
// ABOUTME: Refresh rates are compared in integer millihertz
package pacer

import "math"

// Mode is one display mode as reported by the windowing layer
type Mode struct {
	Width          int
	Height         int
	RefreshMilliHz int
}

// RefreshHz returns the mode's refresh rate in Hz
func (m Mode) RefreshHz() float64 {
	return float64(m.RefreshMilliHz) / 1000
}

// Display reports the current refresh rate and the supported modes
type Display interface {
	RefreshHz() float64
	Modes() []Mode
}

// StaticDisplay is a Display with fixed values
type StaticDisplay struct {
	Hz       float64
	ModeList []Mode
}

// RefreshHz returns the current refresh rate
func (d StaticDisplay) RefreshHz() float64 {
	return d.Hz
}

// Modes returns the supported modes
func (d StaticDisplay) Modes() []Mode {
	return d.ModeList
}

// ModesAt builds one mode per refresh rate at a single resolution
func ModesAt(width, height int, rates ...float64) []Mode {
	modes := make([]Mode, 0, len(rates))
	for _, hz := range rates {
		modes = append(modes, Mode{
			Width:          width,
			Height:         height,
			RefreshMilliHz: MilliHz(hz),
		})
	}
	return modes
}

// MilliHz converts Hz to rounded millihertz
func MilliHz(hz float64) int {
	return int(math.Round(hz * 1000))
}

// IsVRRCapable guesses whether the display can run at the content rate. A
// panel listing more than one refresh rate off the usual 5 Hz grid (48, 144
// and the like) is taken as variable-refresh, provided the content rate
// lies within the advertised range.
func IsVRRCapable(modes []Mode, contentFPS float64) bool {
	if len(modes) == 0 || contentFPS <= 0 {
		return false
	}

	lo, hi := math.MaxInt, 0
	offGrid := make(map[int]struct{})

	for _, m := range modes {
		if m.RefreshMilliHz <= 0 {
			continue
		}
		lo = min(lo, m.RefreshMilliHz)
		hi = max(hi, m.RefreshMilliHz)
		if m.RefreshMilliHz%5000 != 0 {
			offGrid[m.RefreshMilliHz] = struct{}{}
		}
	}

	if hi == 0 || len(offGrid) <= 1 {
		return false
	}

	fps := MilliHz(contentFPS)
	return lo <= fps && fps <= hi
}
