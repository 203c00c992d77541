// ABOUTME: Pacing state derived from display and content timing
// ABOUTME: Decides VRR vs fixed refresh, swap interval, BFI factor and audio rate
package pacer

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Resonate-Protocol/avsync/pkg/engine"
	"github.com/sirupsen/logrus"
)

var (
	// ErrInvalidDisplay is returned when the display reports no usable refresh rate
	ErrInvalidDisplay = errors.New("invalid display info")
	// ErrInvalidContent is returned for non-positive content timing
	ErrInvalidContent = errors.New("invalid content timing")
)

// Options override the automatic decisions
type Options struct {
	DisableBFI bool
	ForceVRR   *bool // nil means detect
}

// State is the session's timing plan. It is fixed once computed.
type State struct {
	MonitorHz           float64
	ContentFPS          float64
	ContentSampleRate   float64
	VRR                 bool
	SwapInterval        int
	BFIFactor           int
	TargetFPS           float64
	EffectiveSampleRate float64
}

// ComputeState derives the pacing plan for the given display and content
func ComputeState(d Display, info engine.AVInfo, opts Options) (State, error) {
	if d == nil {
		return State{}, fmt.Errorf("%w: no display", ErrInvalidDisplay)
	}
	monitor := d.RefreshHz()
	if monitor <= 0 || math.IsNaN(monitor) || math.IsInf(monitor, 0) {
		return State{}, fmt.Errorf("%w: refresh rate %v", ErrInvalidDisplay, monitor)
	}
	if err := info.Validate(); err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}

	vrr := IsVRRCapable(d.Modes(), info.FPS)
	if opts.ForceVRR != nil {
		vrr = *opts.ForceVRR
	}

	s := State{
		MonitorHz:         monitor,
		ContentFPS:        info.FPS,
		ContentSampleRate: info.SampleRate,
		VRR:               vrr,
	}

	if vrr {
		s.SwapInterval = 1
		s.TargetFPS = info.FPS
		s.EffectiveSampleRate = info.SampleRate
		s.BFIFactor = 0
	} else {
		s.SwapInterval = max(1, int(math.Round(monitor/info.FPS)))
		s.TargetFPS = monitor
		s.EffectiveSampleRate = info.SampleRate * monitor / info.FPS
		s.BFIFactor = s.SwapInterval - 1
	}
	if opts.DisableBFI {
		s.BFIFactor = 0
	}

	logrus.WithFields(logrus.Fields{
		"monitor_hz":     s.MonitorHz,
		"content_fps":    s.ContentFPS,
		"vrr":            s.VRR,
		"swap_interval":  s.SwapInterval,
		"bfi_factor":     s.BFIFactor,
		"target_fps":     s.TargetFPS,
		"effective_rate": s.EffectiveSampleRate,
	}).Info("Pacing state computed")

	return s, nil
}

// TickInterval is the time between presented frames, real or synthetic
func (s State) TickInterval() time.Duration {
	if s.TargetFPS <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / s.TargetFPS)
}

// FrameInterval is the time one real frame stays on screen
func (s State) FrameInterval() time.Duration {
	return time.Duration(s.SwapInterval) * s.TickInterval()
}

// ResampleRatio is the factor each real frame's audio must be stretched by
func (s State) ResampleRatio() float64 {
	if s.VRR || s.SwapInterval <= 1 {
		return 1
	}
	return float64(s.SwapInterval)
}

// DeviceSampleRate is the integer rate to open the audio device at
func (s State) DeviceSampleRate() int {
	return int(math.Round(s.EffectiveSampleRate))
}

// StretchRates returns the input and output rates for the time-stretcher
func (s State) StretchRates() (in, out int) {
	out = s.DeviceSampleRate()
	in = int(math.Round(s.EffectiveSampleRate / s.ResampleRatio()))
	return in, out
}

func (s State) String() string {
	return fmt.Sprintf("%.2fHz display, %.4f fps content, vrr=%v swap=%d bfi=%d target=%.2f rate=%.0f",
		s.MonitorHz, s.ContentFPS, s.VRR, s.SwapInterval, s.BFIFactor, s.TargetFPS, s.EffectiveSampleRate)
}
