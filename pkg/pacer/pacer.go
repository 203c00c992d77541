// ABOUTME: Frame pacer driving the engine once per real frame
// ABOUTME: Interleaves synthetic frames for black-frame insertion on fixed-refresh panels
package pacer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Resonate-Protocol/avsync/pkg/video/pixel"
	"github.com/Resonate-Protocol/avsync/pkg/video/relay"
	"github.com/sirupsen/logrus"
)

// ErrInvalidConfig is returned by New for missing collaborators
var ErrInvalidConfig = errors.New("invalid pacer config")

// FrameKind says what a tick put on screen
type FrameKind int

const (
	// FrameReal is a freshly produced engine frame
	FrameReal FrameKind = iota
	// FrameRepeated is a real tick where the engine produced no video
	FrameRepeated
	// FrameSynthetic is a filled inserted frame
	FrameSynthetic
	// FrameHeld re-presents the last real image for a refresh inside a
	// real frame's swap interval
	FrameHeld
)

func (k FrameKind) String() string {
	switch k {
	case FrameReal:
		return "real"
	case FrameRepeated:
		return "repeated"
	case FrameSynthetic:
		return "synthetic"
	case FrameHeld:
		return "held"
	default:
		return fmt.Sprintf("FrameKind(%d)", int(k))
	}
}

// Surface is the presentation target, an ARGB8888 raster
type Surface interface {
	Pixels() []byte
	Width() int
	Height() int
	Present() error
}

// Runner advances the engine by one content frame
type Runner interface {
	RunOneTick()
}

// Committer seals the audio produced during the last real frame
type Committer interface {
	Commit()
}

// FrameSource hands over the latest video frame
type FrameSource interface {
	Take() (*relay.Frame, bool)
	Recycle(frame *relay.Frame)
	Converter() *pixel.Converter
}

// Config wires the pacer to its collaborators
type Config struct {
	State   State
	Engine  Runner
	Audio   Committer
	Frames  FrameSource
	Surface Surface

	// Observe, if set, is called after every tick with its kind and duration
	Observe func(kind FrameKind, elapsed time.Duration)
}

// Stats tracks pacer activity
type Stats struct {
	Ticks         int64
	Real          int64
	Repeated      int64
	Synthetic     int64
	Held          int64
	PresentErrors int64
	ClippedRows   int64
	Dominant      uint32
}

// Pacer presents one frame per display refresh
type Pacer struct {
	cfg        Config
	bfiEnabled atomic.Bool

	mu       sync.Mutex // serializes Tick
	slot     int        // refreshes shown since the last real frame
	last     []byte     // surface contents after the last real frame
	dominant uint32
	stats    Stats
}

// New validates cfg and creates a pacer
func New(cfg Config) (*Pacer, error) {
	switch {
	case cfg.Engine == nil:
		return nil, fmt.Errorf("%w: nil engine", ErrInvalidConfig)
	case cfg.Audio == nil:
		return nil, fmt.Errorf("%w: nil audio committer", ErrInvalidConfig)
	case cfg.Frames == nil:
		return nil, fmt.Errorf("%w: nil frame source", ErrInvalidConfig)
	case cfg.Surface == nil:
		return nil, fmt.Errorf("%w: nil surface", ErrInvalidConfig)
	case cfg.State.TargetFPS <= 0 || cfg.State.SwapInterval < 1:
		return nil, fmt.Errorf("%w: pacing state not computed", ErrInvalidConfig)
	}

	p := &Pacer{
		cfg:      cfg,
		dominant: 0xFF000000,
		// the first tick is always real
		slot: cfg.State.SwapInterval - 1,
	}
	p.bfiEnabled.Store(cfg.State.BFIFactor > 0)

	return p, nil
}

// State returns the pacing plan
func (p *Pacer) State() State {
	return p.cfg.State
}

// SetBFIEnabled toggles synthetic frame insertion. It has no effect when the
// state has no BFI factor. While disabled the inserted slots hold the last
// real image instead.
func (p *Pacer) SetBFIEnabled(enabled bool) {
	p.bfiEnabled.Store(enabled)
	logrus.WithFields(logrus.Fields{
		"enabled":    enabled,
		"bfi_factor": p.cfg.State.BFIFactor,
	}).Info("Black frame insertion toggled")
}

// BFIEnabled reports whether synthetic frames are being inserted
func (p *Pacer) BFIEnabled() bool {
	return p.bfiEnabled.Load() && p.cfg.State.BFIFactor > 0
}

// Tick presents exactly one frame
func (p *Pacer) Tick() (FrameKind, error) {
	start := time.Now()

	p.mu.Lock()
	kind, err := p.tickLocked()
	p.mu.Unlock()

	if p.cfg.Observe != nil {
		p.cfg.Observe(kind, time.Since(start))
	}
	return kind, err
}

func (p *Pacer) tickLocked() (FrameKind, error) {
	p.stats.Ticks++

	// A real frame stays up for SwapInterval refreshes whether or not the
	// extra refreshes are blanked, so the engine runs at the content rate.
	if p.slot < p.cfg.State.SwapInterval-1 {
		p.slot++
		if p.BFIEnabled() && p.slot <= p.cfg.State.BFIFactor {
			pixel.Fill(p.cfg.Surface.Pixels(), p.dominant)
			p.stats.Synthetic++
			return FrameSynthetic, p.present()
		}
		p.restore()
		p.stats.Held++
		return FrameHeld, p.present()
	}

	kind := p.realFrame()
	p.slot = 0
	return kind, p.present()
}

// realFrame runs the engine and draws whatever it produced
func (p *Pacer) realFrame() FrameKind {
	p.cfg.Engine.RunOneTick()
	p.cfg.Audio.Commit()

	frame, ok := p.cfg.Frames.Take()
	if !ok {
		p.restore()
		p.stats.Repeated++
		return FrameRepeated
	}
	defer p.cfg.Frames.Recycle(frame)

	dst := p.cfg.Surface.Pixels()
	res := p.cfg.Frames.Converter().Blit(
		frame.Data, frame.Width, frame.Height, frame.Pitch,
		dst, p.cfg.Surface.Width(),
	)
	if res.ClippedRows > 0 {
		p.stats.ClippedRows += int64(res.ClippedRows)
		logrus.WithFields(logrus.Fields{
			"clipped_rows": res.ClippedRows,
			"frame":        fmt.Sprintf("%dx%d", frame.Width, frame.Height),
			"surface":      fmt.Sprintf("%dx%d", p.cfg.Surface.Width(), p.cfg.Surface.Height()),
		}).Debug("Frame clipped to surface")
	}
	if res.Pixels > 0 {
		p.dominant = res.Dominant
		p.stats.Dominant = res.Dominant
	}
	p.last = append(p.last[:0], dst...)

	p.stats.Real++
	return FrameReal
}

// restore puts the last real image back on the surface. Before the first
// real frame the surface is left as it is.
func (p *Pacer) restore() {
	if len(p.last) > 0 {
		copy(p.cfg.Surface.Pixels(), p.last)
	}
}

func (p *Pacer) present() error {
	if err := p.cfg.Surface.Present(); err != nil {
		p.stats.PresentErrors++
		return fmt.Errorf("present: %w", err)
	}
	return nil
}

// Run ticks at the state's tick interval until ctx is cancelled. Per-tick
// errors are logged and counted.
func (p *Pacer) Run(ctx context.Context) error {
	interval := p.cfg.State.TickInterval()
	logrus.WithFields(logrus.Fields{
		"interval": interval,
		"state":    p.cfg.State.String(),
	}).Info("Pacer started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logrus.WithField("ticks", p.Stats().Ticks).Info("Pacer stopped")
			return nil
		case <-ticker.C:
			if _, err := p.Tick(); err != nil {
				n := p.Stats().PresentErrors
				if n <= 5 || n%100 == 0 {
					logrus.WithError(err).WithField("present_errors", n).Warn("Tick failed")
				}
			}
		}
	}
}

// Stats returns a snapshot of the pacer counters
func (p *Pacer) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}
