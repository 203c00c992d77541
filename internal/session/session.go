// ABOUTME: One synchronization session wiring engine, buffers, pacer and output
// ABOUTME: Runs the pacer, the audio consumer and the HTTP API under one errgroup
package session

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Resonate-Protocol/avsync/internal/config"
	"github.com/Resonate-Protocol/avsync/internal/httpapi"
	"github.com/Resonate-Protocol/avsync/internal/metrics"
	"github.com/Resonate-Protocol/avsync/internal/version"
	"github.com/Resonate-Protocol/avsync/pkg/audio"
	"github.com/Resonate-Protocol/avsync/pkg/audio/buffer"
	"github.com/Resonate-Protocol/avsync/pkg/audio/output"
	"github.com/Resonate-Protocol/avsync/pkg/audio/resample"
	"github.com/Resonate-Protocol/avsync/pkg/engine"
	"github.com/Resonate-Protocol/avsync/pkg/engine/media"
	"github.com/Resonate-Protocol/avsync/pkg/engine/testpattern"
	"github.com/Resonate-Protocol/avsync/pkg/pacer"
	"github.com/Resonate-Protocol/avsync/pkg/present"
	"github.com/Resonate-Protocol/avsync/pkg/video/pixel"
	"github.com/Resonate-Protocol/avsync/pkg/video/relay"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Deps overrides the collaborators New would otherwise build from config.
// Any nil field is built.
type Deps struct {
	Engine  engine.Engine
	Output  output.Output
	Surface pacer.Surface
	Display pacer.Display
}

// Session owns every component of one run
type Session struct {
	ID string

	cfg       *config.Config
	engine    engine.Engine
	engineTag string
	relay     *relay.Relay
	audio     *buffer.Manager
	stretcher buffer.Stretcher
	output    output.Output
	surface   pacer.Surface
	pacer     *pacer.Pacer
	metrics   *metrics.Metrics

	started time.Time
}

// New builds and wires a session. The engine is initialized and the audio
// device opened at the effective sample rate.
func New(cfg *config.Config, deps Deps) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Session{
		ID:      uuid.NewString(),
		cfg:     cfg,
		started: time.Now(),
	}
	log := logrus.WithField("session", s.ID)

	eng, tag, err := buildEngine(cfg, deps.Engine)
	if err != nil {
		return nil, err
	}
	if err := eng.Init(); err != nil {
		return nil, fmt.Errorf("engine init: %w", err)
	}
	s.engine = eng
	s.engineTag = tag

	info := eng.AVInfo()
	state, err := computeState(cfg, deps.Display, info)
	if err != nil {
		_ = eng.Close()
		return nil, err
	}

	policy, err := buffer.ParsePolicy(cfg.Policy)
	if err != nil {
		_ = eng.Close()
		return nil, err
	}
	s.audio, err = buffer.NewManager(buffer.Config{
		SampleRate:     state.DeviceSampleRate(),
		BufferDuration: cfg.BufferDuration(),
		PoolSize:       cfg.PoolSize,
		Policy:         policy,
		WakeInterval:   state.FrameInterval(),
	})
	if err != nil {
		_ = eng.Close()
		return nil, err
	}

	// Only set when stretching is needed so the interface stays nil otherwise
	if in, out := state.StretchRates(); in != out {
		s.stretcher = resample.New(in, out, audio.Channels)
		log.WithFields(logrus.Fields{
			"in_rate":  in,
			"out_rate": out,
		}).Info("Stretching audio to the presented frame rate")
	}

	fallback, err := pixel.ParseFormat(cfg.PixelFormat)
	if err != nil {
		fallback = pixel.DefaultFormat
	}
	s.relay = relay.New(fallback)

	eng.SetCallbacks(engine.Callbacks{
		Video: s.relay.Publish,
		Audio: s.audio.Submit,
		PixelFormat: func(f pixel.Format) {
			if err := s.relay.DeclareFormat(f); err != nil {
				log.WithError(err).Warn("Pixel format declaration rejected")
			}
		},
	})

	s.output = deps.Output
	if s.output == nil {
		s.output, err = output.New(cfg.Output)
		if err != nil {
			_ = eng.Close()
			return nil, err
		}
	}
	if err := s.output.Open(state.DeviceSampleRate(), audio.Channels); err != nil {
		_ = eng.Close()
		return nil, fmt.Errorf("open audio output: %w", err)
	}
	if vc, ok := s.output.(output.VolumeControl); ok {
		vc.SetVolume(cfg.Volume)
	}

	s.surface = deps.Surface
	if s.surface == nil {
		s.surface = present.NewMemory(info.BaseWidth, info.BaseHeight)
	}

	s.metrics = metrics.New(s.ID, metrics.Sources{
		Buffer: s.audio.Stats,
		Relay:  s.relay.Stats,
		Pacer:  func() pacer.Stats { return s.pacer.Stats() },
	})

	s.pacer, err = pacer.New(pacer.Config{
		State:   state,
		Engine:  eng,
		Audio:   s.audio,
		Frames:  s.relay,
		Surface: s.surface,
		Observe: s.metrics.ObserveTick,
	})
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	s.metrics.SetState(state)

	log.WithFields(logrus.Fields{
		"engine":      tag,
		"output":      cfg.Output,
		"policy":      policy,
		"device_rate": state.DeviceSampleRate(),
		"version":     version.Version,
	}).Info("Session ready")

	return s, nil
}

func buildEngine(cfg *config.Config, eng engine.Engine) (engine.Engine, string, error) {
	if eng != nil {
		return eng, fmt.Sprintf("%T", eng), nil
	}

	switch cfg.Engine {
	case "media":
		mc := media.DefaultConfig(cfg.MediaPath)
		mc.FPS = cfg.ContentFPS
		return media.New(mc), "media", nil
	case "testpattern":
		format, err := pixel.ParseFormat(cfg.PixelFormat)
		if err != nil {
			return nil, "", err
		}
		tc := testpattern.DefaultConfig()
		tc.Width = cfg.Width
		tc.Height = cfg.Height
		tc.FPS = cfg.ContentFPS
		tc.SampleRate = cfg.SampleRate
		tc.Format = format
		tc.ToneHz = cfg.ToneHz
		tc.SkipEvery = cfg.SkipEvery
		return testpattern.New(tc), "testpattern", nil
	default:
		return nil, "", fmt.Errorf("%w: unknown engine %q", config.ErrInvalidConfig, cfg.Engine)
	}
}

func computeState(cfg *config.Config, display pacer.Display, info engine.AVInfo) (pacer.State, error) {
	force, err := cfg.ForceVRR()
	if err != nil {
		return pacer.State{}, err
	}

	if display == nil {
		rates, err := cfg.Modes()
		if err != nil {
			return pacer.State{}, err
		}
		display = pacer.StaticDisplay{
			Hz:       cfg.DisplayHz,
			ModeList: pacer.ModesAt(info.BaseWidth, info.BaseHeight, rates...),
		}
	}

	return pacer.ComputeState(display, info, pacer.Options{
		DisableBFI: cfg.DisableBFI,
		ForceVRR:   force,
	})
}

// Run drives the session until ctx is cancelled, the configured duration
// elapses or a component fails
func (s *Session) Run(ctx context.Context) error {
	if s.cfg.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Duration)
		defer cancel()
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.pacer.Run(gctx)
	})
	g.Go(func() error {
		return s.audio.Run(gctx, s.output, s.stretcher)
	})
	if s.cfg.HTTPAddr != "" {
		api := httpapi.New(s, s.metrics.Handler())
		g.Go(func() error {
			return api.Run(gctx, s.cfg.HTTPAddr)
		})
	}

	err := g.Wait()
	logrus.WithFields(logrus.Fields{
		"session": s.ID,
		"uptime":  time.Since(s.started).Round(time.Millisecond),
	}).Info("Session stopped")
	return err
}

// Pacer exposes the pacer for frontends
func (s *Session) Pacer() *pacer.Pacer {
	return s.pacer
}

// Surface returns the presentation surface
func (s *Session) Surface() pacer.Surface {
	return s.surface
}

// Metrics returns the session metrics
func (s *Session) Metrics() *metrics.Metrics {
	return s.metrics
}

// SetBFIEnabled toggles black frame insertion
func (s *Session) SetBFIEnabled(enabled bool) {
	s.pacer.SetBFIEnabled(enabled)
}

// SetVolume sets output volume when the backend supports it
func (s *Session) SetVolume(volume int) {
	if vc, ok := s.output.(output.VolumeControl); ok {
		vc.SetVolume(volume)
	}
}

// SetMuted mutes output when the backend supports it
func (s *Session) SetMuted(muted bool) {
	if vc, ok := s.output.(output.VolumeControl); ok {
		vc.SetMuted(muted)
	}
}

// Status snapshots everything the frontends display
func (s *Session) Status() httpapi.Status {
	st := httpapi.Status{
		SessionID:   s.ID,
		Version:     version.Version,
		Engine:      s.engineTag,
		PixelFormat: s.relay.Format().String(),
		BFIEnabled:  s.pacer.BFIEnabled(),
		Volume:      100,
		State:       s.pacer.State(),
		Pacer:       s.pacer.Stats(),
		Buffer:      s.audio.Stats(),
		Relay:       s.relay.Stats(),
	}
	st.Uptime = time.Since(s.started).Round(time.Second).String()
	if vc, ok := s.output.(output.VolumeControl); ok {
		st.Volume = vc.Volume()
		st.Muted = vc.Muted()
	}
	return st
}

// Close releases the engine, output and surface
func (s *Session) Close() error {
	var firstErr error
	if err := s.engine.Close(); err != nil {
		firstErr = err
	}
	if s.output != nil {
		if err := s.output.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c, ok := s.surface.(io.Closer); ok {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
