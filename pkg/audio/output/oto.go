// ABOUTME: Oto-based audio output implementation
// ABOUTME: Streams int16 PCM through a pipe into a persistent oto player
package output

import (
	"fmt"
	"io"
	"sync"

	"github.com/Resonate-Protocol/avsync/pkg/audio"
	"github.com/ebitengine/oto/v3"
	"github.com/sirupsen/logrus"
)

// Oto output implementation using oto library
type Oto struct {
	gain

	mu         sync.Mutex
	otoCtx     *oto.Context
	player     *oto.Player
	pipeReader *io.PipeReader
	pipeWriter *io.PipeWriter
	sampleRate int
	channels   int
	ready      bool

	scaled []int16
	bytes  []byte
}

// NewOto creates a new Oto output
func NewOto() *Oto {
	o := &Oto{}
	o.reset()
	return o
}

// Open initializes the output device
func (o *Oto) Open(sampleRate, channels int) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	// If already initialized with same format, reuse the existing context
	if o.otoCtx != nil && o.sampleRate == sampleRate && o.channels == channels {
		logrus.Debug("Audio output already initialized with same format, reusing context")
		return nil
	}

	// oto allows one context per process
	if o.otoCtx != nil {
		return fmt.Errorf("oto cannot change format from %dHz/%dch to %dHz/%dch",
			o.sampleRate, o.channels, sampleRate, channels)
	}

	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("failed to create oto context: %w", err)
	}

	<-readyChan

	o.otoCtx = ctx
	o.sampleRate = sampleRate
	o.channels = channels

	// Create pipe for continuous streaming
	o.pipeReader, o.pipeWriter = io.Pipe()

	// Create persistent player that reads from the pipe
	o.player = o.otoCtx.NewPlayer(o.pipeReader)
	o.player.Play()

	o.ready = true

	logrus.WithFields(logrus.Fields{
		"sample_rate": sampleRate,
		"channels":    channels,
		"backend":     "oto",
	}).Info("Audio output initialized")

	return nil
}

// Write blocks until the player has taken the samples
func (o *Oto) Write(samples []int16) error {
	o.mu.Lock()
	w := o.pipeWriter
	ready := o.ready
	o.mu.Unlock()

	if !ready {
		return ErrNotOpen
	}

	o.scaled = o.apply(o.scaled, samples)
	o.bytes = audio.PutInt16LE(o.bytes, o.scaled)

	if _, err := w.Write(o.bytes); err != nil {
		return fmt.Errorf("pipe write failed: %w", err)
	}

	return nil
}

// Close releases output resources
func (o *Oto) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.pipeWriter != nil {
		o.pipeWriter.Close()
		o.pipeWriter = nil
	}
	if o.player != nil {
		o.player.Close()
		o.player = nil
	}
	if o.pipeReader != nil {
		o.pipeReader.Close()
		o.pipeReader = nil
	}
	if o.otoCtx != nil {
		if err := o.otoCtx.Suspend(); err != nil {
			logrus.WithError(err).Warn("oto suspend failed")
		}
	}
	o.ready = false
	return nil
}
