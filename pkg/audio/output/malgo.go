// ABOUTME: Malgo-based audio output implementation
// ABOUTME: Feeds the miniaudio device callback from a drop-oldest ring buffer
package output

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Resonate-Protocol/avsync/pkg/audio"
	"github.com/gen2brain/malgo"
	"github.com/sirupsen/logrus"
)

// Malgo output implementation using malgo/miniaudio library
type Malgo struct {
	gain

	mu         sync.Mutex
	malgoCtx   *malgo.AllocatedContext
	device     *malgo.Device
	sampleRate int
	channels   int
	ready      bool

	// stream is read by the device callback without m.mu, since Open holds
	// m.mu while stopping a device and Stop waits for the callback
	stream  atomic.Pointer[malgoStream]
	scaled  []int16
	scratch []int16
}

type malgoStream struct {
	ring     *RingBuffer
	channels int
}

// RingBuffer is a thread-safe circular buffer of interleaved samples. A full
// buffer overwrites its oldest frames, so channel order survives overflow.
type RingBuffer struct {
	buffer   []int16
	readPos  int
	writePos int
	size     int
	channels int
	count    int // Number of samples currently in buffer
	dropped  int64
	mu       sync.Mutex
}

// NewRingBuffer creates a ring buffer holding up to capacity samples,
// rounded down to whole frames of channels samples
func NewRingBuffer(capacity, channels int) *RingBuffer {
	if channels < 1 {
		channels = 1
	}
	capacity -= capacity % channels
	if capacity < channels {
		capacity = channels
	}
	return &RingBuffer{
		buffer:   make([]int16, capacity),
		size:     capacity,
		channels: channels,
	}
}

// Write adds samples, evicting the oldest whole frame on overflow
func (rb *RingBuffer) Write(samples []int16) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	for _, s := range samples {
		if rb.count == rb.size {
			rb.readPos = (rb.readPos + rb.channels) % rb.size
			rb.count -= rb.channels
			rb.dropped += int64(rb.channels)
		}
		rb.buffer[rb.writePos] = s
		rb.writePos = (rb.writePos + 1) % rb.size
		rb.count++
	}
	return len(samples)
}

// Read retrieves samples, zero-filling on underrun
func (rb *RingBuffer) Read(samples []int16) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	read := 0
	for i := 0; i < len(samples) && rb.count > 0; i++ {
		samples[i] = rb.buffer[rb.readPos]
		rb.readPos = (rb.readPos + 1) % rb.size
		rb.count--
		read++
	}

	// Zero-fill remaining if underrun
	clear(samples[read:])

	return read
}

// Available returns the number of samples available to read
func (rb *RingBuffer) Available() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.count
}

// Dropped returns how many samples were overwritten before being read
func (rb *RingBuffer) Dropped() int64 {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.dropped
}

// NewMalgo creates a new Malgo output
func NewMalgo() *Malgo {
	m := &Malgo{}
	m.reset()
	return m
}

// Open initializes the output device with specified format
func (m *Malgo) Open(sampleRate, channels int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// If already initialized with same format, reuse
	if m.device != nil && m.sampleRate == sampleRate && m.channels == channels {
		logrus.Debug("Audio output already initialized with same format, reusing device")
		return nil
	}

	// If format changed, reinitialize
	if m.device != nil {
		logrus.WithFields(logrus.Fields{
			"from_rate": m.sampleRate,
			"to_rate":   sampleRate,
		}).Info("Format change detected, reinitializing device")
		m.closeDevice()
	}

	if m.malgoCtx == nil {
		ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
		if err != nil {
			return fmt.Errorf("failed to initialize malgo context: %w", err)
		}
		m.malgoCtx = ctx
	}

	// 250ms of headroom between the consumer and the device callback
	m.stream.Store(&malgoStream{
		ring:     NewRingBuffer(sampleRate*channels/4, channels),
		channels: channels,
	})
	m.channels = channels

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = uint32(channels)
	deviceConfig.SampleRate = uint32(sampleRate)
	deviceConfig.Alsa.NoMMap = 1

	deviceCallbacks := malgo.DeviceCallbacks{
		Data: func(pOutputSample, pInputSamples []byte, frameCount uint32) {
			m.dataCallback(pOutputSample, frameCount)
		},
	}

	device, err := malgo.InitDevice(m.malgoCtx.Context, deviceConfig, deviceCallbacks)
	if err != nil {
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("failed to start device: %w", err)
	}

	m.device = device
	m.sampleRate = sampleRate
	m.ready = true

	logrus.WithFields(logrus.Fields{
		"sample_rate": sampleRate,
		"channels":    channels,
		"backend":     "malgo",
	}).Info("Audio output initialized")

	return nil
}

// Write queues audio samples for playback without blocking
func (m *Malgo) Write(samples []int16) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stream := m.stream.Load()
	if !m.ready || stream == nil {
		return ErrNotOpen
	}

	m.scaled = m.apply(m.scaled, samples)
	stream.ring.Write(m.scaled)
	return nil
}

// dataCallback is called by malgo to fill the audio output buffer
func (m *Malgo) dataCallback(pOutput []byte, frameCount uint32) {
	stream := m.stream.Load()
	if stream == nil {
		clear(pOutput)
		return
	}

	total := int(frameCount) * stream.channels
	if cap(m.scratch) < total {
		m.scratch = make([]int16, total)
	}
	samples := m.scratch[:total]

	stream.ring.Read(samples)
	audio.PutInt16LE(pOutput[:0], samples)
}

// Close releases output resources
func (m *Malgo) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closeDevice()

	if m.malgoCtx != nil {
		if err := m.malgoCtx.Uninit(); err != nil {
			logrus.WithError(err).Warn("malgo context uninit error")
		}
		m.malgoCtx.Free()
		m.malgoCtx = nil
	}

	return nil
}

// closeDevice stops and uninitializes the device (must hold m.mu)
func (m *Malgo) closeDevice() {
	if m.device == nil {
		return
	}
	if err := m.device.Stop(); err != nil {
		logrus.WithError(err).Warn("device stop error")
	}
	m.device.Uninit()
	m.device = nil
	m.ready = false
}
