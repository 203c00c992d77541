// ABOUTME: Audio buffer manager between the engine callback and the audio device
// ABOUTME: Pooled batches, bounded delivery queue and the timed consumer loop
package buffer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Resonate-Protocol/avsync/pkg/audio"
	"github.com/sirupsen/logrus"
)

const (
	DefaultPoolSize       = 20
	DefaultBufferDuration = 64 * time.Millisecond
	DefaultWakeInterval   = 16 * time.Millisecond
)

// ErrInvalidConfig is returned for unusable manager settings
var ErrInvalidConfig = errors.New("invalid audio buffer config")

// Policy selects how Submit acquires the shared lock
type Policy int

const (
	// PolicyStrict blocks the engine until the consumer releases the lock
	PolicyStrict Policy = iota
	// PolicyLossy skips the batch when the lock is contended
	PolicyLossy
)

func (p Policy) String() string {
	switch p {
	case PolicyStrict:
		return "strict"
	case PolicyLossy:
		return "lossy"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy accepts "strict" or "lossy"
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strict", "":
		return PolicyStrict, nil
	case "lossy":
		return PolicyLossy, nil
	default:
		return PolicyStrict, fmt.Errorf("%w: unknown lock policy %q", ErrInvalidConfig, s)
	}
}

// Config holds manager settings
type Config struct {
	SampleRate     int           // effective sample rate in Hz
	BufferDuration time.Duration // per-batch capacity
	PoolSize       int
	QueueDepth     int // committed batches awaiting playback; 0 means PoolSize
	Policy         Policy
	WakeInterval   time.Duration // consumer timeout, one display frame
}

// DefaultConfig returns the standard settings for a sample rate
func DefaultConfig(sampleRate int) Config {
	return Config{
		SampleRate:     sampleRate,
		BufferDuration: DefaultBufferDuration,
		PoolSize:       DefaultPoolSize,
		Policy:         PolicyStrict,
		WakeInterval:   DefaultWakeInterval,
	}
}

// Validate checks the config and fills in derived defaults
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrInvalidConfig, c.SampleRate)
	}
	if c.BufferDuration <= 0 {
		return fmt.Errorf("%w: buffer duration %v", ErrInvalidConfig, c.BufferDuration)
	}
	if c.PoolSize <= 0 {
		return fmt.Errorf("%w: pool size %d", ErrInvalidConfig, c.PoolSize)
	}
	if c.QueueDepth < 0 {
		return fmt.Errorf("%w: queue depth %d", ErrInvalidConfig, c.QueueDepth)
	}
	if c.QueueDepth == 0 {
		c.QueueDepth = c.PoolSize
	}
	if c.WakeInterval <= 0 {
		return fmt.Errorf("%w: wake interval %v", ErrInvalidConfig, c.WakeInterval)
	}
	if c.Policy != PolicyStrict && c.Policy != PolicyLossy {
		return fmt.Errorf("%w: policy %v", ErrInvalidConfig, c.Policy)
	}
	if audio.Stereo(c.SampleRate).FramesIn(c.BufferDuration) < 1 {
		return fmt.Errorf("%w: %v at %dHz holds no frames", ErrInvalidConfig, c.BufferDuration, c.SampleRate)
	}
	return nil
}

// Sink receives audio in playback order
type Sink interface {
	Write(samples []int16) error
}

// Stretcher adjusts a batch's duration before playback
type Stretcher interface {
	Process(samples []int16) []int16
}

// Stats tracks buffer manager activity
type Stats struct {
	SubmittedFrames  int64
	DroppedSamples   int64 // evicted by drop-oldest inside a batch
	SkippedBatches   int64 // lossy policy lock contention
	MalformedBatches int64
	CommittedBatches int64
	PlayedBatches    int64
	QueueEvicted     int64
	SinkErrors       int64
	Wakeups          int64
	Timeouts         int64
	PoolFree         int
	PoolAllocated    int64
	QueueDepth       int
}

// Manager accumulates engine audio per real video frame and hands sealed
// batches to a consumer goroutine. Submit and Commit run on the pacer
// goroutine; Run owns the sink.
type Manager struct {
	cfg    Config
	frames int

	mu      sync.Mutex
	pool    *Pool
	pending *Batch
	queue   []*Batch

	signal chan struct{}

	submitted atomic.Int64
	dropped   atomic.Int64
	skipped   atomic.Int64
	malformed atomic.Int64
	committed atomic.Int64
	played    atomic.Int64
	evicted   atomic.Int64
	sinkErrs  atomic.Int64
	wakeups   atomic.Int64
	timeouts  atomic.Int64
}

// NewManager validates cfg and pre-fills the batch pool
func NewManager(cfg Config) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	frames := audio.Stereo(cfg.SampleRate).FramesIn(cfg.BufferDuration)

	m := &Manager{
		cfg:    cfg,
		frames: frames,
		pool:   NewPool(cfg.PoolSize, frames),
		queue:  make([]*Batch, 0, cfg.QueueDepth),
		signal: make(chan struct{}, 1),
	}

	logrus.WithFields(logrus.Fields{
		"sample_rate":   cfg.SampleRate,
		"buffer_frames": frames,
		"pool_size":     cfg.PoolSize,
		"queue_depth":   cfg.QueueDepth,
		"policy":        cfg.Policy,
		"wake_interval": cfg.WakeInterval,
	}).Info("Audio buffer manager ready")

	return m, nil
}

// Config returns the validated settings
func (m *Manager) Config() Config {
	return m.cfg
}

// BufferLength returns the per-batch capacity in frames
func (m *Manager) BufferLength() int {
	return m.frames
}

// Submit accepts interleaved stereo samples from the engine and reports them
// all as consumed. It never applies backpressure.
func (m *Manager) Submit(samples []int16) int {
	if len(samples) == 0 {
		m.malformed.Add(1)
		logrus.Debug("Discarding empty audio batch")
		return 0
	}
	if len(samples)%audio.Channels != 0 {
		m.malformed.Add(1)
		logrus.WithField("samples", len(samples)).Warn("Truncating odd-length audio batch")
		samples = samples[:len(samples)-1]
	}

	frames := audio.Frames(samples)
	if frames == 0 {
		return 0
	}

	if m.cfg.Policy == PolicyLossy {
		if !m.mu.TryLock() {
			m.skipped.Add(1)
			return frames
		}
	} else {
		m.mu.Lock()
	}
	defer m.mu.Unlock()

	if m.pending == nil {
		m.pending = m.pool.Get()
	}
	if n := m.pending.Append(samples); n > 0 {
		m.dropped.Add(int64(n))
		logrus.WithFields(logrus.Fields{
			"dropped_samples": n,
			"capacity_frames": m.frames,
		}).Debug("Audio batch full, dropped oldest samples")
	}
	m.submitted.Add(int64(frames))

	return frames
}

// Commit seals the audio of the frame just produced and wakes the consumer
func (m *Manager) Commit() {
	m.mu.Lock()
	sealed := m.sealLocked()
	m.mu.Unlock()

	if sealed {
		m.notify()
	}
}

// sealLocked moves the pending batch onto the queue (must hold m.mu)
func (m *Manager) sealLocked() bool {
	if m.pending == nil {
		return false
	}
	if m.pending.Len() == 0 {
		return false
	}

	if len(m.queue) >= m.cfg.QueueDepth {
		oldest := m.queue[0]
		copy(m.queue, m.queue[1:])
		m.queue[len(m.queue)-1] = nil
		m.queue = m.queue[:len(m.queue)-1]
		m.pool.Put(oldest)
		m.evicted.Add(1)
	}

	m.queue = append(m.queue, m.pending)
	m.pending = nil
	m.committed.Add(1)
	return true
}

func (m *Manager) notify() {
	select {
	case m.signal <- struct{}{}:
	default:
	}
}

// Drain returns every queued batch oldest first, sealing pending audio so
// nothing is stranded when the pacer stalls
func (m *Manager) Drain() []*Batch {
	return m.drainInto(nil)
}

func (m *Manager) drainInto(dst []*Batch) []*Batch {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sealLocked()
	dst = append(dst, m.queue...)
	for i := range m.queue {
		m.queue[i] = nil
	}
	m.queue = m.queue[:0]
	return dst
}

// Recycle returns a played batch to the pool
func (m *Manager) Recycle(b *Batch) {
	m.pool.Put(b)
}

// Run plays batches until ctx is cancelled. It wakes on Commit or after
// WakeInterval, whichever comes first. Sink errors are counted and logged
// but do not stop the loop.
func (m *Manager) Run(ctx context.Context, sink Sink, stretcher Stretcher) error {
	if sink == nil {
		return fmt.Errorf("%w: nil sink", ErrInvalidConfig)
	}

	timer := time.NewTimer(m.cfg.WakeInterval)
	defer timer.Stop()

	var batches []*Batch

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-m.signal:
			m.wakeups.Add(1)
		case <-timer.C:
			m.timeouts.Add(1)
		}

		batches = m.drainInto(batches[:0])
		for i, b := range batches {
			m.play(b, sink, stretcher)
			m.Recycle(b)
			batches[i] = nil
		}

		timer.Reset(m.cfg.WakeInterval)
	}
}

func (m *Manager) play(b *Batch, sink Sink, stretcher Stretcher) {
	samples := b.Samples()
	if stretcher != nil {
		samples = stretcher.Process(samples)
	}

	if err := sink.Write(samples); err != nil {
		n := m.sinkErrs.Add(1)
		if n <= 5 || n%100 == 0 {
			logrus.WithError(err).WithField("sink_errors", n).Warn("Audio sink write failed")
		}
		return
	}
	m.played.Add(1)
}

// Stats returns a snapshot of the manager counters
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	depth := len(m.queue)
	m.mu.Unlock()

	return Stats{
		SubmittedFrames:  m.submitted.Load(),
		DroppedSamples:   m.dropped.Load(),
		SkippedBatches:   m.skipped.Load(),
		MalformedBatches: m.malformed.Load(),
		CommittedBatches: m.committed.Load(),
		PlayedBatches:    m.played.Load(),
		QueueEvicted:     m.evicted.Load(),
		SinkErrors:       m.sinkErrs.Load(),
		Wakeups:          m.wakeups.Load(),
		Timeouts:         m.timeouts.Load(),
		PoolFree:         m.pool.Free(),
		PoolAllocated:    m.pool.Allocated(),
		QueueDepth:       depth,
	}
}
