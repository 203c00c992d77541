// ABOUTME: Tests for the audio buffer manager
// ABOUTME: Covers lock policies, queue eviction, pool recycling and the consumer loop
package buffer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu      sync.Mutex
	batches [][]int16
	err     error
}

func (s *recordingSink) Write(samples []int16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.batches = append(s.batches, append([]int16(nil), samples...))
	return nil
}

func (s *recordingSink) snapshot() [][]int16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]int16(nil), s.batches...)
}

type doublingStretcher struct{}

func (doublingStretcher) Process(samples []int16) []int16 {
	out := make([]int16, 0, len(samples)*2)
	for i := 0; i+1 < len(samples); i += 2 {
		out = append(out, samples[i], samples[i+1], samples[i], samples[i+1])
	}
	return out
}

func newTestManager(t *testing.T, mutate func(*Config)) *Manager {
	t.Helper()
	cfg := DefaultConfig(1000) // 64 frames per batch
	if mutate != nil {
		mutate(&cfg)
	}
	m, err := NewManager(cfg)
	require.NoError(t, err)
	return m
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero rate", func(c *Config) { c.SampleRate = 0 }},
		{"zero duration", func(c *Config) { c.BufferDuration = 0 }},
		{"zero pool", func(c *Config) { c.PoolSize = 0 }},
		{"negative queue", func(c *Config) { c.QueueDepth = -1 }},
		{"zero wake", func(c *Config) { c.WakeInterval = 0 }},
		{"unknown policy", func(c *Config) { c.Policy = Policy(5) }},
		{"too short for one frame", func(c *Config) { c.BufferDuration = time.Microsecond }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig(1000)
			tt.mutate(&cfg)
			_, err := NewManager(cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestDefaultsDerived(t *testing.T) {
	m, err := NewManager(DefaultConfig(48000))
	require.NoError(t, err)
	assert.Equal(t, 3072, m.BufferLength())
	assert.Equal(t, DefaultPoolSize, m.Config().QueueDepth)
	assert.Equal(t, DefaultPoolSize, m.Stats().PoolFree)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("lossy")
	require.NoError(t, err)
	assert.Equal(t, PolicyLossy, p)

	p, err = ParsePolicy("STRICT")
	require.NoError(t, err)
	assert.Equal(t, PolicyStrict, p)

	_, err = ParsePolicy("yolo")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSubmitReturnsFrameCount(t *testing.T) {
	m := newTestManager(t, nil)

	assert.Equal(t, 3, m.Submit(seq(0, 3)))
	assert.Equal(t, 0, m.Submit(nil))
	assert.Equal(t, 1, m.Submit([]int16{1, 2, 3}), "odd trailing sample is truncated")

	stats := m.Stats()
	assert.Equal(t, int64(4), stats.SubmittedFrames)
	assert.Equal(t, int64(2), stats.MalformedBatches)
}

func TestSubmitNeverBackpressures(t *testing.T) {
	m := newTestManager(t, nil)

	// Far more than one batch can hold
	for i := 0; i < 100; i++ {
		assert.Equal(t, 10, m.Submit(seq(i*20, 10)))
	}

	batches := m.Drain()
	require.Len(t, batches, 1)
	assert.Equal(t, m.BufferLength(), batches[0].Frames())
	assert.Equal(t, seq(2000-128, 64), batches[0].Samples(), "only the newest frames survive")
	assert.Equal(t, int64((1000-64)*2), m.Stats().DroppedSamples)
}

func TestCommitOrder(t *testing.T) {
	m := newTestManager(t, nil)

	m.Submit(seq(0, 2))
	m.Commit()
	m.Submit(seq(100, 2))
	m.Commit()
	m.Commit() // nothing pending, no empty batch

	batches := m.Drain()
	require.Len(t, batches, 2)
	assert.Equal(t, seq(0, 2), batches[0].Samples())
	assert.Equal(t, seq(100, 2), batches[1].Samples())
	assert.Equal(t, int64(2), m.Stats().CommittedBatches)
}

func TestDrainSealsPending(t *testing.T) {
	m := newTestManager(t, nil)

	m.Submit(seq(0, 2))
	batches := m.Drain()
	require.Len(t, batches, 1)
	assert.Equal(t, seq(0, 2), batches[0].Samples())

	assert.Empty(t, m.Drain())
}

func TestQueueEvictsOldest(t *testing.T) {
	m := newTestManager(t, func(c *Config) {
		c.PoolSize = 4
		c.QueueDepth = 2
	})

	for i := 0; i < 3; i++ {
		m.Submit(seq(i*10, 1))
		m.Commit()
	}

	stats := m.Stats()
	assert.Equal(t, int64(1), stats.QueueEvicted)
	assert.Equal(t, 2, stats.QueueDepth)

	batches := m.Drain()
	require.Len(t, batches, 2)
	assert.Equal(t, seq(10, 1), batches[0].Samples())
	assert.Equal(t, seq(20, 1), batches[1].Samples())
}

func TestPoolReturnsToCapacity(t *testing.T) {
	m := newTestManager(t, nil)

	for i := 0; i < 10000; i++ {
		m.Submit(seq(i, 8))
		m.Commit()
		if i%3 == 0 {
			for _, b := range m.Drain() {
				m.Recycle(b)
			}
		}
	}
	for _, b := range m.Drain() {
		m.Recycle(b)
	}

	stats := m.Stats()
	assert.Equal(t, DefaultPoolSize, stats.PoolFree)
	assert.Equal(t, int64(0), stats.PoolAllocated)
	assert.Equal(t, 0, stats.QueueDepth)
}

func TestLossyPolicySkipsOnContention(t *testing.T) {
	m := newTestManager(t, func(c *Config) { c.Policy = PolicyLossy })

	m.mu.Lock()
	n := m.Submit(seq(0, 4))
	m.mu.Unlock()

	assert.Equal(t, 4, n, "skipped audio is still reported as consumed")
	assert.Equal(t, int64(1), m.Stats().SkippedBatches)
	assert.Empty(t, m.Drain())

	// Uncontended submits go through
	m.Submit(seq(0, 4))
	assert.Len(t, m.Drain(), 1)
}

func TestStrictPolicyWaitsForLock(t *testing.T) {
	m := newTestManager(t, nil)

	m.mu.Lock()
	done := make(chan int)
	go func() {
		done <- m.Submit(seq(0, 4))
	}()

	select {
	case <-done:
		t.Fatal("strict submit returned while the lock was held")
	case <-time.After(50 * time.Millisecond):
	}

	m.mu.Unlock()

	select {
	case n := <-done:
		assert.Equal(t, 4, n)
	case <-time.After(time.Second):
		t.Fatal("strict submit never completed")
	}

	assert.Equal(t, int64(0), m.Stats().SkippedBatches)
	batches := m.Drain()
	require.Len(t, batches, 1)
	assert.Equal(t, seq(0, 4), batches[0].Samples())
}

func TestRunPlaysCommittedBatches(t *testing.T) {
	m := newTestManager(t, func(c *Config) { c.WakeInterval = time.Hour })
	sink := &recordingSink{}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- m.Run(ctx, sink, doublingStretcher{}) }()

	m.Submit([]int16{1, 2})
	m.Commit()

	require.Eventually(t, func() bool {
		return len(sink.snapshot()) == 1
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, []int16{1, 2, 1, 2}, sink.snapshot()[0])

	cancel()
	assert.NoError(t, <-errCh)

	stats := m.Stats()
	assert.Equal(t, int64(1), stats.PlayedBatches)
	assert.Equal(t, DefaultPoolSize, stats.PoolFree)
}

func TestRunWakesOnTimeout(t *testing.T) {
	m := newTestManager(t, func(c *Config) { c.WakeInterval = 5 * time.Millisecond })
	sink := &recordingSink{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx, sink, nil)

	// No Commit: a stalled pacer must not strand the audio
	m.Submit(seq(0, 3))

	require.Eventually(t, func() bool {
		return len(sink.snapshot()) == 1
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, seq(0, 3), sink.snapshot()[0])
	assert.Positive(t, m.Stats().Timeouts)
}

func TestRunSurvivesSinkErrors(t *testing.T) {
	m := newTestManager(t, func(c *Config) { c.WakeInterval = time.Hour })
	sink := &recordingSink{err: errors.New("device gone")}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- m.Run(ctx, sink, nil) }()

	for i := 0; i < 3; i++ {
		m.Submit(seq(0, 1))
		m.Commit()
		require.Eventually(t, func() bool {
			return m.Stats().SinkErrors == int64(i+1)
		}, time.Second, 5*time.Millisecond)
	}

	cancel()
	assert.NoError(t, <-errCh)
	assert.Equal(t, int64(0), m.Stats().PlayedBatches)
}

func TestRunRejectsNilSink(t *testing.T) {
	m := newTestManager(t, nil)
	err := m.Run(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
