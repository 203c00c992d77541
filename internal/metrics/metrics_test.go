// ABOUTME: Tests for session metrics
// ABOUTME: Gathers from the private registry and scrapes the handler
package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Resonate-Protocol/avsync/pkg/audio/buffer"
	"github.com/Resonate-Protocol/avsync/pkg/pacer"
	"github.com/Resonate-Protocol/avsync/pkg/video/relay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSources() Sources {
	return Sources{
		Buffer: func() buffer.Stats { return buffer.Stats{SubmittedFrames: 1600, PoolFree: 19, QueueEvicted: 2} },
		Relay:  func() relay.Stats { return relay.Stats{Published: 10, Superseded: 3} },
		Pacer:  func() pacer.Stats { return pacer.Stats{Ticks: 20, Real: 10, Synthetic: 6, Held: 4} },
	}
}

// gathered maps each counter and gauge family to its value
func gathered(t *testing.T, m *Metrics) map[string]float64 {
	t.Helper()
	families, err := m.Registry.Gather()
	require.NoError(t, err)

	out := make(map[string]float64)
	for _, f := range families {
		for _, metric := range f.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				out[f.GetName()] = metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				out[f.GetName()] = metric.GetGauge().GetValue()
			}
		}
	}
	return out
}

func TestStatsExposed(t *testing.T) {
	m := New("s1", testSources())
	values := gathered(t, m)

	assert.Equal(t, 1600.0, values["avsync_audio_submitted_frames_total"])
	assert.Equal(t, 19.0, values["avsync_audio_pool_free"])
	assert.Equal(t, 2.0, values["avsync_audio_queue_evicted_total"])
	assert.Equal(t, 3.0, values["avsync_video_superseded_frames_total"])
	assert.Equal(t, 6.0, values["avsync_pacer_synthetic_frames_total"])
	assert.Equal(t, 4.0, values["avsync_pacer_held_frames_total"])
}

func TestSetState(t *testing.T) {
	m := New("s1", Sources{})
	m.SetState(pacer.State{SwapInterval: 2, BFIFactor: 1, VRR: true})

	values := gathered(t, m)
	assert.Equal(t, 2.0, values["avsync_swap_interval"])
	assert.Equal(t, 1.0, values["avsync_bfi_factor"])
	assert.Equal(t, 1.0, values["avsync_vrr_active"])
}

func TestSessionsDoNotCollide(t *testing.T) {
	require.NotPanics(t, func() {
		New("a", testSources())
		New("b", testSources())
	})
}

func TestHandlerServesTickHistogram(t *testing.T) {
	m := New("s1", testSources())
	m.ObserveTick(pacer.FrameReal, 2*time.Millisecond)
	m.ObserveTick(pacer.FrameSynthetic, 50*time.Microsecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, text, `avsync_tick_duration_seconds_count{kind="real",session="s1"} 1`)
	assert.Contains(t, text, `avsync_tick_duration_seconds_count{kind="synthetic",session="s1"} 1`)
	assert.Contains(t, text, "avsync_pacer_ticks_total")
}
