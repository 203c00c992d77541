// ABOUTME: Prometheus metrics for one synchronization session
// ABOUTME: Exposes buffer, relay and pacer counters plus tick timing on a private registry
package metrics

import (
	"net/http"
	"time"

	"github.com/Resonate-Protocol/avsync/pkg/audio/buffer"
	"github.com/Resonate-Protocol/avsync/pkg/pacer"
	"github.com/Resonate-Protocol/avsync/pkg/video/relay"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "avsync"

// Sources supply the stats snapshots the metrics read at scrape time
type Sources struct {
	Buffer func() buffer.Stats
	Relay  func() relay.Stats
	Pacer  func() pacer.Stats
}

// Metrics holds the session registry and the metrics written directly
type Metrics struct {
	Registry     *prometheus.Registry
	TickDuration *prometheus.HistogramVec
	SwapInterval prometheus.Gauge
	BFIFactor    prometheus.Gauge
	VRR          prometheus.Gauge
}

// New creates and registers all metrics for a session
func New(sessionID string, src Sources) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	labels := prometheus.Labels{"session": sessionID}
	factory := promauto.With(reg)

	m := &Metrics{
		Registry: reg,
		TickDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   namespace,
				Name:        "tick_duration_seconds",
				Help:        "Time spent producing and presenting one frame",
				ConstLabels: labels,
				Buckets:     prometheus.ExponentialBuckets(0.0001, 2, 12), // 100us to ~200ms
			},
			[]string{"kind"}, // real, repeated, synthetic or held
		),
		SwapInterval: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "swap_interval",
			Help:        "Display refreshes per real frame",
			ConstLabels: labels,
		}),
		BFIFactor: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "bfi_factor",
			Help:        "Synthetic frames inserted after each real frame",
			ConstLabels: labels,
		}),
		VRR: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "vrr_active",
			Help:        "1 when pacing follows the content rate",
			ConstLabels: labels,
		}),
	}

	counter := func(name, help string, read func() float64) {
		factory.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		}, read)
	}
	gauge := func(name, help string, read func() float64) {
		factory.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		}, read)
	}

	if src.Buffer != nil {
		b := src.Buffer
		counter("audio_submitted_frames_total", "Stereo frames accepted from the engine",
			func() float64 { return float64(b().SubmittedFrames) })
		counter("audio_dropped_samples_total", "Samples evicted by drop-oldest",
			func() float64 { return float64(b().DroppedSamples) })
		counter("audio_skipped_batches_total", "Batches skipped on lock contention",
			func() float64 { return float64(b().SkippedBatches) })
		counter("audio_malformed_batches_total", "Empty or odd-length engine batches",
			func() float64 { return float64(b().MalformedBatches) })
		counter("audio_committed_batches_total", "Batches sealed after a real frame",
			func() float64 { return float64(b().CommittedBatches) })
		counter("audio_played_batches_total", "Batches written to the audio device",
			func() float64 { return float64(b().PlayedBatches) })
		counter("audio_queue_evicted_total", "Batches evicted from a full delivery queue",
			func() float64 { return float64(b().QueueEvicted) })
		counter("audio_sink_errors_total", "Audio device write failures",
			func() float64 { return float64(b().SinkErrors) })
		gauge("audio_pool_free", "Idle batches in the pool",
			func() float64 { return float64(b().PoolFree) })
		gauge("audio_queue_depth", "Batches waiting for the audio device",
			func() float64 { return float64(b().QueueDepth) })
	}

	if src.Relay != nil {
		r := src.Relay
		counter("video_published_frames_total", "Frames published by the engine",
			func() float64 { return float64(r().Published) })
		counter("video_superseded_frames_total", "Frames replaced before being drawn",
			func() float64 { return float64(r().Superseded) })
		counter("video_rejected_frames_total", "Malformed frames dropped",
			func() float64 { return float64(r().Rejected) })
	}

	if src.Pacer != nil {
		p := src.Pacer
		counter("pacer_ticks_total", "Frames presented",
			func() float64 { return float64(p().Ticks) })
		counter("pacer_real_frames_total", "Real engine frames presented",
			func() float64 { return float64(p().Real) })
		counter("pacer_repeated_frames_total", "Real ticks without new video",
			func() float64 { return float64(p().Repeated) })
		counter("pacer_synthetic_frames_total", "Inserted synthetic frames",
			func() float64 { return float64(p().Synthetic) })
		counter("pacer_held_frames_total", "Refreshes that kept the last real image",
			func() float64 { return float64(p().Held) })
		counter("pacer_present_errors_total", "Failed presents",
			func() float64 { return float64(p().PresentErrors) })
	}

	return m
}

// SetState records the pacing decision
func (m *Metrics) SetState(s pacer.State) {
	m.SwapInterval.Set(float64(s.SwapInterval))
	m.BFIFactor.Set(float64(s.BFIFactor))
	if s.VRR {
		m.VRR.Set(1)
	} else {
		m.VRR.Set(0)
	}
}

// ObserveTick records one pacer tick; it matches pacer.Config.Observe
func (m *Metrics) ObserveTick(kind pacer.FrameKind, elapsed time.Duration) {
	m.TickDuration.WithLabelValues(kind.String()).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
