// ABOUTME: Prometheus metrics for the playback engine
// ABOUTME: Counts play requests, failures, device opens and live voices
package playback

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains the Prometheus metrics for the playback engine
type Metrics struct {
	PlayRequests   prometheus.Counter
	PlayFailures   *prometheus.CounterVec
	ContextOpens   prometheus.Counter
	ContextResumes prometheus.Counter
	VoicesStarted  prometheus.Counter
	ActiveVoices   prometheus.Gauge
	NoteDuration   prometheus.Histogram
}

// NewMetrics creates the playback metrics and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		PlayRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "sonicmapper_play_requests_total",
			Help: "Total number of non-empty play requests",
		}),
		PlayFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sonicmapper_play_failures_total",
			Help: "Total number of failed play requests",
		}, []string{"kind"}),
		ContextOpens: factory.NewCounter(prometheus.CounterOpts{
			Name: "sonicmapper_output_context_opens_total",
			Help: "Total number of successful output context opens",
		}),
		ContextResumes: factory.NewCounter(prometheus.CounterOpts{
			Name: "sonicmapper_output_context_resumes_total",
			Help: "Total number of resumes of a suspended output context",
		}),
		VoicesStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "sonicmapper_voices_started_total",
			Help: "Total number of voices started on the output device",
		}),
		ActiveVoices: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sonicmapper_active_voices",
			Help: "Current number of voices still playing",
		}),
		NoteDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "sonicmapper_note_duration_seconds",
			Help:    "Duration of played notes",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 8), // 50ms to ~6s
		}),
	}
}

// RecordPlayRequest increments the play request counter
func (m *Metrics) RecordPlayRequest() {
	m.PlayRequests.Inc()
}

// RecordFailure increments the failure counter for kind
func (m *Metrics) RecordFailure(kind string) {
	m.PlayFailures.WithLabelValues(kind).Inc()
}

// RecordContextOpen increments the context open counter
func (m *Metrics) RecordContextOpen() {
	m.ContextOpens.Inc()
}

// RecordContextResume increments the context resume counter
func (m *Metrics) RecordContextResume() {
	m.ContextResumes.Inc()
}

// RecordVoiceStarted counts a new voice and records the note length
func (m *Metrics) RecordVoiceStarted(durationSeconds float64) {
	m.VoicesStarted.Inc()
	m.ActiveVoices.Inc()
	m.NoteDuration.Observe(durationSeconds)
}

// RecordVoiceFinished decrements the live voice gauge
func (m *Metrics) RecordVoiceFinished() {
	m.ActiveVoices.Dec()
}
