package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Request outcomes used as the "outcome" label.
const (
	OutcomeSuccess        = "success"
	OutcomeNoCredential   = "no_credential"
	OutcomeBadInput       = "bad_input"
	OutcomeRetryExhausted = "retries_exhausted"
	OutcomeFailed         = "failed"
)

// Metrics contains all Prometheus metrics for the notes pipeline
type Metrics struct {
	registry *prometheus.Registry

	Requests          *prometheus.CounterVec
	StageDuration     *prometheus.HistogramVec
	SummarizeAttempts prometheus.Histogram
	RateLimitRetries  prometheus.Counter
	TempFilesActive   prometheus.Gauge
	UploadBytes       prometheus.Histogram
}

// New registers the pipeline metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lecture_notes_requests_total",
			Help: "Notes requests by outcome",
		}, []string{"outcome"}),

		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lecture_notes_stage_duration_seconds",
			Help:    "Time spent in each pipeline stage",
			Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600, 1200},
		}, []string{"stage"}),

		SummarizeAttempts: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "lecture_notes_summarize_attempts",
			Help:    "Generative API attempts per successful summary",
			Buckets: []float64{1, 2, 3, 4, 5},
		}),

		RateLimitRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "lecture_notes_rate_limit_retries_total",
			Help: "Generative API calls retried after a rate-limit response",
		}),

		TempFilesActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "lecture_notes_temp_files_active",
			Help: "Uploaded audio files currently staged on disk",
		}),

		UploadBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "lecture_notes_upload_bytes",
			Help:    "Size of uploaded audio files",
			Buckets: prometheus.ExponentialBuckets(1<<20, 2, 10),
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Gatherer exposes the registry for tests.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// The helpers below accept a nil receiver so callers can run without metrics.

func (m *Metrics) RecordRequest(outcome string) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *Metrics) RecordAttempts(attempts int) {
	if m == nil {
		return
	}
	m.SummarizeAttempts.Observe(float64(attempts))
	if attempts > 1 {
		m.RateLimitRetries.Add(float64(attempts - 1))
	}
}

func (m *Metrics) TempFileStaged(size int64) {
	if m == nil {
		return
	}
	m.TempFilesActive.Inc()
	m.UploadBytes.Observe(float64(size))
}

func (m *Metrics) TempFileRemoved() {
	if m == nil {
		return
	}
	m.TempFilesActive.Dec()
}
