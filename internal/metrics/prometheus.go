package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Attempt results recorded by the backends
const (
	AttemptOK             = "ok"
	AttemptTransportError = "transport_error"
	AttemptInvalidBody    = "invalid_body"
)

// Metrics contains the Prometheus metrics for transcription backends
type Metrics struct {
	registry *prometheus.Registry

	// Per backend call metrics
	Transcriptions        *prometheus.CounterVec
	Attempts              *prometheus.CounterVec
	TranscriptionDuration *prometheus.HistogramVec

	// HTTP API metrics
	Uploads     prometheus.Counter
	UploadBytes prometheus.Histogram
}

// NewMetrics creates the metrics on a dedicated registry so several instances
// can coexist in one process.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		Transcriptions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gspeech_transcriptions_total",
			Help: "Total number of transcription calls by backend and outcome",
		}, []string{"backend", "outcome"}),
		Attempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gspeech_transcription_attempts_total",
			Help: "Total number of requests sent to a backend by result",
		}, []string{"backend", "result"}),
		TranscriptionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gspeech_transcription_duration_seconds",
			Help:    "Time spent per transcription call",
			Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
		}, []string{"backend"}),

		Uploads: factory.NewCounter(prometheus.CounterOpts{
			Name: "gspeech_uploads_total",
			Help: "Total number of audio files uploaded through the HTTP API",
		}),
		UploadBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "gspeech_upload_bytes",
			Help:    "Size of uploaded audio files in bytes",
			Buckets: prometheus.ExponentialBuckets(16*1024, 4, 8),
		}),
	}
}

// RecordAttempt counts one request to a backend
func (m *Metrics) RecordAttempt(backend, result string) {
	if m == nil {
		return
	}
	m.Attempts.WithLabelValues(backend, result).Inc()
}

// RecordTranscription counts one finished call and its duration
func (m *Metrics) RecordTranscription(backend, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.Transcriptions.WithLabelValues(backend, outcome).Inc()
	m.TranscriptionDuration.WithLabelValues(backend).Observe(seconds)
}

// RecordUpload counts one uploaded file
func (m *Metrics) RecordUpload(size int64) {
	if m == nil {
		return
	}
	m.Uploads.Inc()
	m.UploadBytes.Observe(float64(size))
}

// Handler exposes the registry for scraping
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
