package metrics

import (
	"HerdPulse/internal/domain/repository"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements repository.Metrics using Prometheus.
type Recorder struct {
	messagesSent *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	latency      *prometheus.HistogramVec
}

var _ repository.Metrics = (*Recorder)(nil)

// New registers the recorder on the default registry. Call it once per process.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the recorder on reg.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		messagesSent: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "herdpulse_yields_ingested_total",
				Help: "Yield records handed to the ingest backend",
			},
			[]string{"backend", "owner"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "herdpulse_ingest_errors_total",
				Help: "Ingest errors by kind",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "herdpulse_ingest_duration_seconds",
				Help:    "Duration of ingest operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordMessageSent counts one record accepted by backend for owner.
func (r *Recorder) RecordMessageSent(backend, owner string) {
	r.messagesSent.WithLabelValues(backend, owner).Inc()
}

func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
