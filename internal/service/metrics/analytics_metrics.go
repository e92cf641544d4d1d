package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	AnalyticsLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "herdpulse",
			Subsystem: "analytics",
			Name:      "latency_seconds",
			Help:      "Latency of analytics endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	AnalyticsErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "herdpulse",
			Subsystem: "analytics",
			Name:      "errors_total",
			Help:      "Errors by analytics endpoint and kind",
		},
		[]string{"endpoint", "kind"},
	)

	AnalyticsCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "herdpulse",
			Subsystem: "analytics",
			Name:      "cache_requests_total",
			Help:      "Memoised analytics lookups by result",
		},
		[]string{"endpoint", "result"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(AnalyticsLatency, AnalyticsErrors, AnalyticsCache)
	})
}

// Observe records the latency of one call to endpoint since start.
func Observe(endpoint string, start time.Time) {
	AnalyticsLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

func Failed(endpoint, kind string) {
	AnalyticsErrors.WithLabelValues(endpoint, kind).Inc()
}

func CacheLookup(endpoint string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	AnalyticsCache.WithLabelValues(endpoint, result).Inc()
}
