// Package metrics provides Prometheus metrics collection for the packing service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestDuration tracks HTTP request duration by method, route pattern, and status code.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status_code"},
	)

	// HTTPRequestTotal tracks total HTTP requests by method, route pattern, and status code.
	HTTPRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	// PackRequestsTotal tracks packing searches by strategy and outcome.
	PackRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pack_requests_total",
			Help: "Total number of packing searches",
		},
		[]string{"strategy", "outcome"},
	)

	// PackDuration tracks the wall time of a full packing search.
	PackDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pack_duration_seconds",
			Help:    "Packing search duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		},
	)

	// PackAttemptsTotal tracks individual solver attempts by result.
	PackAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pack_attempts_total",
			Help: "Total number of solver attempts",
		},
		[]string{"result"},
	)

	// CacheOperationsTotal tracks result cache lookups.
	CacheOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_operations_total",
			Help: "Total number of cache operations",
		},
		[]string{"operation", "result"},
	)

	// CacheSize tracks the number of cached packing results.
	CacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cache_size",
			Help: "Current cache size",
		},
	)
)

// Attempt results.
const (
	AttemptScored      = "scored"
	AttemptSolverError = "solver_error"
	AttemptFallback    = "fallback"
)

// RecordPack records a finished packing search.
func RecordPack(strategy, outcome string, elapsed time.Duration) {
	PackRequestsTotal.WithLabelValues(strategy, outcome).Inc()
	PackDuration.Observe(elapsed.Seconds())
}

// RecordAttempt records a single solver attempt.
func RecordAttempt(result string) {
	PackAttemptsTotal.WithLabelValues(result).Inc()
}

// RecordCacheLookup records a cache get.
func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheOperationsTotal.WithLabelValues("get", result).Inc()
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request count and latency. It must wrap the ServeMux
// directly so the matched route pattern is visible after the call.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(rec.status)
		HTTPRequestDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
		HTTPRequestTotal.WithLabelValues(r.Method, path, status).Inc()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
