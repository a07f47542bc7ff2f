package teer

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector provides Prometheus metrics for the call and attempt
// lifecycle. It is safe for concurrent use; a nil collector records nothing.
type MetricsCollector struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight *prometheus.GaugeVec

	attemptsTotal *prometheus.CounterVec
	retriesTotal  *prometheus.CounterVec
	retryWait     *prometheus.HistogramVec

	errorsTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetricsCollector creates a metrics collector on the default registerer.
func NewMetricsCollector() *MetricsCollector {
	return NewMetricsCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsCollectorWithRegistry creates a collector using the supplied registerer.
func NewMetricsCollectorWithRegistry(registerer prometheus.Registerer) *MetricsCollector {
	factory := promauto.With(registerer)

	mc := &MetricsCollector{
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "teer_requests_total",
				Help: "Total number of logical API calls, by final status code",
			},
			[]string{"method", "path", "status_code"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "teer_request_duration_seconds",
				Help:    "Duration of logical API calls including retries and backoff",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status_code"},
		),
		requestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "teer_requests_in_flight",
				Help: "Number of logical API calls currently in flight",
			},
			[]string{"method", "path"},
		),
		attemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "teer_attempts_total",
				Help: "Total number of transport attempts, by outcome",
			},
			[]string{"method", "path", "outcome"},
		),
		retriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "teer_retries_total",
				Help: "Total number of retries scheduled, by reason",
			},
			[]string{"method", "path", "reason"},
		),
		retryWait: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "teer_retry_wait_seconds",
				Help:    "Backoff wait before each retry",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method", "path"},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "teer_errors_total",
				Help: "Total number of failed logical API calls, by error kind",
			},
			[]string{"kind", "method", "path"},
		),
	}

	if reg, ok := registerer.(*prometheus.Registry); ok {
		mc.registry = reg
	}

	return mc
}

// RecordRequestStart increments the in-flight gauge.
func (mc *MetricsCollector) RecordRequestStart(method, path string) {
	if mc == nil {
		return
	}

	mc.requestsInFlight.WithLabelValues(method, path).Inc()
}

// RecordRequestEnd decrements the in-flight gauge.
func (mc *MetricsCollector) RecordRequestEnd(method, path string) {
	if mc == nil {
		return
	}

	mc.requestsInFlight.WithLabelValues(method, path).Dec()
}

// RecordRequest records the final status and duration of a logical call.
// A zero status code means no response was obtained.
func (mc *MetricsCollector) RecordRequest(method, path string, statusCode int, duration time.Duration) {
	if mc == nil {
		return
	}

	code := strconv.Itoa(statusCode)
	mc.requestsTotal.WithLabelValues(method, path, code).Inc()
	mc.requestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
}

// RecordAttempt counts one transport attempt.
func (mc *MetricsCollector) RecordAttempt(method, path string, outcome OutcomeKind) {
	if mc == nil {
		return
	}

	mc.attemptsTotal.WithLabelValues(method, path, outcome.String()).Inc()
}

// RecordRetry counts a scheduled retry and its wait.
func (mc *MetricsCollector) RecordRetry(method, path, reason string, wait time.Duration) {
	if mc == nil {
		return
	}

	mc.retriesTotal.WithLabelValues(method, path, reason).Inc()
	mc.retryWait.WithLabelValues(method, path).Observe(wait.Seconds())
}

// RecordError counts a failed logical call.
func (mc *MetricsCollector) RecordError(kind ErrorKind, method, path string) {
	if mc == nil {
		return
	}

	mc.errorsTotal.WithLabelValues(string(kind), method, path).Inc()
}

// GetRegistry exposes the underlying prometheus registry when one was supplied.
func (mc *MetricsCollector) GetRegistry() *prometheus.Registry {
	if mc == nil {
		return nil
	}
	return mc.registry
}
