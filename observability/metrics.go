package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Analysis metrics
	AnalysisRunsTotal     *prometheus.CounterVec
	AnalysisDuration      *prometheus.HistogramVec
	AnalysisProgressTicks prometheus.Counter
	RecommendationsPerRun prometheus.Histogram

	// Alert metrics
	AlertDispatchesTotal *prometheus.CounterVec

	// History metrics
	HistoryEntries prometheus.Gauge

	// Storage metrics
	StorageOpDuration  *prometheus.HistogramVec
	StorageErrorsTotal *prometheus.CounterVec

	// External API metrics
	ExternalAPIRequestsTotal *prometheus.CounterVec
	ExternalAPIErrorsTotal   *prometheus.CounterVec
	ExternalAPIDuration      *prometheus.HistogramVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Circuit breaker metrics
	CircuitBreakerState *prometheus.GaugeVec
	CircuitBreakerTrips *prometheus.CounterVec
}

// defaultBuckets are the default histogram buckets for duration metrics (in seconds)
var defaultBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120}

// countBuckets are histogram buckets for recommendations per run
var countBuckets = []float64{0, 1, 2, 3, 5, 8, 10, 15, 20, 30}

// globalMetrics is the global metrics instance
var globalMetrics *Metrics

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)

	m := &Metrics{
		AnalysisRunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "multibagger",
				Subsystem: "analysis",
				Name:      "runs_total",
				Help:      "Total number of screening runs by outcome",
			},
			[]string{"outcome"},
		),
		AnalysisDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "multibagger",
				Subsystem: "analysis",
				Name:      "duration_seconds",
				Help:      "Duration of screening runs in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"outcome"},
		),
		AnalysisProgressTicks: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "multibagger",
				Subsystem: "analysis",
				Name:      "progress_ticks_total",
				Help:      "Total number of simulated progress ticks",
			},
		),
		RecommendationsPerRun: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "multibagger",
				Subsystem: "analysis",
				Name:      "recommendations",
				Help:      "Number of recommendations returned per successful run",
				Buckets:   countBuckets,
			},
		),

		AlertDispatchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "multibagger",
				Subsystem: "alert",
				Name:      "dispatches_total",
				Help:      "Total number of alert dispatches by outcome",
			},
			[]string{"outcome"},
		),

		HistoryEntries: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "multibagger",
				Subsystem: "history",
				Name:      "entries",
				Help:      "Current number of entries in the history log",
			},
		),

		StorageOpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "multibagger",
				Subsystem: "storage",
				Name:      "operation_duration_seconds",
				Help:      "Duration of durable storage operations in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"backend", "operation"},
		),
		StorageErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "multibagger",
				Subsystem: "storage",
				Name:      "errors_total",
				Help:      "Total number of durable storage errors",
			},
			[]string{"backend", "operation"},
		),

		ExternalAPIRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "multibagger",
				Subsystem: "external_api",
				Name:      "requests_total",
				Help:      "Total number of external API requests",
			},
			[]string{"service", "operation"},
		),
		ExternalAPIErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "multibagger",
				Subsystem: "external_api",
				Name:      "errors_total",
				Help:      "Total number of external API errors",
			},
			[]string{"service", "operation", "error_type"},
		),
		ExternalAPIDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "multibagger",
				Subsystem: "external_api",
				Name:      "duration_seconds",
				Help:      "Duration of external API calls in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"service", "operation"},
		),

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "multibagger",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "multibagger",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "multibagger",
				Subsystem: "http",
				Name:      "response_size_bytes",
				Help:      "Size of HTTP responses in bytes",
				Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "path"},
		),

		CircuitBreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "multibagger",
				Subsystem: "circuit_breaker",
				Name:      "state",
				Help:      "Current state of circuit breakers (0=closed, 1=half-open, 2=open)",
			},
			[]string{"service"},
		),
		CircuitBreakerTrips: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "multibagger",
				Subsystem: "circuit_breaker",
				Name:      "trips_total",
				Help:      "Total number of circuit breaker trips",
			},
			[]string{"service"},
		),
	}

	return m
}

// InitMetrics initializes the global metrics instance
func InitMetrics() *Metrics {
	globalMetrics = NewMetrics(nil)
	return globalMetrics
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	if globalMetrics == nil {
		return InitMetrics()
	}
	return globalMetrics
}

// RecordAnalysisRun records the outcome and duration of a screening run
func (m *Metrics) RecordAnalysisRun(outcome string, duration time.Duration) {
	m.AnalysisRunsTotal.WithLabelValues(outcome).Inc()
	m.AnalysisDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordProgressTick records one simulated progress tick
func (m *Metrics) RecordProgressTick() {
	m.AnalysisProgressTicks.Inc()
}

// RecordRecommendations records the size of a successful result
func (m *Metrics) RecordRecommendations(count int) {
	m.RecommendationsPerRun.Observe(float64(count))
}

// RecordAlertDispatch records an alert dispatch outcome
func (m *Metrics) RecordAlertDispatch(outcome string) {
	m.AlertDispatchesTotal.WithLabelValues(outcome).Inc()
}

// SetHistoryEntries sets the current history log length
func (m *Metrics) SetHistoryEntries(n int) {
	m.HistoryEntries.Set(float64(n))
}

// RecordStorageOp records a durable storage operation
func (m *Metrics) RecordStorageOp(backend, operation string, duration time.Duration) {
	m.StorageOpDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
}

// RecordStorageError records a durable storage error
func (m *Metrics) RecordStorageError(backend, operation string) {
	m.StorageErrorsTotal.WithLabelValues(backend, operation).Inc()
}

// RecordExternalAPIRequest records an external API request
func (m *Metrics) RecordExternalAPIRequest(service, operation string) {
	m.ExternalAPIRequestsTotal.WithLabelValues(service, operation).Inc()
}

// RecordExternalAPIError records an external API error
func (m *Metrics) RecordExternalAPIError(service, operation, errorType string) {
	m.ExternalAPIErrorsTotal.WithLabelValues(service, operation, errorType).Inc()
}

// RecordExternalAPIDuration records the duration of an external API call
func (m *Metrics) RecordExternalAPIDuration(service, operation string, duration time.Duration) {
	m.ExternalAPIDuration.WithLabelValues(service, operation).Observe(duration.Seconds())
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, statusCode string, duration time.Duration, responseSize int) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.HTTPResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
}

// SetCircuitBreakerState sets the current state of a circuit breaker
func (m *Metrics) SetCircuitBreakerState(service string, state int) {
	m.CircuitBreakerState.WithLabelValues(service).Set(float64(state))
}

// RecordCircuitBreakerTrip records a circuit breaker trip
func (m *Metrics) RecordCircuitBreakerTrip(service string) {
	m.CircuitBreakerTrips.WithLabelValues(service).Inc()
}

// Timer is a helper for timing operations
type Timer struct {
	start   time.Time
	metrics *Metrics
}

// NewTimer creates a new timer
func (m *Metrics) NewTimer() *Timer {
	return &Timer{
		start:   time.Now(),
		metrics: m,
	}
}

// ObserveAnalysis records the run duration and outcome
func (t *Timer) ObserveAnalysis(outcome string) {
	t.metrics.RecordAnalysisRun(outcome, time.Since(t.start))
}

// ObserveExternalAPI records the external API duration
func (t *Timer) ObserveExternalAPI(service, operation string) {
	t.metrics.RecordExternalAPIDuration(service, operation, time.Since(t.start))
}

// ObserveStorage records the storage operation duration
func (t *Timer) ObserveStorage(backend, operation string) {
	t.metrics.RecordStorageOp(backend, operation, time.Since(t.start))
}

// Duration returns the elapsed time
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
