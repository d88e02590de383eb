// Package metrics provides Prometheus metrics for the qualification forecaster.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	registry         prometheus.Registerer

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec

	// Scheduling Metrics
	schedulesGenerated prometheus.Counter
	duplicateAlliances prometheus.Counter

	// Simulation Metrics
	trialsCompleted    prometheus.Counter
	trialsFailed       prometheus.Counter
	simulationDuration prometheus.Histogram
	simulationWorkers  prometheus.Gauge

	// Report Cache Metrics
	cacheHits    prometheus.Counter
	cacheMisses  prometheus.Counter
	cacheEntries prometheus.Gauge

	// Upstream Statistics API Metrics
	upstreamRequests *prometheus.CounterVec
	upstreamErrors   *prometheus.CounterVec
	upstreamLatency  prometheus.Histogram

	errorRateByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "quals",
		subsystem:        "forecast",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
		Buckets:     m.histogramBuckets,
	})
}

func (m *Manager) initializeMetrics() {
	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		ConstLabels: m.customLabels,
		Buckets:     m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total",
		"Total number of failed HTTP requests by endpoint", "endpoint", "method", "error_type")

	m.schedulesGenerated = m.counter("schedules_generated_total", "Total number of generated practice schedules")
	m.duplicateAlliances = m.counter("duplicate_alliances_total", "Matches that had to reuse an alliance pairing")

	m.trialsCompleted = m.counter("simulation_trials_completed_total", "Monte Carlo trials that produced a position")
	m.trialsFailed = m.counter("simulation_trials_failed_total", "Monte Carlo trials that were skipped")
	m.simulationDuration = m.histogram("simulation_duration_milliseconds", "Wall time of one Monte Carlo run")
	m.simulationWorkers = m.gauge("simulation_workers", "Trial workers used by the last Monte Carlo run")

	m.cacheHits = m.counter("report_cache_hits_total", "Event reports served from cache")
	m.cacheMisses = m.counter("report_cache_misses_total", "Event reports that had to be fetched")
	m.cacheEntries = m.gauge("report_cache_entries", "Event reports currently cached")

	m.upstreamRequests = m.counterVec("upstream_requests_total", "Statistics API calls by operation", "operation")
	m.upstreamErrors = m.counterVec("upstream_errors_total", "Failed statistics API calls by operation", "operation")
	m.upstreamLatency = m.histogram("upstream_latency_milliseconds", "Statistics API call latency in milliseconds")

	m.errorRateByComponent = m.counterVec("errors_by_component_total",
		"Errors by component and type", "component", "error_type")
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByEndpoint records an error for a specific endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// Scheduling Metrics Functions.

// RecordScheduleGenerated counts one schedule and its repeated alliances.
func RecordScheduleGenerated(duplicates int) {
	globalManager.schedulesGenerated.Inc()
	globalManager.duplicateAlliances.Add(float64(duplicates))
}

// Simulation Metrics Functions.

// RecordTrialCompleted increments the completed trials counter.
func RecordTrialCompleted() {
	globalManager.trialsCompleted.Inc()
}

// RecordTrialFailed increments the skipped trials counter.
func RecordTrialFailed() {
	globalManager.trialsFailed.Inc()
}

// RecordSimulationDuration records one Monte Carlo run in milliseconds.
func RecordSimulationDuration(durationMs float64) {
	globalManager.simulationDuration.Observe(durationMs)
}

// UpdateSimulationWorkers sets the trial worker gauge.
func UpdateSimulationWorkers(count int) {
	globalManager.simulationWorkers.Set(float64(count))
}

// Cache Metrics Functions.

// RecordCacheHit increments the cache hit counter.
func RecordCacheHit() {
	globalManager.cacheHits.Inc()
}

// RecordCacheMiss increments the cache miss counter.
func RecordCacheMiss() {
	globalManager.cacheMisses.Inc()
}

// UpdateCacheEntries sets the number of cached reports.
func UpdateCacheEntries(count int) {
	globalManager.cacheEntries.Set(float64(count))
}

// Upstream Metrics Functions.

// RecordUpstreamRequest records one statistics API call and its latency.
func RecordUpstreamRequest(operation string, latencyMs float64, err error) {
	globalManager.upstreamRequests.WithLabelValues(operation).Inc()
	globalManager.upstreamLatency.Observe(latencyMs)
	if err != nil {
		globalManager.upstreamErrors.WithLabelValues(operation).Inc()
	}
}

// RecordErrorByComponent records an error for a specific component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
