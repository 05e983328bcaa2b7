// Package metrics provides Prometheus metrics for the palmares snapshot service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the palmares service.
type Manager struct {
	namespace      string
	latencyBuckets []float64
	runBuckets     []float64
	registry       prometheus.Registerer

	// Store metrics
	snapshotsAppended *prometheus.CounterVec
	storeReadLatency  prometheus.Histogram
	storeWriteLatency prometheus.Histogram
	storeErrors       *prometheus.CounterVec
	recordsAppended   *prometheus.CounterVec

	// Capture ingestion
	capturesReceived  *prometheus.CounterVec
	capturesDuplicate prometheus.Counter
	capturesFailed    *prometheus.CounterVec
	queueSize         prometheus.Gauge
	queueCapacity     prometheus.Gauge
	queueEnqueueError prometheus.Counter

	// Aggregation and reconciliation
	aggregationRuns     *prometheus.CounterVec
	aggregationDuration prometheus.Histogram
	aggregationSkipped  *prometheus.CounterVec
	aggregationSeasons  prometheus.Gauge
	reconcileRuns       *prometheus.CounterVec
	ambiguousFinals     *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:      "palmares",
		latencyBuckets: []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		runBuckets:     []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
		registry:       prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.snapshotsAppended = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "store",
		Name:      "snapshots_appended_total",
		Help:      "Snapshots appended to a competition history",
	}, []string{"competition"})

	m.storeReadLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "store",
		Name:      "read_latency_milliseconds",
		Help:      "Latency of full history reads in milliseconds",
		Buckets:   m.latencyBuckets,
	})

	m.storeWriteLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "store",
		Name:      "write_latency_milliseconds",
		Help:      "Latency of history writes in milliseconds",
		Buckets:   m.latencyBuckets,
	})

	m.storeErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "store",
		Name:      "errors_total",
		Help:      "Store errors by kind (corrupt, unwritable, invalid)",
	}, []string{"kind"})

	m.recordsAppended = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "store",
		Name:      "records_appended_total",
		Help:      "Raw match and award records appended to journals",
	}, []string{"journal"})

	m.capturesReceived = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "captures",
		Name:      "received_total",
		Help:      "Captures accepted for ingestion by type",
	}, []string{"type"})

	m.capturesDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "captures",
		Name:      "duplicate_total",
		Help:      "Captures dropped because their id was already seen",
	})

	m.capturesFailed = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "captures",
		Name:      "failed_total",
		Help:      "Captures the writer could not persist by type",
	}, []string{"type"})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "captures",
		Name:      "queue_size",
		Help:      "Captures waiting for the writer",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "captures",
		Name:      "queue_capacity",
		Help:      "Capacity of the capture queue",
	})

	m.queueEnqueueError = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "captures",
		Name:      "enqueue_errors_total",
		Help:      "Captures rejected because the queue was full or closed",
	})

	m.aggregationRuns = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "aggregation",
		Name:      "runs_total",
		Help:      "General aggregation runs by result",
	}, []string{"result"})

	m.aggregationDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "aggregation",
		Name:      "duration_milliseconds",
		Help:      "Duration of general aggregation runs in milliseconds",
		Buckets:   m.runBuckets,
	})

	m.aggregationSkipped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "aggregation",
		Name:      "skipped_competitions_total",
		Help:      "Competitions skipped during aggregation by reason",
	}, []string{"competition", "reason"})

	m.aggregationSeasons = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "aggregation",
		Name:      "seasons",
		Help:      "Season snapshots produced by the last aggregation run",
	})

	m.reconcileRuns = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "reconcile",
		Name:      "runs_total",
		Help:      "History restore runs by result",
	}, []string{"result"})

	m.ambiguousFinals = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "champions",
		Name:      "ambiguous_finals_total",
		Help:      "Level cup finals whose winner could not be resolved",
	}, []string{"competition"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method, endpoint and status",
	}, []string{"method", "endpoint", "status"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.latencyBuckets,
	}, []string{"method", "endpoint"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "memory_usage_bytes",
		Help:      "System memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "goroutine_count",
		Help:      "Number of goroutines",
	})
}

// RecordSnapshotAppended counts one snapshot appended to competition.
func RecordSnapshotAppended(competition string) {
	globalManager.snapshotsAppended.WithLabelValues(competition).Inc()
}

// RecordStoreReadLatency records a history read latency in milliseconds.
func RecordStoreReadLatency(latencyMs float64) {
	globalManager.storeReadLatency.Observe(latencyMs)
}

// RecordStoreWriteLatency records a history write latency in milliseconds.
func RecordStoreWriteLatency(latencyMs float64) {
	globalManager.storeWriteLatency.Observe(latencyMs)
}

// RecordStoreError counts a store error of the given kind.
func RecordStoreError(kind string) {
	globalManager.storeErrors.WithLabelValues(kind).Inc()
}

// RecordRecordAppended counts a raw record appended to journal.
func RecordRecordAppended(journal string) {
	globalManager.recordsAppended.WithLabelValues(journal).Inc()
}

// RecordCaptureReceived counts an accepted capture of the given type.
func RecordCaptureReceived(captureType string) {
	globalManager.capturesReceived.WithLabelValues(captureType).Inc()
}

// RecordCaptureDuplicate counts a capture dropped as a duplicate.
func RecordCaptureDuplicate() {
	globalManager.capturesDuplicate.Inc()
}

// RecordCaptureFailed counts a capture the writer failed to persist.
func RecordCaptureFailed(captureType string) {
	globalManager.capturesFailed.WithLabelValues(captureType).Inc()
}

// UpdateQueueSize sets the current capture queue depth.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the capture queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueueError counts a rejected enqueue.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueError.Inc()
}

// RecordAggregationRun counts an aggregation run with result "ok" or "error".
func RecordAggregationRun(result string, durationMs float64) {
	globalManager.aggregationRuns.WithLabelValues(result).Inc()
	globalManager.aggregationDuration.Observe(durationMs)
}

// RecordAggregationSkipped counts a competition left out of an aggregation run.
func RecordAggregationSkipped(competition, reason string) {
	globalManager.aggregationSkipped.WithLabelValues(competition, reason).Inc()
}

// UpdateAggregationSeasons sets how many season snapshots the last run produced.
func UpdateAggregationSeasons(n int) {
	globalManager.aggregationSeasons.Set(float64(n))
}

// RecordReconcileRun counts a history restore with result "ok", "refused" or "error".
func RecordReconcileRun(result string) {
	globalManager.reconcileRuns.WithLabelValues(result).Inc()
}

// RecordAmbiguousFinal counts a level cup final without a resolvable winner.
func RecordAmbiguousFinal(competition string) {
	globalManager.ambiguousFinals.WithLabelValues(competition).Inc()
}

// RecordHTTPRequest records an HTTP request with method, endpoint, and status.
func RecordHTTPRequest(method, endpoint, status string) {
	globalManager.httpRequests.WithLabelValues(method, endpoint, status).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(method, endpoint string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(method, endpoint).Observe(durationMs)
}

// UpdateSystemMemoryUsage sets the memory usage gauge in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
