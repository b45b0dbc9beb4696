// Package metrics provides Prometheus metrics for the pegsync service.
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
	registry         prometheus.Registerer

	// Allocation
	allocations        *prometheus.CounterVec
	allocationDuration *prometheus.HistogramVec
	unplaced           prometheus.Counter
	fairnessScore      prometheus.Gauge
	swaps              prometheus.Counter
	swapErrors         prometheus.Counter

	// Persistence
	savesAccepted  prometheus.Counter
	savesDuplicate prometheus.Counter
	savesRejected  prometheus.Counter
	historyRecords prometheus.Gauge
	persistLatency prometheus.Histogram
	persistErrors  prometheus.Counter

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueue       prometheus.Counter
	queueDequeue       prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Workers
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "pegsync",
		subsystem:        "allocator",
		histogramBuckets: prometheus.DefBuckets,
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
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.allocations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "allocations_total",
		Help: "Total number of allocations generated by mode",
	}, []string{"mode"})
	m.allocationDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "allocation_duration_milliseconds",
		Help:    "Time spent generating an allocation",
		Buckets: m.histogramBuckets,
	}, []string{"mode"})
	m.unplaced = m.counter("unplaced_participants_total", "Participants left without a slot because the roster exceeded the slot count")
	m.fairnessScore = m.gauge("fairness_score", "Most recently computed season fairness score (0-100)")
	m.swaps = m.counter("swaps_total", "Total number of manual slot swaps")
	m.swapErrors = m.counter("swap_errors_total", "Swaps rejected for out of range indices")

	m.savesAccepted = m.counter("saves_accepted_total", "Allocation saves accepted for persistence")
	m.savesDuplicate = m.counter("saves_duplicate_total", "Allocation saves acknowledged as duplicates")
	m.savesRejected = m.counter("saves_rejected_total", "Allocation saves refused under backpressure")
	m.historyRecords = m.gauge("history_records", "Number of stored historical slot assignments")
	m.persistLatency = m.histogram("persist_latency_milliseconds", "Time spent writing an allocation to the history store")
	m.persistErrors = m.counter("persist_errors_total", "Allocation writes that failed")

	m.queueSize = m.gauge("queue_size", "Current size of the persistence queue")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum persistence queue capacity")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Persistence queue utilization (0.0-1.0)")
	m.queueEnqueue = m.counter("queue_enqueue_total", "Save requests enqueued")
	m.queueDequeue = m.counter("queue_dequeue_total", "Save requests dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Save requests the queue refused")

	m.workerCount = m.gauge("worker_count", "Number of persistence workers")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Time a worker spends on one save request")

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "http_requests_total",
		Help: "Total number of HTTP requests by endpoint and method",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "http_request_duration_milliseconds",
		Help:    "HTTP request duration in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "errors_by_component_total",
		Help: "Errors by component and type",
	}, []string{"component", "error_type"})
	m.errorsByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "errors_by_endpoint_total",
		Help: "Errors by endpoint, method and type",
	}, []string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "Average GC pause time")
}

// RecordAllocation records one generated allocation.
func RecordAllocation(mode string, durationMs float64, unplaced int) {
	globalManager.allocations.WithLabelValues(mode).Inc()
	globalManager.allocationDuration.WithLabelValues(mode).Observe(durationMs)
	if unplaced > 0 {
		globalManager.unplaced.Add(float64(unplaced))
	}
}

// UpdateFairnessScore sets the last computed fairness score.
func UpdateFairnessScore(score int) {
	globalManager.fairnessScore.Set(float64(score))
}

// RecordSwap records a swap; ok is false when the indices were rejected.
func RecordSwap(ok bool) {
	if ok {
		globalManager.swaps.Inc()
		return
	}
	globalManager.swapErrors.Inc()
}

// RecordSaveAccepted increments accepted saves.
func RecordSaveAccepted() { globalManager.savesAccepted.Inc() }

// RecordSaveDuplicate increments duplicate saves.
func RecordSaveDuplicate() { globalManager.savesDuplicate.Inc() }

// RecordSaveRejected increments saves refused under backpressure.
func RecordSaveRejected() { globalManager.savesRejected.Inc() }

// UpdateHistoryRecords sets the stored history size.
func UpdateHistoryRecords(count int) {
	globalManager.historyRecords.Set(float64(count))
}

// RecordPersist records a history write and whether it failed.
func RecordPersist(latencyMs float64, err error) {
	globalManager.persistLatency.Observe(latencyMs)
	if err != nil {
		globalManager.persistErrors.Inc()
	}
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) { globalManager.queueUtilization.Set(utilization) }

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() { globalManager.queueEnqueue.Inc() }

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() { globalManager.queueDequeue.Inc() }

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() { globalManager.queueEnqueueErrors.Inc() }

// UpdateWorkerCount sets the number of workers.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordHTTPRequest records an HTTP request and its duration.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.systemGCPauseTime.Observe(pauseMs) }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
