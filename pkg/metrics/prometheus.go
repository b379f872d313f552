// Package metrics provides Prometheus metrics for the scoreboard service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Index operation outcomes used as the "result" label.
const (
	ResultOK       = "ok"
	ResultNotFound = "not_found"
	ResultInvalid  = "invalid"
	ResultError    = "error"
)

var defaultLatencyBuckets = []float64{
	0.000001, 0.0000025, 0.000005, 0.00001, 0.000025, 0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.01,
}

// Manager owns every metric the service exports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	latencyBuckets   []float64
	registry         prometheus.Registerer

	// Index
	indexOps       *prometheus.CounterVec
	indexOpLatency *prometheus.HistogramVec
	boardMembers   *prometheus.GaugeVec
	boards         prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Ingestion
	queueSize     prometheus.Gauge
	queueCapacity prometheus.Gauge
	queueEnqueued prometheus.Counter
	queueRejected *prometheus.CounterVec
	workerEvents  *prometheus.CounterVec
	workerActive  prometheus.Gauge
	dedupeHits    prometheus.Counter
	dedupeTracked prometheus.Gauge

	// Persistence
	storeOps      *prometheus.CounterVec
	storeDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go collectors out

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager registered on the configured registry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "scoreboard",
		subsystem:        "",
		histogramBuckets: prometheus.DefBuckets,
		latencyBuckets:   defaultLatencyBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one block per metric
	auto := promauto.With(m.registry)

	m.indexOps = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "index_operations_total",
		Help:      "Score index operations by operation and result",
	}, []string{"op", "result"})

	m.indexOpLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "index_operation_seconds",
		Help:      "Score index operation latency in seconds",
		Buckets:   m.latencyBuckets,
	}, []string{"op"})

	m.boardMembers = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "board_members",
		Help:      "Members currently indexed per board",
	}, []string{"board"})

	m.boards = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "boards",
		Help:      "Boards currently materialized in memory",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status code",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_size",
		Help:      "Score events waiting in the ingest queue",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_capacity",
		Help:      "Capacity of the ingest queue",
	})

	m.queueEnqueued = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueued_total",
		Help:      "Score events accepted by the ingest queue",
	})

	m.queueRejected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_rejected_total",
		Help:      "Score events rejected by the ingest queue by reason",
	}, []string{"reason"})

	m.workerEvents = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_events_total",
		Help:      "Score events applied by workers by kind and result",
	}, []string{"kind", "result"})

	m.workerActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "workers_active",
		Help:      "Workers currently draining the ingest queue",
	})

	m.dedupeHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_duplicate_total",
		Help:      "Score events dropped as duplicates",
	})

	m.dedupeTracked = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dedupe_tracked_ids",
		Help:      "Event ids currently remembered by the deduper",
	})

	m.storeOps = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_operations_total",
		Help:      "Persistence operations by backend, operation and result",
	}, []string{"backend", "op", "result"})

	m.storeDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_operation_duration_milliseconds",
		Help:      "Persistence operation duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"backend", "op"})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_total",
		Help:      "Errors by component and type",
	}, []string{"component", "error_type"})
}

// ObserveIndexOp records one index operation started at start.
func (m *Manager) ObserveIndexOp(op, result string, start time.Time) {
	m.indexOps.WithLabelValues(op, result).Inc()
	m.indexOpLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// SetBoardMembers sets the member gauge of one board.
func (m *Manager) SetBoardMembers(board string, n int) {
	m.boardMembers.WithLabelValues(board).Set(float64(n))
}

// DeleteBoard drops the per-board series of a board that was removed.
func (m *Manager) DeleteBoard(board string) {
	m.boardMembers.DeleteLabelValues(board)
}

// SetBoards sets the number of materialized boards.
func (m *Manager) SetBoards(n int) { m.boards.Set(float64(n)) }

// RecordHTTPRequest records one served request.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// UpdateQueue sets the queue size and capacity gauges.
func (m *Manager) UpdateQueue(size, capacity int) {
	m.queueSize.Set(float64(size))
	m.queueCapacity.Set(float64(capacity))
}

// RecordEnqueue counts an accepted event.
func (m *Manager) RecordEnqueue() { m.queueEnqueued.Inc() }

// RecordEnqueueRejected counts a rejected event.
func (m *Manager) RecordEnqueueRejected(reason string) {
	m.queueRejected.WithLabelValues(reason).Inc()
}

// RecordWorkerEvent counts an event applied by a worker.
func (m *Manager) RecordWorkerEvent(kind, result string) {
	m.workerEvents.WithLabelValues(kind, result).Inc()
}

// UpdateWorkerActive sets the active worker gauge.
func (m *Manager) UpdateWorkerActive(n int) { m.workerActive.Set(float64(n)) }

// RecordDuplicate counts a dropped duplicate event.
func (m *Manager) RecordDuplicate() { m.dedupeHits.Inc() }

// UpdateDedupeSize sets the deduper size gauge.
func (m *Manager) UpdateDedupeSize(n int64) { m.dedupeTracked.Set(float64(n)) }

// ObserveStoreOp records one persistence operation started at start.
func (m *Manager) ObserveStoreOp(backend, op, result string, start time.Time) {
	m.storeOps.WithLabelValues(backend, op, result).Inc()
	m.storeDuration.WithLabelValues(backend, op).Observe(float64(time.Since(start).Milliseconds()))
}

// RecordError counts an error by component and type.
func (m *Manager) RecordError(component, errorType string) {
	m.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// Package-level helpers operate on the global manager.

func ObserveIndexOp(op, result string, start time.Time) { globalManager.ObserveIndexOp(op, result, start) }
func SetBoardMembers(board string, n int)               { globalManager.SetBoardMembers(board, n) }
func DeleteBoard(board string)                          { globalManager.DeleteBoard(board) }
func SetBoards(n int)                                   { globalManager.SetBoards(n) }
func UpdateQueue(size, capacity int)                    { globalManager.UpdateQueue(size, capacity) }
func RecordEnqueue()                                    { globalManager.RecordEnqueue() }
func RecordEnqueueRejected(reason string)               { globalManager.RecordEnqueueRejected(reason) }
func RecordWorkerEvent(kind, result string)             { globalManager.RecordWorkerEvent(kind, result) }
func UpdateWorkerActive(n int)                          { globalManager.UpdateWorkerActive(n) }
func RecordDuplicate()                                  { globalManager.RecordDuplicate() }
func UpdateDedupeSize(n int64)                          { globalManager.UpdateDedupeSize(n) }
func RecordError(component, errorType string)           { globalManager.RecordError(component, errorType) }

func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode, durationMs)
}

func ObserveStoreOp(backend, op, result string, start time.Time) {
	globalManager.ObserveStoreOp(backend, op, result, start)
}

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
