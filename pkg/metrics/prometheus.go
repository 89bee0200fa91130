// Package metrics provides Prometheus metrics for the vacancy allocation service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Allocation metrics
	recomputes           *prometheus.CounterVec
	recomputeLatency     prometheus.Histogram
	coalescedEdits       prometheus.Counter
	edits                *prometheus.CounterVec
	invariantViolations  prometheus.Counter
	coordinatorState     prometheus.Gauge
	assignedCandidates   prometheus.Gauge
	unassignedCandidates prometheus.Gauge
	totalCandidates      prometheus.Gauge
	totalSlots           prometheus.Gauge
	slotUtilization      *prometheus.GaugeVec

	// Publication metrics
	publishAttempts   *prometheus.CounterVec
	publishLatency    prometheus.Histogram
	publishSuperseded prometheus.Counter
	publishedVersion  prometheus.Gauge

	// Persistence metrics
	persistenceErrors *prometheus.CounterVec

	// Queue metrics
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueEnqueueRate prometheus.Counter
	queueDequeueRate prometheus.Counter
	queueDropped     prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// RefreshInterval returns how often sampled gauges such as memory and
// queue depth should be refreshed.
func RefreshInterval() time.Duration {
	return globalManager.refreshInterval
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "vacancy",
		subsystem:        "allocation",
		histogramBuckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 1000},
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// name applies the optional metric prefix.
func (m *Manager) name(base string) string {
	if m.metricPrefix == "" {
		return base
	}
	return m.metricPrefix + "_" + base
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	constLabels := prometheus.Labels(m.customLabels)

	m.recomputes = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("recomputes_total"),
		Help:        "Total number of full recompute passes by trigger reason",
		ConstLabels: constLabels,
	}, []string{"reason"})

	m.recomputeLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("recompute_latency_milliseconds"),
		Help:        "Duration of a full serial-dictatorship pass in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: constLabels,
	})

	m.coalescedEdits = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("coalesced_edits_total"),
		Help:        "Edits folded into an already scheduled recompute",
		ConstLabels: constLabels,
	})

	m.edits = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("edits_total"),
		Help:        "Edits submitted to the coordinator by kind and outcome",
		ConstLabels: constLabels,
	}, []string{"kind", "outcome"})

	m.invariantViolations = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("invariant_violations_total"),
		Help:        "Recomputes whose result failed invariant verification",
		ConstLabels: constLabels,
	})

	m.coordinatorState = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("coordinator_state"),
		Help:        "Coordinator state (0 idle, 1 recomputing)",
		ConstLabels: constLabels,
	})

	m.assignedCandidates = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("assigned_candidates"),
		Help:        "Candidates holding a slot in the current assignment",
		ConstLabels: constLabels,
	})

	m.unassignedCandidates = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("unassigned_candidates"),
		Help:        "Candidates without a slot in the current assignment",
		ConstLabels: constLabels,
	})

	m.totalCandidates = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("total_candidates"),
		Help:        "Candidates in the loaded population",
		ConstLabels: constLabels,
	})

	m.totalSlots = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("total_slots"),
		Help:        "Slots in the loaded population",
		ConstLabels: constLabels,
	})

	m.slotUtilization = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("slot_utilization_ratio"),
		Help:        "Occupied seats divided by capacity per slot",
		ConstLabels: constLabels,
	}, []string{"slot"})

	m.publishAttempts = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("publish_attempts_total"),
		Help:        "Assignment publication attempts by sink and outcome",
		ConstLabels: constLabels,
	}, []string{"sink", "outcome"})

	m.publishLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("publish_latency_milliseconds"),
		Help:        "Latency of a single publication attempt in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: constLabels,
	})

	m.publishSuperseded = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("publish_superseded_total"),
		Help:        "Revisions skipped because a newer revision was queued",
		ConstLabels: constLabels,
	})

	m.publishedVersion = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("published_version"),
		Help:        "Version of the last successfully published revision",
		ConstLabels: constLabels,
	})

	m.persistenceErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("persistence_errors_total"),
		Help:        "Preference persistence failures by backend and operation",
		ConstLabels: constLabels,
	}, []string{"backend", "op"})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("publish_queue_size"),
		Help:        "Revisions waiting for publication",
		ConstLabels: constLabels,
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("publish_queue_capacity"),
		Help:        "Maximum revisions held by the publication queue",
		ConstLabels: constLabels,
	})

	m.queueEnqueueRate = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("publish_queue_enqueued_total"),
		Help:        "Revisions enqueued for publication",
		ConstLabels: constLabels,
	})

	m.queueDequeueRate = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("publish_queue_dequeued_total"),
		Help:        "Revisions taken off the publication queue",
		ConstLabels: constLabels,
	})

	m.queueDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("publish_queue_dropped_total"),
		Help:        "Oldest revisions evicted from a full publication queue",
		ConstLabels: constLabels,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("http_requests_total"),
		Help:        "Total number of HTTP requests by endpoint and method",
		ConstLabels: constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("http_request_duration_milliseconds"),
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("errors_by_endpoint_total"),
		Help:        "Total number of errors by endpoint",
		ConstLabels: constLabels,
	}, []string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_memory_usage_bytes"),
		Help:        "System memory usage in bytes",
		ConstLabels: constLabels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_goroutine_count"),
		Help:        "Number of goroutines",
		ConstLabels: constLabels,
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_gc_pause_time_milliseconds"),
		Help:        "GC pause time in milliseconds",
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: constLabels,
	})
}

// Allocation Metrics Functions.

// RecordRecompute counts a full pass and observes its latency.
func RecordRecompute(reason string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.recomputes.WithLabelValues(reason).Inc()
	globalManager.recomputeLatency.Observe(latencyMs)
}

// RecordCoalescedEdit increments the coalesced edits counter.
func RecordCoalescedEdit() {
	globalManager.coalescedEdits.Inc()
}

// RecordEdit counts an edit by kind ("preferences", "rank", "clear") and outcome.
func RecordEdit(kind, outcome string) {
	globalManager.edits.WithLabelValues(kind, outcome).Inc()
}

// RecordInvariantViolation increments the invariant violation counter.
func RecordInvariantViolation() {
	globalManager.invariantViolations.Inc()
}

// UpdateCoordinatorState sets the coordinator state gauge.
func UpdateCoordinatorState(state int) {
	globalManager.coordinatorState.Set(float64(state))
}

// UpdateAssignmentTotals sets the assigned and unassigned gauges.
func UpdateAssignmentTotals(assigned, unassigned int) {
	globalManager.assignedCandidates.Set(float64(assigned))
	globalManager.unassignedCandidates.Set(float64(unassigned))
}

// UpdatePopulationSize sets the candidate and slot gauges.
func UpdatePopulationSize(candidates, slots int) {
	globalManager.totalCandidates.Set(float64(candidates))
	globalManager.totalSlots.Set(float64(slots))
}

// UpdateSlotUtilization sets the utilization ratio for a slot.
func UpdateSlotUtilization(slotID string, utilization float64) {
	globalManager.slotUtilization.WithLabelValues(slotID).Set(utilization)
}

// Publication Metrics Functions.

// RecordPublishAttempt counts a publication attempt and observes its latency.
func RecordPublishAttempt(sink, outcome string, latencyMs float64) {
	globalManager.publishAttempts.WithLabelValues(sink, outcome).Inc()
	globalManager.publishLatency.Observe(latencyMs)
}

// RecordPublishSuperseded increments the superseded revisions counter.
func RecordPublishSuperseded() {
	globalManager.publishSuperseded.Inc()
}

// UpdatePublishedVersion sets the last published version.
func UpdatePublishedVersion(version int64) {
	globalManager.publishedVersion.Set(float64(version))
}

// RecordPersistenceError counts a persistence failure.
func RecordPersistenceError(backend, op string) {
	globalManager.persistenceErrors.WithLabelValues(backend, op).Inc()
}

// Queue Metrics Functions.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueDropped increments the evicted revisions counter.
func RecordQueueDropped() {
	globalManager.queueDropped.Inc()
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
