// Package metrics provides Prometheus metrics for the lapicque simulation.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector used by the simulation.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Event registry
	eventDispatches     *prometheus.CounterVec
	eventDispatchMillis *prometheus.HistogramVec
	eventSubscribers    *prometheus.GaugeVec

	// Tick drivers
	ticks *prometheus.CounterVec

	// Neurons
	spikes            prometheus.Counter
	excitations       *prometheus.CounterVec
	neuronCount       prometheus.Gauge
	refractoryNeurons prometheus.Gauge

	// Stimulus queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueEnqueueErrors *prometheus.CounterVec
	stimuliApplied     *prometheus.CounterVec
	stimuliDuplicate   prometheus.Counter

	// Activity ranking
	rankingRecords       prometheus.Gauge
	rankingQueryDuration prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "lapicque",
		subsystem:        "sim",
		histogramBuckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100},
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
		Buckets:     m.histogramBuckets,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.eventDispatches = auto.NewCounterVec(
		m.counterOpts("event_dispatches_total", "Dispatch passes per event"),
		[]string{"event"},
	)
	m.eventDispatchMillis = auto.NewHistogramVec(
		m.histogramOpts("event_dispatch_duration_milliseconds", "Time spent running every subscriber of one dispatch pass"),
		[]string{"event"},
	)
	m.eventSubscribers = auto.NewGaugeVec(
		m.gaugeOpts("event_subscribers", "Active subscriptions per event"),
		[]string{"event"},
	)

	m.ticks = auto.NewCounterVec(
		m.counterOpts("driver_ticks_total", "Periods emitted by tick drivers"),
		[]string{"event"},
	)

	m.spikes = auto.NewCounter(m.counterOpts("spikes_total", "Action potentials fired by all neurons"))
	m.excitations = auto.NewCounterVec(
		m.counterOpts("excitations_total", "Voltage perturbations delivered by axons"),
		[]string{"polarity"},
	)
	m.neuronCount = auto.NewGauge(m.gaugeOpts("neurons", "Neurons in the network"))
	m.refractoryNeurons = auto.NewGauge(m.gaugeOpts("refractory_neurons", "Neurons currently in their refractory period"))

	m.queueSize = auto.NewGauge(m.gaugeOpts("stimulus_queue_size", "Stimuli waiting for the next tick"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("stimulus_queue_capacity", "Maximum stimuli the queue can hold"))
	m.queueEnqueued = auto.NewCounter(m.counterOpts("stimulus_enqueued_total", "Stimuli accepted by the queue"))
	m.queueEnqueueErrors = auto.NewCounterVec(
		m.counterOpts("stimulus_enqueue_errors_total", "Stimuli rejected by the queue"),
		[]string{"reason"},
	)
	m.stimuliApplied = auto.NewCounterVec(
		m.counterOpts("stimulus_applied_total", "Stimuli applied to neurons"),
		[]string{"kind"},
	)
	m.stimuliDuplicate = auto.NewCounter(m.counterOpts("stimulus_duplicate_total", "Stimuli dropped as duplicates"))

	m.rankingRecords = auto.NewGauge(m.gaugeOpts("ranking_records", "Neurons tracked by the activity ranking"))
	m.rankingQueryDuration = auto.NewHistogram(m.histogramOpts("ranking_query_duration_milliseconds", "Activity ranking read latency in milliseconds"))

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds"),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorsByComponent = auto.NewCounterVec(
		m.counterOpts("errors_total", "Errors by component and type"),
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Allocated heap bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
}

// RecordEventDispatch records one dispatch pass and its duration.
func RecordEventDispatch(event string, durationMs float64) {
	globalManager.eventDispatches.WithLabelValues(event).Inc()
	globalManager.eventDispatchMillis.WithLabelValues(event).Observe(durationMs)
}

// UpdateEventSubscribers sets the subscriber count for an event.
func UpdateEventSubscribers(event string, count int) {
	globalManager.eventSubscribers.WithLabelValues(event).Set(float64(count))
}

// RecordTick increments the tick counter of a driver.
func RecordTick(event string) {
	globalManager.ticks.WithLabelValues(event).Inc()
}

// RecordSpike increments the spike counter.
func RecordSpike() {
	globalManager.spikes.Inc()
}

// RecordExcitation counts one delivered perturbation.
func RecordExcitation(excitatory bool) {
	polarity := "inhibitory"
	if excitatory {
		polarity = "excitatory"
	}
	globalManager.excitations.WithLabelValues(polarity).Inc()
}

// UpdateNeuronCount sets the network size.
func UpdateNeuronCount(count int) {
	globalManager.neuronCount.Set(float64(count))
}

// UpdateRefractoryNeurons sets how many neurons are refractory.
func UpdateRefractoryNeurons(count int) {
	globalManager.refractoryNeurons.Set(float64(count))
}

// UpdateRankingRecords sets how many neurons the activity ranking tracks.
func UpdateRankingRecords(count int) {
	globalManager.rankingRecords.Set(float64(count))
}

// RecordRankingQuery records the latency of one ranking read.
func RecordRankingQuery(durationMs float64) {
	globalManager.rankingQueryDuration.Observe(durationMs)
}

// UpdateQueueSize sets the current stimulus queue length.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the stimulus queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue counts an accepted stimulus.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueEnqueueError counts a rejected stimulus.
func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
}

// RecordStimulusApplied counts a stimulus applied during a tick.
func RecordStimulusApplied(kind string) {
	globalManager.stimuliApplied.WithLabelValues(kind).Inc()
}

// RecordStimulusDuplicate counts a stimulus dropped by dedupe.
func RecordStimulusDuplicate() {
	globalManager.stimuliDuplicate.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error for a component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets allocated heap bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Totals gathers the global registry and sums every sample of each counter
// and gauge family, keyed by fully qualified metric name.
func Totals() (map[string]float64, error) {
	families, err := customRegistry.Gather()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGather, err)
	}
	out := make(map[string]float64, len(families))
	for _, f := range families {
		var sum float64
		for _, m := range f.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				sum += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				sum += m.GetGauge().GetValue()
			default:
				continue
			}
		}
		out[f.GetName()] = sum
	}
	return out, nil
}
