package observability

import (
	"maps"
	"sort"
	"strconv"
	"sync"
	"time"
)

// MetricType represents the type of metric.
type MetricType int

const (
	// Counter metrics only increase
	Counter MetricType = iota
	// Gauge metrics can go up or down
	Gauge
	// Histogram metrics track distributions
	Histogram
)

// Metric represents a single metric measurement. For histograms, Value
// holds the last observation while Count and Sum accumulate.
type Metric struct {
	Name      string            `json:"name"`
	Type      MetricType        `json:"type"`
	Value     float64           `json:"value"`
	Count     uint64            `json:"count,omitempty"`
	Sum       float64           `json:"sum,omitempty"`
	Labels    map[string]string `json:"labels"`
	Timestamp time.Time         `json:"timestamp"`
}

// MetricsCollector is the contract for metrics collection.
type MetricsCollector interface {
	IncrementCounter(name string, labels map[string]string)
	IncrementCounterBy(name string, value float64, labels map[string]string)

	SetGauge(name string, value float64, labels map[string]string)
	IncrementGauge(name string, labels map[string]string)
	DecrementGauge(name string, labels map[string]string)

	RecordHistogram(name string, value float64, labels map[string]string)

	GetMetrics() []Metric
	GetMetric(name string, labels map[string]string) (*Metric, bool)
	Reset()
}

// InMemoryMetricsCollector is a simple in-memory metrics collector.
type InMemoryMetricsCollector struct {
	mu      sync.RWMutex
	metrics map[string]*Metric
}

// NewInMemoryMetricsCollector creates a new in-memory metrics collector.
func NewInMemoryMetricsCollector() *InMemoryMetricsCollector {
	return &InMemoryMetricsCollector{
		metrics: make(map[string]*Metric),
	}
}

// IncrementCounter increments a counter metric by 1.
func (c *InMemoryMetricsCollector) IncrementCounter(name string, labels map[string]string) {
	c.IncrementCounterBy(name, 1.0, labels)
}

// IncrementCounterBy increments a counter metric by the specified value.
func (c *InMemoryMetricsCollector) IncrementCounterBy(name string, value float64, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.upsertLocked(name, Counter, labels)
	m.Value += value
	m.Timestamp = time.Now()
}

// SetGauge sets a gauge metric to the specified value.
func (c *InMemoryMetricsCollector) SetGauge(name string, value float64, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.upsertLocked(name, Gauge, labels)
	m.Value = value
	m.Timestamp = time.Now()
}

// IncrementGauge increments a gauge metric by 1.
func (c *InMemoryMetricsCollector) IncrementGauge(name string, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.upsertLocked(name, Gauge, labels)
	m.Value++
	m.Timestamp = time.Now()
}

// DecrementGauge decrements a gauge metric by 1.
func (c *InMemoryMetricsCollector) DecrementGauge(name string, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.upsertLocked(name, Gauge, labels)
	m.Value--
	m.Timestamp = time.Now()
}

// RecordHistogram records a value in a histogram metric.
func (c *InMemoryMetricsCollector) RecordHistogram(name string, value float64, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.upsertLocked(name, Histogram, labels)
	m.Value = value
	m.Count++
	m.Sum += value
	m.Timestamp = time.Now()
}

// GetMetrics returns a snapshot of all metrics.
func (c *InMemoryMetricsCollector) GetMetrics() []Metric {
	c.mu.RLock()
	defer c.mu.RUnlock()

	metrics := make([]Metric, 0, len(c.metrics))
	for _, metric := range c.metrics {
		m := *metric
		m.Labels = copyLabels(metric.Labels)
		metrics = append(metrics, m)
	}
	return metrics
}

// GetMetric returns a copy of a specific metric.
func (c *InMemoryMetricsCollector) GetMetric(name string, labels map[string]string) (*Metric, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	metric, exists := c.metrics[metricKey(name, labels)]
	if !exists {
		return nil, false
	}

	m := *metric
	m.Labels = copyLabels(metric.Labels)
	return &m, true
}

// Reset discards all recorded metrics.
func (c *InMemoryMetricsCollector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics = make(map[string]*Metric)
}

// upsertLocked returns the metric for name+labels, creating it if
// absent. Callers hold the write lock.
func (c *InMemoryMetricsCollector) upsertLocked(name string, typ MetricType, labels map[string]string) *Metric {
	key := metricKey(name, labels)
	metric, exists := c.metrics[key]
	if !exists {
		metric = &Metric{
			Name:   name,
			Type:   typ,
			Labels: copyLabels(labels),
		}
		c.metrics[key] = metric
	}
	return metric
}

// metricKey builds a deterministic key from name and sorted labels.
func metricKey(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return name
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	key := name
	for _, k := range keys {
		key += ":" + k + "=" + labels[k]
	}
	return key
}

// copyLabels creates a copy of the labels map.
func copyLabels(labels map[string]string) map[string]string {
	if labels == nil {
		return nil
	}
	out := make(map[string]string, len(labels))
	maps.Copy(out, labels)
	return out
}

// defaultMetricsCollector is the package-level metrics collector.
var defaultMetricsCollector MetricsCollector = NewInMemoryMetricsCollector()

// SetDefaultMetricsCollector sets the package-level metrics collector.
func SetDefaultMetricsCollector(collector MetricsCollector) {
	defaultMetricsCollector = collector
}

// GetDefaultMetricsCollector returns the package-level metrics collector.
func GetDefaultMetricsCollector() MetricsCollector {
	return defaultMetricsCollector
}

// QueueMetrics records queue events against a collector. It satisfies
// the queue package's Recorder interface; attach it with
// queue.WithRecorder.
type QueueMetrics struct {
	collector MetricsCollector
	labels    map[string]string
}

// NewQueueMetrics creates a recorder for one queue. name identifies the
// queue, policy its admission policy; both become metric labels.
func NewQueueMetrics(collector MetricsCollector, name, policy string) *QueueMetrics {
	if collector == nil {
		collector = defaultMetricsCollector
	}
	return &QueueMetrics{
		collector: collector,
		labels:    map[string]string{"queue": name, "policy": policy},
	}
}

// RecordOffer counts one offer and whether it was admitted.
func (m *QueueMetrics) RecordOffer(admitted bool) {
	labels := copyLabels(m.labels)
	labels["admitted"] = strconv.FormatBool(admitted)
	m.collector.IncrementCounter("queue_offers_total", labels)
}

// RecordTake counts elements removed by consumers.
func (m *QueueMetrics) RecordTake(n int) {
	if n == 0 {
		return
	}
	m.collector.IncrementCounterBy("queue_takes_total", float64(n), m.labels)
}

// RecordEvict counts elements evicted by the sliding policy.
func (m *QueueMetrics) RecordEvict(n int) {
	if n == 0 {
		return
	}
	m.collector.IncrementCounterBy("queue_evictions_total", float64(n), m.labels)
}

// RecordDepth reports the queue depth after a mutation.
func (m *QueueMetrics) RecordDepth(depth int) {
	m.collector.SetGauge("queue_depth", float64(depth), m.labels)
}

// RecordShutdown marks the queue shut down.
func (m *QueueMetrics) RecordShutdown() {
	m.collector.IncrementCounter("queue_shutdowns_total", m.labels)
}

// CellMetrics records cell activity against a collector.
type CellMetrics struct {
	collector MetricsCollector
}

// NewCellMetrics creates a cell metrics recorder.
func NewCellMetrics(collector MetricsCollector) *CellMetrics {
	if collector == nil {
		collector = defaultMetricsCollector
	}
	return &CellMetrics{collector: collector}
}

// RecordFill counts a fill attempt and whether it won the race.
func (m *CellMetrics) RecordFill(won bool) {
	labels := map[string]string{"won": strconv.FormatBool(won)}
	m.collector.IncrementCounter("cell_fills_total", labels)
}

// RecordAwait counts one await.
func (m *CellMetrics) RecordAwait() {
	m.collector.IncrementCounter("cell_awaits_total", nil)
}

// RecordLazyEvaluation counts one evaluation of a lazy producer.
func (m *CellMetrics) RecordLazyEvaluation() {
	m.collector.IncrementCounter("cell_lazy_evaluations_total", nil)
}

// BridgeMetrics records NATS bridge activity against a collector.
type BridgeMetrics struct {
	collector MetricsCollector
}

// NewBridgeMetrics creates a bridge metrics recorder.
func NewBridgeMetrics(collector MetricsCollector) *BridgeMetrics {
	if collector == nil {
		collector = defaultMetricsCollector
	}
	return &BridgeMetrics{collector: collector}
}

// RecordPublished counts a publish attempt per subject.
func (m *BridgeMetrics) RecordPublished(subject string, success bool) {
	labels := map[string]string{
		"subject": subject,
		"success": strconv.FormatBool(success),
	}
	m.collector.IncrementCounter("bridge_messages_published_total", labels)
}

// RecordReceived counts a received message per subject.
func (m *BridgeMetrics) RecordReceived(subject string) {
	m.collector.IncrementCounter("bridge_messages_received_total", map[string]string{"subject": subject})
}

// RecordDecodeError counts a message that failed to decode.
func (m *BridgeMetrics) RecordDecodeError(subject string) {
	m.collector.IncrementCounter("bridge_decode_errors_total", map[string]string{"subject": subject})
}

// RecordHandlerPanic counts a recovered handler panic.
func (m *BridgeMetrics) RecordHandlerPanic(subject string) {
	m.collector.IncrementCounter("bridge_handler_panics_total", map[string]string{"subject": subject})
}

// RecordPublishDuration records how long one publish took.
func (m *BridgeMetrics) RecordPublishDuration(subject string, d time.Duration) {
	m.collector.RecordHistogram("bridge_publish_duration_ms",
		float64(d.Nanoseconds())/1e6, map[string]string{"subject": subject})
}
