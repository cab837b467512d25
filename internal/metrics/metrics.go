// Package metrics holds the Prometheus instruments of a run. Metrics live
// on a private registry and are exported to a text file when the run ends.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Option configures a Manager.
type Option func(*Manager)

// WithNamespace sets the metric namespace.
func WithNamespace(ns string) Option {
	return func(m *Manager) { m.namespace = ns }
}

// WithRegistry registers the metrics on r instead of a fresh registry.
func WithRegistry(r *prometheus.Registry) Option {
	return func(m *Manager) { m.registry = r }
}

// WithDurationBuckets overrides the partition duration buckets.
func WithDurationBuckets(b []float64) Option {
	return func(m *Manager) { m.buckets = b }
}

// Manager owns the run metrics.
type Manager struct {
	namespace string
	buckets   []float64
	registry  *prometheus.Registry

	eventsScanned       prometheus.Counter
	eventsSelected      prometheus.Counter
	unavailableValues   prometheus.Counter
	partitionsCompleted prometheus.Counter
	datasetsSkipped     prometheus.Counter
	partitionDuration   prometheus.Histogram
}

// NewManager creates the metrics on a private registry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "cutflow",
		buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}

	auto := promauto.With(m.registry)
	m.eventsScanned = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "events_scanned_total",
		Help:      "Events read from partitions.",
	})
	m.eventsSelected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "events_selected_total",
		Help:      "Events that passed every cut.",
	})
	m.unavailableValues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "unavailable_values_total",
		Help:      "Output values that could not be computed for a selected event.",
	})
	m.partitionsCompleted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "partitions_completed_total",
		Help:      "Partitions scanned and merged.",
	})
	m.datasetsSkipped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "datasets_skipped_total",
		Help:      "Input datasets without events for the channel.",
	})
	m.partitionDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "partition_duration_seconds",
		Help:      "Wall time of one partition scan.",
		Buckets:   m.buckets,
	})
	return m
}

// Registry returns the registry holding the metrics.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// ObservePartition records a finished partition.
func (m *Manager) ObservePartition(scanned, selected, unavailable int, d time.Duration) {
	m.eventsScanned.Add(float64(scanned))
	m.eventsSelected.Add(float64(selected))
	m.unavailableValues.Add(float64(unavailable))
	m.partitionsCompleted.Inc()
	m.partitionDuration.Observe(d.Seconds())
}

// DatasetSkipped records a dataset that was left out of the plan.
func (m *Manager) DatasetSkipped() {
	m.datasetsSkipped.Inc()
}

// WriteTextfile writes the metrics in the text exposition format.
func (m *Manager) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
