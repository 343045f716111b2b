// Package metrics exposes tracker KPIs as Prometheus metrics.
package metrics

import (
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/jask/cortracker/internal/store"
	"github.com/jask/cortracker/internal/view"
)

// TrackerMetrics holds the gauges fed from store snapshots and the counters
// fed from mutations.
type TrackerMetrics struct {
	registry *prometheus.Registry

	openRecords   prometheus.Gauge
	pendingValue  prometheus.Gauge
	agingRecords  *prometheus.GaugeVec
	recordsTotal  prometheus.Gauge
	mutations     *prometheus.CounterVec
	importedTotal prometheus.Counter

	collectors []prometheus.Collector
}

// New creates the tracker metrics and registers them with registry.
func New(registry *prometheus.Registry) (*TrackerMetrics, error) {
	m := &TrackerMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *TrackerMetrics) initMetrics() {
	m.openRecords = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cortracker_open_records",
		Help: "Number of CORs not yet Approved, Rejected or Void",
	})
	m.pendingValue = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cortracker_pending_value",
		Help: "Sum of amounts of open CORs",
	})
	m.agingRecords = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cortracker_aging_records",
			Help: "Open CORs submitted more than bucket days ago",
		},
		[]string{"bucket"},
	)
	m.recordsTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cortracker_records_total",
		Help: "Number of CORs in the collection",
	})
	m.mutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cortracker_mutations_total",
			Help: "Store changes by operation",
		},
		[]string{"op"},
	)
	m.importedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cortracker_imported_records_total",
		Help: "Records added through CSV import",
	})

	m.collectors = []prometheus.Collector{
		m.openRecords,
		m.pendingValue,
		m.agingRecords,
		m.recordsTotal,
		m.mutations,
		m.importedTotal,
	}
}

// Describe implements the Collector interface
func (m *TrackerMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.collectors {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *TrackerMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.collectors {
		collector.Collect(ch)
	}
}

// Observe sets the gauges from the snapshot's full collection.
func (m *TrackerMetrics) Observe(snap store.Snapshot, now time.Time) {
	m.ObserveSummary(view.Summarize(snap.Records, now))
}

// ObserveSummary sets the gauges from precomputed KPIs.
func (m *TrackerMetrics) ObserveSummary(s view.Metrics) {
	m.openRecords.Set(float64(s.OpenCount))
	m.pendingValue.Set(s.PendingValue)
	m.recordsTotal.Set(float64(s.Total))
	m.agingRecords.WithLabelValues(view.AgingOver30.String()).Set(float64(s.Over30))
	m.agingRecords.WithLabelValues(view.AgingOver60.String()).Set(float64(s.Over60))
	m.agingRecords.WithLabelValues(view.AgingOver90.String()).Set(float64(s.Over90))
}

// RecordMutation counts one store change.
func (m *TrackerMetrics) RecordMutation(op store.Op) {
	m.mutations.WithLabelValues(string(op)).Inc()
}

// RecordImported counts records added by an import.
func (m *TrackerMetrics) RecordImported(n int) {
	m.importedTotal.Add(float64(n))
}

// Listener returns a store listener that keeps the metrics current.
func (m *TrackerMetrics) Listener(now func() time.Time) store.Listener {
	return func(op store.Op, snap store.Snapshot) {
		m.RecordMutation(op)
		m.Observe(snap, now())
	}
}

// WriteTextfile writes the registry in the node-exporter textfile format.
func (m *TrackerMetrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

// WriteText writes the registry in the Prometheus text exposition format.
func (m *TrackerMetrics) WriteText(w io.Writer) error {
	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encode metrics: %w", err)
		}
	}
	return nil
}
