// Package metrics implements Prometheus metrics for extraction runs.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/DavidRicoCodes/AmarisoftAPI/internal/core"
)

const namespace = "amarilog"

// Collector holds the counters of one run in its own registry, so repeated
// runs in a process (and tests) never share state.
type Collector struct {
	registry *prometheus.Registry

	// LinesTotal counts classified log lines by kind
	LinesTotal *prometheus.CounterVec
	// RecordsTotal counts output records
	RecordsTotal prometheus.Counter
	// EmptyFieldsTotal counts records whose field could not be read
	EmptyFieldsTotal *prometheus.CounterVec
	// MCSLast is the MCS value of the last record that had one
	MCSLast prometheus.Gauge
}

// NewCollector creates a collector with a fresh registry. constLabels are
// attached to every series, e.g. the experiment id.
func NewCollector(constLabels prometheus.Labels) *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		LinesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   namespace,
				Name:        "lines_total",
				Help:        "Total number of log lines read, by kind",
				ConstLabels: constLabels,
			},
			[]string{"kind"},
		),
		RecordsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace:   namespace,
				Name:        "records_total",
				Help:        "Total number of records emitted",
				ConstLabels: constLabels,
			},
		),
		EmptyFieldsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   namespace,
				Name:        "empty_fields_total",
				Help:        "Total number of record fields left empty, by field",
				ConstLabels: constLabels,
			},
			[]string{"field"},
		),
		MCSLast: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace:   namespace,
				Name:        "mcs_last",
				Help:        "MCS attached to the most recent record",
				ConstLabels: constLabels,
			},
		),
	}
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveLine implements pipeline.Observer.
func (c *Collector) ObserveLine(kind core.LineKind) {
	c.LinesTotal.WithLabelValues(kind.String()).Inc()
}

// ObserveRecord implements pipeline.Observer.
func (c *Collector) ObserveRecord(rec *core.OutputRecord) {
	c.RecordsTotal.Inc()
	for name, v := range rec.Fields {
		if v.Empty() {
			c.EmptyFieldsTotal.WithLabelValues(name).Inc()
		}
	}
	if rec.MCS.Valid {
		c.MCSLast.Set(float64(rec.MCS.Value))
	}
}

// WriteTextfile writes the registry in the text exposition format, for the
// node_exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
