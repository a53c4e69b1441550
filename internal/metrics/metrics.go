package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcomes of an export run
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeSkipped = "skipped"
)

// Metrics holds the export collectors
type Metrics struct {
	Runs     *prometheus.CounterVec
	Duration *prometheus.HistogramVec
	Rows     prometheus.Gauge
}

// New registers the export collectors with reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dialoger_export",
			Name:      "runs_total",
			Help:      "Export runs by trigger and outcome.",
		}, []string{"trigger", "outcome"}),
		Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dialoger_export",
			Name:      "duration_seconds",
			Help:      "Time to generate and render an export.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"trigger"}),
		Rows: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "dialoger_export",
			Name:      "rows",
			Help:      "Rows on the all-payments sheet of the last export.",
		}),
	}
}

// ObserveRun records one run. A nil receiver is a no-op.
func (m *Metrics) ObserveRun(trigger, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(trigger, outcome).Inc()
	if outcome != OutcomeSkipped {
		m.Duration.WithLabelValues(trigger).Observe(took.Seconds())
	}
}

// SetRows records the row count of the last export. A nil receiver is a no-op.
func (m *Metrics) SetRows(rows int) {
	if m == nil {
		return
	}
	m.Rows.Set(float64(rows))
}
