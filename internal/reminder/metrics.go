package reminder

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the reminder sweep.
type Metrics struct {
	// Sweep runs by terminal status
	Sweeps *prometheus.CounterVec

	// Per-owner outcomes
	Outcomes *prometheus.CounterVec

	// Full sweep latency
	SweepLatency prometheus.Histogram
}

// NewMetrics creates a new Metrics instance with all sweep metrics registered.
func NewMetrics() *Metrics {
	return &Metrics{
		Sweeps: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "legaldocs_reminder_sweeps_total",
			Help: "Total reminder sweep runs by terminal status",
		}, []string{"status"}),

		Outcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "legaldocs_reminder_outcomes_total",
			Help: "Total per-owner reminder outcomes",
		}, []string{"outcome"}),

		SweepLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "legaldocs_reminder_sweep_duration_seconds",
			Help:    "Duration of full reminder sweeps",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
}

// IncrementSweep records a finished sweep run.
func (m *Metrics) IncrementSweep(status SweepStatus) {
	if m != nil {
		m.Sweeps.WithLabelValues(string(status)).Inc()
	}
}

// IncrementOutcome records one per-owner outcome.
func (m *Metrics) IncrementOutcome(outcome Outcome) {
	if m != nil {
		m.Outcomes.WithLabelValues(string(outcome)).Inc()
	}
}

// ObserveSweepLatency records the duration of a sweep run.
func (m *Metrics) ObserveSweepLatency(d time.Duration) {
	if m != nil {
		m.SweepLatency.Observe(d.Seconds())
	}
}
