package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the document module.
type Metrics struct {
	// Status transitions by resulting status
	StatusTransitions *prometheus.CounterVec

	// Documents created and replaced, by owner kind
	DocumentsCreated *prometheus.CounterVec

	// Compliance recompute latency
	RecomputeLatency prometheus.Histogram

	// Legal state changes by resulting state
	LegalStateChanges *prometheus.CounterVec
}

// New creates a new Metrics instance with all document module metrics registered.
func New() *Metrics {
	return &Metrics{
		StatusTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "legaldocs_document_status_transitions_total",
			Help: "Total document status transitions by resulting status",
		}, []string{"status"}),

		DocumentsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "legaldocs_documents_created_total",
			Help: "Total documents created or replaced by owner kind",
		}, []string{"owner_kind", "operation"}), // operation: "create", "replace"

		RecomputeLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "legaldocs_compliance_recompute_duration_seconds",
			Help:    "Duration of owner compliance recomputation",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),

		LegalStateChanges: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "legaldocs_owner_legal_state_changes_total",
			Help: "Total owner legal state changes by resulting state",
		}, []string{"state", "forced"}),
	}
}

// IncrementStatusTransition records a document status transition.
func (m *Metrics) IncrementStatusTransition(status string) {
	if m != nil {
		m.StatusTransitions.WithLabelValues(status).Inc()
	}
}

// IncrementDocumentCreated records a document create or replace.
func (m *Metrics) IncrementDocumentCreated(ownerKind, operation string) {
	if m != nil {
		m.DocumentsCreated.WithLabelValues(ownerKind, operation).Inc()
	}
}

// ObserveRecomputeLatency records the duration of a compliance recompute.
func (m *Metrics) ObserveRecomputeLatency(d time.Duration) {
	if m != nil {
		m.RecomputeLatency.Observe(d.Seconds())
	}
}

// IncrementLegalStateChange records an owner legal state change.
func (m *Metrics) IncrementLegalStateChange(state string, forced bool) {
	if m != nil {
		label := "false"
		if forced {
			label = "true"
		}
		m.LegalStateChanges.WithLabelValues(state, label).Inc()
	}
}
