package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for pass issuance. A nil *Metrics is a no-op.
type Metrics struct {
	// Passes dispatched to the display, by variant
	PassesIssued *prometheus.CounterVec

	// Rejected submissions by variant and error kind
	SubmissionFailures *prometheus.CounterVec

	// Display attempts blocked by the gate
	GateRejections *prometheus.CounterVec

	SubmitLatency prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		PassesIssued: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gatepass_passes_issued_total",
			Help: "Total passes persisted and handed to the display",
		}, []string{"variant"}),

		SubmissionFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gatepass_submission_failures_total",
			Help: "Total failed pass submissions by variant and kind",
		}, []string{"variant", "kind"}), // kind: validation, data_integrity, persistence, in_flight, unexpected

		GateRejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gatepass_gate_rejections_total",
			Help: "Total display requests refused by the issuance gate",
		}, []string{"reason"}), // reason: not_found, malformed, record_mismatch

		SubmitLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "gatepass_submit_duration_seconds",
			Help:    "Duration of a pass submission including persistence and dispatch",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

func (m *Metrics) IncIssued(variant string) {
	if m != nil {
		m.PassesIssued.WithLabelValues(variant).Inc()
	}
}

func (m *Metrics) IncFailure(variant, kind string) {
	if m != nil {
		m.SubmissionFailures.WithLabelValues(variant, kind).Inc()
	}
}

func (m *Metrics) IncGateRejection(reason string) {
	if m != nil {
		m.GateRejections.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) ObserveSubmit(d time.Duration) {
	if m != nil {
		m.SubmitLatency.Observe(d.Seconds())
	}
}
