package metrics

import "github.com/prometheus/client_golang/prometheus"

// Prometheus metrics for the job lifecycle and escrow engine.
var (
	TransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "job_transitions_total",
			Help: "Total number of committed job state transitions",
		},
		[]string{"to"},
	)

	TransitionsRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "job_transitions_rejected_total",
			Help: "Total number of rejected job state transitions",
		},
	)

	SplitsMaterializedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payment_splits_materialized_total",
			Help: "Total number of payment splits created at job completion",
		},
	)

	HeldReleasesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "held_payments_released_total",
			Help: "Total number of held payments released",
		},
	)

	CompliancePenaltiesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "compliance_penalties_total",
			Help: "Total number of compliance penalties applied to held payments",
		},
	)

	ClaimsSubmittedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "after_sales_claims_submitted_total",
			Help: "Total number of after-sales claims submitted",
		},
	)

	ClaimsEscalatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "after_sales_claims_escalated_total",
			Help: "Total number of claims escalated to arbitration",
		},
	)
)

// Register registers all Prometheus metrics.
func Register() {
	prometheus.MustRegister(TransitionsTotal)
	prometheus.MustRegister(TransitionsRejectedTotal)
	prometheus.MustRegister(SplitsMaterializedTotal)
	prometheus.MustRegister(HeldReleasesTotal)
	prometheus.MustRegister(CompliancePenaltiesTotal)
	prometheus.MustRegister(ClaimsSubmittedTotal)
	prometheus.MustRegister(ClaimsEscalatedTotal)
}
