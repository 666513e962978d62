package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		paymentTransitionsTotal,
		enrollmentChangesTotal,
	)
}

var (
	paymentTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_transitions_total",
			Help: "Payment ledger transitions by target status and outcome (applied/noop/illegal).",
		},
		[]string{"to", "outcome"},
	)

	enrollmentChangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrollment_changes_total",
			Help: "Enrollment reconciliation results (created/reactivated/paused/unchanged/missing).",
		},
		[]string{"change"},
	)
)

func IncPaymentTransition(to, outcome string) {
	paymentTransitionsTotal.WithLabelValues(norm(to), norm(outcome)).Inc()
}

func IncEnrollmentChange(change string) {
	enrollmentChangesTotal.WithLabelValues(norm(change)).Inc()
}
