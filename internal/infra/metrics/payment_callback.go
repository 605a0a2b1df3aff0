package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		paymentCallbackRequests,
		paymentCallbackDuration,
		compensatingRollbacksTotal,
	)
}

var (
	// result: ok|fail
	// reason: completed|failed|pending|replay|invalid_signature|amount_mismatch|not_found|bad_payload|error
	paymentCallbackRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_callback_requests_total",
			Help: "Count of gateway callbacks by result and reason.",
		},
		[]string{"result", "reason"},
	)

	paymentCallbackDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payment_callback_duration_seconds",
			Help:    "Duration of callback reconciliation in seconds.",
			Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"result"},
	)

	// result: ok|failed. A failed rollback leaves orphaned billable state.
	compensatingRollbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compensating_rollbacks_total",
			Help: "Compensating deletes after a failed gateway leg, by result.",
		},
		[]string{"result"},
	)
)

func IncPaymentCallback(result, reason string) {
	paymentCallbackRequests.WithLabelValues(norm(result), norm(reason)).Inc()
}

func ObservePaymentCallback(result string, seconds float64) {
	paymentCallbackDuration.WithLabelValues(norm(result)).Observe(seconds)
}

func IncCompensatingRollback(result string) {
	compensatingRollbacksTotal.WithLabelValues(norm(result)).Inc()
}
