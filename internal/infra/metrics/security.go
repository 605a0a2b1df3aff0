package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(securityEventsTotal, loginAttemptsTotal) }

var (
	securityEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "security_events_total",
			Help: "Security events such as rejected callback signatures.",
		},
		[]string{"kind"},
	)

	loginAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "login_attempts_total",
			Help: "Login attempts by result (ok/invalid/locked/rate_limited).",
		},
		[]string{"result"},
	)
)

func IncSecurityEvent(kind string) {
	securityEventsTotal.WithLabelValues(norm(kind)).Inc()
}

func IncLoginAttempt(result string) {
	loginAttemptsTotal.WithLabelValues(norm(result)).Inc()
}
