package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		ticketPurchasesTotal,
		ticketScansTotal,
		ticketsExpiredTotal,
	)
}

var (
	ticketPurchasesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_purchases_total",
			Help: "Ticket purchases by mode (subscription/payment/failed).",
		},
		[]string{"mode"},
	)

	ticketScansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_scans_total",
			Help: "Gate scans by type and result.",
		},
		[]string{"type", "result"},
	)

	ticketsExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tickets_expired_total",
			Help: "Total number of tickets marked expired by the expiry worker.",
		},
	)
)

func IncTicketPurchase(mode string) {
	ticketPurchasesTotal.WithLabelValues(norm(mode)).Inc()
}

func IncTicketScan(scanType, result string) {
	ticketScansTotal.WithLabelValues(norm(scanType), norm(result)).Inc()
}

func AddTicketsExpired(n int64) {
	ticketsExpiredTotal.Add(float64(n))
}
