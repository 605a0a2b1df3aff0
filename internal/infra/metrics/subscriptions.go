package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		subscriptionPurchasesTotal,
		subscriptionsActivatedTotal,
	)
}

var (
	subscriptionPurchasesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscription_purchases_total",
			Help: "Subscription purchases initiated, by plan and kind (new, renewal).",
		},
		[]string{"plan", "kind"},
	)

	subscriptionsActivatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subscriptions_activated_total",
			Help: "Total number of subscriptions activated by a reconciled payment.",
		},
	)
)

func IncSubscriptionPurchase(plan, kind string) {
	subscriptionPurchasesTotal.WithLabelValues(norm(plan), norm(kind)).Inc()
}

func IncSubscriptionActivated() {
	subscriptionsActivatedTotal.Inc()
}
