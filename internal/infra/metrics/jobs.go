package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(jobsProcessedTotal) }

var jobsProcessedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "jobs_processed_total",
		Help: "Background job runs, labeled by job and status.",
	},
	[]string{"job", "status"}, // status: 'ok', 'failed', 'skipped'
)

func IncJob(job, status string) {
	jobsProcessedTotal.WithLabelValues(norm(job), norm(status)).Inc()
}
