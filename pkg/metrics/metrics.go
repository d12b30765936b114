package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MetastoreMutations counts admin writes by action (create|update|delete|recover) and result.
	MetastoreMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metastore_admin_metastore_mutations_total",
			Help: "Total number of metastore create, update, delete and recover calls",
		},
		[]string{"action", "result"},
	)

	// ScheduleRuns counts scheduled task executions by task and result (success|failure).
	ScheduleRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metastore_admin_schedule_runs_total",
			Help: "Total number of scheduled task runs",
		},
		[]string{"task", "result"},
	)

	// ScheduledJobs tracks how many schedules are registered with the runner.
	ScheduledJobs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "metastore_admin_scheduled_jobs",
			Help: "Number of enabled schedules registered with the task runner",
		},
	)

	// UserSearches counts user search requests.
	UserSearches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "metastore_admin_user_searches_total",
			Help: "Total number of user search requests",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "metastore_admin_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Result maps an error to the result label.
func Result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
