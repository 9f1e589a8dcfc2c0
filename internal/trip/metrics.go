package trip

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricJobsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tripweaver_jobs_created_total",
		Help: "Planning jobs accepted.",
	})
	metricJobsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tripweaver_jobs_completed_total",
		Help: "Planning jobs finished successfully.",
	})
	metricJobsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tripweaver_jobs_failed_total",
		Help: "Planning jobs finished in error.",
	})
	metricJobDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tripweaver_job_duration_seconds",
		Help:    "Wall-clock duration of finished jobs.",
		Buckets: prometheus.ExponentialBuckets(5, 2, 10),
	})
	metricSSESubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tripweaver_sse_subscribers",
		Help: "Currently connected progress stream subscribers.",
	})
	metricActiveJobs = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tripweaver_active_jobs",
		Help: "Jobs currently queued or running.",
	})
)

// SSESubscriberGauge is used by the server package to track open streams.
func SSESubscriberGauge() prometheus.Gauge { return metricSSESubscribers }
