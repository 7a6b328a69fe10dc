package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eduproc",
		Subsystem: "jobs",
		Name:      "finished_total",
		Help:      "Jobs finished, labeled by terminal status.",
	}, []string{"status"})

	jobStepRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eduproc",
		Subsystem: "jobs",
		Name:      "step_retries_total",
		Help:      "Retry attempts performed inside job steps.",
	}, []string{"step"})

	jobStepTimeouts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eduproc",
		Subsystem: "jobs",
		Name:      "step_timeouts_total",
		Help:      "Job steps that hit their time budget.",
	}, []string{"step"})

	jobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "eduproc",
		Subsystem: "jobs",
		Name:      "duration_seconds",
		Help:      "End-to-end job processing duration.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
	}, []string{"job_type"})

	connectivityTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eduproc",
		Subsystem: "connectivity",
		Name:      "transitions_total",
		Help:      "Online/offline transitions observed by the monitor.",
	}, []string{"state"})
)

// IncJobFinished records a job reaching a terminal status
func IncJobFinished(status string) {
	jobsTotal.WithLabelValues(status).Inc()
}

// IncStepRetry records one retry attempt within a step
func IncStepRetry(step string) {
	jobStepRetries.WithLabelValues(step).Inc()
}

// IncStepTimeout records a step exceeding its time budget
func IncStepTimeout(step string) {
	jobStepTimeouts.WithLabelValues(step).Inc()
}

// ObserveJobDuration records total processing time for a job
func ObserveJobDuration(jobType string, seconds float64) {
	jobDuration.WithLabelValues(jobType).Observe(seconds)
}

// IncConnectivityTransition records an online/offline flip
func IncConnectivityTransition(state string) {
	connectivityTransitions.WithLabelValues(state).Inc()
}
