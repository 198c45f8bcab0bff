package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Cron run outcomes used as the result label.
const (
	CronResultSuccess = "success"
	CronResultFailure = "failure"
	CronResultSkipped = "skipped"
)

// CronJobMetrics records maintenance job runs: how long they took, how they
// ended and how many rows they touched.
type CronJobMetrics struct {
	duration *prometheus.HistogramVec
	runs     *prometheus.CounterVec
	rows     *prometheus.CounterVec
}

func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return &CronJobMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cron_job_duration_seconds",
		Help:    "Duration of cron jobs in seconds.",
		Buckets: []float64{.05, .25, 1, 5, 15, 60, 300},
	}, []string{"job"})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cron_job_runs_total",
		Help: "Cron job runs by outcome; skipped means another worker held the job lock.",
	}, []string{"job", "result"})
	rows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cron_job_rows_affected_total",
		Help: "Rows changed or purged by cron jobs.",
	}, []string{"job"})
	reg.MustRegister(duration, runs, rows)
	return &CronJobMetrics{duration: duration, runs: runs, rows: rows}
}

// ObserveRun records a finished run. A nil err counts as success.
func (c *CronJobMetrics) ObserveRun(job string, d time.Duration, affected int64, err error) {
	if c == nil || c.duration == nil {
		return
	}
	job = normalizeLabel(job)
	c.duration.WithLabelValues(job).Observe(d.Seconds())
	if err != nil {
		c.runs.WithLabelValues(job, CronResultFailure).Inc()
		return
	}
	c.runs.WithLabelValues(job, CronResultSuccess).Inc()
	if affected > 0 {
		c.rows.WithLabelValues(job).Add(float64(affected))
	}
}

func (c *CronJobMetrics) IncSkipped(job string) {
	if c == nil || c.runs == nil {
		return
	}
	c.runs.WithLabelValues(normalizeLabel(job), CronResultSkipped).Inc()
}
