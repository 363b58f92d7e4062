// Package jobmetrics holds the Prometheus collectors shared by background jobs.
package jobmetrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for background jobs.
type Metrics struct {
	runs     *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration *prometheus.HistogramVec
	lowStock *prometheus.GaugeVec
	purged   prometheus.Counter
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers the job metrics against the provided registerer. When the
// registerer is nil the default Prometheus registerer is used once.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		defaultOnce.Do(func() {
			defaultMetrics = buildMetrics(prometheus.DefaultRegisterer)
		})
		return defaultMetrics
	}
	return buildMetrics(registerer)
}

// Tracker instruments a single job run.
type Tracker struct {
	metrics *Metrics
	job     string
	start   time.Time
}

// Track starts a tracker for job.
func (m *Metrics) Track(job string) *Tracker {
	return &Tracker{metrics: m, job: job, start: time.Now()}
}

// End records duration and outcome, returning err untouched.
func (t *Tracker) End(err error) error {
	if t == nil || t.metrics == nil || t.job == "" {
		return err
	}
	status := "success"
	if err != nil {
		status = "failure"
		t.metrics.failures.WithLabelValues(t.job).Inc()
	}
	t.metrics.runs.WithLabelValues(t.job, status).Inc()
	t.metrics.duration.WithLabelValues(t.job).Observe(time.Since(t.start).Seconds())
	return err
}

// SetLowStock replaces the low stock gauge with counts per item type.
func (m *Metrics) SetLowStock(counts map[string]int) {
	if m == nil {
		return
	}
	m.lowStock.Reset()
	for itemType, n := range counts {
		m.lowStock.WithLabelValues(itemType).Set(float64(n))
	}
}

// AddPurged counts idempotency keys removed by cleanup.
func (m *Metrics) AddPurged(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.purged.Add(float64(n))
}

func buildMetrics(registerer prometheus.Registerer) *Metrics {
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vpants_jobs_total",
		Help: "Total job executions partitioned by job name and status.",
	}, []string{"job", "status"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vpants_jobs_failures_total",
		Help: "Total failures observed for background jobs.",
	}, []string{"job"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vpants_job_duration_seconds",
		Help:    "Duration in seconds of background job executions.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	lowStock := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "vpants_stock_low_items",
		Help: "Stock entries at or below the low stock threshold by item type.",
	}, []string{"item_type"})
	purged := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vpants_idempotency_keys_purged_total",
		Help: "Idempotency keys removed by the cleanup job.",
	})
	registerer.MustRegister(runs, failures, duration, lowStock, purged)
	return &Metrics{runs: runs, failures: failures, duration: duration, lowStock: lowStock, purged: purged}
}
