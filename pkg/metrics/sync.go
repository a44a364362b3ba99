package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics records metadata for scheduled sync runs and alert dispatches.
type SyncMetrics struct {
	duration    *prometheus.HistogramVec
	success     *prometheus.CounterVec
	failure     *prometheus.CounterVec
	itemsSynced *prometheus.CounterVec
	alertsSent  *prometheus.CounterVec
}

// NewSyncMetrics registers the sync worker metrics on the provided registerer.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sync_job_duration_seconds",
		Help:    "Duration of scheduled sync jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_job_success",
		Help: "Successful sync job executions.",
	}, []string{"job"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_job_failure",
		Help: "Failed sync job executions.",
	}, []string{"job"})
	itemsSynced := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_items_total",
		Help: "Inventory items upserted by sync runs.",
	}, []string{"provider"})
	alertsSent := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "alerts_sent_total",
		Help: "Low-stock alert messages dispatched per channel.",
	}, []string{"channel"})
	reg.MustRegister(duration, success, failure, itemsSynced, alertsSent)
	return &SyncMetrics{
		duration:    duration,
		success:     success,
		failure:     failure,
		itemsSynced: itemsSynced,
		alertsSent:  alertsSent,
	}
}

// ObserveDuration records the duration for the named job.
func (m *SyncMetrics) ObserveDuration(job string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named job.
func (m *SyncMetrics) IncSuccess(job string) {
	if m == nil || m.success == nil {
		return
	}
	m.success.WithLabelValues(normalizeLabel(job)).Inc()
}

// IncFailure increments the failure counter for the named job.
func (m *SyncMetrics) IncFailure(job string) {
	if m == nil || m.failure == nil {
		return
	}
	m.failure.WithLabelValues(normalizeLabel(job)).Inc()
}

// AddItemsSynced accumulates synced item counts for a provider.
func (m *SyncMetrics) AddItemsSynced(provider string, count int) {
	if m == nil || m.itemsSynced == nil || count <= 0 {
		return
	}
	m.itemsSynced.WithLabelValues(normalizeLabel(provider)).Add(float64(count))
}

// IncAlertsSent counts one dispatched alert message on a channel.
func (m *SyncMetrics) IncAlertsSent(channel string) {
	if m == nil || m.alertsSent == nil {
		return
	}
	m.alertsSent.WithLabelValues(normalizeLabel(channel)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
