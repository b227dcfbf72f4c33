package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	AuditEntries        *prometheus.CounterVec
	AuditWriteFailures  prometheus.Counter
	SessionsRecorded    *prometheus.CounterVec
	CorrectionsOpened   prometheus.Counter
	CorrectionsResolved prometheus.Counter
	ReportsGenerated    prometheus.Counter
	ReportDuration      prometheus.Histogram
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		AuditEntries: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "maternidad_audit_entries_total",
			Help: "Audit log entries written, by action kind",
		}, []string{"accion"}),
		AuditWriteFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "maternidad_audit_write_failures_total",
			Help: "Audit log writes swallowed by the best-effort contract",
		}),
		SessionsRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "maternidad_sessions_recorded_total",
			Help: "Session log entries written, by event kind",
		}, []string{"evento"}),
		CorrectionsOpened: promauto.NewCounter(prometheus.CounterOpts{
			Name: "maternidad_corrections_opened_total",
			Help: "Correction requests created",
		}),
		CorrectionsResolved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "maternidad_corrections_resolved_total",
			Help: "Correction requests resolved",
		}),
		ReportsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "maternidad_reports_generated_total",
			Help: "REM reports computed",
		}),
		ReportDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "maternidad_report_duration_seconds",
			Help:    "Latency of REM report computation",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// ObserveReportDuration records one report computation.
func (m *Metrics) ObserveReportDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.ReportDuration.Observe(d.Seconds())
	m.ReportsGenerated.Inc()
}
