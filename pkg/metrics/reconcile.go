package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ReconcileMetrics records stock reconciliation runs.
type ReconcileMetrics struct {
	duration *prometheus.HistogramVec
	rows     *prometheus.CounterVec
	fetches  *prometheus.CounterVec
}

// NewReconcileMetrics registers the reconciliation metrics on the provided registerer.
func NewReconcileMetrics(reg prometheus.Registerer) *ReconcileMetrics {
	if reg == nil {
		return &ReconcileMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sitestock_reconcile_duration_seconds",
		Help:    "Duration of reconciliation runs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	rows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sitestock_reconcile_rows_total",
		Help: "Plan rows reconciled, split by match result.",
	}, []string{"result"})
	fetches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sitestock_stock_fetch_total",
		Help: "Stock source fetch attempts by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(duration, rows, fetches)
	return &ReconcileMetrics{duration: duration, rows: rows, fetches: fetches}
}

// ObserveRun records the duration of a run with its outcome.
func (m *ReconcileMetrics) ObserveRun(outcome string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(outcome)).Observe(duration.Seconds())
}

// AddRows counts matched and unmatched report rows.
func (m *ReconcileMetrics) AddRows(matched, unmatched int) {
	if m == nil || m.rows == nil {
		return
	}
	m.rows.WithLabelValues("matched").Add(float64(matched))
	m.rows.WithLabelValues("unmatched").Add(float64(unmatched))
}

// IncFetch counts one stock fetch attempt.
func (m *ReconcileMetrics) IncFetch(outcome string) {
	if m == nil || m.fetches == nil {
		return
	}
	m.fetches.WithLabelValues(normalizeLabel(outcome)).Inc()
}
