package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics counts ledger writes and plan imports.
type LedgerMetrics struct {
	events      *prometheus.CounterVec
	planImports *prometheus.CounterVec
	planRows    prometheus.Counter
}

// NewLedgerMetrics registers the ledger metrics on the provided registerer.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sitestock_ledger_events_total",
		Help: "Shipment events appended to the ledger.",
	}, []string{"op_type"})
	planImports := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sitestock_plan_imports_total",
		Help: "Plan imports by outcome.",
	}, []string{"outcome"})
	planRows := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sitestock_plan_rows_total",
		Help: "Material rows written by plan imports.",
	})
	reg.MustRegister(events, planImports, planRows)
	return &LedgerMetrics{events: events, planImports: planImports, planRows: planRows}
}

// IncEvent counts one appended event of the given operation type.
func (m *LedgerMetrics) IncEvent(opType string) {
	if m == nil || m.events == nil {
		return
	}
	m.events.WithLabelValues(normalizeLabel(opType)).Inc()
}

// ObservePlanImport records the outcome of a plan import and the rows it wrote.
func (m *LedgerMetrics) ObservePlanImport(outcome string, rows int) {
	if m == nil || m.planImports == nil {
		return
	}
	m.planImports.WithLabelValues(normalizeLabel(outcome)).Inc()
	if rows > 0 {
		m.planRows.Add(float64(rows))
	}
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
