// Package monitoring holds the Prometheus metrics for the pipeline.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application. A nil *Metrics is
// valid and records nothing, so library code never needs a registry.
type Metrics struct {
	DecisionsTotal   *prometheus.CounterVec
	SpendTotal       prometheus.Counter
	WastedSpendTotal prometheus.Counter
	RunDocuments     prometheus.Histogram
	BudgetRemaining  prometheus.Gauge

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		DecisionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_decisions_total",
			Help: "Documents decided, by terminal outcome.",
		}, []string{"outcome"}),
		SpendTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_spend_dollars_total",
			Help: "Total enrichment spend charged, in dollars.",
		}),
		WastedSpendTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_wasted_spend_dollars_total",
			Help: "Spend on enrichments later reclassified as semantic duplicates.",
		}),
		RunDocuments: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "pipeline_run_documents",
			Help:    "Batch sizes of pipeline runs.",
			Buckets: []float64{10, 50, 100, 500, 1000, 5000},
		}),
		BudgetRemaining: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "budget_remaining_dollars",
			Help: "Remaining daily enrichment budget, in dollars.",
		}),
		HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}
}

// ObserveDecision records one terminal decision and its charged cost.
func (m *Metrics) ObserveDecision(outcome string, cost float64) {
	if m == nil {
		return
	}
	m.DecisionsTotal.WithLabelValues(outcome).Inc()
	if cost > 0 {
		m.SpendTotal.Add(cost)
	}
}

// ObserveRun records batch-level aggregates for a completed run. Spend is
// already counted per decision.
func (m *Metrics) ObserveRun(documents int, wastedSpend float64) {
	if m == nil {
		return
	}
	m.RunDocuments.Observe(float64(documents))
	if wastedSpend > 0 {
		m.WastedSpendTotal.Add(wastedSpend)
	}
}

// SetBudgetRemaining updates the remaining-budget gauge.
func (m *Metrics) SetBudgetRemaining(remaining float64) {
	if m == nil {
		return
	}
	m.BudgetRemaining.Set(remaining)
}

// ObserveHTTP records one handled HTTP request.
func (m *Metrics) ObserveHTTP(method, path, status string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(seconds)
}
