package db

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queryLatency = promauto.NewSummaryVec(prometheus.SummaryOpts{
		Name:       "commerce_store_query_latency_ms",
		Help:       "Latency quantiles in milliseconds of store queries by repository operation.",
		Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
	}, []string{"query"})

	queriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "commerce_store_queries_total",
		Help: "Store queries by repository operation and outcome.",
	}, []string{"query", "outcome"})
)

// Metric times one repository operation, such as GetInventory or SaveOrder.
type Metric struct {
	query string
	start time.Time
}

func StartMetric(query string) *Metric {
	return &Metric{query: query, start: time.Now()}
}

// Complete records the latency and outcome of the operation.
func (m *Metric) Complete(err error) {
	queriesTotal.WithLabelValues(m.query, outcome(err)).Inc()
	queryLatency.WithLabelValues(m.query).Observe(float64(time.Since(m.start).Milliseconds()))
}

// outcome classifies a store error. A missing row or a unique conflict is an
// answer the services act on, not a store failure.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case isNotFound(err):
		return "not_found"
	case IsDuplicate(err):
		return "duplicate"
	}
	return "error"
}
