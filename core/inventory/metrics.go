package inventory

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ledgerOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "commerce_ledger_operations_total",
		Help: "Ledger operations by operation and outcome.",
	}, []string{"op", "outcome"})

	ledgerUnits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "commerce_ledger_units_total",
		Help: "Units moved through the ledger by operation.",
	}, []string{"op"})

	lowStockTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "commerce_low_stock_total",
		Help: "Number of times a product fell to or below its reorder level.",
	})
)

func recordLedger(op string, units int64, err error) {
	outcome := "ok"
	switch se, ok := AsStockError(err); {
	case ok:
		outcome = se.Kind.Error()
	case err != nil:
		outcome = "error"
	default:
		ledgerUnits.WithLabelValues(op).Add(float64(units))
	}
	ledgerOpsTotal.WithLabelValues(op, outcome).Inc()
}
