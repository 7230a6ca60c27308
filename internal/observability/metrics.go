package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters for registry operations.
type Metrics struct {
	ReportsCreated     *prometheus.CounterVec // labels: priority={Low,Medium,High}
	WorkOrdersAssigned prometheus.Counter
	RepairsLogged      prometheus.Counter
	RepairsCompleted   prometheus.Counter
	ClaimsSubmitted    prometheus.Counter
	OperationErrors    *prometheus.CounterVec // labels: operation, kind={not_found,invalid_input,already_repaired}

	RepairCost  prometheus.Histogram
	ClaimAmount prometheus.Histogram
}

// NewMetrics creates the registry metrics and registers them with reg.
// A nil reg leaves them unregistered, which is what tests want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ReportsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "phtrs",
			Name:      "reports_created_total",
			Help:      "Pothole reports created, by priority.",
		}, []string{"priority"}),
		WorkOrdersAssigned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "phtrs",
			Name:      "work_orders_assigned_total",
			Help:      "Work orders assigned to crews.",
		}),
		RepairsLogged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "phtrs",
			Name:      "repairs_logged_total",
			Help:      "Repair progress entries logged against work orders.",
		}),
		RepairsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "phtrs",
			Name:      "repairs_completed_total",
			Help:      "Work orders marked repaired.",
		}),
		ClaimsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "phtrs",
			Name:      "claims_submitted_total",
			Help:      "Damage claims submitted.",
		}),
		OperationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "phtrs",
			Name:      "operation_errors_total",
			Help:      "Failed registry operations by operation and error kind.",
		}, []string{"operation", "kind"}),
		RepairCost: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "phtrs",
			Name:      "repair_cost",
			Help:      "Cost computed by each repair log entry.",
			Buckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}),
		ClaimAmount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "phtrs",
			Name:      "claim_amount",
			Help:      "Amount requested per damage claim.",
			Buckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000},
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.ReportsCreated,
			m.WorkOrdersAssigned,
			m.RepairsLogged,
			m.RepairsCompleted,
			m.ClaimsSubmitted,
			m.OperationErrors,
			m.RepairCost,
			m.ClaimAmount,
		)
	}
	return m
}
