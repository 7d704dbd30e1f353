package metrics

import "github.com/prometheus/client_golang/prometheus"

// Computation results, used as the "result" label.
const (
	ResultOK               = "ok"
	ResultStoreUnavailable = "store_unavailable"
	ResultCanceled         = "canceled"
	ResultError            = "error"
)

// AnalyticsMetrics holds Prometheus metrics for analytics computations that missed every cache.
type AnalyticsMetrics struct {
	Computations        *prometheus.CounterVec
	ComputationDuration prometheus.Histogram
	RiskFlagged         prometheus.Counter
}

// NewAnalyticsMetrics creates and registers analytics metrics on the given registry.
func NewAnalyticsMetrics(reg prometheus.Registerer) *AnalyticsMetrics {
	m := &AnalyticsMetrics{
		Computations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "computations_total",
			Help:      "Total number of risk and trend computations, by result.",
		}, []string{"result"}),
		ComputationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "computation_duration_seconds",
			Help:      "Duration of risk and trend computations, store reads included.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		RiskFlagged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "risk_flagged_total",
			Help:      "Total number of computations that produced a risk signal.",
		}),
	}

	reg.MustRegister(m.Computations, m.ComputationDuration, m.RiskFlagged)
	return m
}
