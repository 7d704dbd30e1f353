package metrics

import "github.com/prometheus/client_golang/prometheus"

// BreakerMetrics tracks the review store circuit breaker.
type BreakerMetrics struct {
	State        prometheus.Gauge
	StateChanges *prometheus.CounterVec
	Rejections   prometheus.Counter
}

// NewBreakerMetrics creates and registers circuit breaker metrics on the given registry.
func NewBreakerMetrics(reg prometheus.Registerer) *BreakerMetrics {
	m := &BreakerMetrics{
		State: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "review_store",
			Name:      "breaker_state",
			Help:      "Review store circuit breaker state (0=closed, 1=half-open, 2=open).",
		}),
		StateChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "review_store",
			Name:      "breaker_state_changes_total",
			Help:      "Total number of review store circuit breaker transitions, by new state.",
		}, []string{"state"}),
		Rejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "review_store",
			Name:      "breaker_rejections_total",
			Help:      "Total number of review fetches rejected while the breaker was open.",
		}),
	}

	reg.MustRegister(m.State, m.StateChanges, m.Rejections)
	return m
}
