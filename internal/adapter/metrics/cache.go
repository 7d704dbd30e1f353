package metrics

import "github.com/prometheus/client_golang/prometheus"

// Cache layers, used as the "layer" label.
const (
	LayerMemory = "memory"
	LayerRedis  = "redis"
)

// CacheMetrics holds Prometheus metrics for the analytics result caches.
type CacheMetrics struct {
	Hits          *prometheus.CounterVec
	Misses        *prometheus.CounterVec
	Invalidations prometheus.Counter
	Evictions     prometheus.Counter
	Size          prometheus.Gauge
}

// NewCacheMetrics creates and registers cache metrics on the given registry.
func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	m := &CacheMetrics{
		Hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analytics_cache",
			Name:      "hits_total",
			Help:      "Total number of analytics cache hits, by layer.",
		}, []string{"layer"}),
		Misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analytics_cache",
			Name:      "misses_total",
			Help:      "Total number of analytics cache misses, by layer.",
		}, []string{"layer"}),
		Invalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analytics_cache",
			Name:      "invalidations_total",
			Help:      "Total number of per-organization analytics cache invalidations.",
		}),
		Evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analytics_cache",
			Name:      "evictions_total",
			Help:      "Total number of expired in-memory entries evicted.",
		}),
		Size: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "analytics_cache",
			Name:      "entries",
			Help:      "Number of entries in the in-memory analytics cache.",
		}),
	}

	reg.MustRegister(m.Hits, m.Misses, m.Invalidations, m.Evictions, m.Size)
	return m
}

// ObserveSweep records one eviction sweep. It matches the ResultCache.StartEvictionTimer callback.
func (m *CacheMetrics) ObserveSweep(evicted, remaining int) {
	m.Evictions.Add(float64(evicted))
	m.Size.Set(float64(remaining))
}
