package cache

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsSet exports the cache's running statistics (§4.3) as prometheus
// gauges/counters, in addition to the plain Statistics struct that the
// UI reads synchronously. Each Service gets its own registry so tests
// can spin up many Services without colliding on the default global one.
type metricsSet struct {
	registry      *prometheus.Registry
	totalRequests prometheus.Counter
	cacheHits     prometheus.Counter
	lastQueryMs   prometheus.Gauge
}

func newMetricsSet() *metricsSet {
	reg := prometheus.NewRegistry()
	ms := &metricsSet{
		registry: reg,
		totalRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "novywave_cache_total_requests",
			Help: "Total viewport and cursor query calls made to the cache.",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "novywave_cache_hits_total",
			Help: "Query calls in which at least one signal was served without a new backend request.",
		}),
		lastQueryMs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "novywave_cache_last_query_duration_ms",
			Help: "Wall-clock duration of the most recently completed query.",
		}),
	}
	reg.MustRegister(ms.totalRequests, ms.cacheHits, ms.lastQueryMs)
	return ms
}

func (ms *metricsSet) recordRequest(hit bool) {
	ms.totalRequests.Inc()
	if hit {
		ms.cacheHits.Inc()
	}
}

func (ms *metricsSet) recordQueryDuration(d time.Duration) {
	ms.lastQueryMs.Set(float64(d.Microseconds()) / 1000.0)
}

// Registry exposes the per-Service prometheus registry for embedding in a
// /metrics handler.
func (s *Service) Registry() *prometheus.Registry { return s.metrics.registry }
