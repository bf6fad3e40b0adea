package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusExporter exports metrics to Prometheus format.
type PrometheusExporter struct {
	collector *Collector

	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
	cacheHitRate   prometheus.Gauge
	cacheKeys      prometheus.Gauge
	cacheEvictions prometheus.Counter
	opCount        *prometheus.CounterVec
	opDuration     *prometheus.HistogramVec
	opErrors       *prometheus.CounterVec
}

// NewPrometheusExporter creates a new Prometheus exporter.
func NewPrometheusExporter(collector *Collector) *PrometheusExporter {
	return &PrometheusExporter{
		collector: collector,
		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "typegraph_def_cache_hits_total",
			Help: "Total number of cache hits for decoded struct definitions",
		}),
		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "typegraph_def_cache_misses_total",
			Help: "Total number of cache misses for decoded struct definitions",
		}),
		cacheHitRate: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "typegraph_def_cache_hit_rate",
			Help: "Current definition cache hit rate (0.0 to 1.0)",
		}),
		cacheKeys: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "typegraph_def_cache_keys_current",
			Help: "Current number of keys in the definition cache",
		}),
		cacheEvictions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "typegraph_def_cache_evictions_total",
			Help: "Total number of definition cache evictions",
		}),
		opCount: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "typegraph_catalog_operations_total",
				Help: "Total number of catalog operations",
			},
			[]string{"operation"},
		),
		opDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "typegraph_catalog_operation_duration_seconds",
				Help:    "Duration of catalog operations in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0},
			},
			[]string{"operation"},
		),
		opErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "typegraph_catalog_operation_errors_total",
				Help: "Total number of failed catalog operations",
			},
			[]string{"operation"},
		),
	}
}

// Update updates Gauge metrics from the collector. Counters are updated
// through the Record* methods as operations happen, so only gauges are
// refreshed here. Call periodically (e.g. every 10 seconds) or per scrape.
func (e *PrometheusExporter) Update() {
	cacheMetrics := e.collector.GetCacheMetrics()
	e.cacheHitRate.Set(cacheMetrics.HitRate)
	e.cacheKeys.Set(float64(cacheMetrics.KeysCurrent))
}

// RecordOperation records a catalog operation in Prometheus.
func (e *PrometheusExporter) RecordOperation(op string) {
	e.opCount.WithLabelValues(op).Inc()
}

// RecordDuration records an operation duration in Prometheus.
func (e *PrometheusExporter) RecordDuration(op string, durationSeconds float64) {
	e.opDuration.WithLabelValues(op).Observe(durationSeconds)
}

// RecordError records a failed operation in Prometheus.
func (e *PrometheusExporter) RecordError(op string) {
	e.opErrors.WithLabelValues(op).Inc()
}

// RecordCacheHit records a definition cache hit.
func (e *PrometheusExporter) RecordCacheHit() {
	e.cacheHits.Inc()
}

// RecordCacheMiss records a definition cache miss.
func (e *PrometheusExporter) RecordCacheMiss() {
	e.cacheMisses.Inc()
}

// RecordCacheEviction records a definition cache eviction.
func (e *PrometheusExporter) RecordCacheEviction() {
	e.cacheEvictions.Inc()
}
