// Package metrics exports dataset cache and HTTP request metrics to Prometheus.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Krishna8167/volcanocache"
)

const namespace = "volcano"

// CacheSource is the part of *volcanocache.Cache the collector reads.
type CacheSource interface {
	Stats() volcanocache.Stats
	Status() volcanocache.Status
}

// CacheCollector reads cache counters on every scrape, so the cache itself
// carries no Prometheus dependency.
type CacheCollector struct {
	src CacheSource

	hits        *prometheus.Desc
	misses      *prometheus.Desc
	generations *prometheus.Desc
	failures    *prometheus.Desc
	discards    *prometheus.Desc
	clears      *prometheus.Desc
	entries     *prometheus.Desc
	memory      *prometheus.Desc
}

// NewCacheCollector returns a collector reading src on every scrape.
func NewCacheCollector(src CacheSource) *CacheCollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "cache", name), help, nil, nil)
	}
	return &CacheCollector{
		src:         src,
		hits:        desc("hits_total", "Lookups served from a cached dataset."),
		misses:      desc("misses_total", "Lookups that waited for a generation."),
		generations: desc("generations_total", "Datasets synthesized."),
		failures:    desc("generation_failures_total", "Dataset generations that failed."),
		discards:    desc("discards_total", "Corrupted entries discarded on read."),
		clears:      desc("clears_total", "Explicit cache clears."),
		entries:     desc("entries", "Datasets currently cached."),
		memory:      desc("approx_memory_bytes", "Estimated memory held by cached datasets."),
	}
}

// Describe implements prometheus.Collector.
func (c *CacheCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{c.hits, c.misses, c.generations, c.failures, c.discards, c.clears, c.entries, c.memory} {
		ch <- d
	}
}

// Collect implements prometheus.Collector.
func (c *CacheCollector) Collect(ch chan<- prometheus.Metric) {
	stats := c.src.Stats()
	status := c.src.Status()

	ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(stats.Hits))
	ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(stats.Misses))
	ch <- prometheus.MustNewConstMetric(c.generations, prometheus.CounterValue, float64(stats.Generations))
	ch <- prometheus.MustNewConstMetric(c.failures, prometheus.CounterValue, float64(stats.GenerationFailures))
	ch <- prometheus.MustNewConstMetric(c.discards, prometheus.CounterValue, float64(stats.Discards))
	ch <- prometheus.MustNewConstMetric(c.clears, prometheus.CounterValue, float64(stats.Clears))
	ch <- prometheus.MustNewConstMetric(c.entries, prometheus.GaugeValue, float64(status.Count))
	ch <- prometheus.MustNewConstMetric(c.memory, prometheus.GaugeValue, status.ApproxMemoryMB*1024*1024)
}

// HTTP holds per-route request metrics.
type HTTP struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewHTTP registers the request counter and latency histogram on reg.
func NewHTTP(reg prometheus.Registerer) *HTTP {
	f := promauto.With(reg)
	return &HTTP{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"route"}),
	}
}

// Observe records one finished request.
func (m *HTTP) Observe(route, method string, status int, elapsed time.Duration) {
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// NewRegistry returns a registry with the cache collector, the Go runtime
// collectors and fresh HTTP metrics registered.
func NewRegistry(src CacheSource) (*prometheus.Registry, *HTTP) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		NewCacheCollector(src),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, NewHTTP(reg)
}
