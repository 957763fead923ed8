// ABOUTME: Prometheus collectors for catalog fetches and mirror probes.
// ABOUTME: Uses a private registry so the CLI can expose it only when asked.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for mirrorview. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	CatalogFetches *prometheus.CounterVec
	CatalogCache   *prometheus.CounterVec
	FetchDuration  prometheus.Histogram
	Probes         *prometheus.CounterVec
	ProbeLatency   prometheus.Histogram
	ProbesInFlight prometheus.Gauge
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		CatalogFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mirrorview_catalog_fetches_total",
			Help: "Catalog network fetches by result.",
		}, []string{"result"}), // ok, timeout, http, format, network
		CatalogCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mirrorview_catalog_cache_hits_total",
			Help: "Catalog reads served from a cache tier.",
		}, []string{"tier"}), // memory, durable
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mirrorview_catalog_fetch_duration_seconds",
			Help:    "Duration of catalog fetches.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		Probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mirrorview_mirror_probes_total",
			Help: "Mirror probes by resulting status.",
		}, []string{"status"}),
		ProbeLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mirrorview_mirror_probe_latency_seconds",
			Help:    "Latency of successful mirror probes.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 3, 5},
		}),
		ProbesInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mirrorview_mirror_probe_batches_in_flight",
			Help: "Probe batches currently running.",
		}),
	}
	reg.MustRegister(m.CatalogFetches, m.CatalogCache, m.FetchDuration, m.Probes, m.ProbeLatency, m.ProbesInFlight)
	return m
}

// Registry exposes the underlying registry for tests and custom handlers.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveFetch(result string, seconds float64) {
	if m == nil {
		return
	}
	m.CatalogFetches.WithLabelValues(result).Inc()
	m.FetchDuration.Observe(seconds)
}

func (m *Metrics) CacheHit(tier string) {
	if m == nil {
		return
	}
	m.CatalogCache.WithLabelValues(tier).Inc()
}

func (m *Metrics) ObserveProbe(status string, seconds float64, online bool) {
	if m == nil {
		return
	}
	m.Probes.WithLabelValues(status).Inc()
	if online {
		m.ProbeLatency.Observe(seconds)
	}
}

func (m *Metrics) BatchStarted() {
	if m == nil {
		return
	}
	m.ProbesInFlight.Inc()
}

func (m *Metrics) BatchDone() {
	if m == nil {
		return
	}
	m.ProbesInFlight.Dec()
}
