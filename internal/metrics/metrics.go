// Package metrics exposes Prometheus collectors for the polling loop.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the dashboard.
type Metrics struct {
	Registry *prometheus.Registry

	CyclesTotal    prometheus.Counter
	CycleDuration  prometheus.Histogram
	FetchDuration  *prometheus.HistogramVec // labels: symbol
	FetchFailures  *prometheus.CounterVec   // labels: symbol
	EmptySeries    *prometheus.CounterVec   // labels: symbol
	AlertsFired    *prometheus.CounterVec   // labels: symbol
	RenderFailures prometheus.Counter
	LastUpdate     prometheus.Gauge
	LatestClose    *prometheus.GaugeVec // labels: symbol
	WSClients      prometheus.Gauge
}

// NewMetrics creates all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quoteboard_cycles_total",
			Help: "Total polling cycles completed",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "quoteboard_cycle_duration_seconds",
			Help:    "Fetch + compute + render time per cycle",
			Buckets: prometheus.DefBuckets,
		}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "quoteboard_fetch_duration_seconds",
			Help:    "Quote source latency per symbol",
			Buckets: prometheus.DefBuckets,
		}, []string{"symbol"}),
		FetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quoteboard_fetch_failures_total",
			Help: "Failed quote fetches per symbol",
		}, []string{"symbol"}),
		EmptySeries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quoteboard_empty_series_total",
			Help: "Fetches that returned no samples per symbol",
		}, []string{"symbol"}),
		AlertsFired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quoteboard_alerts_fired_total",
			Help: "Price alerts displayed per symbol",
		}, []string{"symbol"}),
		RenderFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quoteboard_render_failures_total",
			Help: "Frames a render surface failed to display",
		}),
		LastUpdate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "quoteboard_last_update_timestamp_seconds",
			Help: "Unix time of the last rendered frame",
		}),
		LatestClose: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "quoteboard_latest_close",
			Help: "Latest close price per symbol",
		}, []string{"symbol"}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "quoteboard_ws_clients",
			Help: "Connected dashboard websocket clients",
		}),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.CyclesTotal,
		m.CycleDuration,
		m.FetchDuration,
		m.FetchFailures,
		m.EmptySeries,
		m.AlertsFired,
		m.RenderFailures,
		m.LastUpdate,
		m.LatestClose,
		m.WSClients,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
