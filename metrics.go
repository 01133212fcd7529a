package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	registry      *prometheus.Registry
	previews      *prometheus.CounterVec
	downloads     *prometheus.CounterVec
	streamedBytes prometheus.Counter
	activeStreams prometheus.Gauge
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		previews: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ytfetch_previews_total",
			Help: "Format preview requests by result.",
		}, []string{"result"}),
		downloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ytfetch_downloads_total",
			Help: "Download requests by final state.",
		}, []string{"result"}),
		streamedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ytfetch_stream_bytes_total",
			Help: "Media bytes written to clients.",
		}),
		activeStreams: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ytfetch_active_streams",
			Help: "Downloads currently in progress.",
		}),
	}
	m.registry.MustRegister(
		m.previews,
		m.downloads,
		m.streamedBytes,
		m.activeStreams,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
