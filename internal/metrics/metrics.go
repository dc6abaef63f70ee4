// Package metrics owns the Prometheus registry served at /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "opsboard"

type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	Records         *prometheus.CounterVec
	OutboxEvents    *prometheus.CounterVec
	EmailsSent      *prometheus.CounterVec
	RealtimeClients prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status class.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		Records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_written_total",
			Help:      "Committed writes by collection.",
		}, []string{"collection"}),
		OutboxEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "events_total",
			Help:      "Outbox publish attempts by result.",
		}, []string{"result"}),
		EmailsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mail",
			Name:      "sent_total",
			Help:      "Outgoing emails by template and result.",
		}, []string{"template", "result"}),
		RealtimeClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "clients",
			Help:      "Connected websocket clients.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests,
		m.HTTPDuration,
		m.Records,
		m.OutboxEvents,
		m.EmailsSent,
		m.RealtimeClients,
	)
	return m
}

func (m *Metrics) Handler(logger *zap.Logger) http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{
		ErrorLog:      zap.NewStdLog(logger),
		ErrorHandling: promhttp.ContinueOnError,
	})
}

// RecordWrites counts one committed write per collection.
func (m *Metrics) RecordWrites(collections ...string) {
	if m == nil {
		return
	}
	for _, c := range collections {
		m.Records.WithLabelValues(c).Inc()
	}
}

func (m *Metrics) OutboxResult(result string) {
	if m == nil {
		return
	}
	m.OutboxEvents.WithLabelValues(result).Inc()
}

func (m *Metrics) EmailResult(template, result string) {
	if m == nil {
		return
	}
	m.EmailsSent.WithLabelValues(template, result).Inc()
}

func (m *Metrics) ClientConnected() {
	if m == nil {
		return
	}
	m.RealtimeClients.Inc()
}

func (m *Metrics) ClientDisconnected() {
	if m == nil {
		return
	}
	m.RealtimeClients.Dec()
}
