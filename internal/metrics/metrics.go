// Package metrics defines the prometheus collectors of the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeSkipped = "skipped"
)

// Metrics groups every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	ChatSubmits    *prometheus.CounterVec
	ChatDuration   *prometheus.HistogramVec
	ScrapeJobs     *prometheus.CounterVec
	GatewayErrors  *prometheus.CounterVec
	ActiveSessions prometheus.Gauge
}

// New creates the collectors and registers them, with the Go and process
// collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ChatSubmits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cojournalist_chat_submits_total",
				Help: "Chat submissions by mode, route and outcome",
			},
			[]string{"mode", "route", "outcome"},
		),
		ChatDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cojournalist_chat_backend_duration_seconds",
				Help:    "Backend call duration of chat submissions",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"route"},
		),
		ScrapeJobs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cojournalist_scrape_jobs_total",
				Help: "Scrape job submissions by outcome",
			},
			[]string{"outcome"},
		),
		GatewayErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cojournalist_gateway_errors_total",
				Help: "Persistence failures converted to empty results",
			},
			[]string{"op"},
		),
		ActiveSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "cojournalist_active_sessions",
				Help: "Sessions currently held in memory",
			},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ChatSubmits,
		m.ChatDuration,
		m.ScrapeJobs,
		m.GatewayErrors,
		m.ActiveSessions,
	)
	return m
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveChat records one chat submission.
func (m *Metrics) ObserveChat(mode, route, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.ChatSubmits.WithLabelValues(mode, route, outcome).Inc()
	m.ChatDuration.WithLabelValues(route).Observe(seconds)
}

// ObserveScrapeJob records one scrape job submission.
func (m *Metrics) ObserveScrapeJob(outcome string) {
	if m == nil {
		return
	}
	m.ScrapeJobs.WithLabelValues(outcome).Inc()
}

// GatewayError records a swallowed persistence failure.
func (m *Metrics) GatewayError(op string) {
	if m == nil {
		return
	}
	m.GatewayErrors.WithLabelValues(op).Inc()
}

// SetActiveSessions records the in-memory session count.
func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(n))
}
