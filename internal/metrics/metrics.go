// Package metrics exposes capture workflow counters in Prometheus format.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns its own registry so several instances (e.g. in tests) never
// collide on registration.
type Metrics struct {
	reg *prometheus.Registry

	CapturesTotal       *prometheus.CounterVec
	CaptureDuration     *prometheus.HistogramVec
	HealthChecksTotal   *prometheus.CounterVec
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		CapturesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hoarder_captures_total",
				Help: "Total number of capture workflows by target source and outcome.",
			},
			[]string{"source", "outcome"},
		),
		CaptureDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hoarder_capture_duration_seconds",
				Help:    "Duration of capture workflows.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"source"},
		),
		HealthChecksTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hoarder_health_checks_total",
				Help: "Total number of collection service probes by result.",
			},
			[]string{"connected"},
		),
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
	}
}

// ObserveCapture records one finished workflow.
func (m *Metrics) ObserveCapture(source, outcome string, elapsed time.Duration) {
	m.CapturesTotal.WithLabelValues(source, outcome).Inc()
	m.CaptureDuration.WithLabelValues(source).Observe(elapsed.Seconds())
}

// ObserveHealth records one liveness probe.
func (m *Metrics) ObserveHealth(connected bool) {
	m.HealthChecksTotal.WithLabelValues(strconv.FormatBool(connected)).Inc()
}

// ObserveRequest records one served HTTP request. path should be a route
// pattern, not the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveRequest(method, path string, status int, elapsed time.Duration) {
	s := strconv.Itoa(status)
	m.HTTPRequestsTotal.WithLabelValues(method, path, s).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path, s).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
