// Package metrics owns the prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Auth outcome labels.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
)

// Metrics groups every collector of the service around its own registry,
// so that tests can build as many instances as they like.
type Metrics struct {
	reg *prometheus.Registry

	httpInFlight        prometheus.Gauge
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	authEvents          *prometheus.CounterVec
	rateLimited         *prometheus.CounterVec
	revocations         prometheus.Counter
	blacklistPruned     prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_in_flight_requests",
			Help: "In-flight HTTP requests.",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_events_total",
			Help: "Authentication operations by kind and outcome.",
		}, []string{"op", "outcome"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rate_limit_rejections_total",
			Help: "Requests rejected by the endpoint rate limiter or the global throttle.",
		}, []string{"limiter", "path"}),
		revocations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "token_revocations_total",
			Help: "Revocation records written on logout.",
		}),
		blacklistPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "token_blacklist_pruned_total",
			Help: "Expired revocation records deleted by the janitor.",
		}),
	}
	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpInFlight, m.httpRequestsTotal, m.httpRequestDuration,
		m.authEvents, m.rateLimited, m.revocations, m.blacklistPruned,
	)
	return m
}

// Registry exposes the underlying registry (tests gather from it).
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

func (m *Metrics) InFlightInc() {
	if m != nil {
		m.httpInFlight.Inc()
	}
}

func (m *Metrics) InFlightDec() {
	if m != nil {
		m.httpInFlight.Dec()
	}
}

// ObserveRequest records one finished HTTP request.  path is the route
// template, never the raw URL, to keep label cardinality bounded.
func (m *Metrics) ObserveRequest(method, path, status string, seconds float64) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.httpRequestDuration.WithLabelValues(method, path, status).Observe(seconds)
}

func (m *Metrics) AuthEvent(op, outcome string) {
	if m != nil {
		m.authEvents.WithLabelValues(op, outcome).Inc()
	}
}

func (m *Metrics) RateLimited(limiter, path string) {
	if m != nil {
		m.rateLimited.WithLabelValues(limiter, path).Inc()
	}
}

func (m *Metrics) Revoked() {
	if m != nil {
		m.revocations.Inc()
	}
}

func (m *Metrics) Pruned(n int64) {
	if m != nil && n > 0 {
		m.blacklistPruned.Add(float64(n))
	}
}
