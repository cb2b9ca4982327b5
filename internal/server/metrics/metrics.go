// Package metrics holds the Prometheus collectors shared by the HTTP and
// gRPC front ends.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "credgate"

// Login outcomes as recorded in login_attempts_total.
const (
	OutcomeSuccess     = "success"
	OutcomeFailure     = "failure"
	OutcomeInvalid     = "invalid"
	OutcomeUnavailable = "unavailable"
	OutcomeLimited     = "rate_limited"
	OutcomeError       = "error"
)

var histogramBuckets = []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10}

// Metrics owns a private registry so several instances can coexist, e.g.
// in tests.
type Metrics struct {
	registry *prometheus.Registry

	requestTotal   *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	rpcTotal       *prometheus.CounterVec
	rateLimitHits  *prometheus.CounterVec
	loginAttempts  *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.requestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Count of processed HTTP requests",
	}, []string{"method", "route", "status"})

	m.requestLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latency distribution of HTTP handlers",
		Buckets:   histogramBuckets,
	}, []string{"method", "route", "status"})

	m.rpcTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "grpc",
		Name:      "requests_total",
		Help:      "Count of handled unary RPCs",
	}, []string{"method", "code"})

	m.rateLimitHits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limit_hits_total",
		Help:      "Number of rate-limited login attempts",
	}, []string{"route"})

	m.loginAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Login attempts by transport and outcome",
	}, []string{"transport", "outcome"})

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestTotal,
		m.requestLatency,
		m.rpcTotal,
		m.rateLimitHits,
		m.loginAttempts,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveRequest(method, route string, status int, duration time.Duration) {
	labels := prometheus.Labels{
		"method": method,
		"route":  route,
		"status": strconv.Itoa(status),
	}
	m.requestTotal.With(labels).Inc()
	m.requestLatency.With(labels).Observe(duration.Seconds())
}

func (m *Metrics) ObserveRPC(method, code string) {
	m.rpcTotal.WithLabelValues(method, code).Inc()
}

func (m *Metrics) RateLimited(route string) {
	m.rateLimitHits.WithLabelValues(route).Inc()
}

func (m *Metrics) LoginAttempt(transport, outcome string) {
	m.loginAttempts.WithLabelValues(transport, outcome).Inc()
}
