// Package metrics exposes Prometheus instruments for the auth flows and the
// HTTP boundary.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/marketauth/internal/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "marketauth"

// Metrics owns a private registry so tests and multiple servers in one
// process do not collide on the global one.
type Metrics struct {
	registry     *prometheus.Registry
	flows        *prometheus.CounterVec
	flowDuration *prometheus.HistogramVec
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		flows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flow_total",
			Help:      "Auth flows by outcome.",
		}, []string{"flow", "outcome"}),
		flowDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "flow_duration_seconds",
			Help:      "Auth flow latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"flow"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.flows,
		m.flowDuration,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// ObserveFlow records one flow. The outcome label is common.Code(err).
func (m *Metrics) ObserveFlow(flow string, err error, elapsed time.Duration) {
	m.flows.WithLabelValues(flow, common.Code(err)).Inc()
	m.flowDuration.WithLabelValues(flow).Observe(elapsed.Seconds())
}

// ObserveHTTP records one HTTP request. route is the matched pattern, not
// the raw path.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry is exposed for tests and for registering extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
