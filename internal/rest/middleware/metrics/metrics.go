// Package metrics records per-route request counts and latencies and exposes
// them in Prometheus text format.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/bunrouter"
)

// Middleware observes every routed request and owns the registry the scrape
// endpoint serves.
type Middleware struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// New creates a middleware with its own registry, including the standard Go
// runtime and process collectors.
func New() *Middleware {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Requests served, by method, route and status code.",
	}, []string{"method", "route", "status"})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Request latency, by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	registry.MustRegister(requests, duration)

	return &Middleware{
		registry: registry,
		requests: requests,
		duration: duration,
	}
}

// Record wraps a handler, observing its latency and final status code. The
// route template is used as the label, not the concrete path, to keep
// cardinality bounded.
func (m *Middleware) Record(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
	return func(w http.ResponseWriter, req bunrouter.Request) error {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		err := next(recorder, req)

		route := req.Route()
		m.duration.WithLabelValues(req.Method, route).Observe(time.Since(start).Seconds())
		m.requests.WithLabelValues(req.Method, route, strconv.Itoa(recorder.status)).Inc()

		return err
	}
}

// Handler serves the registry in Prometheus text format.
func (m *Middleware) Handler() bunrouter.HandlerFunc {
	return bunrouter.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

// statusRecorder captures the status code a handler writes.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
