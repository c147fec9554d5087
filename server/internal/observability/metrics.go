package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "pdap"

// Metrics collects cache and HTTP metrics on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	cacheHits     *prometheus.CounterVec
	cacheMisses   *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec

	httpInFlight prometheus.Gauge
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewMetrics creates a metrics collector with a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Lookups served from a fresh cache entry.",
		}, []string{"cache"}),
		cacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Lookups that required a network fetch.",
		}, []string{"cache"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "cache",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of API fetches issued on cache misses.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~5s
		}, []string{"cache", "result"}),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		m.cacheHits,
		m.cacheMisses,
		m.fetchDuration,
		m.httpInFlight,
		m.httpRequests,
		m.httpDuration,
		prometheus.NewGoCollector(),
	)
	return m
}

// Hit records a lookup served from cache.
func (m *Metrics) Hit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// Miss records a lookup that went to the network.
func (m *Metrics) Miss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// ObserveFetch records the duration and outcome of a miss fetch.
func (m *Metrics) ObserveFetch(cache string, duration time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.fetchDuration.WithLabelValues(cache, result).Observe(duration.Seconds())
}

// Handler returns an HTTP handler exposing the registered metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and durations by matched route.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Path() == "/metrics" {
				return next(c)
			}

			m.httpInFlight.Inc()
			defer m.httpInFlight.Dec()

			start := time.Now()
			err := next(c)
			if err != nil {
				// Let the error handler write the response so the status is final.
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := strings.ToUpper(c.Request().Method)
			status := strconv.Itoa(c.Response().Status)
			m.httpRequests.WithLabelValues(method, route, status).Inc()
			m.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}
