package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPMetrics holds the HTTP collectors for one service and the registry they live in.
type HTTPMetrics struct {
	ServiceName string
	Registry    *prometheus.Registry

	requestCounter            *prometheus.CounterVec
	requestDurationHistogram  *prometheus.HistogramVec
	statusOkCounter           *prometheus.CounterVec
	statusClientErrorCounter  *prometheus.CounterVec
	statusServerErrorCounter  *prometheus.CounterVec
	statusCodeCategoryCounter *prometheus.CounterVec
}

// NewHTTPMetrics creates a new HTTP metrics collector for a specific service.
// Each instance owns a registry so several servers can coexist in one process.
func NewHTTPMetrics(serviceName string) *HTTPMetrics {
	m := &HTTPMetrics{
		ServiceName: serviceName,
		Registry:    prometheus.NewRegistry(),
		requestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"service", "method", "path", "status"},
		),
		requestDurationHistogram: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"service", "method", "path", "status"},
		),
		statusOkCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_status_2xx_total",
				Help: "Total number of 2xx (success) responses",
			},
			[]string{"service"},
		),
		statusClientErrorCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_status_4xx_total",
				Help: "Total number of 4xx (client error) responses",
			},
			[]string{"service"},
		),
		statusServerErrorCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_status_5xx_total",
				Help: "Total number of 5xx (server error) responses",
			},
			[]string{"service"},
		),
		statusCodeCategoryCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_status_category_total",
				Help: "Total number of responses by status category (2xx, 4xx, 5xx)",
			},
			[]string{"service", "category", "method", "path"},
		),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestCounter,
		m.requestDurationHistogram,
		m.statusOkCounter,
		m.statusClientErrorCounter,
		m.statusServerErrorCounter,
		m.statusCodeCategoryCounter,
	)
	return m
}

// incrementStatusCounter increments the appropriate status counter based on the HTTP status code
func (m *HTTPMetrics) incrementStatusCounter(status int, method, path string) {
	category := ""

	switch {
	case status >= 200 && status < 300:
		m.statusOkCounter.WithLabelValues(m.ServiceName).Inc()
		category = "2xx"
	case status >= 400 && status < 500:
		m.statusClientErrorCounter.WithLabelValues(m.ServiceName).Inc()
		category = "4xx"
	case status >= 500 && status < 600:
		m.statusServerErrorCounter.WithLabelValues(m.ServiceName).Inc()
		category = "5xx"
	}

	if category != "" {
		m.statusCodeCategoryCounter.WithLabelValues(m.ServiceName, category, method, path).Inc()
	}
}

// Middleware creates an Echo middleware function that records HTTP request metrics.
// It must wrap the logging middleware so the final status is observed.
func (m *HTTPMetrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			status := c.Response().Status
			method := c.Request().Method
			path := c.Path()
			statusStr := strconv.Itoa(status)

			m.requestCounter.WithLabelValues(m.ServiceName, method, path, statusStr).Inc()
			m.incrementStatusCounter(status, method, path)
			m.requestDurationHistogram.WithLabelValues(m.ServiceName, method, path, statusStr).
				Observe(time.Since(start).Seconds())

			return err
		}
	}
}

// Handler exposes everything registered on this instance's registry.
func (m *HTTPMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
