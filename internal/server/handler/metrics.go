package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	scoringRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "riskscope_scoring_runs_total",
		Help: "Total scoring runs composed, by mode (tenant or brand).",
	}, []string{"mode"})

	historySavesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "riskscope_history_saves_total",
		Help: "Total score results persisted to history.",
	})

	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "riskscope_requests_total",
		Help: "Total HTTP requests by method, path, and response status.",
	}, []string{"method", "path", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "riskscope_request_duration_seconds",
		Help:    "Request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})
)

// PrometheusMiddleware returns a Gin middleware that records per-request
// metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		requestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		requestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// MetricsHandler returns a Gin handler that serves Prometheus metrics.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordScoringRun counts a composed scoring run by mode.
func RecordScoringRun(mode string) {
	scoringRunsTotal.WithLabelValues(mode).Inc()
}

// RecordHistorySave counts a persisted score result.
func RecordHistorySave() {
	historySavesTotal.Inc()
}
