package gateway

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	wpyvrRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wpyvr_requests_total",
		Help: "Total HTTP requests by method, path, and response status.",
	}, []string{"method", "path", "status"})

	wpyvrRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wpyvr_request_duration_seconds",
		Help:    "Request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	wpyvrUpstreamTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wpyvr_upstream_requests_total",
		Help: "Total CMS requests by resource and result.",
	}, []string{"resource", "result"})

	wpyvrHealthChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wpyvr_health_checks_total",
		Help: "Total upstream health probes by target and result.",
	}, []string{"target", "result"})

	wpyvrContactTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wpyvr_contact_messages_total",
		Help: "Contact form submissions by outcome.",
	}, []string{"result"})
)

// PrometheusMiddleware returns a Gin middleware that records per-request metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		wpyvrRequestsTotal.WithLabelValues(method, path, status).Inc()
		wpyvrRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// MetricsHandler returns a Gin handler that serves Prometheus metrics.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordUpstream matches client.WithObserver.
func RecordUpstream(resource string, ok bool) {
	wpyvrUpstreamTotal.WithLabelValues(resource, result(ok)).Inc()
}

// RecordHealthCheck matches health.MetricsRecordFunc.
func RecordHealthCheck(target string, success bool) {
	wpyvrHealthChecksTotal.WithLabelValues(target, result(success)).Inc()
}

func recordContact(outcome string) {
	wpyvrContactTotal.WithLabelValues(outcome).Inc()
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
