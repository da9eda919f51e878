package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus metrics for the signing API.
var (
	// requestsTotal counts total API requests.
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wssec",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// envelopesTotal counts envelope build outcomes.
	envelopesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wssec",
			Subsystem: "envelope",
			Name:      "total",
			Help:      "Total envelope build requests",
		},
		[]string{"status", "signed"},
	)

	// envelopeDuration measures envelope build duration.
	envelopeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wssec",
			Subsystem: "envelope",
			Name:      "duration_seconds",
			Help:      "Envelope build duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		},
		[]string{"signed"},
	)

	// canonicalizationsTotal counts standalone canonicalization calls.
	canonicalizationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wssec",
			Subsystem: "canonical",
			Name:      "total",
			Help:      "Total canonicalization requests",
		},
		[]string{"status"},
	)
)

var metricsRegistered bool

// RegisterMetrics registers all metrics with the default Prometheus
// registry. Safe to call once during router construction.
func RegisterMetrics() {
	if metricsRegistered {
		return
	}
	metricsRegistered = true

	prometheus.MustRegister(
		requestsTotal,
		envelopesTotal,
		envelopeDuration,
		canonicalizationsTotal,
	)
}

// MetricsHandler returns a Gin handler serving the Prometheus metrics
// endpoint.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// ObserveRequest records an API request in the request counter.
func ObserveRequest(method, endpoint, status string) {
	requestsTotal.WithLabelValues(method, endpoint, status).Inc()
}
