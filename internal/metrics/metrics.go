package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the catalog's Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "asset_catalog",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "asset_catalog",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "asset_catalog",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	// AssetsCreated counts successful asset creations.
	AssetsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "asset_catalog",
			Subsystem: "assets",
			Name:      "created_total",
			Help:      "Total number of assets registered.",
		},
	)

	// StatusTransitions counts admin status changes by target status.
	StatusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "asset_catalog",
			Subsystem: "assets",
			Name:      "status_transitions_total",
			Help:      "Total number of asset status transitions.",
		},
		[]string{"to"},
	)

	// UsageRequests counts recorded access requests.
	UsageRequests = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "asset_catalog",
			Subsystem: "assets",
			Name:      "usage_requests_total",
			Help:      "Total number of asset access requests recorded.",
		},
	)

	// ReviewsSubmitted counts reviews by rating.
	ReviewsSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "asset_catalog",
			Subsystem: "reviews",
			Name:      "submitted_total",
			Help:      "Total number of reviews submitted.",
		},
		[]string{"rating"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		AssetsCreated,
		StatusTransitions,
		UsageRequests,
		ReviewsSubmitted,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request count and latency per matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
