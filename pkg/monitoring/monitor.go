package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"method", "endpoint"},
	)

	SyncReconcileCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_reconcile_total",
			Help: "Startup reconciliations by winning source (cloud, local, none)",
		},
		[]string{"source"},
	)

	SyncRemoteErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_remote_errors_total",
			Help: "Remote store failures swallowed by the sync engine",
		},
		[]string{"op"},
	)

	SyncRemoteUpdatesApplied = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_remote_updates_applied_total",
			Help: "Keys overwritten locally from live remote notifications",
		},
	)

	AnswerCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "practice_answers_total",
			Help: "Answers recorded by subject and correctness",
		},
		[]string{"subject", "correct"},
	)

	UpdateHubClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "update_hub_clients",
			Help: "Websocket clients listening for cloud updates",
		},
	)
)

var initOnce sync.Once

func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			SyncReconcileCounter,
			SyncRemoteErrors,
			SyncRemoteUpdatesApplied,
			AnswerCounter,
			UpdateHubClients,
		)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
