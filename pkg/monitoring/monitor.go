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
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	PrimaryAvailable = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "studyhelper_primary_backend_available",
			Help: "1 while the primary backend serves requests, 0 after failover",
		},
	)

	Failovers = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "studyhelper_backend_failovers_total",
			Help: "Number of times the failover latch tripped",
		},
	)

	BackendOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studyhelper_backend_operations_total",
			Help: "Persistence operations by backend and outcome",
		},
		[]string{"op", "backend", "outcome"},
	)

	SagaCompensations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studyhelper_saga_compensations_total",
			Help: "Compensation runs after partial multi-row writes",
		},
		[]string{"outcome"},
	)
)

var initOnce sync.Once

func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestCounter)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(PrimaryAvailable)
		prometheus.MustRegister(Failovers)
		prometheus.MustRegister(BackendOperations)
		prometheus.MustRegister(SagaCompensations)
	})
}

// SetPrimaryAvailable mirrors the failover latch into the gauge.
func SetPrimaryAvailable(up bool) {
	if up {
		PrimaryAvailable.Set(1)
		return
	}
	PrimaryAvailable.Set(0)
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
