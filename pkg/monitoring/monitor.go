package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the server's collectors. Each instance registers into its
// own registerer so tests can run servers side by side.
type Metrics struct {
	RequestCounter  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Answers         *prometheus.CounterVec
	Resets          *prometheus.CounterVec
	ActiveSessions  prometheus.Gauge
	DatasetErrors   prometheus.Counter

	gatherer prometheus.Gatherer
}

func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2},
			},
			[]string{"method", "endpoint"},
		),
		Answers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_answers_total",
				Help: "Answers submitted, by result",
			},
			[]string{"result"},
		),
		Resets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_resets_total",
				Help: "Session resets, by kind",
			},
			[]string{"kind"},
		),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "quiz_active_sessions",
			Help: "Session trackers held in memory",
		}),
		DatasetErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quiz_dataset_errors_total",
			Help: "Requests that failed because the question dataset could not be loaded",
		}),
		gatherer: registry,
	}
	registry.MustRegister(
		m.RequestCounter,
		m.RequestDuration,
		m.Answers,
		m.Resets,
		m.ActiveSessions,
		m.DatasetErrors,
	)
	return m
}

// ObserveAnswer counts one answer.
func (m *Metrics) ObserveAnswer(correct bool) {
	result := "wrong"
	if correct {
		result = "correct"
	}
	m.Answers.WithLabelValues(result).Inc()
}

func (m *Metrics) MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		m.RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		m.RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func (m *Metrics) PrometheusHandler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
