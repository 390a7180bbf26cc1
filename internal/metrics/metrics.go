package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stemsi/quizdesk-backend/internal/quiz"
)

const namespace = "quizdesk"

// Metrics holds Prometheus metrics for the service
type Metrics struct {
	RequestCounter   *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge
	DBConnPoolStats  *prometheus.GaugeVec

	SessionsStarted  *prometheus.CounterVec
	SessionsFinished *prometheus.CounterVec
	SessionsActive   *prometheus.GaugeVec
	Violations       *prometheus.CounterVec
	SyncFailures     *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

var _ quiz.Recorder = (*Metrics)(nil)

// NewMetrics creates a new metrics instance registered on reg.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Number of requests currently being processed",
			},
		),
		DBConnPoolStats: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "db_connection_pool",
				Help:      "Database connection pool statistics",
			},
			[]string{"stat"},
		),
		SessionsStarted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "quiz",
				Name:      "sessions_started_total",
				Help:      "Quiz sessions that left initialization",
			},
			[]string{"category"},
		),
		SessionsFinished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "quiz",
				Name:      "sessions_finished_total",
				Help:      "Quiz sessions that reached a terminal state",
			},
			[]string{"category", "outcome"},
		),
		SessionsActive: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "quiz",
				Name:      "sessions_active",
				Help:      "Quiz sessions currently in progress",
			},
			[]string{"category"},
		),
		Violations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "quiz",
				Name:      "integrity_violations_total",
				Help:      "Integrity violations recorded by quiz sessions",
			},
			[]string{"category"},
		),
		SyncFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "quiz",
				Name:      "backend_sync_failures_total",
				Help:      "Failed calls from quiz sessions to the quiz backend",
			},
			[]string{"op"},
		),
		gatherer: reg,
	}
}

// ─── quiz.Recorder ──────────────────────────────────────────────────

func (m *Metrics) SessionStarted(category string) {
	m.SessionsStarted.WithLabelValues(category).Inc()
	m.SessionsActive.WithLabelValues(category).Inc()
}

func (m *Metrics) SessionFinished(category, outcome string) {
	m.SessionsFinished.WithLabelValues(category, outcome).Inc()
	m.SessionsActive.WithLabelValues(category).Dec()
}

func (m *Metrics) Violation(category string) {
	m.Violations.WithLabelValues(category).Inc()
}

func (m *Metrics) SyncFailed(op string) {
	m.SyncFailures.WithLabelValues(op).Inc()
}

// ─── HTTP ───────────────────────────────────────────────────────────

// Middleware records request count, duration and in-flight requests per
// route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		m.RequestsInFlight.Inc()
		defer m.RequestsInFlight.Dec()

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
		m.RequestCounter.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// RecordDBPoolStats records database connection pool statistics
func (m *Metrics) RecordDBPoolStats(stat *pgxpool.Stat) {
	m.DBConnPoolStats.WithLabelValues("total").Set(float64(stat.TotalConns()))
	m.DBConnPoolStats.WithLabelValues("in_use").Set(float64(stat.AcquiredConns()))
	m.DBConnPoolStats.WithLabelValues("idle").Set(float64(stat.IdleConns()))
	m.DBConnPoolStats.WithLabelValues("max").Set(float64(stat.MaxConns()))
	m.DBConnPoolStats.WithLabelValues("wait_count").Set(float64(stat.EmptyAcquireCount()))
	m.DBConnPoolStats.WithLabelValues("wait_duration_ms").Set(float64(stat.AcquireDuration().Milliseconds()))
}
