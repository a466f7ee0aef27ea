package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// Metrics exposes application-level instruments.
type Metrics struct {
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	logMutations    *prometheus.CounterVec
	autofillRows    prometheus.Counter
	lockToggles     prometheus.Counter
	quotaRejections prometheus.Counter
}

var Module = fx.Provide(New)

func New() *Metrics {
	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		logMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tabel_log_mutations_total",
			Help: "Service-log mutations by operation.",
		}, []string{"op"}),
		autofillRows: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tabel_autofill_rows_total",
			Help: "Rows created or updated by autofill.",
		}),
		lockToggles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tabel_lock_toggles_total",
			Help: "Month-lock toggle operations.",
		}),
		quotaRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tabel_quota_rejections_total",
			Help: "Mutations rejected by the monthly quota check.",
		}),
	}
	prometheus.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.logMutations,
		m.autofillRows,
		m.lockToggles,
		m.quotaRejections,
	)
	return m
}

func (m *Metrics) RecordLogMutation(op string) {
	if m == nil {
		return
	}
	m.logMutations.WithLabelValues(op).Inc()
}

func (m *Metrics) RecordAutofillRows(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.autofillRows.Add(float64(n))
}

func (m *Metrics) RecordLockToggle() {
	if m == nil {
		return
	}
	m.lockToggles.Inc()
}

func (m *Metrics) RecordQuotaRejection() {
	if m == nil {
		return
	}
	m.quotaRejections.Inc()
}

// GinMiddleware records request counts and latencies per route.
func GinMiddleware(m *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if strings.TrimSpace(route) == "" {
			route = "unknown"
		}
		m.httpRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}
