package metrics

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

const (
	ErrorReasonNotFound        = "not_found"
	ErrorReasonUniqueViolation = "unique_violation"
	ErrorReasonForeignKey      = "foreign_key"
	ErrorReasonDeadline        = "deadline_exceeded"
	ErrorReasonUnknown         = "unknown"
)

// HTTPMetrics captures request volume and latency for the admin API.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	dbErrors *prometheus.CounterVec
}

// NewHTTPMetrics registers the HTTP collectors on the default registry.
func NewHTTPMetrics(cfg Config) (*HTTPMetrics, error) {
	return newHTTPMetrics(prometheus.DefaultRegisterer, cfg)
}

func newHTTPMetrics(registerer prometheus.Registerer, cfg Config) (*HTTPMetrics, error) {
	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "shipdesk"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	m := &HTTPMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "shipdesk_http_requests_total",
			Help:        "HTTP requests by route, method and status code.",
			ConstLabels: constLabels,
		}, []string{"route", "method", "status_code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "shipdesk_http_request_duration_seconds",
			Help:        "HTTP request latency by route.",
			Buckets:     []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			ConstLabels: constLabels,
		}, []string{"route", "method"}),
		dbErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "shipdesk_db_errors_total",
			Help:        "Database errors surfaced to API callers by reason.",
			ConstLabels: constLabels,
		}, []string{"reason"}),
	}

	for _, c := range []prometheus.Collector{m.requests, m.duration, m.dbErrors} {
		if err := registerer.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				return nil, err
			}
		}
	}
	return m, nil
}

// GinMiddleware records one sample per request, and counts the handler's
// error when it came from the database.
func (m *HTTPMetrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if m == nil {
			return
		}

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		method := c.Request.Method
		status := c.Writer.Status()
		m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
		m.duration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())

		if last := c.Errors.Last(); last != nil {
			if reason := ClassifyErrorReason(last.Err); reason != ErrorReasonUnknown || status >= 500 {
				m.dbErrors.WithLabelValues(reason).Inc()
			}
		}
	}
}

// ObserveDBError counts a database failure by its classified reason.
func (m *HTTPMetrics) ObserveDBError(err error) {
	if m == nil || err == nil {
		return
	}
	m.dbErrors.WithLabelValues(ClassifyErrorReason(err)).Inc()
}

// ClassifyErrorReason maps database errors onto a small fixed label set.
func ClassifyErrorReason(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorReasonNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrorReasonUniqueViolation
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return ErrorReasonForeignKey
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ErrorReasonUniqueViolation
		case "23503":
			return ErrorReasonForeignKey
		case "57014":
			return ErrorReasonDeadline
		}
	}
	return ErrorReasonUnknown
}
