package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestClassifyErrorReason(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "not_found", err: gorm.ErrRecordNotFound, want: ErrorReasonNotFound},
		{name: "duplicate", err: gorm.ErrDuplicatedKey, want: ErrorReasonUniqueViolation},
		{name: "pg_unique", err: &pgconn.PgError{Code: "23505"}, want: ErrorReasonUniqueViolation},
		{name: "pg_fk", err: &pgconn.PgError{Code: "23503"}, want: ErrorReasonForeignKey},
		{name: "unknown", err: errors.New("boom"), want: ErrorReasonUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyErrorReason(tc.err); got != tc.want {
				t.Fatalf("expected reason %q, got %q", tc.want, got)
			}
		})
	}
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := newHTTPMetrics(reg, Config{ServiceName: "shipdesk", Environment: "test"})
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(m.GinMiddleware())
	r.GET("/api/cities", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/cities", nil))
	}

	assert.Equal(t, float64(3), testutil.ToFloat64(m.requests.WithLabelValues("/api/cities", http.MethodGet, "200")))

	m.ObserveDBError(&pgconn.PgError{Code: "23503"})
	assert.Equal(t, float64(1), testutil.ToFloat64(m.dbErrors.WithLabelValues(ErrorReasonForeignKey)))

	r.DELETE("/api/cities/:id", func(c *gin.Context) {
		_ = c.Error(gorm.ErrForeignKeyViolated)
		c.Status(http.StatusConflict)
	})
	r.POST("/api/cities", func(c *gin.Context) {
		_ = c.Error(errors.New("invalid_name"))
		c.Status(http.StatusBadRequest)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/api/cities/1", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/cities", nil))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.dbErrors.WithLabelValues(ErrorReasonForeignKey)))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.dbErrors.WithLabelValues(ErrorReasonUnknown)))
}

func TestNewHTTPMetricsToleratesReRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := newHTTPMetrics(reg, Config{})
	require.NoError(t, err)
	_, err = newHTTPMetrics(reg, Config{})
	require.NoError(t, err)
}

func TestHTTPMetricsHistogramLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := newHTTPMetrics(reg, Config{Environment: "test"})
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(m.GinMiddleware())
	r.GET("/api/orders/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/orders/1", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/orders/2", nil))

	families, err := reg.Gather()
	require.NoError(t, err)

	var duration *dto.MetricFamily
	for _, f := range families {
		if f.GetName() == "shipdesk_http_request_duration_seconds" {
			duration = f
		}
	}
	require.NotNil(t, duration)
	require.Len(t, duration.GetMetric(), 1)

	metric := duration.GetMetric()[0]
	assert.Equal(t, uint64(2), metric.GetHistogram().GetSampleCount())

	labels := map[string]string{}
	for _, l := range metric.GetLabel() {
		labels[l.GetName()] = l.GetValue()
	}
	assert.Equal(t, map[string]string{
		"service": "shipdesk",
		"env":     "test",
		"route":   "/api/orders/:id",
		"method":  http.MethodGet,
	}, labels)
}
