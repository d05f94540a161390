package logger

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/shipdesk/internal/observability/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func observeGlobal(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	t.Cleanup(restore)
	return logs
}

func TestGinMiddlewareAttachesRequestContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware(MiddlewareConfig{}))

	var gotRequestID string
	var gotClient obscontext.Client
	r.GET("/ping", func(c *gin.Context) {
		gotRequestID = obscontext.RequestIDFromContext(c.Request.Context())
		gotClient = obscontext.ClientFromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	req.Header.Set("User-Agent", "shipdesk-test")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "abc-123", gotRequestID)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
	assert.Equal(t, "shipdesk-test", gotClient.UserAgent)
}

func TestGinMiddlewareGeneratesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware(MiddlewareConfig{}))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Len(t, rec.Header().Get(RequestIDHeader), 36)
}

func TestGinMiddlewareLogsActorAndError(t *testing.T) {
	logs := observeGlobal(t)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware(MiddlewareConfig{
		QuietRoutes:     []string{"/health"},
		ErrorClassifier: func(error) (string, string) { return "forbidden", "Forbidden" },
	}))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.DELETE("/api/users/:id", func(c *gin.Context) {
		SetActor(c, obscontext.Actor{Username: "viewer1", Role: "viewer"})
		_ = c.Error(errors.New("denied"))
		c.Status(http.StatusForbidden)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/api/users/7", nil))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)

	denied := entries[1]
	assert.Equal(t, zapcore.WarnLevel, denied.Level)
	fields := denied.ContextMap()
	assert.Equal(t, "/api/users/:id", fields["route"])
	assert.Equal(t, "viewer1", fields["actor"])
	assert.Equal(t, "forbidden", fields["error_type"])
	assert.NotContains(t, fields, "error")
}

func TestWithContextFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := obscontext.WithRequestID(context.Background(), "req-1")
	ctx = obscontext.WithActor(ctx, obscontext.Actor{Username: "admin", Role: "admin"})
	ctx = obscontext.WithClient(ctx, obscontext.Client{IPAddress: "10.0.0.9"})

	WithContext(ctx, zap.New(core)).Info("hello")

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "admin", fields["actor"])
	assert.Equal(t, "10.0.0.9", fields["client_ip"])
	assert.NotContains(t, fields, "trace_id")
}

func TestDescribeSQL(t *testing.T) {
	cases := []struct {
		sql, kind, table string
	}{
		{"  select * from cities where id = ?", "SELECT", "cities"},
		{`UPDATE "orders" SET status = $1`, "UPDATE", "orders"},
		{"INSERT INTO `clients` (`name`) VALUES (?)", "INSERT", "clients"},
		{"DELETE FROM activity_logs WHERE created_at < ?", "DELETE", "activity_logs"},
		{"", "UNKNOWN", ""},
	}
	for _, tc := range cases {
		kind, table := describeSQL(tc.sql)
		assert.Equal(t, tc.kind, kind, tc.sql)
		assert.Equal(t, tc.table, table, tc.sql)
	}
}

func TestSQLLoggerLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	sqlLog := NewSQLLogger(zap.New(core), SQLConfig{SlowThreshold: 50 * time.Millisecond})
	ctx := context.Background()
	stmt := func() (string, int64) { return "SELECT * FROM orders", 3 }

	sqlLog.Trace(ctx, time.Now(), stmt, nil)
	assert.Zero(t, logs.Len(), "fast queries are silent unless verbose")

	sqlLog.Trace(ctx, time.Now(), stmt, gormlogger.ErrRecordNotFound)
	assert.Zero(t, logs.Len())

	sqlLog.Trace(ctx, time.Now().Add(-time.Second), stmt, nil)
	sqlLog.Trace(ctx, time.Now(), stmt, errors.New("no such table"))
	entries := logs.TakeAll()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "orders", entries[1].ContextMap()["table"])

	verbose := sqlLog.LogMode(gormlogger.Info)
	verbose.Trace(ctx, time.Now(), stmt, nil)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, zapcore.DebugLevel, logs.All()[0].Level)

	sqlLog.LogMode(gormlogger.Silent).Trace(ctx, time.Now(), stmt, errors.New("boom"))
	assert.Equal(t, 1, logs.Len())
}
