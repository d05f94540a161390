package logger

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	obscontext "github.com/smallbiznis/shipdesk/internal/observability/context"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RequestIDHeader carries the correlation ID in both directions.
const RequestIDHeader = "X-Request-Id"

// MiddlewareConfig controls request logging.
type MiddlewareConfig struct {
	Debug bool
	// QuietRoutes are logged at debug level, e.g. health probes.
	QuietRoutes []string
	// ErrorClassifier maps a handler error to the logged type and code.
	ErrorClassifier func(err error) (string, string)
}

// GinMiddleware attaches request ID and caller details to the request
// context and logs one line per request once the handler chain returns.
func GinMiddleware(cfg MiddlewareConfig) gin.HandlerFunc {
	quiet := make(map[string]struct{}, len(cfg.QuietRoutes))
	for _, route := range cfg.QuietRoutes {
		quiet[route] = struct{}{}
	}

	return func(c *gin.Context) {
		start := time.Now()
		id := requestID(c)

		ctx := obscontext.WithRequestID(c.Request.Context(), id)
		ctx = obscontext.WithClient(ctx, obscontext.Client{
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.Int("bytes_out", max(c.Writer.Size(), 0)),
		}
		if q := c.Request.URL.RawQuery; q != "" && cfg.Debug {
			fields = append(fields, zap.String("query", q))
		}
		if last := c.Errors.Last(); last != nil && cfg.ErrorClassifier != nil {
			kind, code := cfg.ErrorClassifier(last.Err)
			fields = append(fields, zap.String("error_type", kind), zap.String("error_code", code))
			if status >= http.StatusInternalServerError {
				fields = append(fields, zap.Error(last.Err))
			}
		}

		// The auth middleware attaches the actor further down the chain.
		log := FromContext(c.Request.Context())
		if actor, ok := c.Get(actorKey); ok {
			if a, ok := actor.(obscontext.Actor); ok {
				log = log.With(zap.String("actor", a.Username), zap.String("actor_role", a.Role))
			}
		}
		log.Log(requestLevel(route, status, quiet), "http request", fields...)
	}
}

// actorKey is the gin context key the auth middleware stores the actor under.
const actorKey = "shipdesk.actor"

// SetActor records the authenticated actor for the request log line.
func SetActor(c *gin.Context, actor obscontext.Actor) {
	c.Set(actorKey, actor)
}

func requestID(c *gin.Context) string {
	id := strings.TrimSpace(c.GetHeader(RequestIDHeader))
	if id == "" || len(id) > 128 {
		id = uuid.NewString()
	}
	c.Header(RequestIDHeader, id)
	return id
}

func requestLevel(route string, status int, quiet map[string]struct{}) zapcore.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zapcore.ErrorLevel
	case status == http.StatusUnauthorized || status == http.StatusForbidden || status == http.StatusTooManyRequests:
		return zapcore.WarnLevel
	}
	if _, ok := quiet[route]; ok {
		return zapcore.DebugLevel
	}
	return zapcore.InfoLevel
}
