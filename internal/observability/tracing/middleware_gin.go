package tracing

import (
	"net/http"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/shipdesk/internal/observability/context"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/baggage"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/smallbiznis/shipdesk/http"

// MiddlewareConfig controls request tracing.
type MiddlewareConfig struct {
	// SkipRoutes are served without a span.
	SkipRoutes []string
}

// GinMiddleware starts a server span per request named after the matched
// route. Handler errors mark the span failed only for 5xx responses.
func GinMiddleware(cfg MiddlewareConfig) gin.HandlerFunc {
	tracer := otel.Tracer(tracerName)
	skip := make(map[string]struct{}, len(cfg.SkipRoutes))
	for _, route := range cfg.SkipRoutes {
		skip[route] = struct{}{}
	}

	return func(c *gin.Context) {
		route := c.FullPath()
		if _, ok := skip[route]; ok {
			c.Next()
			return
		}
		if route == "" {
			route = "unmatched"
		}

		ctx := ExtractContext(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		if id := obscontext.RequestIDFromContext(ctx); id != "" {
			if member, err := baggage.NewMember("request_id", id); err == nil {
				if bag, err := baggage.FromContext(ctx).SetMember(member); err == nil {
					ctx = baggage.ContextWithBaggage(ctx, bag)
				}
			}
		}

		ctx, span := tracer.Start(ctx, c.Request.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", c.Request.Method),
				attribute.String("http.route", route),
			),
		)
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		attrs := []attribute.KeyValue{attribute.Int("http.response.status_code", status)}
		if id := c.Param("id"); id != "" {
			attrs = append(attrs, attribute.String("shipdesk.resource.id", id))
		}
		if actor, ok := obscontext.ActorFromContext(c.Request.Context()); ok {
			attrs = append(attrs, attribute.String("shipdesk.actor.role", actor.Role))
		}
		span.SetAttributes(SafeAttributes(attrs...)...)

		if status >= http.StatusInternalServerError {
			if last := c.Errors.Last(); last != nil {
				span.RecordError(SafeError(last.Err))
			}
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}
