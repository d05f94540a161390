package context

import (
	"context"
	"strings"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	actorKey
	clientKey
)

// Actor identifies the authenticated user behind a request.
type Actor struct {
	ID       string
	Username string
	Role     string
}

// Client carries the caller's network details.
type Client struct {
	IPAddress string
	UserAgent string
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, strings.TrimSpace(requestID))
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}

func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext reports false when no user is attached, e.g. CLI invocations.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	actor, ok := ctx.Value(actorKey).(Actor)
	return actor, ok
}

func WithClient(ctx context.Context, client Client) context.Context {
	return context.WithValue(ctx, clientKey, client)
}

func ClientFromContext(ctx context.Context) Client {
	if ctx == nil {
		return Client{}
	}
	client, _ := ctx.Value(clientKey).(Client)
	return client
}
