package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextValues(t *testing.T) {
	ctx := context.Background()
	_, ok := ActorFromContext(ctx)
	assert.False(t, ok)
	assert.Empty(t, RequestIDFromContext(ctx))

	ctx = WithRequestID(ctx, " req-1 ")
	ctx = WithActor(ctx, Actor{ID: "7", Username: "amina", Role: "admin"})
	ctx = WithClient(ctx, Client{IPAddress: "10.0.0.1", UserAgent: "curl"})

	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	actor, ok := ActorFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "amina", actor.Username)
	assert.Equal(t, "10.0.0.1", ClientFromContext(ctx).IPAddress)
}
