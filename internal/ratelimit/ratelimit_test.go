package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/shipdesk/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuardWithoutRedisThrottlesLocally(t *testing.T) {
	g := NewGuard(config.Config{LoginMaxAttempts: 3, LoginWindowSeconds: 60}, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := g.AllowLogin(ctx, "admin", "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}
	res, err := g.AllowLogin(ctx, " Admin ", "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Positive(t, res.RetryAfter)

	res, err = g.AllowLogin(ctx, "admin", "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, res.Allowed, "other client IPs keep their own window")
}

func TestLocalAttemptWindowResets(t *testing.T) {
	now := time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)
	w := newLocalAttemptWindow(func() time.Time { return now })
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := w.Hit(ctx, "k", 2, time.Minute)
		require.NoError(t, err)
		require.True(t, res.Allowed)
	}

	now = now.Add(20 * time.Second)
	res, err := w.Hit(ctx, "k", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 40*time.Second, res.RetryAfter)

	now = now.Add(40 * time.Second)
	res, err = w.Hit(ctx, "k", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.Remaining)
	assert.Len(t, w.windows, 1)

	_, err = w.Hit(ctx, "", 2, time.Minute)
	assert.ErrorIs(t, err, errEmptyAttemptKey)
	_, err = w.Hit(ctx, "k", 0, time.Minute)
	assert.ErrorIs(t, err, errAttemptLimit)
}

func TestGuardSerialisesJobsLocally(t *testing.T) {
	g := NewGuard(config.Config{}, nil)
	ctx := context.Background()

	token, ok, err := g.TryLockJob(ctx, "import:clients", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, token, 26)

	_, ok, err = g.TryLockJob(ctx, "import:clients", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = g.TryLockJob(ctx, "import:orders", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, g.ReleaseJob(ctx, "import:clients", "someone-else"))
	_, ok, _ = g.TryLockJob(ctx, "import:clients", time.Minute)
	assert.False(t, ok)

	require.NoError(t, g.ReleaseJob(ctx, "import:clients", token))
	_, ok, _ = g.TryLockJob(ctx, "import:clients", time.Minute)
	assert.True(t, ok)
}

func TestNilGuardGrantsEverything(t *testing.T) {
	var g *Guard
	ctx := context.Background()

	res, err := g.AllowLogin(ctx, "admin", "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	token, ok, err := g.TryLockJob(ctx, "demo:generate", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, g.ReleaseJob(ctx, "demo:generate", token))
}

func TestLocalLockExpires(t *testing.T) {
	now := time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)
	l := newLocalLocker(func() time.Time { return now })
	ctx := context.Background()

	_, ok, err := l.TryLock(ctx, "job", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	now = now.Add(59 * time.Second)
	_, ok, _ = l.TryLock(ctx, "job", time.Minute)
	assert.False(t, ok)

	now = now.Add(time.Second)
	_, ok, _ = l.TryLock(ctx, "job", time.Minute)
	assert.True(t, ok)

	_, _, err = l.TryLock(ctx, "", time.Minute)
	assert.ErrorIs(t, err, errEmptyLockKey)
	_, _, err = l.TryLock(ctx, "job", 0)
	assert.ErrorIs(t, err, errLockTTL)
}

func TestWindowResult(t *testing.T) {
	now := time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)

	res := windowResult(3, 2*time.Minute, 5, now)
	assert.True(t, res.Allowed)
	assert.Equal(t, 2, res.Remaining)
	assert.Zero(t, res.RetryAfter)
	assert.Equal(t, now.Add(2*time.Minute), res.ResetTime)

	res = windowResult(6, 30*time.Second, 5, now)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.Equal(t, 30*time.Second, res.RetryAfter)
	assert.Equal(t, 5, res.Limit)
}
