package recovery

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/smallbiznis/shipdesk/internal/cache"
	"github.com/smallbiznis/shipdesk/internal/clock"
	"github.com/smallbiznis/shipdesk/internal/config"
	"github.com/smallbiznis/shipdesk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newStore(t *testing.T) (*Store, *cache.SettingsCache, *testutil.Audit) {
	t.Helper()
	log := zaptest.NewLogger(t)
	settingsCache := cache.NewLocalSettingsCache(time.Minute, log)
	audit := &testutil.Audit{}
	store := NewStore(Params{
		Config: config.Config{DataDir: t.TempDir()},
		Log:    log,
		Clock:  clock.NewFakeClock(time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)),
		Audit:  audit,
		Cache:  settingsCache,
	})
	return store, settingsCache, audit
}

func TestSetVerifyStatusReset(t *testing.T) {
	store, _, audit := newStore(t)
	ctx := context.Background()

	status, err := store.Status()
	require.NoError(t, err)
	assert.False(t, status.Configured)
	assert.ErrorIs(t, store.Verify("owner", "123456"), ErrNotConfigured)

	assert.ErrorIs(t, store.Set(ctx, "owner", "123"), ErrWeakPasscode)
	assert.ErrorIs(t, store.Set(ctx, " ", "123456"), ErrInvalidUsername)
	require.NoError(t, store.Set(ctx, "Owner", "246810"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "246810")

	require.NoError(t, store.Verify("owner", "246810"))
	assert.ErrorIs(t, store.Verify("owner", "000000"), ErrInvalidPasscode)
	assert.ErrorIs(t, store.Verify("someone", "246810"), ErrInvalidPasscode)

	status, err = store.Status()
	require.NoError(t, err)
	assert.True(t, status.Configured)
	assert.Equal(t, "Owner", status.Username)

	require.NoError(t, store.Reset(ctx))
	assert.ErrorIs(t, store.Reset(ctx), ErrNotConfigured)
	assert.Equal(t, []string{"recovery.set", "recovery.reset"}, audit.Actions())
}

func TestClearCacheRequiresVerifiedPair(t *testing.T) {
	store, settingsCache, audit := newStore(t)
	ctx := context.Background()

	settingsCache.Store(ctx, cache.KeyCompany, map[string]string{"name": "Atlas Express"})
	require.NoError(t, store.Set(ctx, "owner", "246810"))

	_, err := store.ClearCache(ctx, "owner", "wrong!")
	assert.ErrorIs(t, err, ErrInvalidPasscode)

	var doc map[string]string
	assert.True(t, settingsCache.Load(ctx, cache.KeyCompany, &doc))

	result, err := store.ClearCache(ctx, "owner", "246810")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Local)
	assert.False(t, settingsCache.Load(ctx, cache.KeyCompany, &doc))
	assert.Contains(t, audit.Actions(), "cache.cleared")
}
