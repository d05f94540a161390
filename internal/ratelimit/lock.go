package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	redis "github.com/redis/go-redis/v9"
)

const lockReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

var (
	errEmptyLockKey = errors.New("lock key is empty")
	errLockTTL      = errors.New("lock ttl must be positive")
)

// jobLocker hands out exclusive, expiring holds on a key. Release only
// succeeds for the token that acquired the hold.
type jobLocker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Release(ctx context.Context, key, token string) error
}

func newLockToken() string {
	return ulid.Make().String()
}

// redisLocker shares holds across every instance using the same Redis.
type redisLocker struct {
	client *redis.Client
	script *redis.Script
}

func newRedisLocker(client *redis.Client) *redisLocker {
	return &redisLocker{client: client, script: redis.NewScript(lockReleaseScript)}
}

func (l *redisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if key == "" {
		return "", false, errEmptyLockKey
	}
	if ttl <= 0 {
		return "", false, errLockTTL
	}
	token := newLockToken()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

func (l *redisLocker) Release(ctx context.Context, key, token string) error {
	if key == "" || token == "" {
		return nil
	}
	return l.script.Run(ctx, l.client, []string{key}, token).Err()
}

type localHold struct {
	token     string
	expiresAt time.Time
}

// localLocker serialises jobs inside one process.
type localLocker struct {
	mu    sync.Mutex
	holds map[string]localHold
	now   func() time.Time
}

func newLocalLocker(now func() time.Time) *localLocker {
	return &localLocker{holds: map[string]localHold{}, now: now}
}

func (l *localLocker) TryLock(_ context.Context, key string, ttl time.Duration) (string, bool, error) {
	if key == "" {
		return "", false, errEmptyLockKey
	}
	if ttl <= 0 {
		return "", false, errLockTTL
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if hold, ok := l.holds[key]; ok && now.Before(hold.expiresAt) {
		return "", false, nil
	}
	token := newLockToken()
	l.holds[key] = localHold{token: token, expiresAt: now.Add(ttl)}
	return token, true, nil
}

func (l *localLocker) Release(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if hold, ok := l.holds[key]; ok && hold.token == token {
		delete(l.holds, key)
	}
	return nil
}
