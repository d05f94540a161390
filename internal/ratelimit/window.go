package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// The first hit of a window starts its expiry; later hits only count.
const attemptWindowScript = `
local hits = redis.call("INCR", KEYS[1])
if hits == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {hits, ttl}
`

var (
	errEmptyAttemptKey = errors.New("attempt key is empty")
	errAttemptLimit    = errors.New("attempt limit and window must be positive")
)

// attemptCounter counts hits per key in fixed windows.
type attemptCounter interface {
	Hit(ctx context.Context, key string, limit int, window time.Duration) (*RateLimitResult, error)
}

type RateLimitResult struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// AttemptWindow counts hits per key in fixed windows stored in Redis.
type AttemptWindow struct {
	client *redis.Client
	script *redis.Script
	now    func() time.Time
}

func NewAttemptWindow(client *redis.Client) *AttemptWindow {
	if client == nil {
		return nil
	}
	return &AttemptWindow{
		client: client,
		script: redis.NewScript(attemptWindowScript),
		now:    time.Now,
	}
}

// Hit records one attempt for key and reports whether it stays within limit.
func (w *AttemptWindow) Hit(ctx context.Context, key string, limit int, window time.Duration) (*RateLimitResult, error) {
	if w == nil || w.client == nil {
		return nil, errors.New("attempt window not configured")
	}
	if err := checkHit(key, limit, window); err != nil {
		return nil, err
	}

	res, err := w.script.Run(ctx, w.client, []string{key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return nil, err
	}
	if len(res) != 2 {
		return nil, errors.New("unexpected attempt window response")
	}
	return windowResult(res[0], time.Duration(res[1])*time.Millisecond, limit, w.now()), nil
}

type localWindow struct {
	hits      int64
	expiresAt time.Time
}

// localAttemptWindow counts hits inside one process. Expired windows are
// swept on every hit.
type localAttemptWindow struct {
	mu      sync.Mutex
	windows map[string]localWindow
	now     func() time.Time
}

func newLocalAttemptWindow(now func() time.Time) *localAttemptWindow {
	return &localAttemptWindow{windows: map[string]localWindow{}, now: now}
}

func (w *localAttemptWindow) Hit(_ context.Context, key string, limit int, window time.Duration) (*RateLimitResult, error) {
	if err := checkHit(key, limit, window); err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	for k, cur := range w.windows {
		if !now.Before(cur.expiresAt) {
			delete(w.windows, k)
		}
	}
	cur, ok := w.windows[key]
	if !ok {
		cur = localWindow{expiresAt: now.Add(window)}
	}
	cur.hits++
	w.windows[key] = cur
	return windowResult(cur.hits, cur.expiresAt.Sub(now), limit, now), nil
}

func checkHit(key string, limit int, window time.Duration) error {
	if key == "" {
		return errEmptyAttemptKey
	}
	if limit <= 0 || window < time.Millisecond {
		return errAttemptLimit
	}
	return nil
}

func windowResult(hits int64, ttl time.Duration, limit int, now time.Time) *RateLimitResult {
	remaining := int64(limit) - hits
	if remaining < 0 {
		remaining = 0
	}
	res := &RateLimitResult{
		Allowed:   hits <= int64(limit),
		Limit:     limit,
		Remaining: int(remaining),
		ResetTime: now.Add(ttl),
	}
	if !res.Allowed {
		res.RetryAfter = ttl
	}
	return res
}
