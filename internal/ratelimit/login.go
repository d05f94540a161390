package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/shipdesk/internal/config"
)

const (
	keyLoginAttempt = "shipdesk:login:%s:%s"
	keyJobLock      = "shipdesk:lock:%s"
)

const (
	defaultLoginAttempts = 10
	defaultLoginWindow   = 5 * time.Minute
)

// Guard throttles login and recovery attempts and serialises long-running
// admin jobs such as demo generation and imports. Attempt windows and job
// locks live in Redis when it is configured and in process-local tables
// otherwise.
type Guard struct {
	attempts attemptCounter
	locks    jobLocker

	maxAttempts int
	window      time.Duration
}

func NewGuard(cfg config.Config, client *redis.Client) *Guard {
	g := &Guard{
		attempts:    newLocalAttemptWindow(time.Now),
		locks:       newLocalLocker(time.Now),
		maxAttempts: cfg.LoginMaxAttempts,
		window:      time.Duration(cfg.LoginWindowSeconds) * time.Second,
	}
	if g.maxAttempts <= 0 {
		g.maxAttempts = defaultLoginAttempts
	}
	if g.window <= 0 {
		g.window = defaultLoginWindow
	}
	if client != nil {
		g.attempts = NewAttemptWindow(client)
		g.locks = newRedisLocker(client)
	}
	return g
}

// AllowLogin counts one attempt for username from clientIP. A nil Guard
// always allows.
func (g *Guard) AllowLogin(ctx context.Context, username, clientIP string) (*RateLimitResult, error) {
	if g == nil || g.attempts == nil {
		return &RateLimitResult{Allowed: true}, nil
	}
	key := fmt.Sprintf(keyLoginAttempt, strings.ToLower(strings.TrimSpace(username)), strings.TrimSpace(clientIP))
	return g.attempts.Hit(ctx, key, g.maxAttempts, g.window)
}

// TryLockJob takes the named job lock. A nil Guard always grants it.
func (g *Guard) TryLockJob(ctx context.Context, job string, ttl time.Duration) (string, bool, error) {
	if g == nil {
		return "", true, nil
	}
	return g.locks.TryLock(ctx, fmt.Sprintf(keyJobLock, strings.TrimSpace(job)), ttl)
}

func (g *Guard) ReleaseJob(ctx context.Context, job, token string) error {
	if g == nil || token == "" {
		return nil
	}
	return g.locks.Release(ctx, fmt.Sprintf(keyJobLock, strings.TrimSpace(job)), token)
}
