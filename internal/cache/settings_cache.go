package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/shipdesk/internal/config"
	"go.uber.org/zap"
)

const (
	KeyCompany     = "company"
	KeyAppSettings = "app"

	defaultSettingsTTL = 5 * time.Minute
)

// SettingsCache holds read-mostly settings documents in process memory and,
// when configured, in Redis shared by every instance.
type SettingsCache struct {
	local  Cache[string, []byte]
	remote *remoteStore
	ttl    time.Duration
	log    *zap.Logger
}

type FlushResult struct {
	Local  int `json:"local"`
	Remote int `json:"remote"`
}

func NewSettingsCache(cfg config.Config, client *redis.Client, log *zap.Logger) *SettingsCache {
	ttl := time.Duration(cfg.CacheTTL) * time.Second
	if ttl <= 0 {
		ttl = defaultSettingsTTL
	}
	c := &SettingsCache{
		local: NewTTLCache[string, []byte](),
		ttl:   ttl,
		log:   log.Named("settings.cache"),
	}
	if client != nil {
		c.remote = &remoteStore{client: client}
	}
	return c
}

// NewLocalSettingsCache builds a cache without Redis.
func NewLocalSettingsCache(ttl time.Duration, log *zap.Logger) *SettingsCache {
	if ttl <= 0 {
		ttl = defaultSettingsTTL
	}
	return &SettingsCache{local: NewTTLCache[string, []byte](), ttl: ttl, log: log.Named("settings.cache")}
}

// Load decodes the cached document for key into dst and reports a hit.
func (c *SettingsCache) Load(ctx context.Context, key string, dst any) bool {
	if c == nil {
		return false
	}
	key = cacheKey(key)
	if raw, ok := c.local.Get(key); ok {
		if err := json.Unmarshal(raw, dst); err == nil {
			return true
		}
		c.local.Delete(key)
	}
	if c.remote == nil {
		return false
	}

	hit, err := c.remote.get(ctx, key, dst)
	if err != nil {
		c.log.Warn("redis read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if hit {
		if raw, err := json.Marshal(dst); err == nil {
			c.local.Set(key, raw, c.ttl)
		}
	}
	return hit
}

func (c *SettingsCache) Store(ctx context.Context, key string, value any) {
	if c == nil {
		return
	}
	key = cacheKey(key)
	raw, err := json.Marshal(value)
	if err != nil {
		c.log.Warn("settings cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	c.local.Set(key, raw, c.ttl)
	if c.remote == nil {
		return
	}
	if err := c.remote.set(ctx, key, value, c.ttl); err != nil {
		c.log.Warn("redis write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *SettingsCache) Invalidate(ctx context.Context, key string) {
	if c == nil {
		return
	}
	key = cacheKey(key)
	c.local.Delete(key)
	if c.remote == nil {
		return
	}
	if err := c.remote.delete(ctx, key); err != nil {
		c.log.Warn("redis delete failed", zap.String("key", key), zap.Error(err))
	}
}

// Flush empties both tiers.
func (c *SettingsCache) Flush(ctx context.Context) (FlushResult, error) {
	if c == nil {
		return FlushResult{}, nil
	}
	result := FlushResult{Local: c.local.Flush()}
	if c.remote == nil {
		return result, nil
	}
	removed, err := c.remote.flush(ctx)
	result.Remote = removed
	return result, err
}

func (c *SettingsCache) Remote() bool {
	return c != nil && c.remote != nil
}

func cacheKey(parts ...string) string {
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		values = append(values, strings.ToLower(trimmed))
	}
	return strings.Join(values, "|")
}
