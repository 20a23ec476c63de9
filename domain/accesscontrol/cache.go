package accesscontrol

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
)

// SessionCache mirrors active sessions so ValidateSession can avoid a
// storage round trip on the hot path. Sessions are read far more often
// than they are written, which is exactly the access pattern the
// teacher's go-redis dependency was carried for.
type SessionCache interface {
	Get(ctx context.Context, sessionID string) (Session, bool)
	Put(ctx context.Context, s Session, ttl time.Duration)
	Invalidate(ctx context.Context, sessionID string)
}

// NoopSessionCache is the default: every lookup misses, so ValidateSession
// always falls back to store. Used when no Redis address is configured.
type NoopSessionCache struct{}

func (NoopSessionCache) Get(context.Context, string) (Session, bool)     { return Session{}, false }
func (NoopSessionCache) Put(context.Context, Session, time.Duration)     {}
func (NoopSessionCache) Invalidate(context.Context, string)              {}

// RedisSessionCache is the distributed cache tier backing SessionCache.
// A cache miss or a Redis error is never fatal: callers fall back to
// store, so this cache is an optimization, not a source of truth.
type RedisSessionCache struct {
	client *redis.Client
	prefix string
}

// NewRedisSessionCache dials (lazily, redis.Client connects on first use)
// a Redis instance at addr.
func NewRedisSessionCache(addr string) *RedisSessionCache {
	return &RedisSessionCache{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		prefix: "nexum:session:",
	}
}

type cachedSession struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	IsActive  bool      `json:"is_active"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
}

func (c *RedisSessionCache) Get(ctx context.Context, sessionID string) (Session, bool) {
	raw, err := c.client.Get(ctx, c.prefix+sessionID).Bytes()
	if err != nil {
		return Session{}, false
	}
	var cs cachedSession
	if err := json.Unmarshal(raw, &cs); err != nil {
		return Session{}, false
	}
	return Session(cs), true
}

func (c *RedisSessionCache) Put(ctx context.Context, s Session, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	raw, err := json.Marshal(cachedSession(s))
	if err != nil {
		return
	}
	c.client.Set(ctx, c.prefix+s.ID, raw, ttl)
}

func (c *RedisSessionCache) Invalidate(ctx context.Context, sessionID string) {
	c.client.Del(ctx, c.prefix+sessionID)
}

func (c *RedisSessionCache) Close() error {
	return c.client.Close()
}
