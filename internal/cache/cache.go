package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultNamespace prefixes every key PlantIQ writes to Redis.
const DefaultNamespace = "plantiq"

// Cache is the shared (cross-process) store behind rate limiting and
// identification reuse. Implementations must be safe for concurrent use.
type Cache interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Ping(ctx context.Context) error
	IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error)
}

// RedisCache implements Cache on go-redis/v9. Keys are stored under
// "<namespace>:<key>".
type RedisCache struct {
	client    *redis.Client
	namespace string
}

// RedisOption configures a RedisCache.
type RedisOption func(*RedisCache)

// WithNamespace replaces DefaultNamespace. An empty namespace stores keys as given.
func WithNamespace(ns string) RedisOption {
	return func(c *RedisCache) { c.namespace = ns }
}

// NewRedisCache creates a RedisCache from a redis:// or rediss:// URL.
func NewRedisCache(redisURL string, opts ...RedisOption) (*RedisCache, error) {
	ro, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	c := &RedisCache{client: redis.NewClient(ro), namespace: DefaultNamespace}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, c.key(key), value, ttl).Err()
}

// Get returns found=false without an error when key is absent or expired.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// IncrWithExpiry increments key and starts its expiry on the first increment
// only, so the window is fixed from the first hit.
func (c *RedisCache) IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error) {
	k := c.key(key)
	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, expiry)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (c *RedisCache) key(k string) string {
	if c.namespace == "" {
		return k
	}
	return c.namespace + ":" + k
}

var _ Cache = (*RedisCache)(nil)
