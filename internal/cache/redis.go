package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/FGuerriero/get-volunteers-backend/internal/config"
	"github.com/redis/go-redis/v9"
)

// countTTL bounds staleness of cached match counts. Counts are
// re-derived from the store on miss, so expiry is harmless.
const countTTL = time.Hour

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return c.Client.Get(ctx, key).Result()
}

func (c *RedisCache) Del(ctx context.Context, key string) error {
	return c.Client.Del(ctx, key).Err()
}

// KeyForVolunteerMatchCount generates the Redis key for a volunteer's match count.
func (c *RedisCache) KeyForVolunteerMatchCount(volunteerID uint64) string {
	return fmt.Sprintf("matches:count:volunteer:%d", volunteerID)
}

// KeyForNeedMatchCount generates the Redis key for a need's match count.
func (c *RedisCache) KeyForNeedMatchCount(needID uint64) string {
	return fmt.Sprintf("matches:count:need:%d", needID)
}

// UpdateMatchCount stores a freshly derived count, refreshing the TTL.
func (c *RedisCache) UpdateMatchCount(ctx context.Context, key string, count int64) error {
	return c.Client.Set(ctx, key, count, countTTL).Err()
}

// GetMatchCount returns the cached count for key, or found=false on miss.
// TTL is refreshed on access.
func (c *RedisCache) GetMatchCount(ctx context.Context, key string) (int64, bool, error) {
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil // cache miss
	} else if err != nil {
		return 0, false, err
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, nil // unparseable entry, treat as miss
	}
	_ = c.Client.Expire(ctx, key, countTTL).Err()
	return n, true, nil
}

// InvalidateMatchCounts drops cached counts for the given keys, e.g.
// after a cascade delete makes them wrong.
func (c *RedisCache) InvalidateMatchCounts(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.Client.Del(ctx, keys...).Err()
}
