package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const poolKey = "slug_pool"

// RedisCache is the Cache implementation backed by Redis: a flat
// `url:<slug>` key per mapping and a single list at slug_pool.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache wraps an already-connected redis.Client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func cacheKey(slug string) string {
	return "url:" + slug
}

func (c *RedisCache) Get(ctx context.Context, slug string) (string, bool, error) {
	val, err := c.client.Get(ctx, cacheKey(slug)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: getting %q: %v", ErrUnavailable, slug, err)
	}
	return val, true, nil
}

func (c *RedisCache) Set(ctx context.Context, slug, url string) error {
	// No TTL: shared-cache entries live until evicted or explicitly
	// invalidated.
	if err := c.client.Set(ctx, cacheKey(slug), url, 0).Err(); err != nil {
		return fmt.Errorf("%w: setting %q: %v", ErrUnavailable, slug, err)
	}
	return nil
}

func (c *RedisCache) PoolLen(ctx context.Context) (int, error) {
	n, err := c.client.LLen(ctx, poolKey).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: measuring pool: %v", ErrUnavailable, err)
	}
	return int(n), nil
}

func (c *RedisCache) PoolEnqueue(ctx context.Context, slugs []string) error {
	if len(slugs) == 0 {
		return nil
	}
	args := make([]interface{}, len(slugs))
	for i, s := range slugs {
		args[i] = s
	}
	if err := c.client.RPush(ctx, poolKey, args...).Err(); err != nil {
		return fmt.Errorf("%w: enqueuing pool batch: %v", ErrUnavailable, err)
	}
	return nil
}

func (c *RedisCache) PoolDequeue(ctx context.Context) (string, bool, error) {
	slug, err := c.client.LPop(ctx, poolKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: popping pool: %v", ErrUnavailable, err)
	}
	return slug, true, nil
}

var _ Cache = (*RedisCache)(nil)
