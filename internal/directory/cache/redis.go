package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKey = "furgon:institution_names"

// Redis shares the lookup map across processes through a Redis hash with a
// TTL. An empty hash counts as a miss; the loader repopulates it.
type Redis struct {
	client *redis.Client
	loader Loader
	ttl    time.Duration
}

func NewRedis(client *redis.Client, loader Loader, ttl time.Duration) *Redis {
	return &Redis{client: client, loader: loader, ttl: ttl}
}

func (c *Redis) Names(ctx context.Context) (map[string]string, error) {
	cached, err := c.client.HGetAll(ctx, redisKey).Result()
	if err != nil {
		return nil, fmt.Errorf("read name cache: %w", err)
	}
	if len(cached) > 0 {
		return cached, nil
	}

	data, err := c.loader(ctx)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return data, nil
	}

	flat := make([]any, 0, len(data)*2)
	for id, name := range data {
		flat = append(flat, id, name)
	}
	pipe := c.client.Pipeline()
	pipe.HSet(ctx, redisKey, flat...)
	pipe.Expire(ctx, redisKey, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		// The map is still valid; failing to warm the cache only costs the
		// next caller a rebuild.
		return data, nil
	}
	return data, nil
}

func (c *Redis) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, redisKey).Err(); err != nil {
		return fmt.Errorf("invalidate name cache: %w", err)
	}
	return nil
}
