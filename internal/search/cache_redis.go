package search

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisCache shares cached results between processes.
type RedisCache struct {
	Client *redis.Client
	Prefix string
	TTL    time.Duration
}

func NewRedisCache(addr, password string, db int, ttl time.Duration) *RedisCache {
	return &RedisCache{
		Client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		Prefix: "plagcheck:search:",
		TTL:    ttl,
	}
}

// Ping checks connectivity at startup.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]Result, bool) {
	raw, err := c.Client.Get(ctx, c.Prefix+key).Bytes()
	if err != nil {
		return nil, false
	}
	var out []Result
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false
	}
	return out, true
}

func (c *RedisCache) Put(ctx context.Context, key string, results []Result) error {
	b, err := json.Marshal(results)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, c.Prefix+key, b, c.TTL).Err()
}

func (c *RedisCache) Close() error { return c.Client.Close() }
