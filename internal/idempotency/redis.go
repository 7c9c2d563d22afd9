// Package idempotency keeps processed results in redis so a repeated request with the same Idempotency-Key gets the same answer
package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/UnendingLoop/BgRemover/internal/config"
	"github.com/UnendingLoop/BgRemover/internal/model"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "bgremover:idem:"

type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, prefix: keyPrefix, ttl: ttl}
}

// NewRedisClient подключается к redis и проверяет соединение
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       0,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis %q ping: %w", cfg.Addr, err)
	}
	return rdb, nil
}

// Get returns nil, nil when nothing is stored under key.
func (c *RedisCache) Get(ctx context.Context, key string) (*model.PipelineResult, error) {
	b, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get %q: %w", key, err)
	}

	var res model.PipelineResult
	if err := json.Unmarshal(b, &res); err != nil {
		return nil, fmt.Errorf("decode cached result %q: %w", key, err)
	}
	return &res, nil
}

func (c *RedisCache) Save(ctx context.Context, key string, res *model.PipelineResult) error {
	b, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode result %q: %w", key, err)
	}
	if err := c.client.Set(ctx, c.prefix+key, b, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}
