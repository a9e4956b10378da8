package database

import (
	"context"
	"fmt"
	"time"

	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/config"

	"github.com/redis/go-redis/v9"
)

const DefaultRedisPoolSize = 10

// RedisClient holds the creator profile cache connection. The cache is
// optional; callers treat a failed NewRedis or Ping as "no cache".
type RedisClient struct {
	Client *redis.Client
}

func NewRedis(cfg config.RedisConfig) (*RedisClient, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is empty")
	}

	pool := cfg.PoolSize
	if pool <= 0 {
		pool = DefaultRedisPoolSize
	}

	// Cache reads sit on the scoring path, so timeouts stay well under the
	// persistence timeout and a slow cache degrades to a store read.
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
		PoolSize:     pool,
		MinIdleConns: pool / 5,
	})

	return &RedisClient{Client: rdb}, nil
}

func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (c *RedisClient) Close() error {
	if c.Client != nil {
		return c.Client.Close()
	}
	return nil
}
