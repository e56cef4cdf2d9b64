// internal/common/database/redis.go
package database

import (
	"context"
	"fmt"
	"time"

	"candidate-onboarding/internal/common/config"

	"github.com/redis/go-redis/v9"
)

// RedisClient backs the redis snapshot store and the counterpart cache.
// Every key it hands out is namespaced under the configured prefix.
type RedisClient struct {
	Client *redis.Client
	prefix string
}

func NewRedis(cfg config.RedisConfig) (*RedisClient, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis: address is required")
	}
	pool := cfg.PoolSize
	if pool <= 0 {
		pool = 10
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ClientName:   cfg.KeyPrefix,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     pool,
		MinIdleConns: 1,
	})
	return &RedisClient{Client: rdb, prefix: cfg.KeyPrefix}, nil
}

func (c *RedisClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (c *RedisClient) Close() error {
	if c.Client == nil {
		return nil
	}
	return c.Client.Close()
}

// Key namespaces parts under the configured prefix.
func (c *RedisClient) Key(parts ...string) string {
	return Key(c.prefix, parts...)
}

// Key joins prefix and parts with ':' separators, skipping an empty prefix.
func Key(prefix string, parts ...string) string {
	key := prefix
	for _, p := range parts {
		if key == "" {
			key = p
			continue
		}
		key += ":" + p
	}
	return key
}
