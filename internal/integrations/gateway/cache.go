package gateway

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"candidate-onboarding/internal/common/database"
	"candidate-onboarding/internal/models"

	"github.com/redis/go-redis/v9"
)

// CounterpartCache keeps resolved counterpart mappings in Redis per
// operator and branch.
type CounterpartCache struct {
	rdb    redis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewCounterpartCache(rdb redis.Cmdable, prefix string, ttl time.Duration) *CounterpartCache {
	return &CounterpartCache{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (c *CounterpartCache) key(operatorID, branchID string) string {
	return database.Key(c.prefix, "counterpart", operatorID, branchID)
}

// Get returns nil without error on a miss.
func (c *CounterpartCache) Get(ctx context.Context, operatorID, branchID string) (*models.CounterpartMapping, error) {
	raw, err := c.rdb.Get(ctx, c.key(operatorID, branchID)).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read counterpart: %w", err)
	}
	var m models.CounterpartMapping
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to decode counterpart: %w", err)
	}
	return &m, nil
}

func (c *CounterpartCache) Set(ctx context.Context, operatorID, branchID string, m *models.CounterpartMapping) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode counterpart: %w", err)
	}
	if err := c.rdb.Set(ctx, c.key(operatorID, branchID), string(data), c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write counterpart: %w", err)
	}
	return nil
}
