package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"salesInsight/business/stats"
	"salesInsight/domain"
)

const statsSummaryKey = "stats:summary"

var _ stats.Cache = (*StatsCache)(nil)

type StatsCache struct {
	client *redis.Client
	prefix string
}

func NewStatsCache(client *redis.Client, prefix string) *StatsCache {
	return &StatsCache{
		client: client,
		prefix: prefix,
	}
}

func (r *StatsCache) key() string {
	if r.prefix == "" {
		return statsSummaryKey
	}
	// key format: "{prefix}:stats:summary"
	return fmt.Sprintf("%s:%s", r.prefix, statsSummaryKey)
}

func (r *StatsCache) SetSummary(ctx context.Context, summary domain.SalesSummary, ttl time.Duration) error {
	jsonData, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal stats summary: %w", err)
	}

	if err := r.client.Set(ctx, r.key(), jsonData, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store stats summary in Redis: %w", err)
	}
	return nil
}

// GetSummary returns domain.ErrNotFound when the key is missing or expired.
func (r *StatsCache) GetSummary(ctx context.Context) (*domain.SalesSummary, error) {
	val, err := r.client.Get(ctx, r.key()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("stats summary: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get stats summary from Redis: %w", err)
	}

	var summary domain.SalesSummary
	if err := json.Unmarshal([]byte(val), &summary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stats summary: %w", err)
	}
	return &summary, nil
}

func (r *StatsCache) Invalidate(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key()).Err(); err != nil {
		return fmt.Errorf("failed to invalidate stats summary: %w", err)
	}
	return nil
}
