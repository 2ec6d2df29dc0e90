package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"auction-explorer/internal/domain"
)

type RedisSummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSummaryCache(client *redis.Client, ttl time.Duration) *RedisSummaryCache {
	return &RedisSummaryCache{client: client, ttl: ttl}
}

func (r *RedisSummaryCache) GetSummary(ctx context.Context, address string) (*domain.AuctionSummary, bool, error) {
	key := fmt.Sprintf("auction:%s:summary", address)

	result, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, err
	}

	var summary domain.AuctionSummary
	if err := json.Unmarshal([]byte(result), &summary); err != nil {
		return nil, false, err
	}
	return &summary, true, nil
}

func (r *RedisSummaryCache) SetSummary(ctx context.Context, summary *domain.AuctionSummary) error {
	key := fmt.Sprintf("auction:%s:summary", summary.Address)

	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, r.ttl).Err()
}
