package rfp

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const summaryCacheKey = "rfp:summary"

// SummaryCache keeps the dashboard summary in Redis. Concurrent misses are
// collapsed through singleflight so the summary query runs once per expiry.
type SummaryCache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewSummaryCache constructs the cache helper.
func NewSummaryCache(client *redis.Client, ttl time.Duration) *SummaryCache {
	return &SummaryCache{client: client, ttl: ttl}
}

// GetOrLoad returns the cached summary, loading and storing it on a miss.
func (c *SummaryCache) GetOrLoad(ctx context.Context, load func() ([]SummaryRow, error)) ([]SummaryRow, error) {
	if c == nil || c.client == nil {
		return load()
	}
	payload, err := c.client.Get(ctx, summaryCacheKey).Bytes()
	if err == nil {
		var rows []SummaryRow
		if err := json.Unmarshal(payload, &rows); err == nil {
			return rows, nil
		}
		// Corrupt entry: fall through and rebuild.
	} else if !errors.Is(err, redis.Nil) {
		return load()
	}

	result, err, _ := c.group.Do(summaryCacheKey, func() (any, error) {
		rows, err := load()
		if err != nil {
			return nil, err
		}
		if data, err := json.Marshal(rows); err == nil {
			_ = c.client.Set(ctx, summaryCacheKey, data, c.ttl).Err()
		}
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]SummaryRow), nil
}

// Invalidate drops the cached summary.
func (c *SummaryCache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, summaryCacheKey).Err()
}
