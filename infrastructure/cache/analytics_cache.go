package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"social-hub/domain/model"
)

// AnalyticsCache stores normalized per-channel analytics so dashboard reloads
// do not refetch three providers. Best-effort on both paths.
type AnalyticsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewAnalyticsCache(client *redis.Client, ttl time.Duration) *AnalyticsCache {
	return &AnalyticsCache{client: client, ttl: ttl}
}

func analyticsKey(channelID int64, windowDays int) string {
	return fmt.Sprintf("analytics:%d:%d", channelID, windowDays)
}

func (c *AnalyticsCache) Get(ctx context.Context, channelID int64, windowDays int) (*model.PlatformAnalytics, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, analyticsKey(channelID, windowDays)).Bytes()
	if err != nil {
		return nil, false
	}
	var pa model.PlatformAnalytics
	if err := json.Unmarshal(data, &pa); err != nil {
		return nil, false
	}
	return &pa, true
}

func (c *AnalyticsCache) Set(ctx context.Context, windowDays int, pa *model.PlatformAnalytics) {
	if c == nil || c.client == nil || pa == nil {
		return
	}
	data, err := json.Marshal(pa)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, analyticsKey(pa.ChannelID, windowDays), data, c.ttl).Err()
}
