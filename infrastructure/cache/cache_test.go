package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"social-hub/infrastructure/cache"
)

// Without a redis client the replay guard degrades open: every state passes.
func TestReplayGuardWithoutRedisAllows(t *testing.T) {
	guard := cache.NewReplayGuard(nil, 5*time.Minute)
	assert.NotNil(t, guard)
	assert.True(t, guard.Consume(context.Background(), "nonce-1"))
	assert.True(t, guard.Consume(context.Background(), "nonce-1"))
}

func TestAnalyticsCacheWithoutRedisMisses(t *testing.T) {
	analyticsCache := cache.NewAnalyticsCache(nil, time.Minute)
	assert.NotNil(t, analyticsCache)
	got, ok := analyticsCache.Get(context.Background(), 1, 30)
	assert.Nil(t, got)
	assert.False(t, ok)
}
