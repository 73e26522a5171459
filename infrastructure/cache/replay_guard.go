package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"social-hub/infrastructure/logger"
)

// ReplayGuard enforces at-most-once consumption of OAuth state nonces inside
// their validity window. Age checking alone would let a state be replayed for
// its full 300 seconds.
type ReplayGuard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewReplayGuard(client *redis.Client, ttl time.Duration) *ReplayGuard {
	return &ReplayGuard{client: client, ttl: ttl}
}

// Consume returns false when the nonce was already used. Without redis the
// guard degrades open: age checking still applies, replay protection does not.
func (g *ReplayGuard) Consume(ctx context.Context, nonce string) bool {
	if g == nil || g.client == nil || nonce == "" {
		return true
	}
	ok, err := g.client.SetNX(ctx, "oauth_state:"+nonce, 1, g.ttl).Result()
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Replay guard unavailable; allowing state")
		return true
	}
	return ok
}
