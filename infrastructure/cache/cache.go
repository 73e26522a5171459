package cache

import (
	"context"

	"github.com/redis/go-redis/v9"
	"social-hub/infrastructure/logger"
)

// NewCache connects a redis client. A nil client is returned on ping failure
// so callers can degrade (no replay cache, no analytics cache) instead of
// refusing to start.
func NewCache(ctx context.Context, addr, username, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: username,
		Password: password,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.GetLogger().WithField("error", err).Warn("Redis not available")
		return nil, err
	}
	return client, nil
}
