package cache

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/LaunchPad/internal/pkg/config"
)

var client *redis.Client

// SetupCache initializes the connection to the Redis-compatible cache
// server. An unreachable server is logged, not fatal: the client
// reconnects on use.
func SetupCache(cfg config.CacheConfig) *redis.Client {
	client = redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	pong, err := client.Ping(ctx).Result()
	if err != nil {
		log.Warnf("[Cache] Could not connect to %s: %v", cfg.Addr(), err)
	} else {
		log.Infof("[Cache] Connected to %s: %s", cfg.Addr(), pong)
	}
	return client
}

// GetClient returns the Redis client instance
func GetClient() *redis.Client {
	return client
}

// Ping reports whether the cache answers.
func Ping(ctx context.Context, c redis.Cmdable) error {
	return c.Ping(ctx).Err()
}
