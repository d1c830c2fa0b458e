package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/LaunchPad/internal/pkg/entitlements"
)

// counterTTL outlives the day so a counter is still readable around midnight.
const counterTTL = 48 * time.Hour

// RedisStore keeps counters in Redis with atomic INCR.
type RedisStore struct {
	client redis.Cmdable
}

func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

func counterKey(accountID uint, tool entitlements.Tool, day string) string {
	return fmt.Sprintf("ratelimit:%d:%s:%s", accountID, tool, day)
}

func (s *RedisStore) Count(ctx context.Context, accountID uint, tool entitlements.Tool, day string) (int, error) {
	n, err := s.client.Get(ctx, counterKey(accountID, tool, day)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *RedisStore) Increment(ctx context.Context, accountID uint, tool entitlements.Tool, day string) (int, error) {
	key := counterKey(accountID, tool, day)
	var incr *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, counterTTL)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int(incr.Val()), nil
}
