package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCounter - счётчики фиксированных окон в Redis (INCR + EXPIRE NX в одной транзакции)
type RedisCounter struct {
	redisClient *redis.Client
}

// NewRedisCounter создает RedisCounter
func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{redisClient: client}
}

func (r *RedisCounter) Incr(ctx context.Context, key string, win time.Duration) (int64, time.Duration, error) {
	var (
		incr *redis.IntCmd
		pttl *redis.DurationCmd
	)
	_, err := r.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, win)
		pttl = pipe.PTTL(ctx, key)
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}
	return incr.Val(), pttl.Val(), nil
}
