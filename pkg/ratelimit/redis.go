package ratelimit

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisLimiter implements the cooldown as a shared SETNX with TTL, so the
// window holds across processes.
type RedisLimiter struct {
	client   *redis.Client
	cooldown time.Duration
	prefix   string
}

func NewRedisLimiter(client *redis.Client, cooldown time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client:   client,
		cooldown: cooldown,
		prefix:   "cooldown",
	}
}

func (r *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, r.prefix+":"+key, 1, r.cooldown).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}
