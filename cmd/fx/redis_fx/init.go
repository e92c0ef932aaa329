package redis_fx

import (
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/fx"

	"drape/internal/infra"
	"drape/pkg/ratelimit"
)

// Cooldown between generations per user.
const generationCooldown = 30 * time.Second

var Module = fx.Provide(
	provideRedis, provideLimiter)

func provideRedis() *redis.Client {
	return infra.InitRedis()
}

func provideLimiter(client *redis.Client) ratelimit.Limiter {
	if client == nil {
		return ratelimit.NewMemoryLimiter(generationCooldown)
	}
	return ratelimit.NewRedisLimiter(client, generationCooldown)
}
