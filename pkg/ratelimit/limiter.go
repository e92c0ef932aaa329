package ratelimit

import "context"

// Limiter gates how often a key may perform a guarded action. Allow returns
// true when the key is outside its cooldown window and atomically starts a
// new one.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}
