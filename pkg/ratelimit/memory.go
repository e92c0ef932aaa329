package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter is the single-process fallback used when no Redis address
// is configured (dev setups).
type MemoryLimiter struct {
	mu       sync.Mutex
	last     map[string]time.Time
	cooldown time.Duration
}

func NewMemoryLimiter(cooldown time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		last:     make(map[string]time.Time),
		cooldown: cooldown,
	}
}

func (m *MemoryLimiter) Allow(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if t, ok := m.last[key]; ok && now.Sub(t) < m.cooldown {
		return false, nil
	}
	m.last[key] = now

	// Opportunistic cleanup of stale entries.
	if len(m.last) > 10000 {
		for k, t := range m.last {
			if now.Sub(t) >= m.cooldown {
				delete(m.last, k)
			}
		}
	}

	return true, nil
}
