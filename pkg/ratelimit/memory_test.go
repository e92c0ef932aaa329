package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiterEnforcesCooldown(t *testing.T) {
	limiter := NewMemoryLimiter(50 * time.Millisecond)
	ctx := context.Background()

	ok, err := limiter.Allow(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = limiter.Allow(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, ok)

	time.Sleep(60 * time.Millisecond)

	ok, err = limiter.Allow(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryLimiterIsolatesKeys(t *testing.T) {
	limiter := NewMemoryLimiter(time.Minute)
	ctx := context.Background()

	ok, _ := limiter.Allow(ctx, "user-1")
	assert.True(t, ok)

	ok, _ = limiter.Allow(ctx, "user-2")
	assert.True(t, ok)

	ok, _ = limiter.Allow(ctx, "user-1")
	assert.False(t, ok)
}
