package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/vitalwatch/vitalwatch/internal/vitals"
)

func TestMemoryCooldown_SuppressesWithinWindow(t *testing.T) {
	now := time.Now()
	c := NewMemoryCooldown(60 * time.Second)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	assert.True(t, c.Allow(ctx, 1, vitals.ConditionHeartRateCritical))
	for i := 0; i < 9; i++ {
		assert.False(t, c.Allow(ctx, 1, vitals.ConditionHeartRateCritical))
	}

	// Same patient, different condition: not suppressed.
	assert.True(t, c.Allow(ctx, 1, vitals.ConditionFever))
	// Different patient, same condition: not suppressed.
	assert.True(t, c.Allow(ctx, 2, vitals.ConditionHeartRateCritical))
}

func TestMemoryCooldown_ReallowsAfterExpiry(t *testing.T) {
	now := time.Now()
	c := NewMemoryCooldown(60 * time.Second)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	assert.True(t, c.Allow(ctx, 1, vitals.ConditionHeartRateCritical))

	now = now.Add(59 * time.Second)
	assert.False(t, c.Allow(ctx, 1, vitals.ConditionHeartRateCritical))

	now = now.Add(2 * time.Second)
	assert.True(t, c.Allow(ctx, 1, vitals.ConditionHeartRateCritical))
}

func TestMemoryCooldown_ReleaseDisarms(t *testing.T) {
	c := NewMemoryCooldown(60 * time.Second)
	ctx := context.Background()

	assert.True(t, c.Allow(ctx, 1, vitals.ConditionHeartRateCritical))
	c.Release(ctx, 1, vitals.ConditionHeartRateCritical)
	assert.True(t, c.Allow(ctx, 1, vitals.ConditionHeartRateCritical))
}

func TestRedisCooldown_SuppressesAndExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	c := NewRedisCooldown(client, 60*time.Second)
	ctx := context.Background()

	assert.True(t, c.Allow(ctx, 1, vitals.ConditionHeartRateCritical))
	assert.False(t, c.Allow(ctx, 1, vitals.ConditionHeartRateCritical))
	assert.True(t, c.Allow(ctx, 1, vitals.ConditionLowOxygen))

	mr.FastForward(61 * time.Second)
	assert.True(t, c.Allow(ctx, 1, vitals.ConditionHeartRateCritical))

	c.Release(ctx, 1, vitals.ConditionHeartRateCritical)
	assert.True(t, c.Allow(ctx, 1, vitals.ConditionHeartRateCritical))
}

func TestRedisCooldown_FallsBackWhenRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	c := NewRedisCooldown(client, 60*time.Second)
	mr.Close()
	ctx := context.Background()

	// Dedup still works per process via the in-memory fallback.
	assert.True(t, c.Allow(ctx, 1, vitals.ConditionHeartRateCritical))
	assert.False(t, c.Allow(ctx, 1, vitals.ConditionHeartRateCritical))
}
