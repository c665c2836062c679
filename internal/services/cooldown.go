package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vitalwatch/vitalwatch/internal/vitals"
)

// Cooldown rate-limits automatic alerts per (patient, condition) pair.
// Allow reports whether a new alert may be emitted now and, if so, starts
// the cool-down window. Release disarms a window that Allow armed when the
// alert it was armed for never materialized.
type Cooldown interface {
	Allow(ctx context.Context, patientID uint, condition vitals.Condition) bool
	Release(ctx context.Context, patientID uint, condition vitals.Condition)
}

func cooldownKey(patientID uint, condition vitals.Condition) string {
	return fmt.Sprintf("alert:cooldown:%d:%s", patientID, condition)
}

// MemoryCooldown tracks cool-down windows in process memory. Used as the
// fallback when Redis is unavailable, and in tests.
type MemoryCooldown struct {
	ttl     time.Duration
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
}

// NewMemoryCooldown creates an in-memory cooldown with the given window
func NewMemoryCooldown(ttl time.Duration) *MemoryCooldown {
	return &MemoryCooldown{
		ttl:     ttl,
		expires: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (c *MemoryCooldown) Allow(ctx context.Context, patientID uint, condition vitals.Condition) bool {
	key := cooldownKey(patientID, condition)

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if expiry, held := c.expires[key]; held && now.Before(expiry) {
		return false
	}
	c.expires[key] = now.Add(c.ttl)
	return true
}

func (c *MemoryCooldown) Release(ctx context.Context, patientID uint, condition vitals.Condition) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.expires, cooldownKey(patientID, condition))
}

// RedisCooldown tracks cool-down windows in Redis so they survive restarts
// and are shared across instances. SET NX with a TTL makes the check-and-arm
// atomic.
type RedisCooldown struct {
	client *redis.Client
	ttl    time.Duration
	// fallback takes over when Redis is unreachable, so a Redis outage
	// degrades to per-process dedup instead of alert flooding or silence.
	fallback *MemoryCooldown
}

// NewRedisCooldown creates a Redis-backed cooldown
func NewRedisCooldown(client *redis.Client, ttl time.Duration) *RedisCooldown {
	return &RedisCooldown{
		client:   client,
		ttl:      ttl,
		fallback: NewMemoryCooldown(ttl),
	}
}

func (c *RedisCooldown) Allow(ctx context.Context, patientID uint, condition vitals.Condition) bool {
	key := cooldownKey(patientID, condition)

	ok, err := c.client.SetNX(ctx, key, 1, c.ttl).Result()
	if err != nil {
		return c.fallback.Allow(ctx, patientID, condition)
	}
	return ok
}

func (c *RedisCooldown) Release(ctx context.Context, patientID uint, condition vitals.Condition) {
	if err := c.client.Del(ctx, cooldownKey(patientID, condition)).Err(); err != nil {
		c.fallback.Release(ctx, patientID, condition)
	}
}
