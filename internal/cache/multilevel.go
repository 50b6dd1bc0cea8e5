package cache

import (
	"context"
	"errors"
	"path"
	"time"

	"project-planner/backend/internal/resilience"
)

// MultiLevelCache reads L1 first, then L2. L2 is optional; when it is nil or
// its breaker is open the cache behaves as L1 only.
type MultiLevelCache struct {
	l1      *MemoryCache
	l2      Cache
	l1TTL   time.Duration
	breaker *resilience.Breaker
	shared  []string
}

type MultiLevelOption func(*MultiLevelCache)

// WithL1TTL caps how long a value promoted from L2 stays in memory. Keep it
// short when several instances share L2.
func WithL1TTL(ttl time.Duration) MultiLevelOption {
	return func(c *MultiLevelCache) { c.l1TTL = ttl }
}

// WithSharedKeys keeps keys matching any of the glob patterns out of L1 while
// L2 is configured. Every instance sharing L2 then sees an invalidation made
// by any other instance on its next read.
func WithSharedKeys(patterns ...string) MultiLevelOption {
	return func(c *MultiLevelCache) { c.shared = append(c.shared, patterns...) }
}

func WithBreaker(b *resilience.Breaker) MultiLevelOption {
	return func(c *MultiLevelCache) { c.breaker = b }
}

func NewMultiLevelCache(l1 *MemoryCache, l2 Cache, opts ...MultiLevelOption) *MultiLevelCache {
	if l1 == nil {
		l1 = NewMemoryCache(0)
	}
	c := &MultiLevelCache{
		l1:    l1,
		l2:    l2,
		l1TTL: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.breaker == nil {
		c.breaker = resilience.NewBreaker(resilience.BreakerConfig{
			Name:      "cache-l2",
			Timeout:   15 * time.Second,
			IsFailure: func(err error) bool { return errors.Is(err, ErrCacheDown) },
		})
	}
	return c
}

func (c *MultiLevelCache) l1Expiry(ttl time.Duration) time.Duration {
	if ttl <= 0 || ttl > c.l1TTL {
		return c.l1TTL
	}
	return ttl
}

func (c *MultiLevelCache) isShared(key string) bool {
	if c.l2 == nil {
		return false
	}
	for _, pattern := range c.shared {
		if ok, _ := path.Match(pattern, key); ok {
			return true
		}
	}
	return false
}

func (c *MultiLevelCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.isShared(key) {
		if err := c.l1.Set(ctx, key, value, c.l1Expiry(ttl)); err != nil {
			return err
		}
	}

	if c.l2 == nil {
		return nil
	}
	return c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.l2.Set(ctx, key, value, ttl)
	})
}

func (c *MultiLevelCache) Get(ctx context.Context, key string, dest interface{}) error {
	shared := c.isShared(key)
	if !shared {
		err := c.l1.Get(ctx, key, dest)
		if err == nil || !errors.Is(err, ErrCacheMiss) || c.l2 == nil {
			return err
		}
	}

	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.l2.Get(ctx, key, dest)
	})
	if err != nil {
		return err
	}

	if !shared {
		_ = c.l1.Set(ctx, key, dest, c.l1TTL)
	}
	return nil
}

func (c *MultiLevelCache) Delete(ctx context.Context, keys ...string) error {
	_ = c.l1.Delete(ctx, keys...)

	if c.l2 == nil {
		return nil
	}
	return c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.l2.Delete(ctx, keys...)
	})
}

func (c *MultiLevelCache) DeletePattern(ctx context.Context, pattern string) error {
	if err := c.l1.DeletePattern(ctx, pattern); err != nil {
		return err
	}

	if c.l2 == nil {
		return nil
	}
	return c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.l2.DeletePattern(ctx, pattern)
	})
}

func (c *MultiLevelCache) Stats() map[string]interface{} {
	stats := map[string]interface{}{
		"l1": c.l1.Stats(),
	}

	if c.l2 != nil {
		stats["l2"] = c.l2.Stats()
		stats["l2_breaker"] = c.breaker.Stats()
	}

	return stats
}

func (c *MultiLevelCache) Health(ctx context.Context) error {
	if c.l2 != nil {
		return c.l2.Health(ctx)
	}

	return nil
}

func (c *MultiLevelCache) Close() error {
	_ = c.l1.Close()

	if c.l2 != nil {
		return c.l2.Close()
	}

	return nil
}
