// ABOUTME: In-memory query cache with per-entry staleness, prefix invalidation and in-flight dedup
// ABOUTME: Retries retryable fetch failures with capped exponential backoff
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultRetries   = 2
	DefaultBaseDelay = time.Second
	DefaultMaxDelay  = 30 * time.Second
)

type Options struct {
	// Retries is how many extra attempts a failing fetch gets. Negative disables retries.
	Retries   int
	BaseDelay time.Duration
	MaxDelay  time.Duration
	// Retryable decides which errors are worth another attempt. The
	// default retries errors that report Retryable() true.
	Retryable func(error) bool
	Now       func() time.Time
	Logger    *zap.Logger
}

type entry struct {
	key       Key
	value     any
	fetchedAt time.Time
	ttl       time.Duration
}

// Cache holds query results keyed by tuple. Errors are never cached.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*entry
	// epoch advances on every invalidation so fetches that started
	// before it neither store their result nor get joined afterwards.
	epoch uint64

	group     singleflight.Group
	retries   int
	baseDelay time.Duration
	maxDelay  time.Duration
	retryable func(error) bool
	now       func() time.Time
	logger    *zap.Logger
}

func New(opts Options) *Cache {
	c := &Cache{
		entries:   make(map[string]*entry),
		retries:   opts.Retries,
		baseDelay: opts.BaseDelay,
		maxDelay:  opts.MaxDelay,
		retryable: opts.Retryable,
		now:       opts.Now,
		logger:    opts.Logger,
	}
	if c.retries < 0 {
		c.retries = 0
	}
	if c.baseDelay <= 0 {
		c.baseDelay = DefaultBaseDelay
	}
	if c.maxDelay <= 0 {
		c.maxDelay = DefaultMaxDelay
	}
	if c.retryable == nil {
		c.retryable = reportsRetryable
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

func reportsRetryable(err error) bool {
	var r interface{ Retryable() bool }
	return errors.As(err, &r) && r.Retryable()
}

// Fetch returns the cached value for key while it is younger than ttl.
// Otherwise it calls fn, sharing one call among concurrent callers of
// the same key, and caches the result on success.
func Fetch[T any](ctx context.Context, c *Cache, key Key, ttl time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if v, ok, err := lookup[T](c, key); ok || err != nil {
		return v, err
	}
	return load(ctx, c, key, ttl, fn)
}

// Refetch is Fetch without the freshness check.
func Refetch[T any](ctx context.Context, c *Cache, key Key, ttl time.Duration, fn func(context.Context) (T, error)) (T, error) {
	return load(ctx, c, key, ttl, fn)
}

func lookup[T any](c *Cache, key Key) (T, bool, error) {
	var zero T
	c.mu.RLock()
	e, ok := c.entries[key.String()]
	c.mu.RUnlock()
	if !ok || c.now().Sub(e.fetchedAt) >= e.ttl {
		return zero, false, nil
	}
	v, ok := e.value.(T)
	if !ok {
		return zero, false, fmt.Errorf("cache: key %v holds %T, not %T", key, e.value, zero)
	}
	c.logger.Debug("cache hit", zap.Strings("key", key))
	return v, true, nil
}

func load[T any](ctx context.Context, c *Cache, key Key, ttl time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	c.mu.RLock()
	epoch := c.epoch
	c.mu.RUnlock()

	// The flight is shared, so it must outlive any single caller. Each
	// caller still leaves on its own ctx in the select below.
	flightCtx := context.WithoutCancel(ctx)
	flightKey := key.String() + "#" + strconv.FormatUint(epoch, 10)
	ch := c.group.DoChan(flightKey, func() (any, error) {
		c.logger.Debug("cache miss", zap.Strings("key", key))
		v, err := c.withRetry(flightCtx, key, func(ctx context.Context) (any, error) { return fn(ctx) })
		if err != nil {
			return nil, err
		}
		c.store(key, v, ttl, epoch)
		return v, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		v, ok := res.Val.(T)
		if !ok {
			return zero, fmt.Errorf("cache: key %v produced %T, not %T", key, res.Val, zero)
		}
		return v, nil
	}
}

func (c *Cache) withRetry(ctx context.Context, key Key, fn func(context.Context) (any, error)) (any, error) {
	for attempt := 0; ; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if attempt >= c.retries || !c.retryable(err) || ctx.Err() != nil {
			return nil, err
		}

		delay := c.backoff(attempt)
		c.logger.Info("retrying fetch",
			zap.Strings("key", key),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err))

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}

// backoff is min(base * 2^attempt, max).
func (c *Cache) backoff(attempt int) time.Duration {
	d := c.baseDelay
	for i := 0; i < attempt && d < c.maxDelay; i++ {
		d *= 2
	}
	return min(d, c.maxDelay)
}

func (c *Cache) store(key Key, v any, ttl time.Duration, epoch uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		return
	}
	c.entries[key.String()] = &entry{key: key, value: v, fetchedAt: c.now(), ttl: ttl}
}

// Set stores v under key as if it had just been fetched.
func (c *Cache) Set(key Key, v any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key.String()] = &entry{key: key, value: v, fetchedAt: c.now(), ttl: ttl}
}

// Peek returns the cached value for key without fetching, and whether
// it is past its staleness window.
func (c *Cache) Peek(key Key) (value any, stale bool, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key.String()]
	if !ok {
		return nil, false, false
	}
	return e.value, c.now().Sub(e.fetchedAt) >= e.ttl, true
}

// Invalidate purges every entry whose key starts with any of prefixes
// and returns how many were removed.
func (c *Cache) Invalidate(prefixes ...Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++

	removed := 0
	for k, e := range c.entries {
		for _, p := range prefixes {
			if e.key.HasPrefix(p) {
				delete(c.entries, k)
				removed++
				break
			}
		}
	}
	c.logger.Debug("cache invalidated", zap.Int("removed", removed), zap.Int("prefixes", len(prefixes)))
	return removed
}

func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.entries = make(map[string]*entry)
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
