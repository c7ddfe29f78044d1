package krakengo

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// DefaultOrderTTL is Kraken's order-penalty tracking window.
const DefaultOrderTTL = 300 * time.Second

// TTLCache tracks string-keyed values that expire after a fixed duration,
// used to recover an order's age at cancellation time for the order-aging
// rate limiter. Safe for concurrent use.
type TTLCache[V any] struct {
	ttl time.Duration
	c   *gocache.Cache
}

// NewTTLCache builds a TTLCache with the given time-to-live. Expired entries
// are also swept by a background janitor every ttl/2, in addition to any
// explicit Cleanup call.
func NewTTLCache[V any](ttl time.Duration) *TTLCache[V] {
	cleanupInterval := ttl / 2
	if cleanupInterval <= 0 {
		cleanupInterval = time.Second
	}
	return &TTLCache[V]{
		ttl: ttl,
		c:   gocache.New(ttl, cleanupInterval),
	}
}

// Insert stores value under key, timestamped with the current time.
func (t *TTLCache[V]) Insert(key string, value V) {
	t.c.SetDefault(key, value)
}

// Get returns the value for key if present and not expired.
func (t *TTLCache[V]) Get(key string) (V, bool) {
	var zero V
	raw, ok := t.c.Get(key)
	if !ok {
		return zero, false
	}
	v, ok := raw.(V)
	if !ok {
		return zero, false
	}
	return v, true
}

// Age returns how long ago key was inserted, if present and not expired.
func (t *TTLCache[V]) Age(key string) (time.Duration, bool) {
	raw, expiration, ok := t.c.GetWithExpiration(key)
	if !ok || raw == nil {
		return 0, false
	}
	insertedAt := expiration.Add(-t.ttl)
	return time.Since(insertedAt), true
}

// Remove deletes key and reports whether it had been present and unexpired.
func (t *TTLCache[V]) Remove(key string) (V, bool) {
	v, ok := t.Get(key)
	if ok {
		t.c.Delete(key)
	}
	return v, ok
}

// RemoveWithAge deletes key and returns both its value and its age, if it
// was present and unexpired. This is the primitive the order-aging limiter
// uses to compute a cancellation penalty.
func (t *TTLCache[V]) RemoveWithAge(key string) (V, time.Duration, bool) {
	var zero V
	raw, expiration, ok := t.c.GetWithExpiration(key)
	if !ok || raw == nil {
		return zero, 0, false
	}
	v, ok := raw.(V)
	if !ok {
		return zero, 0, false
	}
	t.c.Delete(key)
	insertedAt := expiration.Add(-t.ttl)
	return v, time.Since(insertedAt), true
}

// Cleanup removes expired entries immediately, instead of waiting for the
// background janitor.
func (t *TTLCache[V]) Cleanup() {
	t.c.DeleteExpired()
}

// ActiveCount returns the number of non-expired entries.
func (t *TTLCache[V]) ActiveCount() int {
	return len(t.c.Items())
}

// TTL returns the configured time-to-live.
func (t *TTLCache[V]) TTL() time.Duration {
	return t.ttl
}
