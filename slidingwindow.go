package krakengo

import (
	"sync"
	"time"
)

// SlidingWindow enforces a maximum number of requests within a trailing
// window of time. Safe for concurrent use.
type SlidingWindow struct {
	mu          sync.Mutex
	requests    []time.Time
	window      time.Duration
	maxRequests uint32
}

// NewSlidingWindow builds a SlidingWindow allowing maxRequests within any
// trailing window of the given duration.
func NewSlidingWindow(window time.Duration, maxRequests uint32) *SlidingWindow {
	return &SlidingWindow{
		requests:    make([]time.Time, 0, maxRequests),
		window:      window,
		maxRequests: maxRequests,
	}
}

// TryAcquire consumes a permit if one is available, returning ok=true. If
// the window is full, it returns ok=false and the duration until the oldest
// request in the window expires.
func (w *SlidingWindow) TryAcquire() (ok bool, wait time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.cleanupLocked()

	if uint32(len(w.requests)) < w.maxRequests {
		w.requests = append(w.requests, time.Now())
		return true, 0
	}

	if len(w.requests) == 0 {
		return false, 0
	}
	elapsed := time.Since(w.requests[0])
	if elapsed >= w.window {
		return false, 0
	}
	return false, w.window - elapsed
}

// WouldAllow reports whether a request would be allowed right now, without
// consuming a permit.
func (w *SlidingWindow) WouldAllow() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return uint32(w.activeCountLocked()) < w.maxRequests
}

// Remaining returns the number of permits available in the current window.
func (w *SlidingWindow) Remaining() uint32 {
	w.mu.Lock()
	defer w.mu.Unlock()
	active := uint32(w.activeCountLocked())
	if active >= w.maxRequests {
		return 0
	}
	return w.maxRequests - active
}

// TimeUntilAvailable returns the duration until a permit frees up, or
// ok=false if one is available now.
func (w *SlidingWindow) TimeUntilAvailable() (wait time.Duration, ok bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	active := w.activeCountLocked()
	if uint32(active) < w.maxRequests {
		return 0, false
	}
	for _, ts := range w.requests {
		elapsed := time.Since(ts)
		if elapsed < w.window {
			return w.window - elapsed, true
		}
	}
	return 0, false
}

// IsEmpty reports whether every tracked request has already fallen out of
// the window.
func (w *SlidingWindow) IsEmpty() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.activeCountLocked() == 0
}

func (w *SlidingWindow) activeCountLocked() int {
	count := 0
	for _, ts := range w.requests {
		if time.Since(ts) < w.window {
			count++
		}
	}
	return count
}

func (w *SlidingWindow) cleanupLocked() {
	kept := w.requests[:0]
	for _, ts := range w.requests {
		if time.Since(ts) < w.window {
			kept = append(kept, ts)
		}
	}
	w.requests = kept
}

// KeyedSlidingWindow applies an independent SlidingWindow to each distinct
// key, for endpoints rate-limited per trading pair. Safe for concurrent use.
type KeyedSlidingWindow[K comparable] struct {
	mu          sync.Mutex
	limiters    map[K]*SlidingWindow
	window      time.Duration
	maxRequests uint32
}

// NewKeyedSlidingWindow builds a KeyedSlidingWindow with the given
// per-key window and request budget.
func NewKeyedSlidingWindow[K comparable](window time.Duration, maxRequests uint32) *KeyedSlidingWindow[K] {
	return &KeyedSlidingWindow[K]{
		limiters:    make(map[K]*SlidingWindow),
		window:      window,
		maxRequests: maxRequests,
	}
}

// TryAcquire consumes a permit for key, creating its window on first use.
func (k *KeyedSlidingWindow[K]) TryAcquire(key K) (ok bool, wait time.Duration) {
	return k.limiterFor(key).TryAcquire()
}

// WouldAllow reports whether a request for key would be allowed right now.
func (k *KeyedSlidingWindow[K]) WouldAllow(key K) bool {
	k.mu.Lock()
	limiter, ok := k.limiters[key]
	k.mu.Unlock()
	if !ok {
		return true
	}
	return limiter.WouldAllow()
}

// Remaining returns the permits remaining for key.
func (k *KeyedSlidingWindow[K]) Remaining(key K) uint32 {
	k.mu.Lock()
	limiter, ok := k.limiters[key]
	k.mu.Unlock()
	if !ok {
		return k.maxRequests
	}
	return limiter.Remaining()
}

// TimeUntilAvailable returns the duration until key has an available
// permit, or ok=false if one is available now or key is untracked.
func (k *KeyedSlidingWindow[K]) TimeUntilAvailable(key K) (wait time.Duration, ok bool) {
	k.mu.Lock()
	limiter, found := k.limiters[key]
	k.mu.Unlock()
	if !found {
		return 0, false
	}
	return limiter.TimeUntilAvailable()
}

// Remove drops all tracking for key.
func (k *KeyedSlidingWindow[K]) Remove(key K) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.limiters, key)
}

// Cleanup removes limiters whose windows are entirely empty, to bound
// memory growth across many distinct keys (e.g. infrequently traded pairs).
func (k *KeyedSlidingWindow[K]) Cleanup() {
	k.mu.Lock()
	defer k.mu.Unlock()
	for key, limiter := range k.limiters {
		if limiter.IsEmpty() {
			delete(k.limiters, key)
		}
	}
}

// TrackedKeys returns the number of distinct keys currently tracked.
func (k *KeyedSlidingWindow[K]) TrackedKeys() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.limiters)
}

func (k *KeyedSlidingWindow[K]) limiterFor(key K) *SlidingWindow {
	k.mu.Lock()
	defer k.mu.Unlock()
	limiter, ok := k.limiters[key]
	if !ok {
		limiter = NewSlidingWindow(k.window, k.maxRequests)
		k.limiters[key] = limiter
	}
	return limiter
}
