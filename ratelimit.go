package krakengo

import (
	"context"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
)

// RateLimitConfig configures a RateLimiter.
type RateLimitConfig struct {
	Tier    VerificationTier
	Enabled bool
}

// DefaultRateLimitConfig matches the defaults of the Rust client this
// library was ported from: Starter tier, enabled.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{Tier: TierStarter, Enabled: true}
}

// RateLimiter gates calls against the category-specific limiters that back
// a Kraken client: a sliding window for public endpoints, a keyed sliding
// window for per-pair endpoints like the order book, a token bucket for
// private endpoints, and an order-aging limiter for trading. It owns a
// pooled background goroutine that periodically sweeps expired state from
// all of them.
type RateLimiter struct {
	mu      sync.Mutex
	config  RateLimitConfig
	enabled bool

	public      *SlidingWindow
	keyedPublic *KeyedSlidingWindow[string]
	private     *TokenBucket
	trading     *OrderAgingLimiter

	pool      *ants.Pool
	stopClean context.CancelFunc
}

// NewRateLimiter builds a RateLimiter for the given configuration and
// starts its background cleanup job. Call Close when done.
func NewRateLimiter(config RateLimitConfig) (*RateLimiter, error) {
	pool, err := ants.NewPool(1, ants.WithNonblocking(true))
	if err != nil {
		return nil, &TransportError{Op: "create rate limiter worker pool", Err: err}
	}

	limits := tierTable[config.Tier]

	r := &RateLimiter{
		config:      config,
		enabled:     config.Enabled,
		public:      NewSlidingWindow(time.Second, 1),
		keyedPublic: NewKeyedSlidingWindow[string](time.Second, 1),
		private:     NewTokenBucket(limits.maxCounter, limits.decayRate),
		trading:     NewOrderAgingLimiter(limits.maxCounter, limits.decayRate),
		pool:        pool,
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.stopClean = cancel
	r.startCleanupLoop(ctx)

	return r, nil
}

func (r *RateLimiter) startCleanupLoop(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_ = r.pool.Submit(r.cleanup)
			}
		}
	}()
}

func (r *RateLimiter) cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keyedPublic.Cleanup()
	r.trading.Cleanup()
}

// SetEnabled turns rate limiting on or off. When disabled, every Wait*
// method returns immediately.
func (r *RateLimiter) SetEnabled(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled = enabled
}

// Enabled reports whether rate limiting is currently active.
func (r *RateLimiter) Enabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enabled
}

// Close stops the background cleanup job and releases the worker pool.
func (r *RateLimiter) Close() {
	r.stopClean()
	r.pool.Release()
}

func sleepOrDone(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// WaitPublic blocks until a public-endpoint call slot is free.
func (r *RateLimiter) WaitPublic(ctx context.Context) error {
	for {
		r.mu.Lock()
		enabled := r.enabled
		if !enabled {
			r.mu.Unlock()
			return nil
		}
		ok, wait := r.public.TryAcquire()
		r.mu.Unlock()
		if ok {
			return nil
		}
		if err := sleepOrDone(ctx, wait); err != nil {
			return err
		}
	}
}

// WaitKeyedPublic blocks until a per-key call slot (e.g. a trading pair's
// order book) is free.
func (r *RateLimiter) WaitKeyedPublic(ctx context.Context, key string) error {
	for {
		r.mu.Lock()
		enabled := r.enabled
		if !enabled {
			r.mu.Unlock()
			return nil
		}
		ok, wait := r.keyedPublic.TryAcquire(key)
		r.mu.Unlock()
		if ok {
			return nil
		}
		if err := sleepOrDone(ctx, wait); err != nil {
			return err
		}
	}
}

// WaitPrivate blocks until a private-endpoint call slot is free.
func (r *RateLimiter) WaitPrivate(ctx context.Context) error {
	for {
		r.mu.Lock()
		enabled := r.enabled
		if !enabled {
			r.mu.Unlock()
			return nil
		}
		ok, wait := r.private.TryAcquire(1)
		r.mu.Unlock()
		if ok {
			return nil
		}
		if err := sleepOrDone(ctx, wait); err != nil {
			return err
		}
	}
}

// WaitPlaceOrder blocks until order placement capacity is free, then begins
// age-tracking orderID under info.
func (r *RateLimiter) WaitPlaceOrder(ctx context.Context, orderID string, info OrderTrackingInfo) error {
	for {
		r.mu.Lock()
		enabled := r.enabled
		if !enabled {
			r.mu.Unlock()
			return nil
		}
		ok, wait := r.trading.TryPlaceOrder(orderID, info)
		r.mu.Unlock()
		if ok {
			return nil
		}
		if err := sleepOrDone(ctx, wait); err != nil {
			return err
		}
	}
}

// RetagOrder updates the tracked order id once the exchange assigns the
// real one, for callers that had to submit a placeholder id to
// WaitPlaceOrder before the exchange responded.
func (r *RateLimiter) RetagOrder(placeholderID, realID string, info OrderTrackingInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trading.NoteFilled(placeholderID)
	r.trading.TrackOrder(realID, info)
}

// WaitCancelOrder blocks until cancellation capacity, including orderID's
// age-dependent penalty, is free.
func (r *RateLimiter) WaitCancelOrder(ctx context.Context, orderID string) error {
	for {
		r.mu.Lock()
		enabled := r.enabled
		if !enabled {
			r.mu.Unlock()
			return nil
		}
		_, ok, wait := r.trading.TryCancelOrder(orderID)
		r.mu.Unlock()
		if ok {
			return nil
		}
		if err := sleepOrDone(ctx, wait); err != nil {
			return err
		}
	}
}

// NoteOrderFilled tells the trading limiter that orderID was filled rather
// than cancelled.
func (r *RateLimiter) NoteOrderFilled(orderID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trading.NoteFilled(orderID)
}
