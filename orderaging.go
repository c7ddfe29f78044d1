package krakengo

import (
	"sync"
	"time"
)

// OrderTrackingInfo is what the order-aging limiter remembers about a
// placed order, so it can compute a cancellation penalty from the order's
// age rather than its content.
type OrderTrackingInfo struct {
	Pair          string
	ClientOrderID string
}

// cancelPenalty returns Kraken's order-cancellation penalty, in unscaled
// points, for an order of the given age.
func cancelPenalty(age time.Duration) uint32 {
	switch {
	case age < 5*time.Second:
		return 8
	case age < 10*time.Second:
		return 6
	case age < 15*time.Second:
		return 5
	case age < 45*time.Second:
		return 4
	case age < 90*time.Second:
		return 2
	default:
		return 0
	}
}

// OrderAgingLimiter is a TokenBucket whose cancellation cost depends on how
// long ago the order being cancelled was placed: Kraken charges a steep
// penalty for cancelling within the first few seconds, tapering to zero
// past 90 seconds. Safe for concurrent use.
type OrderAgingLimiter struct {
	mu     sync.Mutex
	bucket *TokenBucket
	orders *TTLCache[OrderTrackingInfo]
}

// NewOrderAgingLimiter builds an OrderAgingLimiter with the given unscaled
// ceiling and per-second decay rate, tracking order ages for up to
// DefaultOrderTTL.
func NewOrderAgingLimiter(maxCounter uint32, decayRatePerSec float64) *OrderAgingLimiter {
	return &OrderAgingLimiter{
		bucket: NewTokenBucket(maxCounter, decayRatePerSec),
		orders: NewTTLCache[OrderTrackingInfo](DefaultOrderTTL),
	}
}

// NewOrderAgingLimiterForTier builds an OrderAgingLimiter preconfigured for
// tier.
func NewOrderAgingLimiterForTier(tier VerificationTier) *OrderAgingLimiter {
	limits := tierTable[tier]
	return NewOrderAgingLimiter(limits.maxCounter, limits.decayRate)
}

// TryPlaceOrder spends a fixed 1-point cost and, if accepted, starts
// tracking orderID's age under info.
func (l *OrderAgingLimiter) TryPlaceOrder(orderID string, info OrderTrackingInfo) (ok bool, wait time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ok, wait = l.bucket.TryAcquire(1)
	if ok {
		l.orders.Insert(orderID, info)
	}
	return ok, wait
}

// TrackOrder records an order's placement without spending bucket capacity,
// for orders the caller already knows were accepted (e.g. placed through a
// path that didn't go through TryPlaceOrder).
func (l *OrderAgingLimiter) TrackOrder(orderID string, info OrderTrackingInfo) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.orders.Insert(orderID, info)
}

// TryCancelOrder looks up orderID's tracked age and spends the
// corresponding penalty from the bucket. An order this limiter never saw
// placed (expired from the TTL cache, or never tracked) is charged the
// worst-case under-5-second penalty, since the exchange-side order could be
// that young. On success it returns the penalty that was applied.
func (l *OrderAgingLimiter) TryCancelOrder(orderID string) (penalty uint32, ok bool, wait time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, age, found := l.orders.RemoveWithAge(orderID)
	if found {
		penalty = cancelPenalty(age)
	} else {
		penalty = cancelPenalty(0)
	}

	ok, wait = l.bucket.TryAcquire(penalty)
	return penalty, ok, wait
}

// NoteCancelled removes orderID from age tracking without charging a
// penalty, for a cancellation the caller is recording after the fact.
func (l *OrderAgingLimiter) NoteCancelled(orderID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.orders.Remove(orderID)
}

// NoteFilled removes orderID from age tracking: a filled order will never
// be cancelled, so it stops being relevant to cancellation penalties.
func (l *OrderAgingLimiter) NoteFilled(orderID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.orders.Remove(orderID)
}

// WouldAllowPlace reports whether placing a new order would be accepted
// right now.
func (l *OrderAgingLimiter) WouldAllowPlace() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.bucket.WouldAllow(1)
}

// TrackedOrders returns the number of orders currently being age-tracked.
func (l *OrderAgingLimiter) TrackedOrders() int {
	return l.orders.ActiveCount()
}

// Cleanup sweeps expired order-tracking entries.
func (l *OrderAgingLimiter) Cleanup() {
	l.orders.Cleanup()
}
