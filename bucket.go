package krakengo

import (
	"time"

	"github.com/spf13/cast"
)

// VerificationTier selects which counter ceiling and decay rate apply to a
// private REST client, per Kraken's account verification levels.
type VerificationTier string

const (
	TierStarter      VerificationTier = "starter"
	TierIntermediate VerificationTier = "intermediate"
	TierPro          VerificationTier = "pro"
)

// tierLimits holds a tier's max counter (unscaled points) and decay rate
// (points per second).
type tierLimits struct {
	maxCounter uint32
	decayRate  float64
}

var tierTable = map[VerificationTier]tierLimits{
	TierStarter:      {maxCounter: 15, decayRate: 0.33},
	TierIntermediate: {maxCounter: 20, decayRate: 0.50},
	TierPro:          {maxCounter: 20, decayRate: 1.00},
}

// ParseVerificationTier coerces a loosely-typed config value (a string from
// a TOML file, a CLI flag, an env var) into a VerificationTier. A value that
// names no known tier is rejected with a *SerializationError.
func ParseVerificationTier(v any) (VerificationTier, error) {
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", &SerializationError{Op: "parse verification tier", Err: err}
	}
	tier := VerificationTier(s)
	if _, ok := tierTable[tier]; !ok {
		return "", &SerializationError{Op: "parse verification tier", Err: errUnknownTier(s)}
	}
	return tier, nil
}

type errUnknownTier string

func (e errUnknownTier) Error() string { return "unknown verification tier: " + string(e) }

// TokenBucket is a fixed-point (points scaled ×100) leaky counter: every
// accepted call adds a cost, and the counter decays linearly with elapsed
// wall-clock time. It underlies Kraken's private REST rate limiting. Not
// safe for concurrent use by itself; callers serialize access (see
// RateLimiter).
type TokenBucket struct {
	counter    int64 // scaled x100
	maxCounter int64 // scaled x100
	decayRate  int64 // scaled x100, per second
	lastUpdate time.Time
}

// NewTokenBucket builds a TokenBucket with the given unscaled ceiling and
// per-second decay rate.
func NewTokenBucket(maxCounter uint32, decayRatePerSec float64) *TokenBucket {
	return &TokenBucket{
		maxCounter: int64(maxCounter) * 100,
		decayRate:  int64(decayRatePerSec * 100),
		lastUpdate: time.Now(),
	}
}

// NewTokenBucketForTier builds a TokenBucket preconfigured for tier.
func NewTokenBucketForTier(tier VerificationTier) *TokenBucket {
	limits := tierTable[tier]
	return NewTokenBucket(limits.maxCounter, limits.decayRate)
}

func (b *TokenBucket) decay() {
	now := time.Now()
	elapsed := now.Sub(b.lastUpdate).Seconds()
	decay := int64(elapsed * float64(b.decayRate))
	if decay >= b.counter {
		b.counter = 0
		b.lastUpdate = now
		return
	}
	if decay == 0 {
		return
	}
	// Advance lastUpdate only by the time the whole scaled units removed
	// account for, so the fractional remainder carries into the next call.
	b.counter -= decay
	b.lastUpdate = b.lastUpdate.Add(time.Duration(float64(decay) / float64(b.decayRate) * float64(time.Second)))
}

// TryAcquire spends cost (unscaled points) from the bucket. It returns
// ok=true if the spend fit under the ceiling, or ok=false and the duration
// to wait before the spend would fit.
func (b *TokenBucket) TryAcquire(cost uint32) (ok bool, wait time.Duration) {
	b.decay()

	scaledCost := int64(cost) * 100
	if b.counter+scaledCost <= b.maxCounter {
		b.counter += scaledCost
		return true, 0
	}

	excess := b.counter + scaledCost - b.maxCounter
	if b.decayRate == 0 {
		return false, 0
	}
	waitSecs := float64(excess) / float64(b.decayRate)
	return false, time.Duration(waitSecs * float64(time.Second))
}

// WouldAllow reports whether spending cost would be allowed right now,
// without spending it.
func (b *TokenBucket) WouldAllow(cost uint32) bool {
	b.decay()
	return b.counter+int64(cost)*100 <= b.maxCounter
}

// CurrentCounter returns the current counter value, unscaled.
func (b *TokenBucket) CurrentCounter() float64 {
	b.decay()
	return float64(b.counter) / 100
}

// AvailableCapacity returns the remaining unscaled headroom under the
// ceiling.
func (b *TokenBucket) AvailableCapacity() float64 {
	return float64(b.maxCounter)/100 - b.CurrentCounter()
}
