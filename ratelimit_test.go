package krakengo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRateLimiter(t *testing.T) *RateLimiter {
	t.Helper()
	r, err := NewRateLimiter(DefaultRateLimitConfig())
	require.NoError(t, err)
	t.Cleanup(r.Close)
	return r
}

func TestRateLimiterWaitPublicBlocksUntilFree(t *testing.T) {
	r := newTestRateLimiter(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, r.WaitPublic(ctx))

	start := time.Now()
	require.NoError(t, r.WaitPublic(ctx))
	assert.Greater(t, time.Since(start), time.Duration(0))
}

func TestRateLimiterWaitPublicRespectsCancellation(t *testing.T) {
	r := newTestRateLimiter(t)
	require.NoError(t, r.WaitPublic(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	err := r.WaitPublic(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRateLimiterDisabledNeverBlocks(t *testing.T) {
	r := newTestRateLimiter(t)
	r.SetEnabled(false)
	assert.False(t, r.Enabled())

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, r.WaitPublic(ctx))
	}
}

func TestRateLimiterKeyedPublicIndependentPerPair(t *testing.T) {
	r := newTestRateLimiter(t)
	ctx := context.Background()

	require.NoError(t, r.WaitKeyedPublic(ctx, "XBTUSD"))
	require.NoError(t, r.WaitKeyedPublic(ctx, "ETHUSD"))
}

func TestRateLimiterPlaceAndRetagOrder(t *testing.T) {
	r := newTestRateLimiter(t)
	ctx := context.Background()

	placeholder := "pending_1"
	require.NoError(t, r.WaitPlaceOrder(ctx, placeholder, OrderTrackingInfo{Pair: "XBTUSD"}))

	r.RetagOrder(placeholder, "real-order-id", OrderTrackingInfo{Pair: "XBTUSD"})
	assert.Equal(t, 1, r.trading.TrackedOrders())

	require.NoError(t, r.WaitCancelOrder(ctx, "real-order-id"))
}

func TestRateLimiterNoteOrderFilled(t *testing.T) {
	r := newTestRateLimiter(t)
	ctx := context.Background()
	require.NoError(t, r.WaitPlaceOrder(ctx, "order-1", OrderTrackingInfo{Pair: "XBTUSD"}))

	r.NoteOrderFilled("order-1")
	assert.Equal(t, 0, r.trading.TrackedOrders())
}
