package krakengo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFuturesServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestFuturesClientGetAccounts(t *testing.T) {
	srv := newTestFuturesServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, futuresPathAccounts, r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("APIKey"))
		assert.NotEmpty(t, r.Header.Get("Authent"))
		_, _ = w.Write([]byte(`{"result":"success","accounts":{"flex":{"auxiliary":{"usd":100,"pv":100},"balances":{"usd":100}}},"serverTime":"2024-01-01T00:00:00.000Z"}`))
	})

	creds := NewStaticCredentialsProvider("test-key", testSecret)
	client := NewFuturesClient(srv.URL, creds, nil)

	result, err := client.GetAccounts(context.Background())
	require.NoError(t, err)
	assert.Contains(t, result.Accounts, "flex")
}

func TestFuturesClientGetAccountsError(t *testing.T) {
	srv := newTestFuturesServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":"error","error":"apiKeyInvalid"}`))
	})

	creds := NewStaticCredentialsProvider("test-key", testSecret)
	client := NewFuturesClient(srv.URL, creds, nil)

	_, err := client.GetAccounts(context.Background())
	require.Error(t, err)
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "EFutures", apiErr.Code)
	assert.Equal(t, "apiKeyInvalid", apiErr.Message)
}

func TestFuturesClientSendOrderRetagsPlaceholder(t *testing.T) {
	srv := newTestFuturesServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":"success","sendStatus":{"order_id":"ord-1","status":"placed"},"serverTime":"2024-01-01T00:00:00.000Z"}`))
	})

	limiter, err := NewRateLimiter(DefaultRateLimitConfig())
	require.NoError(t, err)
	t.Cleanup(limiter.Close)

	creds := NewStaticCredentialsProvider("test-key", testSecret)
	client := NewFuturesClient(srv.URL, creds, limiter)

	result, err := client.SendOrder(context.Background(), SendOrderRequest{
		OrderType: FuturesOrderTypeMarket,
		Symbol:    "PI_XBTUSD",
		Side:      Buy,
		Size:      "1",
	})
	require.NoError(t, err)
	assert.Equal(t, "ord-1", result.SendStatus.OrderID)
	assert.Equal(t, 1, limiter.trading.TrackedOrders())
}

func TestFuturesClientCancelOrder(t *testing.T) {
	srv := newTestFuturesServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, futuresPathCancelOrder, r.URL.Path)
		_, _ = w.Write([]byte(`{"result":"success","cancelStatus":{"order_id":"ord-1","status":"cancelled"},"serverTime":"2024-01-01T00:00:00.000Z"}`))
	})

	creds := NewStaticCredentialsProvider("test-key", testSecret)
	client := NewFuturesClient(srv.URL, creds, nil)

	result, err := client.CancelOrder(context.Background(), CancelOrderFuturesRequest{OrderID: "ord-1"})
	require.NoError(t, err)
	assert.Equal(t, "cancelled", result.CancelStatus.Status)
}

func TestFuturesClientMissingCredentials(t *testing.T) {
	client := NewFuturesClient("https://example.invalid", nil, nil)
	_, err := client.GetAccounts(context.Background())
	require.Error(t, err)
	var missing *MissingCredentialsError
	require.ErrorAs(t, err, &missing)
}
