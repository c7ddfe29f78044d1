package krakengo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateBaseURLAcceptsHTTPS(t *testing.T) {
	assert.NoError(t, validateBaseURL("https://api.kraken.com/0/public/Time"))
}

func TestValidateBaseURLAcceptsLocalhostHTTP(t *testing.T) {
	assert.NoError(t, validateBaseURL("http://localhost:8080/0/public/Time"))
	assert.NoError(t, validateBaseURL("http://127.0.0.1:8080/0/public/Time"))
}

func TestValidateBaseURLRejectsPlainHTTP(t *testing.T) {
	err := validateBaseURL("http://api.kraken.com/0/public/Time")
	assert.Error(t, err)
	var authErr *AuthError
	assert.ErrorAs(t, err, &authErr)
}

func TestValidateBaseURLRejectsUnknownScheme(t *testing.T) {
	err := validateBaseURL("ftp://api.kraken.com/0/public/Time")
	assert.Error(t, err)
}

func TestHTTPTransportDoRoundTrips(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/0/public/Time", r.URL.Path)
		assert.Equal(t, "v", r.Header.Get("k"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	transport := newHTTPTransport(srv.URL)
	body, status, err := transport.do(context.Background(), httpRequest{
		method:  http.MethodGet,
		path:    "/0/public/Time",
		headers: map[string]string{"k": "v"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"ok":true}`, string(body))
}

func TestHTTPTransportDoPropagatesNon2xxStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":["EService:Unavailable"]}`))
	}))
	defer srv.Close()

	transport := newHTTPTransport(srv.URL)
	body, status, err := transport.do(context.Background(), httpRequest{method: http.MethodGet, path: "/0/public/Time"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Contains(t, string(body), "EService:Unavailable")
}

func TestHTTPTransportDoContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	transport := newHTTPTransport(srv.URL)
	_, _, err := transport.do(ctx, httpRequest{method: http.MethodGet, path: "/0/public/Time"})
	assert.Error(t, err)
}
