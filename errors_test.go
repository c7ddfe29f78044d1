package krakengo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAPIError(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantCode    string
		wantMessage string
	}{
		{"category and message", "EAPI:Invalid nonce", "EAPI", "Invalid nonce"},
		{"bare code, no colon", "insufficientAvailableFunds", "insufficientAvailableFunds", ""},
		{"message itself contains a colon", "EGeneral:Permission denied: time", "EGeneral", "Permission denied: time"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newAPIError(tt.raw)
			assert.Equal(t, tt.wantCode, err.Code)
			assert.Equal(t, tt.wantMessage, err.Message)
		})
	}
}

func TestAPIErrorFullCode(t *testing.T) {
	assert.Equal(t, "EAPI:Invalid nonce", (&APIError{Code: "EAPI", Message: "Invalid nonce"}).FullCode())
	assert.Equal(t, "EGeneral", (&APIError{Code: "EGeneral"}).FullCode())
}

func TestAPIErrorPredicates(t *testing.T) {
	assert.True(t, newAPIError("EAPI:Rate limit exceeded").IsRateLimit())
	assert.True(t, newAPIError("EAPI:Invalid nonce").IsInvalidNonce())
	assert.True(t, newAPIError("EAPI:Invalid key").IsInvalidKey())
	assert.True(t, newAPIError("EAPI:Invalid signature").IsInvalidSignature())
	assert.True(t, newAPIError("EGeneral:Permission denied").IsPermissionDenied())
	assert.True(t, newAPIError("EService:Unavailable").IsServiceUnavailable())
	assert.True(t, newAPIError("EOrder:Insufficient funds").IsInsufficientFunds())
	assert.True(t, newAPIError("insufficientAvailableFunds").IsInsufficientFunds())
	assert.True(t, newAPIError("EOrder:Unknown order").IsUnknownOrder())
	assert.True(t, newAPIError("orderNotFound").IsUnknownOrder())

	assert.False(t, newAPIError("EOrder:Insufficient funds").IsRateLimit())
	assert.False(t, newAPIError("EGeneral:Permission denied").IsInvalidNonce())
}

func TestAsAPIError(t *testing.T) {
	wrapped := &TransportError{Op: "post", Err: &APIError{Code: "EAPI", Message: "Invalid nonce"}}
	apiErr, ok := AsAPIError(wrapped)
	require.True(t, ok)
	assert.Equal(t, "EAPI", apiErr.Code)

	_, ok = AsAPIError(errors.New("plain error"))
	assert.False(t, ok)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", truncate("hello", 10))
	assert.Equal(t, "hel...", truncate("hello", 3))
}
