package krakengo

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSpotEnvelopeSuccess(t *testing.T) {
	body := []byte(`{"error":[],"result":{"unixtime":1,"rfc1123":"now"}}`)
	result, err := ParseSpotEnvelope[ServerTime](body)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Unixtime)
}

func TestParseSpotEnvelopeFirstErrorWins(t *testing.T) {
	body := []byte(`{"error":["EAPI:Invalid nonce","EGeneral:Unknown"],"result":null}`)
	_, err := ParseSpotEnvelope[ServerTime](body)
	require.Error(t, err)

	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "EAPI", apiErr.Code)
	assert.Equal(t, "Invalid nonce", apiErr.Message)
}

func TestParseSpotEnvelopeSurfacesRateLimitError(t *testing.T) {
	body := []byte(`{"error":["EAPI:Rate limit exceeded"],"result":null}`)
	_, err := ParseSpotEnvelope[ServerTime](body)
	require.Error(t, err)

	var rateLimitErr *RateLimitError
	require.ErrorAs(t, err, &rateLimitErr)
	assert.Equal(t, "api", rateLimitErr.Category)

	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr), "rate limit errors must not also satisfy *APIError")
}

func TestParseSpotEnvelopeSurfacesOrderRateLimitError(t *testing.T) {
	body := []byte(`{"error":["EOrder:Rate limit exceeded"],"result":null}`)
	_, err := ParseSpotEnvelope[ServerTime](body)
	require.Error(t, err)

	var rateLimitErr *RateLimitError
	require.ErrorAs(t, err, &rateLimitErr)
}

func TestParseSpotEnvelopeInvalidBody(t *testing.T) {
	_, err := ParseSpotEnvelope[ServerTime]([]byte(`not json`))
	require.Error(t, err)
	var invalid *InvalidResponseError
	require.ErrorAs(t, err, &invalid)
}

func TestParseFuturesEnvelopeSuccess(t *testing.T) {
	body := []byte(`{"result":"success","serverTime":"2024-01-01T00:00:00Z","sendStatus":{"order_id":"abc","status":"placed"}}`)
	result, err := ParseFuturesEnvelope[SendOrderResponse](body)
	require.NoError(t, err)
	assert.Equal(t, "abc", result.SendStatus.OrderID)
}

func TestParseFuturesEnvelopeError(t *testing.T) {
	body := []byte(`{"result":"error","error":"insufficientAvailableFunds"}`)
	_, err := ParseFuturesEnvelope[SendOrderResponse](body)
	require.Error(t, err)

	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "EFutures", apiErr.Code)
	assert.True(t, newAPIError(apiErr.Message).IsInsufficientFunds())
}

func TestParseLastAndDataWithKey(t *testing.T) {
	body := []byte(`{"XXBTZUSD":[["price","vol",1]],"last":"1688671200000000000"}`)
	out, err := ParseLastAndDataWithKey[[][]any](body)
	require.NoError(t, err)
	assert.Equal(t, "XXBTZUSD", out.Key)
	assert.Equal(t, "1688671200000000000", out.Last)
	assert.Len(t, out.Data, 1)
}

func TestParseLastAndDataAcceptsNumericLast(t *testing.T) {
	body := []byte(`{"XXBTZUSD":[],"last":1688671200}`)
	out, err := ParseLastAndData[[]any](body)
	require.NoError(t, err)
	assert.Equal(t, "1688671200", out.Last)
}

func TestParseLastAndDataWithKeyMissingLast(t *testing.T) {
	body := []byte(`{"XXBTZUSD":[]}`)
	_, err := ParseLastAndDataWithKey[[]any](body)
	assert.Error(t, err)
}

func TestParseSpotEnvelopeMatchesExpectedStruct(t *testing.T) {
	body := []byte(`{"error":[],"result":{"unixtime":1688671200,"rfc1123":"Tue,  6 Jul 23 19:20:00 +0000"}}`)
	result, err := ParseSpotEnvelope[ServerTime](body)
	require.NoError(t, err)

	want := ServerTime{Unixtime: 1688671200, RFC1123: "Tue,  6 Jul 23 19:20:00 +0000"}
	if diff := cmp.Diff(want, result, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("ServerTime mismatch (-want +got):\n%s", diff)
	}
}
