package krakengo

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// TransportError wraps a failure from the underlying HTTP or websocket
// transport (connection refused, DNS, TLS, broken pipe).
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("krakengo: transport error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// TimeoutError reports that a request or dial exceeded its deadline.
type TimeoutError struct {
	Op string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("krakengo: timed out during %s", e.Op)
}

// SerializationError wraps a failure to encode a request body or decode a
// response body.
type SerializationError struct {
	Op  string
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("krakengo: serialization error during %s: %v", e.Op, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// InvalidResponseError reports a response that does not match either the
// Spot or Futures envelope shape at all (not even an error envelope).
type InvalidResponseError struct {
	Body string
}

func (e *InvalidResponseError) Error() string {
	return fmt.Sprintf("krakengo: response did not match any known envelope shape: %s", truncate(e.Body, 256))
}

// APIError is a well-formed error returned by the exchange itself. For Spot,
// Code and Message are the two halves of a "ECategory:message" string split
// on the first colon (e.g. Code "EAPI", Message "Invalid nonce"). For
// Futures, Code is "EFutures" and Message is the error string Kraken
// returns.
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("krakengo: api error %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("krakengo: api error %s", e.Code)
}

// FullCode reconstructs Kraken's original "code:message" spelling.
func (e *APIError) FullCode() string {
	if e.Message == "" {
		return e.Code
	}
	return e.Code + ":" + e.Message
}

// newAPIError splits a raw Kraken error string ("ECategory:message") on its
// first colon, as Spot does; a string with no colon becomes a bare Code
// (Futures' shape).
func newAPIError(raw string) *APIError {
	if idx := strings.IndexByte(raw, ':'); idx >= 0 {
		return &APIError{Code: raw[:idx], Message: raw[idx+1:]}
	}
	return &APIError{Code: raw}
}

// IsRateLimit reports whether the error indicates the exchange itself
// rejected the call for exceeding a rate limit. ParseSpotEnvelope turns
// such errors into a *RateLimitError instead of returning the *APIError.
func (e *APIError) IsRateLimit() bool {
	return (e.Code == "EAPI" || e.Code == "EOrder") && strings.Contains(e.Message, "Rate limit")
}

// IsInvalidNonce reports whether the error indicates a stale or
// out-of-order nonce.
func (e *APIError) IsInvalidNonce() bool {
	return e.Code == "EAPI" && strings.Contains(e.Message, "Invalid nonce")
}

// IsInvalidKey reports whether the error indicates the API key is unknown
// or malformed.
func (e *APIError) IsInvalidKey() bool {
	return e.Code == "EAPI" && strings.Contains(e.Message, "Invalid key")
}

// IsInvalidSignature reports whether the error indicates the request
// signature did not verify.
func (e *APIError) IsInvalidSignature() bool {
	return e.Code == "EAPI" && strings.Contains(e.Message, "Invalid signature")
}

// IsPermissionDenied reports whether the error indicates the API key
// lacks the permission required for the call.
func (e *APIError) IsPermissionDenied() bool {
	return e.Code == "EGeneral" && strings.Contains(e.Message, "Permission denied")
}

// IsServiceUnavailable reports whether the error indicates the exchange is
// temporarily unable to serve the request.
func (e *APIError) IsServiceUnavailable() bool {
	return e.Code == "EService" && (strings.Contains(e.Message, "Unavailable") || strings.Contains(e.Message, "Busy"))
}

// IsInsufficientFunds reports whether the error indicates the account
// lacks the balance required to place the order.
func (e *APIError) IsInsufficientFunds() bool {
	return (e.Code == "EOrder" && strings.Contains(e.Message, "Insufficient funds")) ||
		strings.Contains(e.Code, "insufficientAvailableFunds")
}

// IsUnknownOrder reports whether the error refers to an order id the
// exchange has no record of.
func (e *APIError) IsUnknownOrder() bool {
	return (e.Code == "EOrder" && strings.Contains(e.Message, "Unknown order")) ||
		strings.Contains(e.Code, "orderNotFound")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// RateLimitError reports that the exchange rejected a call for exceeding a
// rate limit: ParseSpotEnvelope returns it, with Category "api", for the
// "EAPI:Rate limit exceeded" and "EOrder:Rate limit exceeded" error codes.
// RetryAfter, when non-nil, is an estimate of how long to wait before
// retrying.
type RateLimitError struct {
	Category   string
	RetryAfter *time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter != nil {
		return fmt.Sprintf("krakengo: rate limit exceeded for %s, retry after %s", e.Category, e.RetryAfter)
	}
	return fmt.Sprintf("krakengo: rate limit exceeded for %s", e.Category)
}

// AuthError reports a failure to construct or apply an authentication
// signature (malformed secret, signing failure, malformed challenge).
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("krakengo: authentication error: %s", e.Reason)
}

// MissingCredentialsError is returned when a private call is attempted
// without a configured CredentialsProvider, or the provider returns nil.
type MissingCredentialsError struct {
	Op string
}

func (e *MissingCredentialsError) Error() string {
	return fmt.Sprintf("krakengo: missing credentials for %s", e.Op)
}

// StreamingError reports a failure specific to a websocket session: a
// malformed frame, an unexpected close, or exceeding the reconnect budget.
type StreamingError struct {
	Reason string
	Err    error
}

func (e *StreamingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("krakengo: streaming error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("krakengo: streaming error: %s", e.Reason)
}

func (e *StreamingError) Unwrap() error { return e.Err }

// AsAPIError is a convenience wrapper over errors.As for *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}
