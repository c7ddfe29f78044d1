package krakengo

import (
	"encoding/json"

	"github.com/spf13/cast"
	"github.com/tidwall/gjson"
)

// spotEnvelope is Kraken Spot's outer response shape: a possibly-empty
// error array and a result payload that is only meaningful when error is
// empty.
type spotEnvelope struct {
	Error  []string        `json:"error"`
	Result json.RawMessage `json:"result"`
}

// ParseSpotEnvelope unwraps a Spot REST response body into result, or
// returns the first entry of its error array as an *APIError ("first error
// wins": Kraken can return several, only the first is surfaced).
func ParseSpotEnvelope[T any](body []byte) (T, error) {
	var zero T
	var env spotEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return zero, &InvalidResponseError{Body: string(body)}
	}

	if len(env.Error) > 0 {
		apiErr := newAPIError(env.Error[0])
		if apiErr.IsRateLimit() {
			return zero, &RateLimitError{Category: "api"}
		}
		return zero, apiErr
	}

	var result T
	if len(env.Result) == 0 {
		return result, nil
	}
	if err := json.Unmarshal(env.Result, &result); err != nil {
		return zero, &SerializationError{Op: "decode spot result", Err: err}
	}
	return result, nil
}

// futuresEnvelope is Kraken Futures' outer response shape: result is the
// literal string "success" or "error", and the remaining fields (including
// the real payload) sit alongside it at the top level.
type futuresEnvelope struct {
	Result string `json:"result"`
	Error  string `json:"error"`
}

// ParseFuturesEnvelope checks a Futures REST response body for the
// "result":"error" shape, and if absent, decodes the whole body as T (the
// payload fields live at the same level as "result", not nested under it).
func ParseFuturesEnvelope[T any](body []byte) (T, error) {
	var zero T
	var env futuresEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Result == "error" {
		msg := env.Error
		if msg == "" {
			msg = "unknown error"
		}
		return zero, &APIError{Code: "EFutures", Message: msg}
	}

	var result T
	if err := json.Unmarshal(body, &result); err != nil {
		return zero, &SerializationError{Op: "decode futures result", Err: err}
	}
	return result, nil
}

// LastAndData represents Kraken's pagination envelope, where the response
// is a JSON object with one dynamically-named data key (e.g. an asset pair
// symbol) plus a "last" cursor. The "last" value can be a JSON string or
// number across different endpoints.
type LastAndData[T any] struct {
	Last string
	Data T
}

// LastAndDataWithKey is LastAndData plus the dynamic key name itself, for
// callers that need to know which pair or asset the data belongs to.
type LastAndDataWithKey[T any] struct {
	Key  string
	Last string
	Data T
}

// ParseLastAndData decodes body as a LastAndData[T], using gjson to walk
// the object's keys without knowing the data key's name in advance.
func ParseLastAndData[T any](body []byte) (LastAndData[T], error) {
	withKey, err := ParseLastAndDataWithKey[T](body)
	if err != nil {
		return LastAndData[T]{}, err
	}
	return LastAndData[T]{Last: withKey.Last, Data: withKey.Data}, nil
}

// ParseLastAndDataWithKey decodes body as a LastAndDataWithKey[T].
func ParseLastAndDataWithKey[T any](body []byte) (LastAndDataWithKey[T], error) {
	var out LastAndDataWithKey[T]

	parsed := gjson.ParseBytes(body)
	if !parsed.IsObject() {
		return out, &InvalidResponseError{Body: string(body)}
	}

	var dataKey string
	var dataRaw string
	var lastRaw gjson.Result
	sawLast := false

	parsed.ForEach(func(key, value gjson.Result) bool {
		if key.String() == "last" {
			lastRaw = value
			sawLast = true
			return true
		}
		dataKey = key.String()
		dataRaw = value.Raw
		return true
	})

	if !sawLast {
		return out, &InvalidResponseError{Body: string(body)}
	}
	if dataKey == "" {
		return out, &InvalidResponseError{Body: string(body)}
	}

	last, err := cast.ToStringE(lastRaw.Value())
	if err != nil {
		return out, &SerializationError{Op: "coerce last cursor", Err: err}
	}

	var data T
	if err := json.Unmarshal([]byte(dataRaw), &data); err != nil {
		return out, &SerializationError{Op: "decode paginated data", Err: err}
	}

	out.Key = dataKey
	out.Last = last
	out.Data = data
	return out, nil
}
