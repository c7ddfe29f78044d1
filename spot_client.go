package krakengo

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/sonirico/vago/lol"
)

const (
	spotPathTime        = "/0/public/Time"
	spotPathAssetPairs  = "/0/public/AssetPairs"
	spotPathTicker      = "/0/public/Ticker"
	spotPathDepth       = "/0/public/Depth"
	spotPathBalance     = "/0/private/Balance"
	spotPathAddOrder    = "/0/private/AddOrder"
	spotPathCancelOrder = "/0/private/CancelOrder"
	spotPathWsToken     = "/0/private/GetWebSocketsToken"
)

// SpotClient is a REST client for Kraken's Spot API.
type SpotClient struct {
	debug     bool
	logger    lol.Logger
	transport *httpTransport
	creds     CredentialsProvider
	nonces    NonceSource
	limiter   *RateLimiter
}

// NewSpotClient builds a SpotClient. baseURL defaults to SpotRestURL if
// empty.
func NewSpotClient(baseURL string, creds CredentialsProvider, limiter *RateLimiter, opts ...SpotClientOpt) *SpotClient {
	if baseURL == "" {
		baseURL = SpotRestURL
	}
	c := &SpotClient{
		transport: newHTTPTransport(baseURL),
		creds:     creds,
		nonces:    NewIncreasingNonce(),
		limiter:   limiter,
	}
	for _, opt := range opts {
		opt.Apply(c)
	}
	c.transport.debug = c.debug
	c.transport.logger = c.logger
	return c
}

func (c *SpotClient) publicGet(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.WaitPublic(ctx); err != nil {
			return nil, err
		}
	}
	body, _, err := c.transport.do(ctx, httpRequest{
		method: "GET",
		path:   path,
		query:  query.Encode(),
	})
	return body, err
}

func (c *SpotClient) privatePost(ctx context.Context, path string, form url.Values) ([]byte, error) {
	if c.creds == nil {
		return nil, &MissingCredentialsError{Op: path}
	}
	creds := c.creds.Credentials()
	if creds == nil {
		return nil, &MissingCredentialsError{Op: path}
	}

	if c.limiter != nil {
		if err := c.limiter.WaitPrivate(ctx); err != nil {
			return nil, err
		}
	}

	nonce := c.nonces.Next()
	if form == nil {
		form = url.Values{}
	}
	form.Set("nonce", strconv.FormatUint(nonce, 10))
	encoded := form.Encode()

	signature, err := SignSpot(creds.Reveal(), path, nonce, encoded)
	if err != nil {
		return nil, err
	}

	body, _, err := c.transport.do(ctx, httpRequest{
		method: "POST",
		path:   path,
		body:   encoded,
		headers: map[string]string{
			"API-Key":      creds.Key(),
			"API-Sign":     signature,
			"Content-Type": "application/x-www-form-urlencoded",
		},
	})
	return body, err
}

// GetServerTime returns Kraken's current server time.
func (c *SpotClient) GetServerTime(ctx context.Context) (ServerTime, error) {
	body, err := c.publicGet(ctx, spotPathTime, nil)
	if err != nil {
		return ServerTime{}, err
	}
	return ParseSpotEnvelope[ServerTime](body)
}

// GetAssetPairs returns metadata for every tradable pair, or for the pairs
// named in pairs if non-empty.
func (c *SpotClient) GetAssetPairs(ctx context.Context, pairs ...string) (map[string]AssetPair, error) {
	var query url.Values
	if len(pairs) > 0 {
		query = url.Values{"pair": {joinCommaList(pairs)}}
	}
	body, err := c.publicGet(ctx, spotPathAssetPairs, query)
	if err != nil {
		return nil, err
	}
	return ParseSpotEnvelope[map[string]AssetPair](body)
}

// GetTicker returns ticker info for the given pairs.
func (c *SpotClient) GetTicker(ctx context.Context, pairs ...string) (map[string]TickerInfo, error) {
	query := url.Values{"pair": {joinCommaList(pairs)}}
	body, err := c.publicGet(ctx, spotPathTicker, query)
	if err != nil {
		return nil, err
	}
	return ParseSpotEnvelope[map[string]TickerInfo](body)
}

// GetOrderBook returns the order book for req.Pair, gated by the
// per-pair rate limiter since this endpoint is limited per pair rather
// than globally.
func (c *SpotClient) GetOrderBook(ctx context.Context, req OrderBookRequest) (map[string]OrderBook, error) {
	if c.limiter != nil {
		if err := c.limiter.WaitKeyedPublic(ctx, req.Pair); err != nil {
			return nil, err
		}
	}
	query := url.Values{"pair": {req.Pair}}
	if req.Count > 0 {
		query.Set("count", strconv.Itoa(req.Count))
	}
	body, _, err := c.transport.do(ctx, httpRequest{method: "GET", path: spotPathDepth, query: query.Encode()})
	if err != nil {
		return nil, err
	}
	return ParseSpotEnvelope[map[string]OrderBook](body)
}

// GetBalance returns the account's asset balances.
func (c *SpotClient) GetBalance(ctx context.Context) (map[string]string, error) {
	body, err := c.privatePost(ctx, spotPathBalance, nil)
	if err != nil {
		return nil, err
	}
	return ParseSpotEnvelope[map[string]string](body)
}

// AddOrder places a new order, gated by the order-placement rate limiter.
func (c *SpotClient) AddOrder(ctx context.Context, req AddOrderRequest) (AddOrderResponse, error) {
	placeholderID := fmt.Sprintf("pending_%d", c.nonces.Next())
	if c.limiter != nil {
		if err := c.limiter.WaitPlaceOrder(ctx, placeholderID, OrderTrackingInfo{Pair: req.Pair}); err != nil {
			return AddOrderResponse{}, err
		}
	}

	form := url.Values{
		"pair":      {req.Pair},
		"type":      {string(req.Side)},
		"ordertype": {string(req.OrderType)},
		"volume":    {req.Volume},
	}
	if req.Price != "" {
		form.Set("price", req.Price)
	}
	if req.Price2 != "" {
		form.Set("price2", req.Price2)
	}
	if req.UserRef != "" {
		form.Set("userref", req.UserRef)
	}
	if req.Validate {
		form.Set("validate", "true")
	}

	body, err := c.privatePost(ctx, spotPathAddOrder, form)
	if err != nil {
		return AddOrderResponse{}, err
	}

	result, err := ParseSpotEnvelope[AddOrderResponse](body)
	if err != nil {
		return result, err
	}
	if c.limiter != nil && len(result.TxID) > 0 {
		c.limiter.RetagOrder(placeholderID, result.TxID[0], OrderTrackingInfo{Pair: req.Pair})
	}
	return result, nil
}

// CancelOrder cancels an order, gated by the order-cancellation rate
// limiter's age-dependent penalty.
func (c *SpotClient) CancelOrder(ctx context.Context, req CancelOrderRequest) (CancelOrderResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.WaitCancelOrder(ctx, req.TxID); err != nil {
			return CancelOrderResponse{}, err
		}
	}
	form := url.Values{"txid": {req.TxID}}
	body, err := c.privatePost(ctx, spotPathCancelOrder, form)
	if err != nil {
		return CancelOrderResponse{}, err
	}
	return ParseSpotEnvelope[CancelOrderResponse](body)
}

// GetWebSocketToken returns a short-lived token used to authenticate a
// Spot streaming Session.
func (c *SpotClient) GetWebSocketToken(ctx context.Context) (WebSocketToken, error) {
	body, err := c.privatePost(ctx, spotPathWsToken, nil)
	if err != nil {
		return WebSocketToken{}, err
	}
	return ParseSpotEnvelope[WebSocketToken](body)
}

func joinCommaList(items []string) string {
	out := ""
	for i, item := range items {
		if i > 0 {
			out += ","
		}
		out += item
	}
	return out
}
