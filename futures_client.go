package krakengo

import (
	"context"
	"net/url"
	"strconv"

	"github.com/sonirico/vago/lol"
)

const (
	futuresPathAccounts    = "/api/v3/accounts"
	futuresPathSendOrder   = "/api/v3/sendorder"
	futuresPathCancelOrder = "/api/v3/cancelorder"
	futuresPathTickers     = "/api/v3/tickers"
)

// FuturesClient is a REST client for Kraken's Futures API.
type FuturesClient struct {
	debug     bool
	logger    lol.Logger
	transport *httpTransport
	creds     CredentialsProvider
	nonces    NonceSource
	limiter   *RateLimiter
}

// NewFuturesClient builds a FuturesClient. baseURL defaults to
// FuturesRestURL if empty.
func NewFuturesClient(baseURL string, creds CredentialsProvider, limiter *RateLimiter, opts ...FuturesClientOpt) *FuturesClient {
	if baseURL == "" {
		baseURL = FuturesRestURL
	}
	c := &FuturesClient{
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

func (c *FuturesClient) publicGet(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.WaitPublic(ctx); err != nil {
			return nil, err
		}
	}
	body, _, err := c.transport.do(ctx, httpRequest{method: "GET", path: path, query: query.Encode()})
	return body, err
}

func (c *FuturesClient) privatePost(ctx context.Context, path string, form url.Values) ([]byte, error) {
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
	encoded := form.Encode()

	signature, err := SignFutures(creds.Reveal(), path, nonce, encoded)
	if err != nil {
		return nil, err
	}

	body, _, err := c.transport.do(ctx, httpRequest{
		method: "POST",
		path:   path,
		body:   encoded,
		headers: map[string]string{
			"APIKey":       creds.Key(),
			"Authent":      signature,
			"Nonce":        strconv.FormatUint(nonce, 10),
			"Content-Type": "application/x-www-form-urlencoded",
		},
	})
	return body, err
}

// GetTickers returns ticker data for every Futures instrument.
func (c *FuturesClient) GetTickers(ctx context.Context) ([]map[string]any, error) {
	body, err := c.publicGet(ctx, futuresPathTickers, nil)
	if err != nil {
		return nil, err
	}
	type tickersResponse struct {
		Tickers []map[string]any `json:"tickers"`
	}
	resp, err := ParseFuturesEnvelope[tickersResponse](body)
	if err != nil {
		return nil, err
	}
	return resp.Tickers, nil
}

// GetAccounts returns the authenticated account's balances by account type.
func (c *FuturesClient) GetAccounts(ctx context.Context) (AccountsResponse, error) {
	body, err := c.privatePost(ctx, futuresPathAccounts, nil)
	if err != nil {
		return AccountsResponse{}, err
	}
	return ParseFuturesEnvelope[AccountsResponse](body)
}

// SendOrder places a new Futures order, gated by the order-placement rate
// limiter.
func (c *FuturesClient) SendOrder(ctx context.Context, req SendOrderRequest) (SendOrderResponse, error) {
	placeholderID := "pending_" + strconv.FormatUint(c.nonces.Next(), 10)
	if c.limiter != nil {
		if err := c.limiter.WaitPlaceOrder(ctx, placeholderID, OrderTrackingInfo{Pair: req.Symbol}); err != nil {
			return SendOrderResponse{}, err
		}
	}

	form := url.Values{
		"orderType": {string(req.OrderType)},
		"symbol":    {req.Symbol},
		"side":      {string(req.Side)},
		"size":      {req.Size},
	}
	if req.LimitPrice != "" {
		form.Set("limitPrice", req.LimitPrice)
	}
	if req.StopPrice != "" {
		form.Set("stopPrice", req.StopPrice)
	}
	if req.TriggerSignal != "" {
		form.Set("triggerSignal", req.TriggerSignal)
	}
	if req.ReduceOnly {
		form.Set("reduceOnly", "true")
	}
	if req.ClientOrderID != "" {
		form.Set("cliOrdId", req.ClientOrderID)
	}

	body, err := c.privatePost(ctx, futuresPathSendOrder, form)
	if err != nil {
		return SendOrderResponse{}, err
	}
	result, err := ParseFuturesEnvelope[SendOrderResponse](body)
	if err != nil {
		return result, err
	}
	if c.limiter != nil && result.SendStatus.OrderID != "" {
		c.limiter.RetagOrder(placeholderID, result.SendStatus.OrderID, OrderTrackingInfo{Pair: req.Symbol})
	}
	return result, nil
}

// CancelOrder cancels a Futures order, gated by the order-cancellation
// rate limiter's age-dependent penalty.
func (c *FuturesClient) CancelOrder(ctx context.Context, req CancelOrderFuturesRequest) (CancelOrderFuturesResponse, error) {
	orderID := req.OrderID
	if orderID == "" {
		orderID = req.ClientOrderID
	}
	if c.limiter != nil {
		if err := c.limiter.WaitCancelOrder(ctx, orderID); err != nil {
			return CancelOrderFuturesResponse{}, err
		}
	}

	form := url.Values{}
	if req.OrderID != "" {
		form.Set("order_id", req.OrderID)
	}
	if req.ClientOrderID != "" {
		form.Set("cliOrdId", req.ClientOrderID)
	}

	body, err := c.privatePost(ctx, futuresPathCancelOrder, form)
	if err != nil {
		return CancelOrderFuturesResponse{}, err
	}
	return ParseFuturesEnvelope[CancelOrderFuturesResponse](body)
}
