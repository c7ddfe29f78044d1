package krakengo

import (
	"encoding/json"
	"fmt"
)

// ServerTime is the result of GetServerTime.
type ServerTime struct {
	Unixtime int64  `json:"unixtime"`
	RFC1123  string `json:"rfc1123"`
}

// AssetPair describes one tradable Spot pair, as returned by
// GetAssetPairs.
type AssetPair struct {
	Altname      string   `json:"altname"`
	WSName       string   `json:"wsname,omitempty"`
	AClassBase   string   `json:"aclass_base"`
	Base         string   `json:"base"`
	AClassQuote  string   `json:"aclass_quote"`
	Quote        string   `json:"quote"`
	PairDecimals int      `json:"pair_decimals"`
	OrderMin     string   `json:"ordermin,omitempty"`
	CostMin      string   `json:"costmin,omitempty"`
	Status       string   `json:"status,omitempty"`
	Tags         []string `json:"tags,omitempty"`
}

// TickerInfo is one pair's entry in GetTicker's result. Each slice follows
// Kraken's fixed ordering (e.g. Ask = [price, whole lot volume, lot
// volume]); values are left as strings, matching the wire format, since
// Kraken encodes prices with pair-specific precision that a float would
// silently round.
type TickerInfo struct {
	Ask       []string `json:"a"`
	Bid       []string `json:"b"`
	LastTrade []string `json:"c"`
	Volume    []string `json:"v"`
	VWAP      []string `json:"p"`
	NumTrades []int    `json:"t"`
	Low       []string `json:"l"`
	High      []string `json:"h"`
	Open      string   `json:"o"`
}

// OrderBookRequest parameterizes GetOrderBook.
type OrderBookRequest struct {
	Pair  string
	Count int
}

// OrderBookEntry is [price, volume, timestamp].
type OrderBookEntry struct {
	Price     string
	Volume    string
	Timestamp int64
}

// UnmarshalJSON decodes the [price, volume, timestamp] array form.
func (e *OrderBookEntry) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	if len(parts) < 3 {
		return fmt.Errorf("order book entry: want 3 elements, got %d", len(parts))
	}
	if err := json.Unmarshal(parts[0], &e.Price); err != nil {
		return err
	}
	if err := json.Unmarshal(parts[1], &e.Volume); err != nil {
		return err
	}
	return json.Unmarshal(parts[2], &e.Timestamp)
}

// OrderBook is one pair's entry in GetOrderBook's result.
type OrderBook struct {
	Asks []OrderBookEntry `json:"asks"`
	Bids []OrderBookEntry `json:"bids"`
}

// BuySell is an order side.
type BuySell string

const (
	Buy  BuySell = "buy"
	Sell BuySell = "sell"
)

// OrderType is a Spot order type.
type OrderType string

const (
	OrderTypeMarket          OrderType = "market"
	OrderTypeLimit           OrderType = "limit"
	OrderTypeStopLoss        OrderType = "stop-loss"
	OrderTypeTakeProfit      OrderType = "take-profit"
	OrderTypeStopLossLimit   OrderType = "stop-loss-limit"
	OrderTypeTakeProfitLimit OrderType = "take-profit-limit"
)

// AddOrderRequest parameterizes AddOrder.
type AddOrderRequest struct {
	Pair      string    `url:"pair"`
	Side      BuySell   `url:"type"`
	OrderType OrderType `url:"ordertype"`
	Volume    string    `url:"volume"`
	Price     string    `url:"price,omitempty"`
	Price2    string    `url:"price2,omitempty"`
	UserRef   string    `url:"userref,omitempty"`
	Validate  bool      `url:"validate,omitempty"`
}

// AddOrderDescription is the human-readable order description returned by
// AddOrder.
type AddOrderDescription struct {
	Order string `json:"order"`
	Close string `json:"close,omitempty"`
}

// AddOrderResponse is the result of AddOrder.
type AddOrderResponse struct {
	Descr AddOrderDescription `json:"descr"`
	TxID  []string            `json:"txid,omitempty"`
}

// CancelOrderRequest parameterizes CancelOrder.
type CancelOrderRequest struct {
	TxID string `url:"txid"`
}

// CancelOrderResponse is the result of CancelOrder.
type CancelOrderResponse struct {
	Count   uint32 `json:"count"`
	Pending bool   `json:"pending,omitempty"`
}

// WebSocketToken is the result of GetWebSocketToken, used to authenticate a
// Spot streaming Session.
type WebSocketToken struct {
	Token   string `json:"token"`
	Expires uint32 `json:"expires"`
}
