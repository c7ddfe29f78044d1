package krakengo

// FuturesAccount is one account entry in AccountsResponse.
type FuturesAccount struct {
	Auxiliary struct {
		USD float64 `json:"usd"`
		PV  float64 `json:"pv"`
	} `json:"auxiliary"`
	Balances map[string]float64 `json:"balances"`
}

// AccountsResponse is the result of GetAccounts.
type AccountsResponse struct {
	Accounts   map[string]FuturesAccount `json:"accounts"`
	ServerTime string                    `json:"serverTime,omitempty"`
}

// FuturesOrderType is a Futures order type.
type FuturesOrderType string

const (
	FuturesOrderTypeLimit      FuturesOrderType = "lmt"
	FuturesOrderTypeMarket     FuturesOrderType = "mkt"
	FuturesOrderTypeStop       FuturesOrderType = "stp"
	FuturesOrderTypeTakeProfit FuturesOrderType = "take_profit"
	FuturesOrderTypeIOC        FuturesOrderType = "ioc"
)

// SendOrderRequest parameterizes SendOrder.
type SendOrderRequest struct {
	OrderType     FuturesOrderType
	Symbol        string
	Side          BuySell
	Size          string
	LimitPrice    string
	StopPrice     string
	TriggerSignal string
	ReduceOnly    bool
	ClientOrderID string
}

// SendStatus is the nested status payload inside SendOrderResponse.
type SendStatus struct {
	OrderID       string `json:"order_id"`
	Status        string `json:"status"`
	ReceivedTime  string `json:"receivedTime,omitempty"`
	ClientOrderID string `json:"cliOrdId,omitempty"`
}

// SendOrderResponse is the result of SendOrder.
type SendOrderResponse struct {
	SendStatus SendStatus `json:"sendStatus"`
	ServerTime string     `json:"serverTime,omitempty"`
}

// CancelOrderFuturesRequest parameterizes the Futures CancelOrder call.
// Named distinctly from Spot's CancelOrderRequest since the two APIs take
// different identifying fields.
type CancelOrderFuturesRequest struct {
	OrderID       string
	ClientOrderID string
}

// CancelStatus is the nested status payload inside CancelOrderFuturesResponse.
type CancelStatus struct {
	OrderID       string `json:"order_id,omitempty"`
	ClientOrderID string `json:"cliOrdId,omitempty"`
	Status        string `json:"status"`
	ReceivedTime  string `json:"receivedTime,omitempty"`
}

// CancelOrderFuturesResponse is the result of the Futures CancelOrder call.
type CancelOrderFuturesResponse struct {
	CancelStatus CancelStatus `json:"cancelStatus"`
	ServerTime   string       `json:"serverTime,omitempty"`
}
