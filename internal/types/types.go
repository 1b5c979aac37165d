package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ExecutionMode selects whether a positive decision only gets logged or is sent to the exchange.
type ExecutionMode string

const (
	ModeSimulate ExecutionMode = "SIMULATE"
	ModeLive     ExecutionMode = "LIVE"
)

// ParseExecutionMode accepts SIMULATE or LIVE (case-insensitive). DRY_RUN is kept as an alias of SIMULATE.
func ParseExecutionMode(s string) (ExecutionMode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SIMULATE", "DRY_RUN":
		return ModeSimulate, nil
	case "LIVE":
		return ModeLive, nil
	}
	return "", fmt.Errorf("invalid mode '%s': must be 'SIMULATE' or 'LIVE'", s)
}

// CandleQuery describes which bars to fetch from the exchange.
type CandleQuery struct {
	Symbol   string
	Category string
	Interval string
	Limit    int
}

// IndicatorSnapshot holds the latest indicator values of one evaluation cycle.
// LatestEMA is meaningful only when HasEMA is set.
type IndicatorSnapshot struct {
	LatestClose float64 `json:"latest_close"`
	LatestRSI   float64 `json:"latest_rsi"`
	LatestEMA   float64 `json:"latest_ema,omitempty"`
	HasEMA      bool    `json:"has_ema"`
}

// TradeDecision is the outcome of the strategy rules. Reasons lists every unmet condition in rule order.
type TradeDecision struct {
	ShouldBuy bool     `json:"should_buy"`
	Reasons   []string `json:"reasons,omitempty"`
}

const (
	SideBuy         = "Buy"
	OrderTypeMarket = "Market"
)

// OrderReq is a quote-denominated market order. RefPrice is the latest close, for venues that need a share quantity.
type OrderReq struct {
	Symbol      string
	Category    string
	Side        string
	OrderType   string
	QuoteAmount decimal.Decimal
	RefPrice    float64
	ClientID    string
}

type OrderResult struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	OrderID   string `json:"order_id,omitempty"`
	ClientID  string `json:"client_id,omitempty"`
	Simulated bool   `json:"simulated"`
}

type StepResult struct {
	Symbol    string            `json:"symbol"`
	Mode      ExecutionMode     `json:"mode"`
	Snapshot  IndicatorSnapshot `json:"snapshot"`
	Decision  TradeDecision     `json:"decision"`
	Order     *OrderResult      `json:"order,omitempty"`
	StartedAt time.Time         `json:"started_at"`
	Duration  time.Duration     `json:"duration"`
}
