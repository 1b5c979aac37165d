package interfaces

import (
	"context"

	"dynamic-dca-bot/internal/candle"
	"dynamic-dca-bot/internal/types"
)

// Broker is the exchange surface the engine depends on. FetchCandles returns candles
// oldest first; SubmitOrder places a market buy sized in quote currency.
type Broker interface {
	FetchCandles(ctx context.Context, q types.CandleQuery) (candle.Series, error)
	SubmitOrder(ctx context.Context, req types.OrderReq) (types.OrderResult, error)
}
