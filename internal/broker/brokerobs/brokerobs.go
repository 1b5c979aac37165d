package brokerobs

import (
	"context"
	"time"

	"dynamic-dca-bot/internal/candle"
	"dynamic-dca-bot/internal/interfaces"
	"dynamic-dca-bot/internal/logger"
	"dynamic-dca-bot/internal/metrics"
	"dynamic-dca-bot/internal/trace"
	"dynamic-dca-bot/internal/types"
)

// observableBroker wraps a Broker with observability (logging, tracing and call latency)
type observableBroker struct {
	broker  interfaces.Broker
	name    string
	metrics *metrics.Metrics
}

var _ interfaces.Broker = (*observableBroker)(nil)

// Wrap decorates broker. m may be nil.
func Wrap(broker interfaces.Broker, name string, m *metrics.Metrics) interfaces.Broker {
	return &observableBroker{
		broker:  broker,
		name:    name,
		metrics: m,
	}
}

func (ob *observableBroker) FetchCandles(ctx context.Context, q types.CandleQuery) (candle.Series, error) {
	ctx, span := trace.StartSpan(ctx, "broker.FetchCandles")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching candles",
		"exchange", ob.name,
		"symbol", q.Symbol,
		"interval", q.Interval,
		"limit", q.Limit,
	)

	start := time.Now()
	series, err := ob.broker.FetchCandles(ctx, q)
	ob.observe("fetch_candles", err, time.Since(start))
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch candles", err,
			"exchange", ob.name,
			"symbol", q.Symbol,
			"kind", types.ErrorKind(err),
		)
		return candle.Series{}, err
	}

	fields := []any{"exchange", ob.name, "symbol", q.Symbol, "count", series.Len()}
	if last, ok := series.Last(); ok {
		fields = append(fields, "last_bar", last.Timestamp)
	}
	logger.DebugSkip(ctx, 1, "Candles fetched successfully", fields...)
	return series, nil
}

func (ob *observableBroker) SubmitOrder(ctx context.Context, req types.OrderReq) (types.OrderResult, error) {
	ctx, span := trace.StartSpan(ctx, "broker.SubmitOrder")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Placing order",
		"exchange", ob.name,
		"symbol", req.Symbol,
		"side", req.Side,
		"type", req.OrderType,
		"quote_amount", req.QuoteAmount.String(),
		"client_id", req.ClientID,
	)

	start := time.Now()
	res, err := ob.broker.SubmitOrder(ctx, req)
	ob.observe("submit_order", err, time.Since(start))
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to place order", err,
			"exchange", ob.name,
			"symbol", req.Symbol,
			"client_id", req.ClientID,
		)
		return types.OrderResult{}, err
	}

	logger.InfoSkip(ctx, 1, "Order placed successfully",
		"exchange", ob.name,
		"symbol", req.Symbol,
		"order_id", res.OrderID,
		"code", res.Code,
		"message", res.Message,
	)
	return res, nil
}

func (ob *observableBroker) observe(op string, err error, d time.Duration) {
	if ob.metrics != nil {
		ob.metrics.ObserveAdapterCall(op, err, d)
	}
}
