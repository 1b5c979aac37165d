package engine

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"dynamic-dca-bot/internal/interfaces"
	"dynamic-dca-bot/internal/logger"
	"dynamic-dca-bot/internal/types"
)

// codeOK is the adapter result code of an accepted order.
const codeOK = "0"

// orderExecutor turns a positive decision into a market buy of a fixed quote amount.
type orderExecutor struct {
	broker interfaces.Broker
	query  types.CandleQuery
	amount decimal.Decimal
	newID  func() string
}

func newOrderExecutor(broker interfaces.Broker, q types.CandleQuery, amount decimal.Decimal) *orderExecutor {
	return &orderExecutor{
		broker: broker,
		query:  q,
		amount: amount,
		newID:  uuid.NewString,
	}
}

// buy logs and returns a simulated result in SIMULATE mode; only LIVE reaches the exchange.
//
// Parameters:
//   - ctx: Context for logging and tracing
//   - mode: Execution mode of the process
//   - refPrice: Latest close, used by venues that size orders in shares
func (oe *orderExecutor) buy(ctx context.Context, mode types.ExecutionMode, refPrice float64) (types.OrderResult, error) {
	req := types.OrderReq{
		Symbol:      oe.query.Symbol,
		Category:    oe.query.Category,
		Side:        types.SideBuy,
		OrderType:   types.OrderTypeMarket,
		QuoteAmount: oe.amount,
		RefPrice:    refPrice,
		ClientID:    oe.newID(),
	}

	if mode != types.ModeLive {
		res := types.OrderResult{
			Code:      codeOK,
			Message:   "simulated",
			ClientID:  req.ClientID,
			Simulated: true,
		}
		logger.Trade(ctx, req.Symbol, req.Side, req.QuoteAmount.String(), "", true,
			"client_id", req.ClientID,
			"ref_price", refPrice,
		)
		return res, nil
	}

	res, err := oe.broker.SubmitOrder(ctx, req)
	if err != nil {
		// failure already logged by the broker decorator
		return types.OrderResult{}, err
	}
	if res.Code != codeOK {
		err := &types.AdapterError{Op: "submit_order", Code: res.Code, Message: res.Message}
		logger.ErrorWithErr(ctx, "BUY order rejected", err,
			"symbol", req.Symbol,
			"client_id", req.ClientID,
		)
		return types.OrderResult{}, err
	}

	logger.Trade(ctx, req.Symbol, req.Side, req.QuoteAmount.String(), res.OrderID, false,
		"client_id", res.ClientID,
		"code", res.Code,
		"message", res.Message,
	)
	return res, nil
}
