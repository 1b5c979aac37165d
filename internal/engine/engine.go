package engine

import (
	"context"
	"fmt"
	"time"

	"dynamic-dca-bot/internal/interfaces"
	"dynamic-dca-bot/internal/logger"
	"dynamic-dca-bot/internal/store"
	"dynamic-dca-bot/internal/strategy"
	"dynamic-dca-bot/internal/types"
)

// Engine runs one evaluation cycle per Step. It keeps no state between cycles.
type Engine struct {
	query    types.CandleQuery
	strategy strategy.Config
	mode     types.ExecutionMode
	brk      interfaces.Broker
	exec     *orderExecutor
	now      func() time.Time
}

func newEngine(cfg *store.Config, brk interfaces.Broker) *Engine {
	q := cfg.CandleQuery()
	return &Engine{
		query:    q,
		strategy: cfg.StrategyConfig(),
		mode:     cfg.ExecutionMode(),
		brk:      brk,
		exec:     newOrderExecutor(brk, q, cfg.Investment.DailyAmount),
		now:      time.Now,
	}
}

// Step fetches candles, computes the indicator snapshot, applies the buy rules
// and, when they pass, buys the daily amount according to the execution mode.
func (e *Engine) Step(ctx context.Context) (*types.StepResult, error) {
	start := e.now()
	symbol := e.query.Symbol
	logger.Info(ctx, "Evaluation cycle started",
		"symbol", symbol,
		"mode", e.mode,
		"interval", e.query.Interval,
	)

	series, err := e.brk.FetchCandles(ctx, e.query)
	if err != nil {
		return nil, fmt.Errorf("fetching %s candles: %w", symbol, err)
	}

	snap, err := strategy.BuildSnapshot(series, e.strategy)
	if err != nil {
		return nil, fmt.Errorf("computing %s indicators: %w", symbol, err)
	}

	fields := []any{"symbol", symbol, "close", snap.LatestClose, "rsi", snap.LatestRSI}
	if snap.HasEMA {
		fields = append(fields, "ema", snap.LatestEMA, "ema_period", e.strategy.EMAPeriod)
	}
	logger.Info(ctx, "Indicators computed", fields...)

	decision := strategy.Evaluate(snap, e.strategy)
	for _, reason := range decision.Reasons {
		logger.Info(ctx, "Buy condition unmet", "symbol", symbol, "reason", reason)
	}
	logger.Decision(ctx, symbol, decision.ShouldBuy, decision.Reasons,
		"rsi", snap.LatestRSI,
		"rsi_threshold", e.strategy.RSIBuyThreshold,
	)

	res := &types.StepResult{
		Symbol:    symbol,
		Mode:      e.mode,
		Snapshot:  snap,
		Decision:  decision,
		StartedAt: start,
	}

	if decision.ShouldBuy {
		order, err := e.exec.buy(ctx, e.mode, snap.LatestClose)
		if err != nil {
			return nil, err
		}
		res.Order = &order
	} else {
		logger.Debug(ctx, "No buy this cycle", "symbol", symbol)
	}

	res.Duration = e.now().Sub(start)
	return res, nil
}
