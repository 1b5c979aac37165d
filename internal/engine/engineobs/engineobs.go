package engineobs

import (
	"context"
	"time"

	"dynamic-dca-bot/internal/interfaces"
	"dynamic-dca-bot/internal/logger"
	"dynamic-dca-bot/internal/metrics"
	"dynamic-dca-bot/internal/trace"
	"dynamic-dca-bot/internal/types"
)

type observableEngine struct {
	engine  interfaces.Engine
	metrics *metrics.Metrics
}

var _ interfaces.Engine = (*observableEngine)(nil)

// Wrap decorates eng with a span, cycle logs and cycle metrics. m may be nil.
func Wrap(eng interfaces.Engine, m *metrics.Metrics) interfaces.Engine {
	return &observableEngine{
		engine:  eng,
		metrics: m,
	}
}

func (oe *observableEngine) Step(ctx context.Context) (*types.StepResult, error) {
	ctx, span := trace.StartSpan(ctx, "engine.Step")
	defer span.End()

	start := time.Now()
	result, err := oe.engine.Step(ctx)
	elapsed := time.Since(start)
	oe.observe(ctx, result, err, elapsed)

	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Evaluation cycle failed", err,
			"kind", types.ErrorKind(err),
			"duration_ms", elapsed.Milliseconds(),
		)
		return nil, err
	}

	fields := []any{
		"symbol", result.Symbol,
		"mode", result.Mode,
		"should_buy", result.Decision.ShouldBuy,
		"duration_ms", elapsed.Milliseconds(),
	}
	if result.Order != nil {
		fields = append(fields, "client_id", result.Order.ClientID, "simulated", result.Order.Simulated)
	}
	logger.InfoSkip(ctx, 1, "Evaluation cycle completed", fields...)

	return result, nil
}

func (oe *observableEngine) observe(ctx context.Context, res *types.StepResult, err error, d time.Duration) {
	if oe.metrics == nil {
		return
	}
	oe.metrics.ObserveCycle(res, err, d)
	if ferr := oe.metrics.Flush(); ferr != nil {
		logger.Warn(ctx, "Failed to write metrics textfile", "error", ferr)
	}
}
