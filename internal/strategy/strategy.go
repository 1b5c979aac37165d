// Package strategy holds the dynamic DCA buy rules.
package strategy

import (
	"fmt"

	"dynamic-dca-bot/internal/candle"
	"dynamic-dca-bot/internal/ta"
	"dynamic-dca-bot/internal/types"
)

// Config is fixed for the lifetime of the process.
type Config struct {
	RSIBuyThreshold float64
	UseEMAFilter    bool
	EMAPeriod       int
}

func (c Config) Validate() error {
	if c.RSIBuyThreshold < 0 || c.RSIBuyThreshold > 100 {
		return fmt.Errorf("strategy.rsi_buy_threshold must be between 0-100, got %.2f", c.RSIBuyThreshold)
	}
	if c.UseEMAFilter && c.EMAPeriod <= 0 {
		return fmt.Errorf("strategy.ema_period must be positive when use_ema_filter is set, got %d", c.EMAPeriod)
	}
	return nil
}

// BuildSnapshot computes the indicator values the rules read: RSI(14) always, EMA only when the filter is enabled.
func BuildSnapshot(s candle.Series, cfg Config) (types.IndicatorSnapshot, error) {
	last, ok := s.Last()
	if !ok {
		return types.IndicatorSnapshot{}, &types.InsufficientDataError{Indicator: "snapshot", Need: 1, Got: 0}
	}

	rsi, err := ta.RSI(s, ta.DefaultRSIPeriod)
	if err != nil {
		return types.IndicatorSnapshot{}, fmt.Errorf("computing RSI: %w", err)
	}

	snap := types.IndicatorSnapshot{
		LatestClose: last.Close,
		LatestRSI:   rsi[len(rsi)-1],
	}

	if cfg.UseEMAFilter {
		ema, err := ta.EMA(s, cfg.EMAPeriod)
		if err != nil {
			return types.IndicatorSnapshot{}, fmt.Errorf("computing EMA(%d): %w", cfg.EMAPeriod, err)
		}
		snap.LatestEMA = ema[len(ema)-1]
		snap.HasEMA = true
	}

	return snap, nil
}

const reasonEMAMissing = "EMA filter enabled but no EMA value available"

// Evaluate applies every rule and collects each unmet condition. A rule is met only on strict
// inequality: RSI equal to the threshold, or close equal to the EMA, blocks the buy.
func Evaluate(snap types.IndicatorSnapshot, cfg Config) types.TradeDecision {
	d := types.TradeDecision{ShouldBuy: true}

	if snap.LatestRSI >= cfg.RSIBuyThreshold {
		d.ShouldBuy = false
		d.Reasons = append(d.Reasons, fmt.Sprintf(
			"RSI (%.2f) is not below threshold (%.2f)", snap.LatestRSI, cfg.RSIBuyThreshold))
	}

	if cfg.UseEMAFilter {
		switch {
		case !snap.HasEMA:
			d.ShouldBuy = false
			d.Reasons = append(d.Reasons, reasonEMAMissing)
		case snap.LatestClose >= snap.LatestEMA:
			d.ShouldBuy = false
			d.Reasons = append(d.Reasons, fmt.Sprintf(
				"Price (%.8g) is not below EMA(%d) (%.2f)", snap.LatestClose, cfg.EMAPeriod, snap.LatestEMA))
		}
	}

	return d
}
