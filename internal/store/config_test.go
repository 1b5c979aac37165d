package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dynamic-dca-bot/internal/types"
)

func TestParseEmptyUsesDefaults(t *testing.T) {
	c, err := Parse([]byte("{}"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if c.ExecutionMode() != types.ModeSimulate {
		t.Errorf("Expected SIMULATE by default, got %s", c.Mode)
	}
	if c.Trading.Symbol != "BTCUSDT" || c.Trading.Category != "spot" {
		t.Errorf("Unexpected trading defaults %+v", c.Trading)
	}
	if c.Investment.DailyAmount.String() != "1" {
		t.Errorf("Expected daily amount 1, got %s", c.Investment.DailyAmount.String())
	}
	s := c.StrategyConfig()
	if s.RSIBuyThreshold != 50 || !s.UseEMAFilter || s.EMAPeriod != 50 {
		t.Errorf("Unexpected strategy defaults %+v", s)
	}
	if c.Scheduler.TradeTime != "01:00" || c.PollInterval().Seconds() != 1 {
		t.Errorf("Unexpected scheduler defaults %+v", c.Scheduler)
	}
	if q := c.CandleQuery(); q.Interval != "D" || q.Limit != 200 {
		t.Errorf("Unexpected candle query %+v", q)
	}
}

func TestParseOverrides(t *testing.T) {
	raw := `
mode: dry_run
exchange: bybit
trading:
  symbol: ETHUSDT
investment:
  daily_amount: "25.50"
strategy:
  rsi_buy_threshold: 40
  use_ema_filter: false
scheduler:
  trade_time: "09:30"
  timezone: UTC
market_data:
  interval: "60"
  limit: 500
`
	c, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if c.Mode != "SIMULATE" || c.Exchange != ExchangeBybit {
		t.Errorf("Expected normalised mode and exchange, got %s %s", c.Mode, c.Exchange)
	}
	if c.Trading.Symbol != "ETHUSDT" || c.Trading.Category != "spot" {
		t.Errorf("Unexpected trading %+v", c.Trading)
	}
	if c.Investment.DailyAmount.StringFixed(2) != "25.50" {
		t.Errorf("Expected 25.50, got %s", c.Investment.DailyAmount.StringFixed(2))
	}
	if s := c.StrategyConfig(); s.UseEMAFilter || s.RSIBuyThreshold != 40 || s.EMAPeriod != 50 {
		t.Errorf("Unexpected strategy %+v", s)
	}
	if c.Location().String() != "UTC" {
		t.Errorf("Expected UTC, got %s", c.Location())
	}
}

func TestParseUnquotedAmount(t *testing.T) {
	c, err := Parse([]byte("investment:\n  daily_amount: 10\n"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if c.Investment.DailyAmount.String() != "10" {
		t.Errorf("Expected 10, got %s", c.Investment.DailyAmount.String())
	}
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]string{
		"mode":          "mode: PAPER",
		"exchange":      "exchange: KRAKEN",
		"amount":        "investment:\n  daily_amount: \"0\"",
		"threshold":     "strategy:\n  rsi_buy_threshold: 120",
		"ema period":    "strategy:\n  ema_period: 0",
		"trade time":    "scheduler:\n  trade_time: \"25:00\"",
		"timezone":      "scheduler:\n  timezone: Mars/Olympus",
		"limit":         "market_data:\n  limit: 5000",
		"kite token":    "exchange: ZERODHA",
		"empty symbol":  "trading:\n  symbol: \"\"",
		"poll interval": "scheduler:\n  poll_seconds: 0",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(raw)); err == nil {
				t.Errorf("Expected validation error for %q", raw)
			}
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("mode: LIVE\nexchange: ZERODHA\ntrading:\n  symbol: INFY\nzerodha:\n  instrument_token: 408065\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	c, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if c.ExecutionMode() != types.ModeLive || c.Zerodha.InstrumentToken != 408065 {
		t.Errorf("Unexpected config %+v", c)
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for a missing file")
	}
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("mode: [unterminated"))
	if err == nil || strings.Contains(err.Error(), "validation") {
		t.Errorf("Expected a YAML error, got %v", err)
	}
}
