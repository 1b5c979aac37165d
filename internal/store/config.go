package store

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"dynamic-dca-bot/internal/scheduler"
	"dynamic-dca-bot/internal/strategy"
	"dynamic-dca-bot/internal/types"
)

const (
	ExchangeBybit   = "BYBIT"
	ExchangeZerodha = "ZERODHA"

	// Bybit caps kline requests at 1000 bars
	maxCandleLimit = 1000
)

type Config struct {
	Mode     string `yaml:"mode"`
	Exchange string `yaml:"exchange"`
	Trading  struct {
		Symbol   string `yaml:"symbol"`
		Category string `yaml:"category"`
	} `yaml:"trading"`
	Investment struct {
		DailyAmount decimal.Decimal `yaml:"daily_amount"`
	} `yaml:"investment"`
	Strategy struct {
		RSIBuyThreshold float64 `yaml:"rsi_buy_threshold"`
		UseEMAFilter    bool    `yaml:"use_ema_filter"`
		EMAPeriod       int     `yaml:"ema_period"`
	} `yaml:"strategy"`
	Scheduler struct {
		TradeTime   string `yaml:"trade_time"`
		Timezone    string `yaml:"timezone"`
		PollSeconds int    `yaml:"poll_seconds"`
	} `yaml:"scheduler"`
	MarketData struct {
		Interval string `yaml:"interval"`
		Limit    int    `yaml:"limit"`
	} `yaml:"market_data"`
	HTTP struct {
		TimeoutSeconds int `yaml:"timeout_seconds"`
		RequestsPerSec int `yaml:"requests_per_sec"`
		MaxRetries     int `yaml:"max_retries"`
	} `yaml:"http"`
	Bybit struct {
		BaseURL      string `yaml:"base_url"`
		RecvWindowMs int    `yaml:"recv_window_ms"`
	} `yaml:"bybit"`
	Zerodha struct {
		Exchange        string `yaml:"exchange"`
		InstrumentToken int    `yaml:"instrument_token"`
		Product         string `yaml:"product"`
	} `yaml:"zerodha"`
	Metrics struct {
		TextfilePath string `yaml:"textfile_path"`
	} `yaml:"metrics"`
}

// Default returns the configuration used for every key the file leaves out.
func Default() *Config {
	var c Config
	c.Mode = string(types.ModeSimulate)
	c.Exchange = ExchangeBybit
	c.Trading.Symbol = "BTCUSDT"
	c.Trading.Category = "spot"
	c.Investment.DailyAmount = decimal.RequireFromString("1.00")
	c.Strategy.RSIBuyThreshold = 50
	c.Strategy.UseEMAFilter = true
	c.Strategy.EMAPeriod = 50
	c.Scheduler.TradeTime = "01:00"
	c.Scheduler.Timezone = "Local"
	c.Scheduler.PollSeconds = 1
	c.MarketData.Interval = "D"
	c.MarketData.Limit = 200
	c.HTTP.TimeoutSeconds = 10
	c.HTTP.RequestsPerSec = 5
	c.HTTP.MaxRetries = 3
	c.Bybit.BaseURL = "https://api.bybit.com"
	c.Bybit.RecvWindowMs = 5000
	c.Zerodha.Exchange = "NSE"
	c.Zerodha.Product = "CNC"
	return &c
}

func (c *Config) Validate() error {
	if _, err := types.ParseExecutionMode(c.Mode); err != nil {
		return err
	}
	if c.Exchange != ExchangeBybit && c.Exchange != ExchangeZerodha {
		return fmt.Errorf("invalid exchange '%s': must be '%s' or '%s'", c.Exchange, ExchangeBybit, ExchangeZerodha)
	}
	if strings.TrimSpace(c.Trading.Symbol) == "" {
		return fmt.Errorf("trading.symbol cannot be empty")
	}
	if c.Exchange == ExchangeBybit && c.Trading.Category == "" {
		return fmt.Errorf("trading.category cannot be empty for %s", ExchangeBybit)
	}
	if !c.Investment.DailyAmount.IsPositive() {
		return fmt.Errorf("investment.daily_amount must be positive, got %s", c.Investment.DailyAmount.String())
	}
	if err := c.StrategyConfig().Validate(); err != nil {
		return err
	}
	if _, err := scheduler.ParseTriggerTime(c.Scheduler.TradeTime); err != nil {
		return fmt.Errorf("scheduler.trade_time: %w", err)
	}
	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("scheduler.timezone: %w", err)
	}
	if c.Scheduler.PollSeconds <= 0 {
		return fmt.Errorf("scheduler.poll_seconds must be positive, got %d", c.Scheduler.PollSeconds)
	}
	if c.MarketData.Interval == "" {
		return fmt.Errorf("market_data.interval cannot be empty")
	}
	if c.MarketData.Limit <= 0 || c.MarketData.Limit > maxCandleLimit {
		return fmt.Errorf("market_data.limit must be between 1-%d, got %d", maxCandleLimit, c.MarketData.Limit)
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be positive, got %d", c.HTTP.TimeoutSeconds)
	}
	if c.HTTP.RequestsPerSec < 0 || c.HTTP.MaxRetries < 0 {
		return fmt.Errorf("http.requests_per_sec and http.max_retries cannot be negative")
	}
	if c.Exchange == ExchangeZerodha && c.Zerodha.InstrumentToken <= 0 {
		return fmt.Errorf("zerodha.instrument_token is required for %s", ExchangeZerodha)
	}
	return nil
}

func (c *Config) ExecutionMode() types.ExecutionMode {
	m, _ := types.ParseExecutionMode(c.Mode)
	return m
}

func (c *Config) StrategyConfig() strategy.Config {
	return strategy.Config{
		RSIBuyThreshold: c.Strategy.RSIBuyThreshold,
		UseEMAFilter:    c.Strategy.UseEMAFilter,
		EMAPeriod:       c.Strategy.EMAPeriod,
	}
}

func (c *Config) CandleQuery() types.CandleQuery {
	return types.CandleQuery{
		Symbol:   c.Trading.Symbol,
		Category: c.Trading.Category,
		Interval: c.MarketData.Interval,
		Limit:    c.MarketData.Limit,
	}
}

// Location resolves scheduler.timezone. Validate has already checked it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Scheduler.PollSeconds) * time.Second
}

func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

func Parse(b []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}
	c.Mode = strings.ToUpper(strings.TrimSpace(c.Mode))
	c.Exchange = strings.ToUpper(strings.TrimSpace(c.Exchange))
	if m, err := types.ParseExecutionMode(c.Mode); err == nil {
		c.Mode = string(m)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return c, nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}
