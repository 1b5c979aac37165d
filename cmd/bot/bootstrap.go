package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"dynamic-dca-bot/internal/api"
	"dynamic-dca-bot/internal/broker/brokerobs"
	"dynamic-dca-bot/internal/broker/bybit"
	"dynamic-dca-bot/internal/broker/zerodha"
	"dynamic-dca-bot/internal/engine"
	"dynamic-dca-bot/internal/engine/engineobs"
	"dynamic-dca-bot/internal/interfaces"
	"dynamic-dca-bot/internal/logger"
	"dynamic-dca-bot/internal/metrics"
	"dynamic-dca-bot/internal/store"
	"dynamic-dca-bot/internal/trace"
	"dynamic-dca-bot/internal/types"
)

// initializeSystem loads .env and sets up the logger and tracer
func initializeSystem() error {
	// Load environment variables
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := trace.Init(version); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

func loadConfig(ctx context.Context, path string) (*store.Config, error) {
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, err
	}
	return cfg, nil
}

// initializeBroker builds the configured exchange adapter wrapped with observability
func initializeBroker(ctx context.Context, cfg *store.Config, m *metrics.Metrics) (interfaces.Broker, error) {
	var (
		brk     interfaces.Broker
		hasKeys bool
	)

	switch cfg.Exchange {
	case store.ExchangeBybit:
		retry := api.DefaultRetryConfig()
		retry.MaxRetries = cfg.HTTP.MaxRetries

		p := bybit.Params{
			BaseURL:    cfg.Bybit.BaseURL,
			APIKey:     os.Getenv("BYBIT_API_KEY"),
			APISecret:  os.Getenv("BYBIT_API_SECRET"),
			RecvWindow: time.Duration(cfg.Bybit.RecvWindowMs) * time.Millisecond,
			Retry:      retry,
		}
		hasKeys = p.APIKey != "" && p.APISecret != ""
		brk = bybit.New(p,
			api.WithTimeout(cfg.HTTPTimeout()),
			api.WithRateLimit(cfg.HTTP.RequestsPerSec),
		)
	case store.ExchangeZerodha:
		p := zerodha.Params{
			APIKey:          os.Getenv("KITE_API_KEY"),
			AccessToken:     os.Getenv("KITE_ACCESS_TOKEN"),
			Exchange:        cfg.Zerodha.Exchange,
			InstrumentToken: cfg.Zerodha.InstrumentToken,
			Product:         cfg.Zerodha.Product,
			Timeout:         cfg.HTTPTimeout(),
		}
		hasKeys = p.APIKey != "" && p.AccessToken != ""
		brk = zerodha.NewZerodha(p)
	default:
		return nil, fmt.Errorf("unsupported exchange %q", cfg.Exchange)
	}

	if cfg.ExecutionMode() == types.ModeSimulate {
		logger.Warn(ctx, "Running in SIMULATE mode - orders will be logged, not placed")
	} else if !hasKeys {
		logger.Warn(ctx, "LIVE mode without exchange credentials - order submission will fail", "exchange", cfg.Exchange)
	}

	// Wrap with observability middleware
	return brokerobs.Wrap(brk, cfg.Exchange, m), nil
}

// initializeEngine builds the evaluation cycle wrapped with observability
func initializeEngine(cfg *store.Config, brk interfaces.Broker, m *metrics.Metrics) interfaces.Engine {
	return engineobs.Wrap(engine.New(cfg, brk), m)
}
