package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"dynamic-dca-bot/internal/logger"
	"dynamic-dca-bot/internal/metrics"
	"dynamic-dca-bot/internal/scheduler"
	"dynamic-dca-bot/internal/trace"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	configPath := flag.String("config", envOr("BOT_CONFIG", "config.yaml"), "path to the YAML config file")
	once := flag.Bool("once", false, "run a single evaluation cycle and exit")
	flag.Parse()

	if err := initializeSystem(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, *configPath, *once)
	stop()

	if err != nil {
		logger.ErrorWithErr(context.Background(), "Bot exited with error", err)
	}
	if terr := trace.Shutdown(context.Background()); terr != nil {
		fmt.Fprintf(os.Stderr, "Failed to shut down tracer: %v\n", terr)
	}
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, once bool) error {
	cfg, err := loadConfig(ctx, configPath)
	if err != nil {
		return err
	}

	m := metrics.New(cfg.Metrics.TextfilePath)
	brk, err := initializeBroker(ctx, cfg, m)
	if err != nil {
		return err
	}
	eng := initializeEngine(cfg, brk, m)

	if once {
		_, err := eng.Step(ctx)
		return err
	}

	trigger, err := scheduler.ParseTriggerTime(cfg.Scheduler.TradeTime)
	if err != nil {
		return err
	}
	s := scheduler.New(scheduler.Options{
		Trigger:      trigger,
		Location:     cfg.Location(),
		PollInterval: cfg.PollInterval(),
	}, func(ctx context.Context) error {
		_, err := eng.Step(ctx)
		return err
	})

	logger.Info(ctx, "Bot started",
		"version", version,
		"mode", cfg.Mode,
		"exchange", cfg.Exchange,
		"symbol", cfg.Trading.Symbol,
		"daily_amount", cfg.Investment.DailyAmount.String(),
	)
	err = s.Run(ctx)
	logger.Info(context.Background(), "Shutting down...")
	return err
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
