package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"dynamic-dca-bot/internal/trace"
)

// callerDepth skips log() and the exported wrapper so the caller field points at the call site.
const callerDepth = 2

var global atomic.Pointer[zap.Logger]

func init() {
	global.Store(zap.NewNop())
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level           string // DEBUG, INFO, WARN, ERROR
	Format          string // json or console
	DetailedLogging bool   // include caller in every line
	Output          io.Writer
}

// Init initializes the global logger from environment variables
func Init() error {
	return InitWithConfig(LoadConfigFromEnv())
}

func LoadConfigFromEnv() LogConfig {
	return LogConfig{
		Level:           getEnvOrDefault("LOG_LEVEL", "INFO"),
		Format:          getEnvOrDefault("LOG_FORMAT", "json"),
		DetailedLogging: getEnvOrDefault("LOG_DETAILED", "false") == "true",
	}
}

func InitWithConfig(cfg LogConfig) error {
	level, err := parseLogLevel(cfg.Level)
	if err != nil {
		return err
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.MessageKey = "msg"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeDuration = zapcore.MillisDurationEncoder

	var enc zapcore.Encoder
	switch strings.ToLower(cfg.Format) {
	case "", "json":
		enc = zapcore.NewJSONEncoder(encCfg)
	case "console", "text":
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	default:
		return fmt.Errorf("unknown log format %q", cfg.Format)
	}

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	opts := []zap.Option{zap.AddCallerSkip(callerDepth)}
	if cfg.DetailedLogging {
		opts = append(opts, zap.AddCaller())
	}

	global.Store(zap.New(zapcore.NewCore(enc, zapcore.AddSync(out), level), opts...))
	return nil
}

// Sync flushes buffered log entries
func Sync() error {
	return global.Load().Sync()
}

func parseLogLevel(level string) (zapcore.Level, error) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return zapcore.DebugLevel, nil
	case "", "INFO":
		return zapcore.InfoLevel, nil
	case "WARN", "WARNING":
		return zapcore.WarnLevel, nil
	case "ERROR":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func Debug(ctx context.Context, msg string, args ...any) {
	log(ctx, zapcore.DebugLevel, 0, msg, args)
}

func Info(ctx context.Context, msg string, args ...any) {
	log(ctx, zapcore.InfoLevel, 0, msg, args)
}

func Warn(ctx context.Context, msg string, args ...any) {
	log(ctx, zapcore.WarnLevel, 0, msg, args)
}

func Error(ctx context.Context, msg string, args ...any) {
	log(ctx, zapcore.ErrorLevel, 0, msg, args)
}

// ErrorWithErr logs err under the "error" key and marks the active span as failed
func ErrorWithErr(ctx context.Context, msg string, err error, args ...any) {
	trace.RecordError(ctx, err)
	log(ctx, zapcore.ErrorLevel, 0, msg, append([]any{"error", err}, args...))
}

// The *Skip variants are for wrappers: skip is the number of extra frames between the
// call site worth reporting and the logger call.

func DebugSkip(ctx context.Context, skip int, msg string, args ...any) {
	log(ctx, zapcore.DebugLevel, skip, msg, args)
}

func InfoSkip(ctx context.Context, skip int, msg string, args ...any) {
	log(ctx, zapcore.InfoLevel, skip, msg, args)
}

func WarnSkip(ctx context.Context, skip int, msg string, args ...any) {
	log(ctx, zapcore.WarnLevel, skip, msg, args)
}

func ErrorWithErrSkip(ctx context.Context, skip int, msg string, err error, args ...any) {
	trace.RecordError(ctx, err)
	log(ctx, zapcore.ErrorLevel, skip, msg, append([]any{"error", err}, args...))
}

// Decision logs the outcome of the buy rules for one cycle
func Decision(ctx context.Context, symbol string, shouldBuy bool, reasons []string, fields ...any) {
	trace.AddEvent(ctx, "trade_decision",
		attribute.String("symbol", symbol),
		attribute.Bool("should_buy", shouldBuy),
		attribute.StringSlice("reasons", reasons),
	)

	all := append([]any{
		"type", "DECISION",
		"symbol", symbol,
		"should_buy", shouldBuy,
		"reasons", reasons,
	}, fields...)
	log(ctx, zapcore.InfoLevel, 0, "Trade decision made", all)
}

// Trade logs a submitted or simulated market buy
func Trade(ctx context.Context, symbol, side, quoteAmount, orderID string, simulated bool, fields ...any) {
	trace.AddEvent(ctx, "trade_executed",
		attribute.String("symbol", symbol),
		attribute.String("side", side),
		attribute.String("quote_amount", quoteAmount),
		attribute.String("order_id", orderID),
		attribute.Bool("simulated", simulated),
	)

	all := append([]any{
		"type", "TRADE",
		"symbol", symbol,
		"side", side,
		"quote_amount", quoteAmount,
		"order_id", orderID,
		"simulated", simulated,
	}, fields...)
	log(ctx, zapcore.InfoLevel, 0, "Trade executed", all)
}

func IsDebugEnabled() bool {
	return global.Load().Core().Enabled(zapcore.DebugLevel)
}

func log(ctx context.Context, level zapcore.Level, skip int, msg string, args []any) {
	l := global.Load()
	if skip > 0 {
		l = l.WithOptions(zap.AddCallerSkip(skip))
	}
	ce := l.Check(level, msg)
	if ce == nil {
		return
	}
	ce.Write(toFields(ctx, args)...)
}

func toFields(ctx context.Context, args []any) []zap.Field {
	fields := make([]zap.Field, 0, len(args)/2+2)
	if traceID, spanID, ok := trace.GetTraceFields(ctx); ok {
		fields = append(fields, zap.String("trace_id", traceID), zap.String("span_id", spanID))
	}

	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		if i+1 >= len(args) {
			fields = append(fields, zap.String(key, "(MISSING)"))
			break
		}
		fields = append(fields, zap.Any(key, args[i+1]))
	}
	return fields
}
