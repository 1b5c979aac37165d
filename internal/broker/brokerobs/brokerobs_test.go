package brokerobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"dynamic-dca-bot/internal/candle"
	"dynamic-dca-bot/internal/metrics"
	"dynamic-dca-bot/internal/types"
)

type stubBroker struct {
	series   candle.Series
	fetchErr error
	orderErr error
	orders   int
}

func (s *stubBroker) FetchCandles(ctx context.Context, q types.CandleQuery) (candle.Series, error) {
	return s.series, s.fetchErr
}

func (s *stubBroker) SubmitOrder(ctx context.Context, req types.OrderReq) (types.OrderResult, error) {
	s.orders++
	if s.orderErr != nil {
		return types.OrderResult{}, s.orderErr
	}
	return types.OrderResult{Code: "0", OrderID: "42", ClientID: req.ClientID}, nil
}

func TestWrapPassesThrough(t *testing.T) {
	s, err := candle.FromCandles([]candle.Candle{{Timestamp: time.Unix(1700000000, 0), Close: 1}})
	if err != nil {
		t.Fatalf("building series: %v", err)
	}
	inner := &stubBroker{series: s}
	b := Wrap(inner, "BYBIT", metrics.New(""))

	got, err := b.FetchCandles(context.Background(), types.CandleQuery{Symbol: "BTCUSDT"})
	if err != nil || got.Len() != 1 {
		t.Fatalf("Expected 1 candle, got %d (%v)", got.Len(), err)
	}

	res, err := b.SubmitOrder(context.Background(), types.OrderReq{Symbol: "BTCUSDT", QuoteAmount: decimal.NewFromInt(1), ClientID: "c1"})
	if err != nil || res.OrderID != "42" || res.ClientID != "c1" {
		t.Errorf("Unexpected result %+v (%v)", res, err)
	}
	if inner.orders != 1 {
		t.Errorf("Expected 1 order, got %d", inner.orders)
	}
}

func TestWrapReturnsErrorsUnchanged(t *testing.T) {
	want := &types.AdapterError{Op: "fetch_candles", Code: "HTTP"}
	b := Wrap(&stubBroker{fetchErr: want, orderErr: want}, "BYBIT", nil)

	if _, err := b.FetchCandles(context.Background(), types.CandleQuery{}); !errors.Is(err, want) {
		t.Errorf("Expected the inner error, got %v", err)
	}
	if _, err := b.SubmitOrder(context.Background(), types.OrderReq{}); !errors.Is(err, want) {
		t.Errorf("Expected the inner error, got %v", err)
	}
}
