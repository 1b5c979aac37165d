package strategy

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"dynamic-dca-bot/internal/candle"
	"dynamic-dca-bot/internal/ta"
	"dynamic-dca-bot/internal/types"
)

func seriesOf(t *testing.T, closes ...float64) candle.Series {
	t.Helper()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cs := make([]candle.Candle, len(closes))
	for i, c := range closes {
		cs[i] = candle.Candle{Timestamp: base.AddDate(0, 0, i), Close: c}
	}
	s, err := candle.FromCandles(cs)
	if err != nil {
		t.Fatalf("building series: %v", err)
	}
	return s
}

func TestEvaluate_AllConditionsMet(t *testing.T) {
	cfg := Config{RSIBuyThreshold: 50, UseEMAFilter: true, EMAPeriod: 50}
	d := Evaluate(types.IndicatorSnapshot{LatestClose: 90, LatestRSI: 30, LatestEMA: 100, HasEMA: true}, cfg)

	if !d.ShouldBuy {
		t.Errorf("Expected ShouldBuy, got reasons %v", d.Reasons)
	}
	if len(d.Reasons) != 0 {
		t.Errorf("Expected no reasons, got %v", d.Reasons)
	}
}

func TestEvaluate_RSIEqualToThresholdIsUnmet(t *testing.T) {
	cfg := Config{RSIBuyThreshold: 50}
	d := Evaluate(types.IndicatorSnapshot{LatestClose: 100, LatestRSI: 50}, cfg)

	if d.ShouldBuy {
		t.Error("Expected RSI == threshold to block the buy")
	}
	if len(d.Reasons) != 1 || !strings.Contains(d.Reasons[0], "RSI") {
		t.Errorf("Expected one RSI reason, got %v", d.Reasons)
	}
}

func TestEvaluate_CloseEqualToEMAIsUnmet(t *testing.T) {
	cfg := Config{RSIBuyThreshold: 50, UseEMAFilter: true, EMAPeriod: 50}
	d := Evaluate(types.IndicatorSnapshot{LatestClose: 100, LatestRSI: 10, LatestEMA: 100, HasEMA: true}, cfg)

	if d.ShouldBuy {
		t.Error("Expected close == EMA to block the buy")
	}
	if len(d.Reasons) != 1 || !strings.Contains(d.Reasons[0], "EMA") {
		t.Errorf("Expected one EMA reason, got %v", d.Reasons)
	}
}

func TestEvaluate_CollectsAllReasonsInOrder(t *testing.T) {
	cfg := Config{RSIBuyThreshold: 50, UseEMAFilter: true, EMAPeriod: 50}
	d := Evaluate(types.IndicatorSnapshot{LatestClose: 120, LatestRSI: 70, LatestEMA: 100, HasEMA: true}, cfg)

	if d.ShouldBuy {
		t.Fatal("Expected no buy")
	}
	if len(d.Reasons) != 2 {
		t.Fatalf("Expected 2 reasons, got %v", d.Reasons)
	}
	if !strings.HasPrefix(d.Reasons[0], "RSI") || !strings.HasPrefix(d.Reasons[1], "Price") {
		t.Errorf("Expected RSI reason then price reason, got %v", d.Reasons)
	}
}

func TestEvaluate_CloseAboveEMAOnlyReason(t *testing.T) {
	cfg := Config{RSIBuyThreshold: 50, UseEMAFilter: true, EMAPeriod: 20}
	d := Evaluate(types.IndicatorSnapshot{LatestClose: 105, LatestRSI: 35, LatestEMA: 100, HasEMA: true}, cfg)

	if d.ShouldBuy {
		t.Fatal("Expected close above EMA to block the buy")
	}
	if len(d.Reasons) != 1 || !strings.Contains(d.Reasons[0], "EMA(20)") {
		t.Errorf("Expected exactly one reason citing EMA(20), got %v", d.Reasons)
	}
}

func TestEvaluate_EMAFilterWithoutValue(t *testing.T) {
	cfg := Config{RSIBuyThreshold: 50, UseEMAFilter: true, EMAPeriod: 20}
	d := Evaluate(types.IndicatorSnapshot{LatestClose: 90, LatestRSI: 10}, cfg)

	if d.ShouldBuy {
		t.Error("Expected missing EMA to block the buy")
	}
}

func TestEvaluate_EMAIgnoredWhenFilterDisabled(t *testing.T) {
	cfg := Config{RSIBuyThreshold: 50}
	d := Evaluate(types.IndicatorSnapshot{LatestClose: 200, LatestRSI: 10, LatestEMA: 100, HasEMA: true}, cfg)

	if !d.ShouldBuy {
		t.Errorf("Expected buy with EMA filter disabled, got %v", d.Reasons)
	}
}

func TestEvaluate_IsPure(t *testing.T) {
	cfg := Config{RSIBuyThreshold: 45.5, UseEMAFilter: true, EMAPeriod: 50}
	snap := types.IndicatorSnapshot{LatestClose: 101.25, LatestRSI: 48.123, LatestEMA: 99.5, HasEMA: true}

	first := Evaluate(snap, cfg)
	second := Evaluate(snap, cfg)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected identical decisions, got %+v and %+v", first, second)
	}
}

func TestBuildSnapshot_DecreasingSeriesBuys(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 200 - 3*float64(i)
	}
	cfg := Config{RSIBuyThreshold: 50}

	snap, err := BuildSnapshot(seriesOf(t, closes...), cfg)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if snap.HasEMA {
		t.Error("Expected no EMA when the filter is disabled")
	}
	if snap.LatestClose != closes[len(closes)-1] {
		t.Errorf("Expected latest close %v, got %v", closes[len(closes)-1], snap.LatestClose)
	}
	if snap.LatestRSI >= 50 {
		t.Fatalf("Expected RSI below 50, got %v", snap.LatestRSI)
	}

	if d := Evaluate(snap, cfg); !d.ShouldBuy {
		t.Errorf("Expected buy, got reasons %v", d.Reasons)
	}
}

func TestBuildSnapshot_FlatSeriesDoesNotBuy(t *testing.T) {
	closes := make([]float64, 10)
	for i := range closes {
		closes[i] = 100
	}
	cfg := Config{RSIBuyThreshold: 50, UseEMAFilter: true, EMAPeriod: 50}

	snap, err := BuildSnapshot(seriesOf(t, closes...), cfg)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if snap.LatestRSI != 50 {
		t.Errorf("Expected neutral RSI 50 for a flat series, got %v", snap.LatestRSI)
	}
	if snap.LatestEMA != 100 {
		t.Errorf("Expected EMA 100 for a flat series, got %v", snap.LatestEMA)
	}

	d := Evaluate(snap, cfg)
	if d.ShouldBuy {
		t.Fatal("Expected no buy for a flat series")
	}
	if len(d.Reasons) != 2 {
		t.Errorf("Expected both RSI and EMA reasons, got %v", d.Reasons)
	}
}

func TestBuildSnapshot_MatchesIndicatorTail(t *testing.T) {
	closes := []float64{10, 12, 11, 15, 14, 13, 18, 17, 16, 19, 21, 20, 18, 17, 22, 23}
	s := seriesOf(t, closes...)
	cfg := Config{RSIBuyThreshold: 60, UseEMAFilter: true, EMAPeriod: 5}

	snap, err := BuildSnapshot(s, cfg)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	rsi, _ := ta.RSI(s, ta.DefaultRSIPeriod)
	ema, _ := ta.EMA(s, 5)
	if snap.LatestRSI != rsi[len(rsi)-1] || snap.LatestEMA != ema[len(ema)-1] {
		t.Errorf("Expected snapshot to carry the last indicator values, got %+v", snap)
	}
}

func TestBuildSnapshot_EmptySeries(t *testing.T) {
	_, err := BuildSnapshot(candle.Series{}, Config{RSIBuyThreshold: 50})
	if types.ErrorKind(err) != types.KindInsufficientData {
		t.Errorf("Expected insufficient data error, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := (Config{RSIBuyThreshold: 50, UseEMAFilter: true, EMAPeriod: 50}).Validate(); err != nil {
		t.Errorf("Expected valid config, got %v", err)
	}
	if err := (Config{RSIBuyThreshold: 50, UseEMAFilter: true}).Validate(); err == nil {
		t.Error("Expected error for zero EMA period with filter enabled")
	}
	if err := (Config{RSIBuyThreshold: 150}).Validate(); err == nil {
		t.Error("Expected error for threshold above 100")
	}
}
