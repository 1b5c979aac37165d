package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"

	"dynamic-dca-bot/internal/types"
)

func find(t *testing.T, m *Metrics, name string, labels map[string]string) *dto.Metric {
	t.Helper()
	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("Expected no gather error, got %v", err)
	}
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
	next:
		for _, metric := range f.GetMetric() {
			for _, lp := range metric.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					continue next
				}
			}
			return metric
		}
	}
	return nil
}

func TestObserveCycleSuccess(t *testing.T) {
	m := New("")
	m.ObserveCycle(&types.StepResult{
		Mode:     types.ModeSimulate,
		Snapshot: types.IndicatorSnapshot{LatestClose: 42000, LatestRSI: 31.5, LatestEMA: 43000, HasEMA: true},
		Decision: types.TradeDecision{ShouldBuy: true},
		Order:    &types.OrderResult{Simulated: true},
	}, nil, 120*time.Millisecond)

	if c := find(t, m, "dca_cycles_total", map[string]string{"result": "ok"}); c == nil || c.GetCounter().GetValue() != 1 {
		t.Errorf("Expected one ok cycle, got %v", c)
	}
	if c := find(t, m, "dca_decisions_total", map[string]string{"should_buy": "true"}); c == nil || c.GetCounter().GetValue() != 1 {
		t.Errorf("Expected one buy decision, got %v", c)
	}
	if c := find(t, m, "dca_orders_total", map[string]string{"mode": "SIMULATE"}); c == nil || c.GetCounter().GetValue() != 1 {
		t.Errorf("Expected one simulated order, got %v", c)
	}
	if g := find(t, m, "dca_last_rsi", nil); g == nil || g.GetGauge().GetValue() != 31.5 {
		t.Errorf("Expected last RSI 31.5, got %v", g)
	}
}

func TestObserveCycleErrorKind(t *testing.T) {
	m := New("")
	m.ObserveCycle(nil, &types.AdapterError{Op: "fetch_candles", Code: "HTTP"}, time.Second)
	m.ObserveCycle(nil, errors.New("boom"), time.Second)

	if c := find(t, m, "dca_cycle_errors_total", map[string]string{"kind": types.KindAdapter}); c == nil || c.GetCounter().GetValue() != 1 {
		t.Errorf("Expected one adapter error, got %v", c)
	}
	if c := find(t, m, "dca_cycle_errors_total", map[string]string{"kind": types.KindOther}); c == nil || c.GetCounter().GetValue() != 1 {
		t.Errorf("Expected one other error, got %v", c)
	}
	if c := find(t, m, "dca_cycles_total", map[string]string{"result": "error"}); c == nil || c.GetCounter().GetValue() != 2 {
		t.Errorf("Expected two failed cycles, got %v", c)
	}
}

func TestObserveAdapterCall(t *testing.T) {
	m := New("")
	m.ObserveAdapterCall("fetch_candles", nil, 50*time.Millisecond)

	h := find(t, m, "dca_adapter_call_duration_seconds", map[string]string{"op": "fetch_candles", "result": "ok"})
	if h == nil || h.GetHistogram().GetSampleCount() != 1 {
		t.Errorf("Expected one adapter call sample, got %v", h)
	}
}

func TestFlushWritesTextfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dca.prom")
	m := New(path)
	m.ObserveCycle(nil, errors.New("boom"), time.Second)

	if err := m.Flush(); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected textfile, got %v", err)
	}
	if !strings.Contains(string(raw), `dca_cycles_total{result="error"} 1`) {
		t.Errorf("Expected cycles counter in textfile, got:\n%s", raw)
	}
}

func TestFlushWithoutPathIsNoop(t *testing.T) {
	if err := New("").Flush(); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}
