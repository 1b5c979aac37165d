// Package metrics exposes cycle and adapter metrics in the Prometheus data model. No HTTP listener is
// started; when a textfile path is configured the registry is written after each cycle for a node
// exporter textfile collector to pick up.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"dynamic-dca-bot/internal/types"
)

const namespace = "dca"

type Metrics struct {
	CyclesTotal     *prometheus.CounterVec // labels: result=ok|error
	ErrorsTotal     *prometheus.CounterVec // labels: kind
	DecisionsTotal  *prometheus.CounterVec // labels: should_buy
	OrdersTotal     *prometheus.CounterVec // labels: mode
	CycleDur        prometheus.Histogram
	AdapterCallDur  *prometheus.HistogramVec // labels: op, result
	LastClose       prometheus.Gauge
	LastRSI         prometheus.Gauge
	LastEMA         prometheus.Gauge
	LastCycleUnixTs prometheus.Gauge

	registry     *prometheus.Registry
	textfilePath string
}

// New registers all metrics on a private registry.
func New(textfilePath string) *Metrics {
	m := &Metrics{
		CyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Evaluation cycles run, by result",
		}, []string{"result"}),
		ErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycle_errors_total",
			Help:      "Failed cycles by error kind",
		}, []string{"kind"}),
		DecisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Buy decisions by outcome",
		}, []string{"should_buy"}),
		OrdersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_total",
			Help:      "Orders submitted or simulated, by execution mode",
		}, []string{"mode"}),
		CycleDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of one evaluation cycle",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		AdapterCallDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "adapter_call_duration_seconds",
			Help:      "Exchange adapter call latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op", "result"}),
		LastClose: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_close",
			Help:      "Latest close seen by the strategy",
		}),
		LastRSI: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_rsi",
			Help:      "Latest RSI(14)",
		}),
		LastEMA: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_ema",
			Help:      "Latest EMA, 0 when the filter is disabled",
		}),
		LastCycleUnixTs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_cycle_timestamp_seconds",
			Help:      "Unix time the last cycle finished",
		}),
		registry:     prometheus.NewRegistry(),
		textfilePath: textfilePath,
	}

	m.registry.MustRegister(
		m.CyclesTotal,
		m.ErrorsTotal,
		m.DecisionsTotal,
		m.OrdersTotal,
		m.CycleDur,
		m.AdapterCallDur,
		m.LastClose,
		m.LastRSI,
		m.LastEMA,
		m.LastCycleUnixTs,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveCycle records the outcome of one Step. res is nil when err is set.
func (m *Metrics) ObserveCycle(res *types.StepResult, err error, d time.Duration) {
	m.CycleDur.Observe(d.Seconds())
	m.LastCycleUnixTs.SetToCurrentTime()

	if err != nil {
		m.CyclesTotal.WithLabelValues("error").Inc()
		m.ErrorsTotal.WithLabelValues(types.ErrorKind(err)).Inc()
		return
	}
	m.CyclesTotal.WithLabelValues("ok").Inc()
	if res == nil {
		return
	}

	m.DecisionsTotal.WithLabelValues(strconv.FormatBool(res.Decision.ShouldBuy)).Inc()
	m.LastClose.Set(res.Snapshot.LatestClose)
	m.LastRSI.Set(res.Snapshot.LatestRSI)
	if res.Snapshot.HasEMA {
		m.LastEMA.Set(res.Snapshot.LatestEMA)
	} else {
		m.LastEMA.Set(0)
	}
	if res.Order != nil {
		m.OrdersTotal.WithLabelValues(string(res.Mode)).Inc()
	}
}

func (m *Metrics) ObserveAdapterCall(op string, err error, d time.Duration) {
	result := "ok"
	if err != nil {
		result = types.ErrorKind(err)
	}
	m.AdapterCallDur.WithLabelValues(op, result).Observe(d.Seconds())
}

// Flush writes the registry to the configured textfile. It is a no-op without a path.
func (m *Metrics) Flush() error {
	if m.textfilePath == "" {
		return nil
	}
	return prometheus.WriteToTextfile(m.textfilePath, m.registry)
}
