// Package candle holds the canonical, oldest-first representation of historical price bars.
package candle

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"dynamic-dca-bot/internal/types"
)

// Candle is one OHLCV bar.
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
	Turnover  float64   `json:"turnover"`
}

// Series is an immutable sequence of candles in strictly ascending timestamp order.
// The zero value is empty and is never returned by the constructors.
type Series struct {
	candles []Candle
}

// rowFields is the exchange kline list layout: start time (ms), open, high, low, close, volume, turnover.
var rowFields = []string{"timestamp", "open", "high", "low", "close", "volume", "turnover"}

// FromRows builds a Series from raw string rows in any order (exchanges often return newest first).
func FromRows(rows [][]string) (Series, error) {
	if len(rows) == 0 {
		return Series{}, &types.MalformedDataError{Index: -1, Reason: "no bars supplied"}
	}

	cs := make([]Candle, 0, len(rows))
	for i, row := range rows {
		if len(row) < len(rowFields) {
			return Series{}, &types.MalformedDataError{
				Index:  i,
				Field:  rowFields[len(row)],
				Reason: "missing field",
			}
		}

		var (
			ms   int64
			vals [7]float64
		)
		for j, name := range rowFields {
			raw := strings.TrimSpace(row[j])
			if raw == "" {
				return Series{}, &types.MalformedDataError{Index: i, Field: name, Reason: "empty value"}
			}
			var err error
			if j == 0 {
				ms, err = strconv.ParseInt(raw, 10, 64)
			} else {
				vals[j], err = strconv.ParseFloat(raw, 64)
			}
			if err != nil {
				return Series{}, &types.MalformedDataError{Index: i, Field: name, Reason: "unparseable value", Err: err}
			}
		}

		cs = append(cs, Candle{
			Timestamp: time.UnixMilli(ms).UTC(),
			Open:      vals[1],
			High:      vals[2],
			Low:       vals[3],
			Close:     vals[4],
			Volume:    vals[5],
			Turnover:  vals[6],
		})
	}

	return FromCandles(cs)
}

// FromCandles validates typed bars and returns them as a Series. The input slice is not modified.
func FromCandles(in []Candle) (Series, error) {
	if len(in) == 0 {
		return Series{}, &types.MalformedDataError{Index: -1, Reason: "no bars supplied"}
	}

	cs := make([]Candle, len(in))
	copy(cs, in)

	for i, c := range cs {
		if c.Timestamp.IsZero() {
			return Series{}, &types.MalformedDataError{Index: i, Field: "timestamp", Reason: "missing value"}
		}
		for j, v := range [...]float64{c.Open, c.High, c.Low, c.Close, c.Volume, c.Turnover} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return Series{}, &types.MalformedDataError{Index: i, Field: rowFields[j+1], Reason: "not a finite number"}
			}
		}
	}

	sort.SliceStable(cs, func(i, j int) bool {
		return cs[i].Timestamp.Before(cs[j].Timestamp)
	})

	for i := 1; i < len(cs); i++ {
		if cs[i].Timestamp.Equal(cs[i-1].Timestamp) {
			return Series{}, &types.MalformedDataError{
				Index:  -1,
				Field:  "timestamp",
				Reason: "duplicate timestamp " + cs[i].Timestamp.Format(time.RFC3339),
			}
		}
	}

	return Series{candles: cs}, nil
}

func (s Series) Len() int { return len(s.candles) }

// At returns the i-th candle, oldest first. It panics when i is out of range, like a slice index.
func (s Series) At(i int) Candle { return s.candles[i] }

// Last returns the newest candle and false when the series is empty.
func (s Series) Last() (Candle, bool) {
	if len(s.candles) == 0 {
		return Candle{}, false
	}
	return s.candles[len(s.candles)-1], true
}

// Candles returns a copy of the bars.
func (s Series) Candles() []Candle {
	out := make([]Candle, len(s.candles))
	copy(out, s.candles)
	return out
}

// Closes returns the close prices, oldest first.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s.candles))
	for i, c := range s.candles {
		out[i] = c.Close
	}
	return out
}
