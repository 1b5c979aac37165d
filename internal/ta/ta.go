// Package ta computes technical indicator series over candle closes.
//
// Every function returns a slice aligned index-for-index with its input. Values inside the
// warm-up window are computed from the available prefix instead of being left undefined, so a
// short series still yields a usable last value.
package ta

import (
	"errors"

	"dynamic-dca-bot/internal/candle"
	"dynamic-dca-bot/internal/types"
)

// DefaultRSIPeriod is the RSI length used by the buy rules.
const DefaultRSIPeriod = 14

// neutralRSI is reported while no price movement has been observed.
const neutralRSI = 50.0

var ErrInvalidPeriod = errors.New("indicator period must be positive")

// RSI returns Wilder's Relative Strength Index for each bar of s.
func RSI(s candle.Series, period int) ([]float64, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if s.Len() == 0 {
		return nil, &types.InsufficientDataError{Indicator: "RSI", Need: 1, Got: 0}
	}
	return rsi(s.Closes(), period), nil
}

// EMA returns the exponential moving average of closes for each bar of s.
func EMA(s candle.Series, period int) ([]float64, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if s.Len() == 0 {
		return nil, &types.InsufficientDataError{Indicator: "EMA", Need: 1, Got: 0}
	}
	return ema(s.Closes(), period), nil
}

func rsi(closes []float64, period int) []float64 {
	out := make([]float64, len(closes))
	out[0] = neutralRSI

	p := float64(period)
	var sumGain, sumLoss, avgGain, avgLoss float64
	for i := 1; i < len(closes); i++ {
		gain, loss := 0.0, 0.0
		if d := closes[i] - closes[i-1]; d > 0 {
			gain = d
		} else {
			loss = -d
		}

		if i <= period {
			// seed: simple average of the deltas seen so far
			sumGain += gain
			sumLoss += loss
			avgGain = sumGain / float64(i)
			avgLoss = sumLoss / float64(i)
		} else {
			avgGain = (avgGain*(p-1) + gain) / p
			avgLoss = (avgLoss*(p-1) + loss) / p
		}

		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return neutralRSI
		}
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs))
}

func ema(closes []float64, period int) []float64 {
	out := make([]float64, len(closes))
	k := 2.0 / float64(period+1)

	var sum, cur float64
	for i, c := range closes {
		if i < period {
			// SMA of the prefix; i == period-1 is the seed
			sum += c
			cur = sum / float64(i+1)
		} else {
			cur = c*k + cur*(1-k)
		}
		out[i] = cur
	}
	return out
}
