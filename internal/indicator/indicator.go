// Package indicator computes indicator series aligned 1:1 with a bar series.
// Undefined values are NaN; comparisons against NaN are false, so callers can
// compare without checking warm-up first.
package indicator

import (
	"math"

	"github.com/markcheno/go-talib"
)

// nanSeries returns a slice of n NaN values
func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// IsDefined reports whether v holds a usable indicator value
func IsDefined(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// RSI calculates the IFR oscillator: exponentially weighted averages of gains
// and losses with center of mass period-1. The first period-1 values are NaN.
// When the average loss is zero the ratio is infinite and the value is 100.
func RSI(closes []float64, period int) []float64 {
	out := nanSeries(len(closes))
	if period < 1 || len(closes) == 0 {
		return out
	}

	decay := 1 - 1/float64(period)
	var gainNum, lossNum, den float64

	for i := range closes {
		var gain, loss float64
		if i > 0 {
			change := closes[i] - closes[i-1]
			if change > 0 {
				gain = change
			} else if change < 0 {
				loss = -change
			}
		}

		gainNum = gain + decay*gainNum
		lossNum = loss + decay*lossNum
		den = 1 + decay*den

		if i+1 < period {
			continue
		}

		avgGain := gainNum / den
		avgLoss := lossNum / den
		if avgLoss == 0 {
			out[i] = 100
			continue
		}
		rs := avgGain / avgLoss
		out[i] = 100 - (100 / (1 + rs))
	}

	return out
}

// SMA calculates the simple moving average; NaN until period values exist
func SMA(values []float64, period int) []float64 {
	if period < 1 || len(values) < period {
		return nanSeries(len(values))
	}

	out := talib.Sma(values, period)
	for i := 0; i < period-1; i++ {
		out[i] = math.NaN()
	}
	return out
}

// EMA calculates the exponential moving average with alpha = 2/(span+1).
// adjust=true weights every past observation like pandas' default ewm;
// adjust=false is the recursive form seeded with the first value.
func EMA(values []float64, span int, adjust bool) []float64 {
	out := nanSeries(len(values))
	if span < 1 || len(values) == 0 {
		return out
	}

	alpha := 2 / (float64(span) + 1)
	decay := 1 - alpha

	if !adjust {
		out[0] = values[0]
		for i := 1; i < len(values); i++ {
			out[i] = alpha*values[i] + decay*out[i-1]
		}
		return out
	}

	var num, den float64
	for i, v := range values {
		num = v + decay*num
		den = 1 + decay*den
		out[i] = num / den
	}
	return out
}

// MovingAverage returns an SMA or an EMA (adjusted) of period n
func MovingAverage(values []float64, period int, exponential bool) []float64 {
	if exponential {
		ema := EMA(values, period, true)
		// keep the same warm-up as the simple average
		for i := 0; i < period-1 && i < len(ema); i++ {
			ema[i] = math.NaN()
		}
		return ema
	}
	return SMA(values, period)
}

// Bands holds an EMA-centered price envelope
type Bands struct {
	Middle []float64
	Upper  []float64
	Lower  []float64
}

// Keltner calculates fixed-percentage Keltner bands:
// EMA(close, period) ± EMA × deviationPct/100
func Keltner(closes []float64, period int, deviationPct float64) Bands {
	mid := EMA(closes, period, false)
	b := Bands{
		Middle: mid,
		Upper:  make([]float64, len(mid)),
		Lower:  make([]float64, len(mid)),
	}
	for i, m := range mid {
		offset := m * deviationPct / 100
		b.Upper[i] = m + offset
		b.Lower[i] = m - offset
	}
	return b
}

// Lowest returns the minimum of values[from:to]; NaN if the window is empty
func Lowest(values []float64, from, to int) float64 {
	if from < 0 {
		from = 0
	}
	if to > len(values) {
		to = len(values)
	}
	if from >= to {
		return math.NaN()
	}
	low := values[from]
	for _, v := range values[from+1 : to] {
		if v < low {
			low = v
		}
	}
	return low
}

// Highest returns the maximum of values[from:to]; NaN if the window is empty
func Highest(values []float64, from, to int) float64 {
	if from < 0 {
		from = 0
	}
	if to > len(values) {
		to = len(values)
	}
	if from >= to {
		return math.NaN()
	}
	high := values[from]
	for _, v := range values[from+1 : to] {
		if v > high {
			high = v
		}
	}
	return high
}
