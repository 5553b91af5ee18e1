package alert

import (
	"setuplab/internal/indicator"
	"setuplab/pkg/model"
)

// IFROptions configures the IFR scan
type IFROptions struct {
	RSIPeriod   int `yaml:"rsi_period" json:"rsi_period"`
	SMAPeriod   int `yaml:"sma_period" json:"sma_period"`
	EMAPeriod   int `yaml:"ema_period" json:"ema_period"`
	MaxToSend   int `yaml:"max_to_send" json:"max_to_send"`
	HistoryDays int `yaml:"history_days" json:"history_days"`
}

// DefaultIFROptions returns the usual IFR(2) above SMA 200 scan
func DefaultIFROptions() IFROptions {
	return IFROptions{
		RSIPeriod:   2,
		SMAPeriod:   200,
		EMAPeriod:   21,
		MaxToSend:   5,
		HistoryDays: 400,
	}
}

// IFRSignal is a ticker whose latest RSI is below its reference
type IFRSignal struct {
	Ticker     string  `json:"ticker"`
	LD         float64 `json:"ld"`
	RSI        float64 `json:"rsi"`
	Reference  float64 `json:"reference"`
	Price      float64 `json:"price"`
	EMA        float64 `json:"ema"`
	EMADistPct float64 `json:"ema_dist_pct"`
	SMA        float64 `json:"sma"`
}

// EvaluateIFR checks the last bar: close above SMA and RSI below the
// ticker's reference threshold.
func EvaluateIFR(ref IFRRef, bars []model.Candle, opts IFROptions) (IFRSignal, bool) {
	if len(bars) == 0 {
		return IFRSignal{}, false
	}
	closes := model.Closes(bars)
	last := len(closes) - 1

	sma := indicator.SMA(closes, opts.SMAPeriod)[last]
	rsi := indicator.RSI(closes, opts.RSIPeriod)[last]
	ema := indicator.EMA(closes, opts.EMAPeriod, false)[last]
	price := closes[last]

	if !indicator.IsDefined(sma) || !indicator.IsDefined(rsi) || !indicator.IsDefined(ema) {
		return IFRSignal{}, false
	}
	if price <= sma || rsi >= ref.IFR {
		return IFRSignal{}, false
	}

	sig := IFRSignal{
		Ticker:    ref.Ticker,
		LD:        ref.LD,
		RSI:       rsi,
		Reference: ref.IFR,
		Price:     price,
		EMA:       ema,
		SMA:       sma,
	}
	if ema != 0 {
		sig.EMADistPct = (price - ema) / ema * 100
	}
	return sig, true
}

// Options123 configures the Setup 123 scan
type Options123 struct {
	Filter      bool `yaml:"filter" json:"filter"`
	FastEMA     int  `yaml:"fast_ema" json:"fast_ema"`
	SlowEMA     int  `yaml:"slow_ema" json:"slow_ema"`
	HistoryDays int  `yaml:"history_days" json:"history_days"`
}

// DefaultOptions123 returns the 8/80 EMA trend filter, disabled
func DefaultOptions123() Options123 {
	return Options123{
		FastEMA:     8,
		SlowEMA:     80,
		HistoryDays: 120,
	}
}

// Signal123 is a buy plan for a 123 pattern formed by the last three bars
type Signal123 struct {
	Ticker    string  `json:"ticker"`
	LD        float64 `json:"ld"`
	HasLD     bool    `json:"has_ld"`
	Entry     float64 `json:"entry"`
	Stop      float64 `json:"stop"`
	Target    float64 `json:"target"`
	Amplitude float64 `json:"amplitude"`
}

const min123Bars = 6

// Evaluate123 looks for a bottom on the second-to-last bar: its low is
// below the bar before it and the last bar's low is above it. The plan
// buys above the last high with the stop at the bottom and a target of
// twice the amplitude.
func Evaluate123(ref Ref123, bars []model.Candle, opts Options123) (Signal123, bool) {
	n := len(bars)
	if n < min123Bars {
		return Signal123{}, false
	}

	first, second, third := bars[n-3].Low, bars[n-2].Low, bars[n-1].Low
	if !(third > second && second < first) {
		return Signal123{}, false
	}

	entry := bars[n-1].High
	stop := second
	amp := entry - stop
	if amp <= 0 {
		return Signal123{}, false
	}

	if opts.Filter && !emasRising(model.Closes(bars), opts.FastEMA, opts.SlowEMA) {
		return Signal123{}, false
	}

	return Signal123{
		Ticker:    ref.Ticker,
		LD:        ref.LD,
		HasLD:     ref.HasLD,
		Entry:     entry,
		Stop:      stop,
		Target:    entry + 2*amp,
		Amplitude: amp,
	}, true
}

// emasRising reports fast above slow with both rising on the last bar.
// Needs slow+2 closes.
func emasRising(closes []float64, fast, slow int) bool {
	n := len(closes)
	if n < slow+2 {
		return false
	}
	f := indicator.EMA(closes, fast, true)
	s := indicator.EMA(closes, slow, true)
	return f[n-1] > s[n-1] && f[n-1] > f[n-2] && s[n-1] > s[n-2]
}
