// Package liquidity ranks the tickers of a list by recent average volume.
package liquidity

import (
	"context"
	"math"
	"sort"
	"time"

	"setuplab/internal/indicator"
	"setuplab/pkg/model"
)

// DefaultPeriod is the moving-average window, in bars
const DefaultPeriod = 21

// BarSource loads the stored bars of a ticker
type BarSource interface {
	Bars(ctx context.Context, list, ticker string, start, end time.Time) ([]model.Candle, error)
}

// Entry is one ticker's latest average volume
type Entry struct {
	Ticker    string    `json:"ticker"`
	AvgVolume float64   `json:"avg_volume"` // NaN when the ticker has fewer bars than the period
	Date      time.Time `json:"date"`       // bar the average ends on
}

// Defined reports whether the average could be computed
func (e Entry) Defined() bool {
	return indicator.IsDefined(e.AvgVolume)
}

// Rank computes the moving average of volume over period bars for every
// ticker and returns the top n by their latest value, highest first.
// Tickers without enough bars sort last; n <= 0 keeps every ticker.
func Rank(ctx context.Context, src BarSource, list string, tickers []string, period, n int) ([]Entry, error) {
	if period <= 0 {
		period = DefaultPeriod
	}

	out := make([]Entry, 0, len(tickers))
	for _, ticker := range tickers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bars, err := src.Bars(ctx, list, ticker, time.Time{}, time.Time{})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		out = append(out, Latest(ticker, bars, period))
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Defined() != b.Defined() {
			return a.Defined()
		}
		return a.AvgVolume > b.AvgVolume
	})

	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// Latest returns the last value of the period-bar moving average of volume
func Latest(ticker string, bars []model.Candle, period int) Entry {
	e := Entry{Ticker: ticker, AvgVolume: math.NaN()}
	if len(bars) == 0 {
		return e
	}
	e.Date = bars[len(bars)-1].Time
	ma := indicator.SMA(model.Volumes(bars), period)
	e.AvgVolume = ma[len(ma)-1]
	return e
}
