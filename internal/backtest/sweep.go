package backtest

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"setuplab/pkg/model"
)

// ProgressFunc is called after each completed unit of work
type ProgressFunc func(done, total int, label string)

// BarSource loads a ticker's daily bars. Zero start or end means unbounded.
type BarSource interface {
	Bars(ctx context.Context, list, ticker string, start, end time.Time) ([]model.Candle, error)
}

// Range returns the inclusive values lo, lo+step, ..., hi
func Range(lo, hi, step float64) []float64 {
	if step <= 0 || hi < lo {
		return []float64{lo}
	}
	n := int(math.Floor((hi-lo)/step+1e-9)) + 1
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

// SweepThresholds runs the setup once per threshold value. A setup without
// a threshold, or an empty value list, runs once with its own parameters.
func SweepThresholds(ticker string, bars []model.Candle, p Params, values []float64, progress ProgressFunc) []*RunResult {
	if p.Setup == nil {
		return []*RunResult{Run(ticker, bars, p)}
	}
	if _, ok := p.Setup.Threshold(); !ok || len(values) == 0 {
		r := Run(ticker, bars, p)
		if progress != nil {
			progress(1, 1, ticker)
		}
		return []*RunResult{r}
	}

	results := make([]*RunResult, 0, len(values))
	for i, v := range values {
		run := p
		run.Setup = p.Setup.WithThreshold(v)
		results = append(results, Run(ticker, bars, run))
		if progress != nil {
			progress(i+1, len(values), fmt.Sprintf("%s @ %g", ticker, v))
		}
	}
	return results
}

// TickerResult is the outcome of sweeping one ticker of a list
type TickerResult struct {
	Ticker string       `json:"ticker"`
	List   string       `json:"list"`
	Best   *RunResult   `json:"best,omitempty"`
	Runs   []*RunResult `json:"-"`
	Err    string       `json:"error,omitempty"`
}

// SweepTickers sweeps thresholds for every ticker of a list, one after the
// other, and keeps the best run per ticker by metric. A ticker whose bars
// cannot be loaded is reported with Err and does not stop the sweep.
// Results come back sorted by the best run's metric.
func SweepTickers(ctx context.Context, src BarSource, list string, tickers []string, p Params, values []float64, metric Metric, progress ProgressFunc) ([]TickerResult, error) {
	out := make([]TickerResult, 0, len(tickers))

	for i, ticker := range tickers {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		tr := TickerResult{Ticker: ticker, List: list}
		bars, err := src.Bars(ctx, list, ticker, time.Time{}, time.Time{})
		if err != nil {
			tr.Err = err.Error()
		} else {
			tr.Runs = SweepThresholds(ticker, bars, p, values, nil)
			for _, r := range tr.Runs {
				r.List = list
			}
			tr.Best = Best(tr.Runs, metric)
		}
		out = append(out, tr)

		if progress != nil {
			progress(i+1, len(tickers), ticker)
		}
	}

	SortTickers(out, metric)
	return out, nil
}

// SortTickers orders ticker results by their best run, failed tickers last
func SortTickers(results []TickerResult, metric Metric) {
	sort.SliceStable(results, func(i, j int) bool {
		return better(results[i].best(), results[j].best(), metric)
	})
}

func (t TickerResult) best() *RunResult {
	if t.Best == nil {
		return &RunResult{}
	}
	return t.Best
}
