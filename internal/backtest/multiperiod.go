package backtest

import (
	"context"
	"sort"
	"time"

	"setuplab/pkg/model"
)

// DefaultWindows are the look-back windows, in years, of the multi-period ranking
var DefaultWindows = []int{10, 5, 3, 2, 1}

// Exclusion reasons
const (
	ReasonNoData       = "no data"
	ReasonNoTrades     = "no trades in at least one window"
	ReasonNoProfit     = "non-positive profit in every window"
	ReasonBelowMinimum = "composite LD below minimum"
)

// WindowResult is the best threshold found inside one look-back window
type WindowResult struct {
	Years        int     `json:"years"`
	Threshold    float64 `json:"threshold"`
	HasThreshold bool    `json:"has_threshold"`
	Trades       int     `json:"trades"`
	ProfitPct    float64 `json:"profit_pct"`
	DrawdownPct  float64 `json:"drawdown_pct"`
	LD           float64 `json:"ld"`
}

// Ranking is one ticker's multi-period score
type Ranking struct {
	Ticker         string         `json:"ticker"`
	List           string         `json:"list"`
	Setup          string         `json:"setup"`
	Windows        []WindowResult `json:"windows"`
	AvgProfitPct   float64        `json:"avg_profit_pct"`   // per year
	AvgDrawdownPct float64        `json:"avg_drawdown_pct"` // per year
	AvgTrades      float64        `json:"avg_trades"`       // per year
	CompositeLD    float64        `json:"composite_ld"`
	BestThreshold  float64        `json:"best_threshold"`
	Excluded       bool           `json:"excluded"`
	Reason         string         `json:"reason,omitempty"`
}

// Window returns the result of the window spanning years, if it was run
func (r Ranking) Window(years int) (WindowResult, bool) {
	for _, w := range r.Windows {
		if w.Years == years {
			return w, true
		}
	}
	return WindowResult{}, false
}

// RecentThreshold returns the threshold of the shortest window that traded,
// the reference level for alerts and exports
func (r Ranking) RecentThreshold() (float64, bool) {
	recent := 0
	var threshold float64
	for _, w := range r.Windows {
		if w.Trades > 0 && w.Years > 0 && (recent == 0 || w.Years < recent) {
			recent = w.Years
			threshold = w.Threshold
		}
	}
	return threshold, recent > 0
}

// RankOptions tunes a multi-period ranking
type RankOptions struct {
	Windows []int    // years; DefaultWindows when empty
	MinLD   *float64 // drop tickers below this composite LD
}

// RankTicker scores one ticker over every window. Each window ends at the
// ticker's last bar and starts 365 days per year before it; the threshold
// with the best LD among runs that traded represents the window. Averages
// skip zero values field by field.
func RankTicker(ticker string, bars []model.Candle, p Params, values []float64, opts RankOptions) Ranking {
	windows := opts.Windows
	if len(windows) == 0 {
		windows = DefaultWindows
	}

	rk := Ranking{Ticker: ticker, Windows: make([]WindowResult, 0, len(windows))}
	if p.Setup != nil {
		rk.Setup = p.Setup.Name()
	}
	if len(bars) == 0 {
		rk.Excluded = true
		rk.Reason = ReasonNoData
		return rk
	}

	last := bars[len(bars)-1].Time
	for _, years := range windows {
		run := p
		run.Start = last.AddDate(0, 0, -365*years)
		run.End = last

		w := WindowResult{Years: years}
		var traded []*RunResult
		for _, r := range SweepThresholds(ticker, bars, run, values, nil) {
			if r.TradeCount > 0 {
				traded = append(traded, r)
			}
		}
		if best := Best(traded, MetricLD); best != nil {
			w.Threshold, w.HasThreshold = best.Threshold, best.HasThreshold
			w.Trades = best.TradeCount
			w.ProfitPct = best.ResultPct
			w.DrawdownPct = best.DrawdownPct
			w.LD = best.LDIndex
		}
		rk.Windows = append(rk.Windows, w)
	}
	rk.summarize()

	positive := false
	for _, w := range rk.Windows {
		if w.Trades == 0 && !rk.Excluded {
			rk.Excluded = true
			rk.Reason = ReasonNoTrades
		}
		if w.ProfitPct > 0 {
			positive = true
		}
	}
	if !rk.Excluded && !positive {
		rk.Excluded = true
		rk.Reason = ReasonNoProfit
	}
	if !rk.Excluded && opts.MinLD != nil && rk.CompositeLD < *opts.MinLD {
		rk.Excluded = true
		rk.Reason = ReasonBelowMinimum
	}
	return rk
}

// summarize annualises every window and averages the results. Zero values
// are left out field by field.
func (r *Ranking) summarize() {
	var profit, drawdown, trades average
	for _, w := range r.Windows {
		if w.Years <= 0 {
			continue
		}
		y := float64(w.Years)
		profit.add(w.ProfitPct / y)
		drawdown.add(w.DrawdownPct / y)
		trades.add(float64(w.Trades) / y)
	}

	r.AvgProfitPct = profit.value()
	r.AvgDrawdownPct = drawdown.value()
	r.AvgTrades = trades.value()
	r.CompositeLD = 0
	if r.AvgDrawdownPct != 0 {
		r.CompositeLD = r.AvgProfitPct / r.AvgDrawdownPct
	}
	r.BestThreshold, _ = r.RecentThreshold()
}

// average is a mean over the non-zero values it was given
type average struct {
	sum float64
	n   int
}

func (a *average) add(v float64) {
	if v != 0 {
		a.sum += v
		a.n++
	}
}

func (a average) value() float64 {
	if a.n == 0 {
		return 0
	}
	return a.sum / float64(a.n)
}

// RankMultiPeriod ranks every ticker of a list sequentially. The result is
// sorted by composite LD, descending, with excluded tickers after the rest.
func RankMultiPeriod(ctx context.Context, src BarSource, list string, tickers []string, p Params, values []float64, opts RankOptions, progress ProgressFunc) ([]Ranking, error) {
	out := make([]Ranking, 0, len(tickers))
	for i, ticker := range tickers {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		bars, err := src.Bars(ctx, list, ticker, time.Time{}, time.Time{})
		var rk Ranking
		if err != nil {
			rk = Ranking{Ticker: ticker, Excluded: true, Reason: ReasonNoData}
			if p.Setup != nil {
				rk.Setup = p.Setup.Name()
			}
		} else {
			rk = RankTicker(ticker, bars, p, values, opts)
		}
		rk.List = list
		out = append(out, rk)

		if progress != nil {
			progress(i+1, len(tickers), ticker)
		}
	}

	SortRankings(out)
	return out, nil
}

// SortRankings orders by composite LD, descending, excluded entries last
func SortRankings(rankings []Ranking) {
	sort.SliceStable(rankings, func(i, j int) bool {
		a, b := rankings[i], rankings[j]
		if a.Excluded != b.Excluded {
			return !a.Excluded
		}
		return a.CompositeLD > b.CompositeLD
	})
}

// Eligible returns the rankings that were not excluded, keeping their order
func Eligible(rankings []Ranking) []Ranking {
	out := make([]Ranking, 0, len(rankings))
	for _, r := range rankings {
		if !r.Excluded {
			out = append(out, r)
		}
	}
	return out
}
