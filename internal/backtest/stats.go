package backtest

import (
	"math"
	"sort"
)

// computeStats fills the summary fields of result from its trades.
// The equity curve starts at the initial capital.
func computeStats(result *RunResult, capital float64) {
	equity := capital
	curve := make([]float64, 0, len(result.Trades)+1)
	curve = append(curve, capital)

	var grossGain, grossLoss float64
	var wins, losses int

	for i := range result.Trades {
		t := &result.Trades[i]
		if t.IsWin() {
			wins++
			grossGain += t.Profit
		} else {
			losses++
			grossLoss += t.Profit
		}
		equity += t.Profit
		t.Capital = equity
		curve = append(curve, equity)
	}

	result.TradeCount = len(result.Trades)
	result.Wins = wins
	result.TotalProfit = grossGain + grossLoss
	result.FinalCapital = equity
	result.EquityCurve = curve

	if result.TradeCount == 0 {
		return
	}

	result.WinRate = float64(wins) / float64(result.TradeCount) * 100
	if capital > 0 {
		result.ResultPct = (equity - capital) / capital * 100
	}
	if wins > 0 {
		result.AvgGain = grossGain / float64(wins)
	}
	if losses > 0 {
		result.AvgLoss = grossLoss / float64(losses)
	}

	result.DrawdownPct = MaxDrawdownPct(curve)
	result.ProfitFactor = ProfitFactor(grossGain, grossLoss)
	result.LDIndex = LDIndex(result.ResultPct, result.DrawdownPct)
}

// MaxDrawdownPct returns the largest peak-to-trough drop of the curve as a
// percentage of the curve's highest value
func MaxDrawdownPct(curve []float64) float64 {
	if len(curve) == 0 {
		return 0
	}
	peak := curve[0]
	top := curve[0]
	var maxDD float64
	for _, v := range curve {
		if v > peak {
			peak = v
		}
		if v > top {
			top = v
		}
		if dd := peak - v; dd > maxDD {
			maxDD = dd
		}
	}
	if top <= 0 {
		return 0
	}
	return maxDD / top * 100
}

// ProfitFactor is gross gains over the absolute gross losses; 0 without losses
func ProfitFactor(grossGain, grossLoss float64) float64 {
	if grossLoss == 0 {
		return 0
	}
	return grossGain / math.Abs(grossLoss)
}

// LDIndex is the result percentage per percentage of drawdown; 0 without drawdown
func LDIndex(resultPct, drawdownPct float64) float64 {
	if drawdownPct == 0 {
		return 0
	}
	return resultPct / drawdownPct
}

// Best returns the result with the highest metric. Runs with trades beat
// runs without, and the first one encountered wins ties.
func Best(results []*RunResult, metric Metric) *RunResult {
	var best *RunResult
	for _, r := range results {
		if r == nil {
			continue
		}
		if best == nil || better(r, best, metric) {
			best = r
		}
	}
	return best
}

// SortBy orders results by metric, descending. Zero-trade runs go last and
// equal values keep their input order.
func SortBy(results []*RunResult, metric Metric) {
	sort.SliceStable(results, func(i, j int) bool {
		return better(results[i], results[j], metric)
	})
}

func better(a, b *RunResult, metric Metric) bool {
	if (a.TradeCount > 0) != (b.TradeCount > 0) {
		return a.TradeCount > 0
	}
	return metric.Value(a) > metric.Value(b)
}
