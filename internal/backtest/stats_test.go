package backtest

import (
	"math"
	"testing"
)

func TestMaxDrawdownPct(t *testing.T) {
	tests := []struct {
		name  string
		curve []float64
		want  float64
	}{
		{"empty", nil, 0},
		{"only rising", []float64{100, 110, 120}, 0},
		{"dip then new high", []float64{100, 120, 90, 130}, 30.0 / 130 * 100},
		{"two dips, deeper second", []float64{100, 95, 110, 80}, 30.0 / 110 * 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MaxDrawdownPct(tt.curve)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Expected %f, got %f", tt.want, got)
			}
		})
	}
}

func TestZeroDenominators(t *testing.T) {
	if got := LDIndex(25, 0); got != 0 {
		t.Errorf("Expected LD 0 without drawdown, got %f", got)
	}
	if got := ProfitFactor(500, 0); got != 0 {
		t.Errorf("Expected profit factor 0 without losses, got %f", got)
	}
	if got := ProfitFactor(10, -5); got != 2 {
		t.Errorf("Expected profit factor 2, got %f", got)
	}
	if got := LDIndex(30, 10); got != 3 {
		t.Errorf("Expected LD 3, got %f", got)
	}
}

func TestComputeStats(t *testing.T) {
	result := &RunResult{Trades: []Trade{
		{Profit: 1000},
		{Profit: -500},
		{Profit: 0},
		{Profit: 2000},
	}}

	computeStats(result, 10000)

	if result.TradeCount != 4 || result.Wins != 2 {
		t.Errorf("Expected 4 trades and 2 wins, got %d / %d", result.TradeCount, result.Wins)
	}
	if result.WinRate != 50 {
		t.Errorf("Expected win rate 50, got %f", result.WinRate)
	}
	if result.FinalCapital != 12500 {
		t.Errorf("Expected final capital 12500, got %f", result.FinalCapital)
	}
	if result.ResultPct != 25 {
		t.Errorf("Expected result 25%%, got %f", result.ResultPct)
	}
	// a zero-profit trade counts as a loss
	if result.AvgLoss != -250 {
		t.Errorf("Expected average loss -250, got %f", result.AvgLoss)
	}
	if result.AvgGain != 1500 {
		t.Errorf("Expected average gain 1500, got %f", result.AvgGain)
	}
	if result.ProfitFactor != 6 {
		t.Errorf("Expected profit factor 6, got %f", result.ProfitFactor)
	}
	wantDD := 500.0 / 12500 * 100
	if math.Abs(result.DrawdownPct-wantDD) > 1e-9 {
		t.Errorf("Expected drawdown %f, got %f", wantDD, result.DrawdownPct)
	}
	if math.Abs(result.LDIndex-25/wantDD) > 1e-9 {
		t.Errorf("Expected LD %f, got %f", 25/wantDD, result.LDIndex)
	}
	if result.Trades[1].Capital != 10500 {
		t.Errorf("Expected capital 10500 after the second trade, got %f", result.Trades[1].Capital)
	}
	if len(result.EquityCurve) != 5 {
		t.Errorf("Expected 5 equity points, got %d", len(result.EquityCurve))
	}
}

func TestBestAndSortBy(t *testing.T) {
	none := &RunResult{Threshold: 1}
	a := &RunResult{Threshold: 2, TradeCount: 3, TotalProfit: -100, LDIndex: 1}
	b := &RunResult{Threshold: 3, TradeCount: 2, TotalProfit: 500, LDIndex: 2}
	c := &RunResult{Threshold: 4, TradeCount: 1, TotalProfit: 500, LDIndex: 0.5}

	if got := Best([]*RunResult{none, a, b, c}, MetricProfit); got != b {
		t.Errorf("Expected first of the tied winners (3), got %v", got.Threshold)
	}
	if got := Best([]*RunResult{none, a}, MetricProfit); got != a {
		t.Error("Expected a run with trades to beat a run without")
	}
	if got := Best(nil, MetricLD); got != nil {
		t.Error("Expected nil for no results")
	}

	results := []*RunResult{none, c, a, b}
	SortBy(results, MetricLD)
	want := []float64{3, 2, 4, 1}
	for i, r := range results {
		if r.Threshold != want[i] {
			t.Errorf("Position %d: expected threshold %v, got %v", i, want[i], r.Threshold)
		}
	}
}

func TestParseMetric(t *testing.T) {
	if m, err := ParseMetric("ld"); err != nil || m != MetricLD {
		t.Errorf("Expected ld, got %v (%v)", m, err)
	}
	if m, err := ParseMetric(""); err != nil || m != MetricProfit {
		t.Errorf("Expected profit as default, got %v (%v)", m, err)
	}
	if _, err := ParseMetric("sharpe"); err == nil {
		t.Error("Expected error for unknown metric")
	}
}
