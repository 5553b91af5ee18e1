package backtest

import (
	"context"
	"math"
	"testing"

	"setuplab/pkg/model"
)

func flatBars(n int, price float64) []model.Candle {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = price
	}
	return closeBars(closes...)
}

func TestRankTickerNoData(t *testing.T) {
	rk := RankTicker("TEST", nil, ifrParams(10), nil, RankOptions{})
	if !rk.Excluded || rk.Reason != ReasonNoData {
		t.Errorf("Expected exclusion for no data, got %+v", rk)
	}
}

func TestRankTickerNoTrades(t *testing.T) {
	rk := RankTicker("TEST", flatBars(800, 10), ifrParams(10), []float64{10, 20}, RankOptions{Windows: []int{2, 1}})

	if !rk.Excluded || rk.Reason != ReasonNoTrades {
		t.Errorf("Expected exclusion for missing trades, got %q", rk.Reason)
	}
	if len(rk.Windows) != 2 {
		t.Errorf("Expected 2 windows, got %d", len(rk.Windows))
	}
	if rk.CompositeLD != 0 {
		t.Errorf("Expected composite LD 0, got %f", rk.CompositeLD)
	}
}

func TestRankTickerComposite(t *testing.T) {
	p := Params{Setup: &IFRSetup{Period: 2, Entry: 30, ExitWindow: 2, StopLoss: &StopLoss{Pct: 3}}, Capital: 100000}
	rk := RankTicker("TEST", waveBars(900), p, []float64{20, 30, 40}, RankOptions{Windows: []int{2, 1}})

	for _, years := range []int{2, 1} {
		w, ok := rk.Window(years)
		if !ok {
			t.Fatalf("Expected a %d-year window", years)
		}
		if w.Trades == 0 {
			t.Errorf("Expected trades in the %d-year window", years)
		}
		if !w.HasThreshold {
			t.Errorf("Expected a best threshold in the %d-year window", years)
		}
	}

	w2, _ := rk.Window(2)
	w1, _ := rk.Window(1)
	wantProfit := (w2.ProfitPct/2 + w1.ProfitPct) / 2
	if math.Abs(rk.AvgProfitPct-wantProfit) > 1e-9 {
		t.Errorf("Expected annualised profit %f, got %f", wantProfit, rk.AvgProfitPct)
	}
	wantTrades := (float64(w2.Trades)/2 + float64(w1.Trades)) / 2
	if math.Abs(rk.AvgTrades-wantTrades) > 1e-9 {
		t.Errorf("Expected annualised trades %f, got %f", wantTrades, rk.AvgTrades)
	}
	if rk.AvgDrawdownPct != 0 {
		if math.Abs(rk.CompositeLD-rk.AvgProfitPct/rk.AvgDrawdownPct) > 1e-9 {
			t.Errorf("Expected composite LD %f, got %f", rk.AvgProfitPct/rk.AvgDrawdownPct, rk.CompositeLD)
		}
	}
}

func TestRankTickerMinLD(t *testing.T) {
	p := Params{Setup: &IFRSetup{Period: 2, Entry: 30, ExitWindow: 2, StopLoss: &StopLoss{Pct: 3}}, Capital: 100000}
	bars := waveBars(900)

	rk := RankTicker("TEST", bars, p, nil, RankOptions{Windows: []int{1}})
	if rk.Excluded {
		t.Skipf("series excluded for %q", rk.Reason)
	}

	minLD := rk.CompositeLD + 1
	rk = RankTicker("TEST", bars, p, nil, RankOptions{Windows: []int{1}, MinLD: &minLD})
	if !rk.Excluded || rk.Reason != ReasonBelowMinimum {
		t.Errorf("Expected exclusion below minimum LD, got %q", rk.Reason)
	}
}

func TestRankMultiPeriod(t *testing.T) {
	src := memSource{
		"FLAT": flatBars(800, 10),
		"WAVE": waveBars(800),
	}
	p := Params{Setup: &IFRSetup{Period: 2, Entry: 30, ExitWindow: 2}, Capital: 100000}

	rankings, err := RankMultiPeriod(context.Background(), src, "SMLL", []string{"FLAT", "GONE", "WAVE"}, p, nil, RankOptions{Windows: []int{1}}, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(rankings) != 3 {
		t.Fatalf("Expected 3 rankings, got %d", len(rankings))
	}
	for _, rk := range rankings {
		if rk.List != "SMLL" {
			t.Errorf("Expected list SMLL, got %q", rk.List)
		}
	}
	for i := 1; i < len(rankings); i++ {
		if rankings[i-1].Excluded && !rankings[i].Excluded {
			t.Errorf("Excluded ticker %s sorted before %s", rankings[i-1].Ticker, rankings[i].Ticker)
		}
	}

	var gone Ranking
	for _, rk := range rankings {
		if rk.Ticker == "GONE" {
			gone = rk
		}
	}
	if gone.Reason != ReasonNoData {
		t.Errorf("Expected the missing ticker excluded for no data, got %q", gone.Reason)
	}
	if got := len(Eligible(rankings)); got > 1 {
		t.Errorf("Expected at most one eligible ticker, got %d", got)
	}
}

func TestSummarizeSkipsZeroValues(t *testing.T) {
	rk := Ranking{Windows: []WindowResult{
		{Years: 2, Threshold: 20, HasThreshold: true, Trades: 8, ProfitPct: 40, DrawdownPct: 0.304},
		{Years: 1, Threshold: 15, HasThreshold: true, Trades: 3, ProfitPct: 12, DrawdownPct: 0},
	}}

	rk.summarize()

	// the 1-year window had no drawdown, so only the 2-year one counts
	if math.Abs(rk.AvgDrawdownPct-0.152) > 1e-9 {
		t.Errorf("Expected average drawdown 0.152, got %f", rk.AvgDrawdownPct)
	}
	if math.Abs(rk.AvgProfitPct-16) > 1e-9 {
		t.Errorf("Expected average profit 16, got %f", rk.AvgProfitPct)
	}
	if math.Abs(rk.AvgTrades-3.5) > 1e-9 {
		t.Errorf("Expected average trades 3.5, got %f", rk.AvgTrades)
	}
	if math.Abs(rk.CompositeLD-16/0.152) > 1e-9 {
		t.Errorf("Expected composite LD %f, got %f", 16/0.152, rk.CompositeLD)
	}
}

func TestSummarizeRecentThreshold(t *testing.T) {
	tests := []struct {
		name    string
		windows []WindowResult
		want    float64
	}{
		{
			name: "shortest window wins over best LD",
			windows: []WindowResult{
				{Years: 2, Threshold: 25, Trades: 5, ProfitPct: 30, DrawdownPct: 5, LD: 6},
				{Years: 1, Threshold: 10, Trades: 2, ProfitPct: 4, DrawdownPct: 2, LD: 2},
			},
			want: 10,
		},
		{
			name: "window without trades is skipped",
			windows: []WindowResult{
				{Years: 2, Threshold: 25, Trades: 5, ProfitPct: 30, DrawdownPct: 5, LD: 6},
				{Years: 1},
			},
			want: 25,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rk := Ranking{Windows: tt.windows}
			rk.summarize()
			if rk.BestThreshold != tt.want {
				t.Errorf("Expected threshold %f, got %f", tt.want, rk.BestThreshold)
			}
		})
	}
}
