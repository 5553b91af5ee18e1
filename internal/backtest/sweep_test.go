package backtest

import (
	"context"
	"errors"
	"testing"
	"time"

	"setuplab/pkg/model"
)

type memSource map[string][]model.Candle

func (m memSource) Bars(_ context.Context, _, ticker string, _, _ time.Time) ([]model.Candle, error) {
	bars, ok := m[ticker]
	if !ok {
		return nil, errors.New("not found")
	}
	return bars, nil
}

func TestRange(t *testing.T) {
	got := Range(5, 30, 5)
	want := []float64{5, 10, 15, 20, 25, 30}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected %v, got %v", want, got)
		}
	}

	if got := Range(1, 1, 1); len(got) != 1 || got[0] != 1 {
		t.Errorf("Expected [1], got %v", got)
	}
	if got := Range(10, 5, 1); len(got) != 1 {
		t.Errorf("Expected a single value for an inverted range, got %v", got)
	}
}

func TestSweepThresholds(t *testing.T) {
	bars := closeBars(10, 9, 8, 7, 9, 11, 13)
	var calls int

	results := SweepThresholds("TEST", bars, ifrParams(0), []float64{5, 10, 50}, func(done, total int, _ string) {
		calls++
		if total != 3 {
			t.Errorf("Expected total 3, got %d", total)
		}
	})

	if len(results) != 3 || calls != 3 {
		t.Fatalf("Expected 3 results and 3 progress calls, got %d / %d", len(results), calls)
	}
	for i, v := range []float64{5, 10, 50} {
		if results[i].Threshold != v {
			t.Errorf("Expected threshold %v, got %v", v, results[i].Threshold)
		}
		if results[i].TradeCount != 1 {
			t.Errorf("Threshold %v: expected 1 trade, got %d", v, results[i].TradeCount)
		}
	}
}

func TestSweepThresholdsWithoutThreshold(t *testing.T) {
	results := SweepThresholds("TEST", bars123(), Params{Setup: &Setup123{}, Capital: 100000}, []float64{1, 2, 3}, nil)
	if len(results) != 1 {
		t.Errorf("Expected a single run for a setup without threshold, got %d", len(results))
	}
}

func TestSweepTickers(t *testing.T) {
	src := memSource{
		"AAA": closeBars(10, 9, 8, 7, 9, 11, 13),
		"BBB": closeBars(10, 10, 10, 10, 10, 10, 10),
	}
	var seen []string

	results, err := SweepTickers(context.Background(), src, "IBOV", []string{"BBB", "MISSING", "AAA"},
		ifrParams(0), []float64{10, 20}, MetricProfit,
		func(done, total int, ticker string) { seen = append(seen, ticker) })
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(results) != 3 || len(seen) != 3 {
		t.Fatalf("Expected 3 results and 3 progress calls, got %d / %d", len(results), len(seen))
	}
	if results[0].Ticker != "AAA" {
		t.Errorf("Expected AAA first, got %s", results[0].Ticker)
	}
	if results[0].Best == nil || results[0].Best.Threshold != 10 {
		t.Errorf("Expected the first threshold to win the tie")
	}
	if results[0].Best.List != "IBOV" {
		t.Errorf("Expected list IBOV on the run, got %q", results[0].Best.List)
	}
	if results[2].Ticker != "MISSING" || results[2].Err == "" {
		t.Errorf("Expected the failed ticker last with an error, got %+v", results[2])
	}
}

func TestSweepTickersCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := SweepTickers(ctx, memSource{}, "IBOV", []string{"AAA"}, ifrParams(10), nil, MetricProfit, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
