package liquidity

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"setuplab/pkg/model"
)

type memSource map[string][]model.Candle

func (m memSource) Bars(_ context.Context, _, ticker string, _, _ time.Time) ([]model.Candle, error) {
	b, ok := m[ticker]
	if !ok {
		return nil, errors.New("not found")
	}
	return b, nil
}

func volumeBars(volumes ...int64) []model.Candle {
	out := make([]model.Candle, len(volumes))
	for i, v := range volumes {
		out[i] = model.Candle{Time: time.Date(2024, 1, i+1, 0, 0, 0, 0, time.UTC), Close: 10, Volume: v}
	}
	return out
}

func TestLatest(t *testing.T) {
	e := Latest("PETR4", volumeBars(100, 200, 300, 400), 3)
	if e.AvgVolume != 300 {
		t.Errorf("Expected average 300, got %f", e.AvgVolume)
	}
	if e.Date.Day() != 4 {
		t.Errorf("Expected the last bar date, got %s", e.Date)
	}

	short := Latest("NEW3", volumeBars(100), 3)
	if short.Defined() {
		t.Error("Expected undefined average with too few bars")
	}
	if !math.IsNaN(Latest("NONE3", nil, 3).AvgVolume) {
		t.Error("Expected NaN without bars")
	}
}

func TestRank(t *testing.T) {
	src := memSource{
		"AAAA3": volumeBars(10, 10, 10),
		"BBBB3": volumeBars(1000, 2000, 3000),
		"CCCC3": volumeBars(500),
		"DDDD3": volumeBars(100, 100, 400),
	}
	tickers := []string{"AAAA3", "BBBB3", "CCCC3", "DDDD3", "GONE3"}

	all, err := Rank(context.Background(), src, "IBOV", tickers, 3, 0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	want := []string{"BBBB3", "DDDD3", "AAAA3", "CCCC3"}
	if len(all) != len(want) {
		t.Fatalf("Expected %d entries, got %d", len(want), len(all))
	}
	for i := range want {
		if all[i].Ticker != want[i] {
			t.Errorf("Position %d: expected %s, got %s", i, want[i], all[i].Ticker)
		}
	}

	top, _ := Rank(context.Background(), src, "IBOV", tickers, 3, 2)
	if len(top) != 2 || top[0].Ticker != "BBBB3" {
		t.Errorf("Expected top 2 led by BBBB3, got %+v", top)
	}
}
