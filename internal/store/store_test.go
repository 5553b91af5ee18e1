package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"setuplab/pkg/model"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "data", "bars.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestReplaceAndReadBars(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	bars := []model.Candle{
		{Time: day(2), Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 100},
		{Time: day(3), Open: 10.5, High: 12, Low: 10, Close: 11.5, Volume: 200},
		{Time: day(4), Open: 11.5, High: 12.5, Low: 11, Close: 12, Volume: 300},
	}
	if err := s.ReplaceBars(ctx, "IBOV", "PETR4", bars); err != nil {
		t.Fatalf("ReplaceBars: %v", err)
	}

	got, err := s.Bars(ctx, "IBOV", "PETR4", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("Bars: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 bars, got %d", len(got))
	}
	if !got[0].Time.Equal(day(2)) || got[2].Close != 12 || got[1].Volume != 200 {
		t.Errorf("Unexpected bars %+v", got)
	}

	ranged, _ := s.Bars(ctx, "IBOV", "PETR4", day(3), day(3))
	if len(ranged) != 1 || ranged[0].Close != 11.5 {
		t.Errorf("Expected the single bar of day 3, got %+v", ranged)
	}

	// replace drops the old rows
	if err := s.ReplaceBars(ctx, "IBOV", "PETR4", bars[:1]); err != nil {
		t.Fatalf("ReplaceBars: %v", err)
	}
	got, _ = s.Bars(ctx, "IBOV", "PETR4", time.Time{}, time.Time{})
	if len(got) != 1 {
		t.Errorf("Expected 1 bar after replace, got %d", len(got))
	}
}

func TestBarsNotFound(t *testing.T) {
	s := openTemp(t)
	_, err := s.Bars(context.Background(), "IBOV", "XXXX3", time.Time{}, time.Time{})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := s.LastDate(context.Background(), "IBOV", "XXXX3"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound from LastDate, got %v", err)
	}
}

func TestListsTickersSummary(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	s.ReplaceBars(ctx, "IBOV", "VALE3", []model.Candle{{Time: day(2), Close: 60}, {Time: day(5), Close: 61}})
	s.ReplaceBars(ctx, "IBOV", "PETR4", []model.Candle{{Time: day(3), Close: 30}})
	s.ReplaceBars(ctx, "SMLL", "CASH3", []model.Candle{{Time: day(4), Close: 3}})

	lists, err := s.Lists(ctx)
	if err != nil || len(lists) != 2 || lists[0] != "IBOV" {
		t.Errorf("Expected [IBOV SMLL], got %v (%v)", lists, err)
	}

	tickers, _ := s.Tickers(ctx, "IBOV")
	if len(tickers) != 2 || tickers[0] != "PETR4" || tickers[1] != "VALE3" {
		t.Errorf("Expected [PETR4 VALE3], got %v", tickers)
	}

	last, err := s.LastDate(ctx, "IBOV", "VALE3")
	if err != nil || !last.Equal(day(5)) {
		t.Errorf("Expected last date %s, got %s (%v)", day(5), last, err)
	}

	summary, err := s.Summary(ctx)
	if err != nil || len(summary) != 2 {
		t.Fatalf("Expected 2 summaries, got %d (%v)", len(summary), err)
	}
	ibov := summary[0]
	if ibov.Tickers != 2 || ibov.Bars != 3 || !ibov.First.Equal(day(2)) || !ibov.Last.Equal(day(5)) {
		t.Errorf("Unexpected IBOV summary %+v", ibov)
	}
}

func TestRankings(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	if _, err := s.LatestRanking(ctx, "IBOV", "ifr"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	first, err := s.SaveRanking(ctx, "IBOV", "ifr", []RankingEntry{{Ticker: "PETR4", Score: 1.5, Payload: []byte(`{}`)}})
	if err != nil {
		t.Fatalf("SaveRanking: %v", err)
	}

	now = now.Add(time.Hour)
	second, err := s.SaveRanking(ctx, "IBOV", "ifr", []RankingEntry{
		{Ticker: "VALE3", Score: 3, Payload: []byte(`{"ld":3}`)},
		{Ticker: "ITUB4", Score: 2, Payload: []byte(`{"ld":2}`)},
	})
	if err != nil {
		t.Fatalf("SaveRanking: %v", err)
	}
	if first == second {
		t.Error("Expected distinct run IDs")
	}

	run, err := s.LatestRanking(ctx, "IBOV", "ifr")
	if err != nil {
		t.Fatalf("LatestRanking: %v", err)
	}
	if run.ID != second || len(run.Entries) != 2 {
		t.Fatalf("Expected latest run with 2 entries, got %s with %d", run.ID, len(run.Entries))
	}
	if run.Entries[0].Ticker != "VALE3" || string(run.Entries[1].Payload) != `{"ld":2}` {
		t.Errorf("Unexpected entries %+v", run.Entries)
	}
}
