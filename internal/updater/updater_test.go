package updater

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"setuplab/pkg/model"
)

type fakeProvider struct {
	bars    map[string][]model.Candle
	symbols []string
	cancel  context.CancelFunc
}

func (f *fakeProvider) Name() string      { return "fake" }
func (f *fakeProvider) IsAvailable() bool { return true }
func (f *fakeProvider) GetDailyCandles(_ context.Context, symbol string, _, _ time.Time) ([]model.Candle, error) {
	f.symbols = append(f.symbols, symbol)
	if f.cancel != nil {
		f.cancel()
	}
	bars, ok := f.bars[symbol]
	if !ok {
		return nil, errors.New("no data")
	}
	return bars, nil
}

type memStore map[string][]model.Candle

func (m memStore) ReplaceBars(_ context.Context, list, ticker string, bars []model.Candle) error {
	m[list+"/"+ticker] = bars
	return nil
}

type fakeLoader map[string][]string

func (f fakeLoader) LoadTickers(list string) ([]string, error) {
	t, ok := f[list]
	if !ok {
		return nil, errors.New("unknown list")
	}
	return t, nil
}

func recentBars(now time.Time, n int) []model.Candle {
	out := make([]model.Candle, n)
	for i := range out {
		out[i] = model.Candle{Time: now.AddDate(0, 0, i-n), Close: float64(10 + i)}
	}
	return out
}

func newTestUpdater(p *fakeProvider, store memStore, now time.Time) *Updater {
	u := New(p, store, zap.NewNop(), 1)
	u.now = func() time.Time { return now }
	return u
}

func TestUpdateList(t *testing.T) {
	now := time.Date(2024, 6, 3, 18, 0, 0, 0, time.UTC)
	p := &fakeProvider{bars: map[string][]model.Candle{
		"PETR4.SA": recentBars(now, 5),
		"VALE3.SA": recentBars(now, 3),
	}}
	store := memStore{}
	u := newTestUpdater(p, store, now)

	var progress []int
	u.SetProgressCallback(func(done, total int, _ string) { progress = append(progress, done) })

	report, err := u.UpdateList(context.Background(), "IBOV", []string{"PETR4", "XXXX3", "VALE3"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if report.Updated != 2 || len(report.Failed) != 1 || report.Bars != 8 {
		t.Errorf("Unexpected report %+v", report)
	}
	if report.Failed[0].Ticker != "XXXX3" {
		t.Errorf("Expected XXXX3 to fail, got %s", report.Failed[0].Ticker)
	}
	if len(store["IBOV/PETR4"]) != 5 || len(store["IBOV/VALE3"]) != 3 {
		t.Errorf("Expected bars stored per ticker, got %d keys", len(store))
	}
	if len(progress) != 3 || progress[2] != 3 {
		t.Errorf("Expected progress after each ticker, got %v", progress)
	}
	// sequential, in list order
	want := []string{"PETR4.SA", "XXXX3.SA", "VALE3.SA"}
	for i, s := range want {
		if p.symbols[i] != s {
			t.Errorf("Expected request %d for %s, got %s", i, s, p.symbols[i])
		}
	}
	if !report.Start.Equal(time.Date(2023, 6, 4, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected one year of history, got start %s", report.Start)
	}
}

func TestUpdateListCancelled(t *testing.T) {
	now := time.Date(2024, 6, 3, 18, 0, 0, 0, time.UTC)
	ctx, cancel := context.WithCancel(context.Background())
	p := &fakeProvider{bars: map[string][]model.Candle{"PETR4.SA": recentBars(now, 5)}, cancel: cancel}

	u := newTestUpdater(p, memStore{}, now)
	report, err := u.UpdateList(ctx, "IBOV", []string{"PETR4", "VALE3"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if len(p.symbols) != 1 {
		t.Errorf("Expected the loop to stop after the first ticker, got %d requests", len(p.symbols))
	}
	if report == nil {
		t.Error("Expected a partial report")
	}
}

func TestUpdateLists(t *testing.T) {
	now := time.Date(2024, 6, 3, 18, 0, 0, 0, time.UTC)
	p := &fakeProvider{bars: map[string][]model.Candle{
		"PETR4.SA": recentBars(now, 2),
		"CASH3.SA": recentBars(now, 2),
	}}
	store := memStore{}
	u := newTestUpdater(p, store, now)

	loader := fakeLoader{"IBOV": {"PETR4"}, "SMLL": {"CASH3"}}
	reports, err := u.UpdateLists(context.Background(), loader, []string{"IBOV", "MISSING", "SMLL"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("Expected 2 reports, got %d", len(reports))
	}
	if _, ok := store["SMLL/CASH3"]; !ok {
		t.Error("Expected SMLL/CASH3 stored")
	}
}
