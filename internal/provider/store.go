package provider

import (
	"context"
	"time"

	"setuplab/internal/symbols"
	"setuplab/pkg/model"
)

// BarReader reads bars persisted by the updater
type BarReader interface {
	Bars(ctx context.Context, list, ticker string, start, end time.Time) ([]model.Candle, error)
}

// StoreProvider serves bars from the local bar cache of one list, so
// alerts and backtests can run offline. Yahoo symbols are accepted and
// looked up by their bare ticker.
type StoreProvider struct {
	reader BarReader
	list   string
}

// NewStoreProvider creates a provider over the cached bars of list
func NewStoreProvider(reader BarReader, list string) *StoreProvider {
	return &StoreProvider{reader: reader, list: list}
}

func (p *StoreProvider) Name() string      { return "store:" + p.list }
func (p *StoreProvider) IsAvailable() bool { return p.reader != nil }

func (p *StoreProvider) GetDailyCandles(ctx context.Context, symbol string, start, end time.Time) ([]model.Candle, error) {
	candles, err := p.reader.Bars(ctx, p.list, symbols.Ticker(symbol), start, end)
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Symbol: symbol, Err: err}
	}
	if len(candles) == 0 {
		return nil, &ProviderError{Provider: p.Name(), Symbol: symbol, Err: ErrNoData}
	}
	return candles, nil
}
