package provider

import (
	"context"
	"errors"
	"sort"
	"time"

	"setuplab/pkg/model"
)

// Provider defines the interface for daily price data sources
type Provider interface {
	// Name returns the provider name
	Name() string

	// GetDailyCandles fetches daily OHLCV bars in [start, end], sorted
	// ascending with one bar per date. A zero start means "as far back as
	// available"; a zero end means "up to today".
	GetDailyCandles(ctx context.Context, symbol string, start, end time.Time) ([]model.Candle, error)

	// IsAvailable checks if the provider can be used
	IsAvailable() bool
}

// ErrNoData is returned when a symbol has no bars in the requested range
var ErrNoData = errors.New("no data available")

// ProviderError represents a provider-specific error
type ProviderError struct {
	Provider  string
	Symbol    string
	Err       error
	Retryable bool
}

func (e *ProviderError) Error() string {
	if e.Symbol != "" {
		return e.Provider + ": " + e.Symbol + ": " + e.Err.Error()
	}
	return e.Provider + ": " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is a provider error worth retrying
func IsRetryable(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Retryable
}

// Normalize sorts bars ascending by date, keeps the last bar of each date
// and drops bars outside [start, end]
func Normalize(candles []model.Candle, start, end time.Time) []model.Candle {
	byDay := make(map[time.Time]model.Candle, len(candles))
	for _, c := range candles {
		c.Time = model.Day(c.Time)
		if !start.IsZero() && c.Time.Before(model.Day(start)) {
			continue
		}
		if !end.IsZero() && c.Time.After(model.Day(end)) {
			continue
		}
		byDay[c.Time] = c
	}

	out := make([]model.Candle, 0, len(byDay))
	for _, c := range byDay {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Time.Before(out[j].Time)
	})
	return out
}

// FallbackProvider tries multiple providers in order
type FallbackProvider struct {
	providers []Provider
}

// NewFallbackProvider creates a new fallback provider
func NewFallbackProvider(providers ...Provider) *FallbackProvider {
	available := make([]Provider, 0, len(providers))
	for _, p := range providers {
		if p.IsAvailable() {
			available = append(available, p)
		}
	}
	return &FallbackProvider{providers: available}
}

// Name returns the combined provider name
func (f *FallbackProvider) Name() string {
	return "fallback"
}

// GetDailyCandles tries each provider in order until one succeeds
func (f *FallbackProvider) GetDailyCandles(ctx context.Context, symbol string, start, end time.Time) ([]model.Candle, error) {
	lastErr := error(&ProviderError{Provider: f.Name(), Symbol: symbol, Err: errors.New("no providers available")})
	for _, p := range f.providers {
		data, err := p.GetDailyCandles(ctx, symbol, start, end)
		if err == nil {
			return data, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}
	return nil, lastErr
}

// IsAvailable returns true if any provider is available
func (f *FallbackProvider) IsAvailable() bool {
	return len(f.providers) > 0
}

// Providers returns the list of underlying providers
func (f *FallbackProvider) Providers() []Provider {
	return f.providers
}
