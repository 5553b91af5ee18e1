package provider

import (
	"context"
	"sync"
	"time"

	"setuplab/pkg/model"
)

// CachingProvider wraps a Provider with an in-memory cache for GetDailyCandles.
// Repeated requests for the same ticker and range hit the upstream once per
// ttl.
type CachingProvider struct {
	inner Provider
	cache map[string]cachedCandles
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
}

type cachedCandles struct {
	candles []model.Candle
	fetched time.Time
}

// NewCachingProvider creates a caching wrapper whose entries live for ttl
func NewCachingProvider(inner Provider, ttl time.Duration) *CachingProvider {
	return &CachingProvider{
		inner: inner,
		cache: make(map[string]cachedCandles),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (p *CachingProvider) Name() string      { return p.inner.Name() }
func (p *CachingProvider) IsAvailable() bool { return p.inner.IsAvailable() }

func cacheKey(symbol string, start, end time.Time) string {
	return symbol + "|" + model.Day(start).Format("20060102") + "|" + model.Day(end).Format("20060102")
}

func (p *CachingProvider) GetDailyCandles(ctx context.Context, symbol string, start, end time.Time) ([]model.Candle, error) {
	key := cacheKey(symbol, start, end)

	p.mu.Lock()
	if cached, ok := p.cache[key]; ok && (p.ttl <= 0 || p.now().Sub(cached.fetched) < p.ttl) {
		p.mu.Unlock()
		return cached.candles, nil
	}
	p.mu.Unlock()

	candles, err := p.inner.GetDailyCandles(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.cache[key] = cachedCandles{candles: candles, fetched: p.now()}
	p.mu.Unlock()

	return candles, nil
}

// Purge drops every cached entry. The alert watch loop calls it before
// each scan.
func (p *CachingProvider) Purge() {
	p.mu.Lock()
	p.cache = make(map[string]cachedCandles)
	p.mu.Unlock()
}
