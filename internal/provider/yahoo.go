package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"setuplab/internal/ratelimit"
	"setuplab/pkg/model"
)

const yahooBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// YahooConfig configures the Yahoo Finance provider
type YahooConfig struct {
	BaseURL string
	Timeout time.Duration
	Pause   time.Duration // minimum time between requests
}

// YahooProvider implements the Provider interface for Yahoo Finance (unofficial API)
type YahooProvider struct {
	client  *http.Client
	limiter *ratelimit.Limiter
	baseURL string
}

// NewYahooProvider creates a new Yahoo Finance provider
func NewYahooProvider(cfg YahooConfig) *YahooProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = yahooBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &YahooProvider{
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: ratelimit.NewLimiter("yahoo", cfg.Pause),
		baseURL: cfg.BaseURL,
	}
}

// Name returns the provider name
func (p *YahooProvider) Name() string {
	return "yahoo"
}

// IsAvailable always returns true (no API key needed)
func (p *YahooProvider) IsAvailable() bool {
	return true
}

// yahooResponse represents the Yahoo Finance chart API response.
// Quote values are pointers because Yahoo sends null for missing sessions.
type yahooResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol    string `json:"symbol"`
				Currency  string `json:"currency"`
				GMTOffset int64  `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// GetDailyCandles fetches daily bars for symbol between start and end
func (p *YahooProvider) GetDailyCandles(ctx context.Context, symbol string, start, end time.Time) ([]model.Candle, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	if end.IsZero() {
		end = time.Now()
	}
	if start.IsZero() {
		start = time.Unix(0, 0)
	}

	q := url.Values{}
	q.Set("period1", fmt.Sprint(start.Unix()))
	// period2 is exclusive
	q.Set("period2", fmt.Sprint(model.Day(end).AddDate(0, 0, 1).Unix()))
	q.Set("interval", "1d")
	q.Set("events", "history")
	q.Set("includeAdjustedClose", "true")
	reqURL := fmt.Sprintf("%s/%s?%s", p.baseURL, url.PathEscape(symbol), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Symbol: symbol, Err: err, Retryable: true}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		p.limiter.SignalRateLimited()
		return nil, &ProviderError{Provider: p.Name(), Symbol: symbol, Err: errors.New("rate limited"), Retryable: true}
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, &ProviderError{Provider: p.Name(), Symbol: symbol, Err: ErrNoData}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Provider: p.Name(), Symbol: symbol, Err: fmt.Errorf("status %d", resp.StatusCode), Retryable: resp.StatusCode >= 500}
	}

	p.limiter.ResetBackoff()

	var data yahooResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if data.Chart.Error != nil {
		return nil, &ProviderError{Provider: p.Name(), Symbol: symbol, Err: errors.New(data.Chart.Error.Description)}
	}
	if len(data.Chart.Result) == 0 || len(data.Chart.Result[0].Timestamp) == 0 ||
		len(data.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, &ProviderError{Provider: p.Name(), Symbol: symbol, Err: ErrNoData}
	}

	result := data.Chart.Result[0]
	quotes := result.Indicators.Quote[0]

	candles := make([]model.Candle, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		open, high, low, cls := at(quotes.Open, i), at(quotes.High, i), at(quotes.Low, i), at(quotes.Close, i)
		// sessions without trades come back as nulls
		if open == nil || high == nil || low == nil || cls == nil {
			continue
		}

		var volume int64
		if i < len(quotes.Volume) && quotes.Volume[i] != nil {
			volume = *quotes.Volume[i]
		}

		// shift to exchange time before taking the calendar day
		local := time.Unix(ts+result.Meta.GMTOffset, 0).UTC()
		candles = append(candles, model.Candle{
			Time:   model.Day(local),
			Open:   *open,
			High:   *high,
			Low:    *low,
			Close:  *cls,
			Volume: volume,
		})
	}

	candles = Normalize(candles, start, end)
	if len(candles) == 0 {
		return nil, &ProviderError{Provider: p.Name(), Symbol: symbol, Err: ErrNoData}
	}
	return candles, nil
}

func at[T any](values []*T, i int) *T {
	if i >= len(values) {
		return nil
	}
	return values[i]
}
