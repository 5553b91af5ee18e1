// Package updater downloads daily bars for ticker lists into the bar cache.
package updater

import (
	"context"
	"time"

	"go.uber.org/zap"

	"setuplab/internal/provider"
	"setuplab/internal/symbols"
	"setuplab/pkg/model"
)

// ProgressCallback is called after each ticker
type ProgressCallback func(done, total int, ticker string)

// BarWriter stores the bars of one ticker, replacing what was there
type BarWriter interface {
	ReplaceBars(ctx context.Context, list, ticker string, bars []model.Candle) error
}

// ListLoader resolves a list name to its tickers
type ListLoader interface {
	LoadTickers(list string) ([]string, error)
}

// Failure records a ticker that could not be updated
type Failure struct {
	Ticker string `json:"ticker"`
	Err    string `json:"error"`
}

// Report summarises one list update
type Report struct {
	List    string        `json:"list"`
	Tickers int           `json:"tickers"`
	Updated int           `json:"updated"`
	Bars    int           `json:"bars"`
	Failed  []Failure     `json:"failed,omitempty"`
	Elapsed time.Duration `json:"elapsed"`
	Start   time.Time     `json:"start"`
	End     time.Time     `json:"end"`
}

// Updater fetches tickers one after the other. Pacing between requests is
// the provider's job (see provider.YahooConfig.Pause).
type Updater struct {
	provider provider.Provider
	store    BarWriter
	logger   *zap.Logger
	years    int
	now      func() time.Time
	progress ProgressCallback
}

// New creates an updater that keeps years of history
func New(p provider.Provider, store BarWriter, logger *zap.Logger, years int) *Updater {
	if years <= 0 {
		years = 10
	}
	return &Updater{
		provider: p,
		store:    store,
		logger:   logger.Named("updater"),
		years:    years,
		now:      time.Now,
	}
}

// SetProgressCallback sets the progress callback function
func (u *Updater) SetProgressCallback(fn ProgressCallback) {
	u.progress = fn
}

// UpdateList downloads every ticker of list. Per-ticker failures are
// logged and reported, not returned; only cancellation stops the loop.
func (u *Updater) UpdateList(ctx context.Context, list string, tickers []string) (*Report, error) {
	started := u.now()
	end := model.Day(started)
	start := end.AddDate(0, 0, -365*u.years)

	report := &Report{List: list, Tickers: len(tickers), Start: start, End: end}
	log := u.logger.With(zap.String("list", list))
	log.Info("updating list", zap.Int("tickers", len(tickers)), zap.Time("since", start))

	for i, ticker := range tickers {
		if err := ctx.Err(); err != nil {
			report.Elapsed = u.now().Sub(started)
			return report, err
		}

		n, err := u.updateTicker(ctx, list, ticker, start, end)
		if err != nil {
			if ctx.Err() != nil {
				report.Elapsed = u.now().Sub(started)
				return report, ctx.Err()
			}
			log.Warn("ticker failed", zap.String("ticker", ticker), zap.Error(err))
			report.Failed = append(report.Failed, Failure{Ticker: ticker, Err: err.Error()})
		} else {
			log.Debug("ticker updated", zap.String("ticker", ticker), zap.Int("bars", n))
			report.Updated++
			report.Bars += n
		}

		if u.progress != nil {
			u.progress(i+1, len(tickers), ticker)
		}
	}

	report.Elapsed = u.now().Sub(started)
	log.Info("list updated",
		zap.Int("updated", report.Updated),
		zap.Int("failed", len(report.Failed)),
		zap.Int("bars", report.Bars),
		zap.Duration("elapsed", report.Elapsed))
	return report, nil
}

func (u *Updater) updateTicker(ctx context.Context, list, ticker string, start, end time.Time) (int, error) {
	bars, err := u.provider.GetDailyCandles(ctx, symbols.YahooSymbol(ticker), start, end)
	if err != nil {
		return 0, err
	}
	bars = provider.Normalize(bars, start, end)
	if err := u.store.ReplaceBars(ctx, list, symbols.Ticker(ticker), bars); err != nil {
		return 0, err
	}
	return len(bars), nil
}

// UpdateLists updates several lists in order
func (u *Updater) UpdateLists(ctx context.Context, loader ListLoader, lists []string) ([]*Report, error) {
	var reports []*Report
	for _, list := range lists {
		tickers, err := loader.LoadTickers(list)
		if err != nil {
			u.logger.Warn("skipping list", zap.String("list", list), zap.Error(err))
			continue
		}
		report, err := u.UpdateList(ctx, list, tickers)
		if report != nil {
			reports = append(reports, report)
		}
		if err != nil {
			return reports, err
		}
	}
	return reports, nil
}
