package alert

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"

	"setuplab/internal/provider"
	"setuplab/internal/symbols"
	"setuplab/pkg/model"
)

// Alerter fetches recent bars for ranked tickers and evaluates them one
// after the other
type Alerter struct {
	provider provider.Provider
	logger   *zap.Logger
	now      func() time.Time
}

// New creates an Alerter
func New(p provider.Provider, logger *zap.Logger) *Alerter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Alerter{
		provider: p,
		logger:   logger.Named("alert"),
		now:      time.Now,
	}
}

func (a *Alerter) recent(ctx context.Context, ticker string, days int) ([]model.Candle, error) {
	end := a.now()
	start := end.AddDate(0, 0, -days)
	return a.provider.GetDailyCandles(ctx, symbols.YahooSymbol(ticker), start, end)
}

// fetchFailed logs a failed fetch and reports whether the scan must stop
func (a *Alerter) fetchFailed(ctx context.Context, ticker string, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	if errors.Is(err, provider.ErrNoData) {
		a.logger.Debug("no bars", zap.String("ticker", ticker))
	} else {
		a.logger.Warn("fetch failed", zap.String("ticker", ticker), zap.Error(err))
	}
	return false
}

// ScanIFR evaluates every reference and returns the MaxToSend signals
// with the highest LD
func (a *Alerter) ScanIFR(ctx context.Context, refs []IFRRef, opts IFROptions) ([]IFRSignal, error) {
	var out []IFRSignal
	for _, ref := range refs {
		bars, err := a.recent(ctx, ref.Ticker, opts.HistoryDays)
		if err != nil {
			if a.fetchFailed(ctx, ref.Ticker, err) {
				return out, ctx.Err()
			}
			continue
		}
		if sig, ok := EvaluateIFR(ref, bars, opts); ok {
			a.logger.Info("ifr signal",
				zap.String("ticker", ref.Ticker),
				zap.Float64("rsi", sig.RSI),
				zap.Float64("reference", ref.IFR))
			out = append(out, sig)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].LD > out[j].LD })
	if opts.MaxToSend > 0 && len(out) > opts.MaxToSend {
		out = out[:opts.MaxToSend]
	}
	return out, nil
}

// Scan123 evaluates every reference for a pattern closed on the last bar.
// Signals keep the ranking file order.
func (a *Alerter) Scan123(ctx context.Context, refs []Ref123, opts Options123) ([]Signal123, error) {
	var out []Signal123
	for _, ref := range refs {
		bars, err := a.recent(ctx, ref.Ticker, opts.HistoryDays)
		if err != nil {
			if a.fetchFailed(ctx, ref.Ticker, err) {
				return out, ctx.Err()
			}
			continue
		}
		if sig, ok := Evaluate123(ref, bars, opts); ok {
			a.logger.Info("123 signal",
				zap.String("ticker", ref.Ticker),
				zap.Float64("entry", sig.Entry),
				zap.Float64("stop", sig.Stop))
			out = append(out, sig)
		}
	}
	return out, nil
}
