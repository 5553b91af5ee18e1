package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"setuplab/internal/config"
	"setuplab/internal/provider"
	"setuplab/internal/store"
	"setuplab/internal/symbols"
)

// app holds what every command needs
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	loader *symbols.Loader
	store  *store.Store
}

func newApp() (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, err := newLogger()
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		loader: symbols.NewLoader(cfg.Data.ListsDir),
	}, nil
}

func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	zc.Encoding = "console"
	return zc.Build()
}

// openStore opens the bar cache on first use
func (a *app) openStore(ctx context.Context) (*store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	st, err := store.Open(ctx, a.cfg.Data.DB)
	if err != nil {
		return nil, fmt.Errorf("opening bar cache: %w", err)
	}
	a.store = st
	return st, nil
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
	}
	_ = a.logger.Sync()
}

// yahoo returns the Yahoo provider, cached in memory when configured
func (a *app) yahoo() provider.Provider {
	pc := a.cfg.Provider
	var p provider.Provider = provider.NewYahooProvider(provider.YahooConfig{
		BaseURL: pc.BaseURL,
		Timeout: pc.Timeout,
		Pause:   pc.Pause,
	})
	if pc.CacheTTL > 0 {
		p = provider.NewCachingProvider(p, pc.CacheTTL)
	}
	return p
}

// tickers returns the comma-separated flag value, or every ticker stored
// for list
func (a *app) tickers(ctx context.Context, list, flag string) ([]string, error) {
	if flag != "" {
		var out []string
		for _, t := range strings.Split(flag, ",") {
			if t = symbols.Ticker(t); t != "" {
				out = append(out, t)
			}
		}
		return out, nil
	}
	st, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	tickers, err := st.Tickers(ctx, list)
	if err != nil {
		return nil, err
	}
	if len(tickers) == 0 {
		return nil, fmt.Errorf("no bars stored for list %s (run: setuplab update %s)", list, list)
	}
	return tickers, nil
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext(what string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			fmt.Fprintf(os.Stderr, "\nInterrupted. Stopping %s...\n", what)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()
	return ctx, cancel
}

func newProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]█[reset]",
			SaucerHead:    "[green]█[reset]",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// progress adapts a bar to the done/total/label callbacks of the engine
func progress(bar *progressbar.ProgressBar) func(done, total int, label string) {
	return func(done, _ int, _ string) {
		bar.Set(done)
	}
}

func jsonOutput() bool {
	return format == "json"
}

func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return t, nil
}
