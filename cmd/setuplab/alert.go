package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"setuplab/internal/alert"
	"setuplab/internal/market"
	"setuplab/internal/provider"
)

// alertFlags are shared by both scans
type alertFlags struct {
	file    string
	list    string // cached bars to fall back on
	offline bool   // cached bars only
	watch   bool
	delay   time.Duration

	cache *provider.CachingProvider // purged before each watched scan
}

func (f *alertFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.file, "file", "", "ranking file (default from config)")
	cmd.Flags().StringVar(&f.list, "list", "", "fall back to this list's cached bars when Yahoo fails")
	cmd.Flags().BoolVar(&f.offline, "offline", false, "read bars from the bar cache only (needs --list)")
	cmd.Flags().BoolVar(&f.watch, "watch", false, "keep running and scan after every session close")
	cmd.Flags().DurationVar(&f.delay, "delay", 15*time.Minute, "wait after the close before scanning (--watch)")
}

// run scans once, or after each session close until interrupted when
// watching
func (f *alertFlags) run(ctx context.Context, logger *zap.Logger, scan func(context.Context) error) error {
	schedule := market.DefaultSchedule()
	if !f.watch {
		if st := schedule.StatusAt(time.Now()); st.IsOpen {
			fmt.Fprintf(os.Stderr, "Note: session open for another %s, the last bar is still forming\n",
				market.FormatDuration(st.TimeToClose))
		}
		return scan(ctx)
	}

	for {
		next := schedule.NextClose(time.Now()).Add(f.delay)
		logger.Info("waiting for the next close", zap.Time("scan_at", next))
		fmt.Fprintf(os.Stderr, "Next scan in %s\n", market.FormatDuration(time.Until(next)))
		if err := market.Sleep(ctx, time.Until(next)); err != nil {
			return nil
		}
		if f.cache != nil {
			f.cache.Purge()
		}
		if err := scan(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Error("scan failed", zap.Error(err))
		}
	}
}

func (f *alertFlags) alerter(ctx context.Context, a *app) (*alert.Alerter, error) {
	if f.list == "" {
		if f.offline {
			return nil, fmt.Errorf("--offline needs --list")
		}
		return alert.New(f.yahoo(a), a.logger), nil
	}

	st, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	cached := provider.NewStoreProvider(st, f.list)
	if f.offline {
		return alert.New(cached, a.logger), nil
	}
	return alert.New(provider.NewFallbackProvider(f.yahoo(a), cached), a.logger), nil
}

// yahoo keeps hold of the response cache so a watch loop starts each day
// from fresh quotes
func (f *alertFlags) yahoo(a *app) provider.Provider {
	p := a.yahoo()
	if c, ok := p.(*provider.CachingProvider); ok {
		f.cache = c
	}
	return p
}

func newAlertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alert",
		Short: "Scan ranked tickers for setups triggering today",
	}
	cmd.AddCommand(newAlertIFRCmd(), newAlert123Cmd())
	return cmd
}

func newAlertIFRCmd() *cobra.Command {
	var (
		af         alertFlags
		maxSignals int
	)

	cmd := &cobra.Command{
		Use:   "ifr",
		Short: "Tickers above their SMA with IFR below their ranked level",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			path := a.cfg.Alert.IFRFile
			if af.file != "" {
				path = af.file
			}
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("opening ranking file: %w", err)
			}
			refs, err := alert.ParseIFRRanking(f)
			f.Close()
			if err != nil {
				return err
			}

			opts := a.cfg.Alert.IFR
			if cmd.Flags().Changed("max") {
				opts.MaxToSend = maxSignals
			}

			ctx, cancel := signalContext("scan")
			defer cancel()

			al, err := af.alerter(ctx, a)
			if err != nil {
				return err
			}
			return af.run(ctx, a.logger, func(ctx context.Context) error {
				signals, err := al.ScanIFR(ctx, refs, opts)
				if err != nil {
					return err
				}
				if jsonOutput() {
					return printJSON(signals)
				}
				fmt.Println(alert.FormatIFR(signals, time.Now()))
				return nil
			})
		},
	}

	af.register(cmd)
	cmd.Flags().IntVar(&maxSignals, "max", 5, "signals to report")
	return cmd
}

func newAlert123Cmd() *cobra.Command {
	var (
		af     alertFlags
		filter bool
	)

	cmd := &cobra.Command{
		Use:   "123",
		Short: "Tickers whose last three bars form a 123 bottom",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			path := a.cfg.Alert.File123
			if af.file != "" {
				path = af.file
			}
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("opening ranking file: %w", err)
			}
			refs, err := alert.Parse123Ranking(f)
			f.Close()
			if err != nil {
				return err
			}

			opts := a.cfg.Alert.S123
			if cmd.Flags().Changed("filter") {
				opts.Filter = filter
			}

			ctx, cancel := signalContext("scan")
			defer cancel()

			al, err := af.alerter(ctx, a)
			if err != nil {
				return err
			}
			return af.run(ctx, a.logger, func(ctx context.Context) error {
				signals, err := al.Scan123(ctx, refs, opts)
				if err != nil {
					return err
				}
				if jsonOutput() {
					return printJSON(signals)
				}
				fmt.Println(alert.Format123(signals, opts.Filter, time.Now()))
				return nil
			})
		},
	}

	af.register(cmd)
	cmd.Flags().BoolVar(&filter, "filter", false, "require fast EMA above slow EMA, both rising")
	return cmd
}
