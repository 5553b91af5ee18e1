package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"setuplab/internal/backtest"
	"setuplab/internal/report"
	"setuplab/internal/symbols"
)

// runFlags are shared by every command that simulates
type runFlags struct {
	list    string
	setup   string
	capital float64
	start   string
	end     string
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.list, "list", string(symbols.UniverseIBOV), "ticker list")
	cmd.Flags().StringVar(&f.setup, "setup", "ifr", "setup: ifr, 123, maxmin")
	cmd.Flags().Float64Var(&f.capital, "capital", backtest.DefaultCapital, "capital per trade")
	cmd.Flags().StringVar(&f.start, "start", "", "first day trades may open (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.end, "end", "", "last day of data (YYYY-MM-DD)")
}

func (f *runFlags) params(cmd *cobra.Command, a *app) (backtest.Params, error) {
	setup, err := a.cfg.Setup(f.setup)
	if err != nil {
		return backtest.Params{}, err
	}
	if err := setup.Validate(); err != nil {
		return backtest.Params{}, err
	}

	p := backtest.Params{Setup: setup, Capital: a.cfg.Backtest.Capital}
	if cmd.Flags().Changed("capital") {
		p.Capital = f.capital
	}
	if p.Start, err = parseDate(f.start); err != nil {
		return backtest.Params{}, err
	}
	if p.End, err = parseDate(f.end); err != nil {
		return backtest.Params{}, err
	}
	return p, nil
}

func newBacktestCmd() *cobra.Command {
	var (
		rf        runFlags
		threshold float64
		trades    bool
	)

	cmd := &cobra.Command{
		Use:   "backtest <ticker>",
		Short: "Run one setup on one ticker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			p, err := rf.params(cmd, a)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("threshold") {
				p.Setup = p.Setup.WithThreshold(threshold)
			}

			ctx := context.Background()
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			ticker := symbols.Ticker(args[0])
			bars, err := st.Bars(ctx, rf.list, ticker, time.Time{}, p.End)
			if err != nil {
				return err
			}

			result := backtest.Run(ticker, bars, p)
			result.List = rf.list
			if jsonOutput() {
				return printJSON(result)
			}
			if !trades {
				result.Trades = nil
			}
			return report.Run(os.Stdout, result)
		},
	}

	rf.register(cmd)
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "entry threshold (IFR level, Max/Min window)")
	cmd.Flags().BoolVar(&trades, "trades", true, "list every trade")
	return cmd
}

func newSweepCmd() *cobra.Command {
	var (
		rf         runFlags
		tickerFlag string
		lo, hi     float64
		step       float64
		metricName string
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Try every threshold on one ticker, or on every ticker of a list",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			p, err := rf.params(cmd, a)
			if err != nil {
				return err
			}

			grid := a.cfg.Backtest.Sweep
			if cmd.Flags().Changed("min") {
				grid.Min = lo
			}
			if cmd.Flags().Changed("max") {
				grid.Max = hi
			}
			if cmd.Flags().Changed("step") {
				grid.Step = step
			}
			values := grid.Values()

			if !cmd.Flags().Changed("metric") {
				metricName = a.cfg.Backtest.Metric
			}
			metric, err := backtest.ParseMetric(metricName)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext("sweep")
			defer cancel()

			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}

			if tickerFlag != "" && !strings.Contains(tickerFlag, ",") {
				ticker := symbols.Ticker(tickerFlag)
				bars, err := st.Bars(ctx, rf.list, ticker, time.Time{}, p.End)
				if err != nil {
					return err
				}
				runs := backtest.SweepThresholds(ticker, bars, p, values, nil)
				if jsonOutput() {
					return printJSON(runs)
				}
				if err := report.Sweep(os.Stdout, runs); err != nil {
					return err
				}
				if best := backtest.Best(runs, metric); best != nil && best.HasThreshold {
					fmt.Printf("\nBest by %s: %s\n", metric, report.Number(best.Threshold))
				}
				return nil
			}

			tickers, err := a.tickers(ctx, rf.list, tickerFlag)
			if err != nil {
				return err
			}
			bar := newProgressBar(len(tickers), "Sweeping "+rf.list)
			results, err := backtest.SweepTickers(ctx, st, rf.list, tickers, p, values, metric, progress(bar))
			bar.Finish()
			fmt.Fprintln(os.Stderr)
			if err != nil {
				return err
			}

			if jsonOutput() {
				return printJSON(results)
			}
			return report.Tickers(os.Stdout, results)
		},
	}

	rf.register(cmd)
	cmd.Flags().StringVar(&tickerFlag, "ticker", "", "one ticker, or a comma-separated subset of the list")
	cmd.Flags().Float64Var(&lo, "min", 5, "lowest threshold")
	cmd.Flags().Float64Var(&hi, "max", 30, "highest threshold")
	cmd.Flags().Float64Var(&step, "step", 1, "threshold step")
	cmd.Flags().StringVar(&metricName, "metric", string(backtest.MetricProfit), "profit, result_pct, ld, win_rate, profit_factor")
	return cmd
}
