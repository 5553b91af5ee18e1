package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"setuplab/internal/backtest"
	"setuplab/internal/export"
	"setuplab/internal/report"
)

func newRankCmd() *cobra.Command {
	var (
		rf         runFlags
		tickerFlag string
		windows    []int
		minLD      float64
		lo, hi     float64
		save       bool
		doExport   bool
		all        bool
	)

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank a list by LD index over 10/5/3/2/1-year windows",
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

			opts := a.cfg.RankOptions()
			if cmd.Flags().Changed("windows") {
				opts.Windows = windows
			}
			if cmd.Flags().Changed("min-ld") {
				opts.MinLD = &minLD
			}

			ctx, cancel := signalContext("ranking")
			defer cancel()

			tickers, err := a.tickers(ctx, rf.list, tickerFlag)
			if err != nil {
				return err
			}
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}

			bar := newProgressBar(len(tickers), "Ranking "+rf.list)
			rankings, err := backtest.RankMultiPeriod(ctx, st, rf.list, tickers, p, grid.Values(), opts, progress(bar))
			bar.Finish()
			fmt.Fprintln(os.Stderr)
			if err != nil {
				return err
			}

			if save {
				entries, err := export.StoreEntries(rankings)
				if err != nil {
					return err
				}
				id, err := st.SaveRanking(ctx, rf.list, p.Setup.Name(), entries)
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "Saved ranking %s\n", id)
			}
			if doExport {
				paths, err := export.New(a.cfg.Data.ExportDir).Export(p.Setup.Name(), rankings)
				if err != nil {
					return err
				}
				for _, path := range paths {
					fmt.Fprintf(os.Stderr, "Wrote %s\n", path)
				}
			}

			shown := rankings
			if !all {
				shown = backtest.Eligible(rankings)
			}
			if jsonOutput() {
				return printJSON(shown)
			}
			if err := report.Rankings(os.Stdout, shown, opts.Windows); err != nil {
				return err
			}
			fmt.Printf("\n%d of %d tickers eligible\n", len(backtest.Eligible(rankings)), len(rankings))
			return nil
		},
	}

	rf.register(cmd)
	cmd.Flags().StringVar(&tickerFlag, "tickers", "", "comma-separated subset of the list")
	cmd.Flags().IntSliceVar(&windows, "windows", backtest.DefaultWindows, "look-back windows in years")
	cmd.Flags().Float64Var(&minLD, "min-ld", 0, "exclude tickers whose composite LD is below this")
	cmd.Flags().Float64Var(&lo, "min", 5, "lowest threshold")
	cmd.Flags().Float64Var(&hi, "max", 30, "highest threshold")
	cmd.Flags().BoolVar(&save, "save", false, "store the ranking in the bar cache")
	cmd.Flags().BoolVar(&doExport, "export", false, "write the ranking files to the export dir")
	cmd.Flags().BoolVar(&all, "all", false, "show excluded tickers too")
	return cmd
}
