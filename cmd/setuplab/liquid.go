package main

import (
	"os"

	"github.com/spf13/cobra"

	"setuplab/internal/liquidity"
	"setuplab/internal/report"
	"setuplab/internal/symbols"
)

func newLiquidCmd() *cobra.Command {
	var (
		list   string
		period int
		top    int
	)

	cmd := &cobra.Command{
		Use:   "liquid",
		Short: "Show the most traded tickers of a list by average volume",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			if !cmd.Flags().Changed("period") {
				period = a.cfg.Liquidity.Period
			}
			if !cmd.Flags().Changed("top") {
				top = a.cfg.Liquidity.Top
			}

			ctx, cancel := signalContext("liquidity ranking")
			defer cancel()

			tickers, err := a.tickers(ctx, list, "")
			if err != nil {
				return err
			}
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}

			entries, err := liquidity.Rank(ctx, st, list, tickers, period, top)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return printJSON(entries)
			}
			return report.Liquidity(os.Stdout, entries)
		},
	}

	cmd.Flags().StringVar(&list, "list", string(symbols.UniverseIBOV), "ticker list")
	cmd.Flags().IntVar(&period, "period", liquidity.DefaultPeriod, "bars in the volume average")
	cmd.Flags().IntVar(&top, "top", 50, "tickers to show (0: all)")
	return cmd
}
