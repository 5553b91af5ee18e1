package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	format  string
	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "setuplab",
		Short: "Backtest and rank B3 trading setups",
		Long: `Setuplab keeps a local cache of daily B3 bars and backtests setups on it:

Setups:
  ifr     - IFR (RSI) mean reversion, exit on the breakout of recent highs
  123     - three-bar bottom reversal with a 2:1 target
  maxmin  - buy at the low of recent bars, exit at the high

Examples:
  setuplab update IBOV
  setuplab backtest PETR4 --list IBOV --setup ifr --threshold 25
  setuplab rank --list IBOV --setup ifr --save --export
  setuplab alert ifr --file outputs/ranking_rsi.txt`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&format, "format", "table", "output format: table, json")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "show debug logs")

	rootCmd.AddCommand(
		newUpdateCmd(),
		newListsCmd(),
		newBacktestCmd(),
		newSweepCmd(),
		newRankCmd(),
		newLiquidCmd(),
		newAlertCmd(),
		newServeCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
