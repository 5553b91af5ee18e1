package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"setuplab/internal/report"
	"setuplab/internal/updater"
)

func newUpdateCmd() *cobra.Command {
	var years int

	cmd := &cobra.Command{
		Use:   "update [lists...]",
		Short: "Download daily bars of every ticker of the given lists (default: all)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			if cmd.Flags().Changed("years") {
				a.cfg.Update.Years = years
			}

			lists := args
			if len(lists) == 0 {
				if lists, err = a.loader.Lists(); err != nil {
					return err
				}
			}

			ctx, cancel := signalContext("update")
			defer cancel()

			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}

			u := updater.New(a.yahoo(), st, a.logger, a.cfg.Update.Years)

			var reports []*updater.Report
			for _, list := range lists {
				tickers, err := a.loader.LoadTickers(list)
				if err != nil {
					return err
				}

				bar := newProgressBar(len(tickers), "Updating "+list)
				u.SetProgressCallback(func(done, _ int, _ string) { bar.Set(done) })
				rep, err := u.UpdateList(ctx, list, tickers)
				bar.Finish()
				fmt.Fprintln(os.Stderr)

				if rep != nil {
					reports = append(reports, rep)
				}
				if err != nil {
					break
				}
			}

			if jsonOutput() {
				return printJSON(reports)
			}
			return report.Updates(os.Stdout, reports)
		},
	}

	cmd.Flags().IntVar(&years, "years", 10, "years of history to keep")
	return cmd
}
