package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"golang.org/x/text/encoding/charmap"

	"setuplab/internal/report"
	"setuplab/internal/symbols"
)

func newListsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lists",
		Short: "Show ticker lists and what the bar cache holds for them",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			names, err := a.loader.Lists()
			if err != nil {
				return err
			}
			st, err := a.openStore(context.Background())
			if err != nil {
				return err
			}
			summary, err := st.Summary(context.Background())
			if err != nil {
				return err
			}

			if jsonOutput() {
				return printJSON(map[string]any{"lists": names, "stored": summary})
			}
			fmt.Printf("Lists: %s\n\n", strings.Join(names, ", "))
			return report.Lists(os.Stdout, summary)
		},
	}

	cmd.AddCommand(newListsImportCmd())
	return cmd
}

func newListsImportCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "import <b3-export.csv>",
		Short: "Create a list from a B3 index composition export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			content := string(raw)
			if !utf8.ValidString(content) {
				// B3 serves its exports in Latin-1
				if content, err = charmap.ISO8859_1.NewDecoder().String(content); err != nil {
					return fmt.Errorf("decoding %s: %w", args[0], err)
				}
			}

			tickers := symbols.ParseB3Export(content, name)
			if len(tickers) == 0 {
				return fmt.Errorf("no tickers found in %s", args[0])
			}
			if err := a.loader.Save(name, tickers); err != nil {
				return err
			}
			fmt.Printf("Saved %d tickers to list %s\n", len(tickers), name)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "list name, e.g. IBOV, SMLL, BDRX")
	cmd.MarkFlagRequired("name")
	return cmd
}
