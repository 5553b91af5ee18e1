package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"setuplab/internal/backtest"
	"setuplab/internal/liquidity"
	"setuplab/internal/store"
	"setuplab/internal/updater"
)

func threshold(v float64, ok bool) string {
	if !ok {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func render(w io.Writer, header []string, rows [][]string) error {
	table := tablewriter.NewTable(w,
		tablewriter.WithHeader(header),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

// Run prints the summary of a single run followed by its trades
func Run(w io.Writer, r *backtest.RunResult) error {
	fmt.Fprintf(w, "%s  setup=%s  threshold=%s\n", r.Ticker, r.Setup, threshold(r.Threshold, r.HasThreshold))
	fmt.Fprintf(w, "Period: %s - %s (%d days, %d bars)\n", Date(r.EffectiveStart), Date(r.EffectiveEnd), r.EffectiveDays, r.Bars)
	if r.InsufficientWarmup {
		fmt.Fprintln(w, "Warning: not enough history before the start date, early signals may be missing")
	}

	err := render(w, []string{"Trades", "Wins", "Win Rate", "Profit", "Result", "Drawdown", "PF", "LD"}, [][]string{{
		strconv.Itoa(r.TradeCount),
		strconv.Itoa(r.Wins),
		Pct(r.WinRate),
		Money(r.TotalProfit),
		Pct(r.ResultPct),
		Pct(r.DrawdownPct),
		Number(r.ProfitFactor),
		Number(r.LDIndex),
	}})
	if err != nil {
		return err
	}

	if r.PatternsFound > 0 {
		fmt.Fprintf(w, "Patterns: %d (filtered by EMAs: %d)\n", r.PatternsFound, r.EdenFiltered)
	}
	if r.SkippedLots > 0 {
		fmt.Fprintf(w, "Signals skipped (capital below one lot): %d\n", r.SkippedLots)
	}
	if r.Open != nil {
		fmt.Fprintf(w, "Open position: %d @ %s since %s\n", r.Open.Quantity, Money(r.Open.EntryPrice), Date(r.Open.EntryDate))
	}
	if len(r.Trades) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	return Trades(w, r.Trades)
}

// Trades prints one row per trade
func Trades(w io.Writer, trades []backtest.Trade) error {
	rows := make([][]string, 0, len(trades))
	for _, t := range trades {
		rows = append(rows, []string{
			Date(t.EntryDate),
			Date(t.ExitDate),
			Money(t.EntryPrice),
			Money(t.ExitPrice),
			strconv.Itoa(t.Quantity),
			strconv.Itoa(t.HoldDays),
			Money(t.Profit),
			Pct(t.ReturnPct),
			string(t.Reason),
		})
	}
	return render(w, []string{"Entry", "Exit", "Buy", "Sell", "Qty", "Days", "Profit", "Return", "Reason"}, rows)
}

// Sweep prints every threshold of a single-ticker sweep
func Sweep(w io.Writer, runs []*backtest.RunResult) error {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			threshold(r.Threshold, r.HasThreshold),
			strconv.Itoa(r.TradeCount),
			Pct(r.WinRate),
			Money(r.TotalProfit),
			Pct(r.ResultPct),
			Pct(r.DrawdownPct),
			Number(r.LDIndex),
		})
	}
	return render(w, []string{"Threshold", "Trades", "Win Rate", "Profit", "Result", "Drawdown", "LD"}, rows)
}

// Tickers prints the best run of each ticker of a list sweep
func Tickers(w io.Writer, results []backtest.TickerResult) error {
	rows := make([][]string, 0, len(results))
	for i, t := range results {
		if t.Best == nil {
			reason := t.Err
			if reason == "" {
				reason = "no runs"
			}
			rows = append(rows, []string{strconv.Itoa(i + 1), t.Ticker, "-", "-", "-", "-", "-", reason})
			continue
		}
		b := t.Best
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			t.Ticker,
			threshold(b.Threshold, b.HasThreshold),
			strconv.Itoa(b.TradeCount),
			Money(b.TotalProfit),
			Pct(b.DrawdownPct),
			Number(b.LDIndex),
			"",
		})
	}
	return render(w, []string{"#", "Ticker", "Best", "Trades", "Profit", "Drawdown", "LD", "Note"}, rows)
}

// Rankings prints multi-period rankings; excluded tickers show their reason
func Rankings(w io.Writer, rankings []backtest.Ranking, windows []int) error {
	header := []string{"#", "Ticker"}
	for _, y := range windows {
		header = append(header, fmt.Sprintf("%dY", y))
	}
	header = append(header, "Profit/yr", "DD/yr", "Trades/yr", "LD", "Best", "Note")

	rows := make([][]string, 0, len(rankings))
	for i, r := range rankings {
		row := []string{strconv.Itoa(i + 1), r.Ticker}
		for _, y := range windows {
			if wr, ok := r.Window(y); ok {
				row = append(row, threshold(wr.Threshold, wr.HasThreshold))
			} else {
				row = append(row, "-")
			}
		}
		row = append(row,
			Pct(r.AvgProfitPct),
			Pct(r.AvgDrawdownPct),
			Number(r.AvgTrades),
			Number(r.CompositeLD),
			strconv.FormatFloat(r.BestThreshold, 'f', -1, 64),
			r.Reason,
		)
		rows = append(rows, row)
	}
	return render(w, header, rows)
}

// Liquidity prints average-volume rankings
func Liquidity(w io.Writer, entries []liquidity.Entry) error {
	rows := make([][]string, 0, len(entries))
	for i, e := range entries {
		rows = append(rows, []string{strconv.Itoa(i + 1), e.Ticker, Volume(e.AvgVolume), Date(e.Date)})
	}
	return render(w, []string{"#", "Ticker", "Avg Volume", "Date"}, rows)
}

// Updates prints one row per updated list plus any failures
func Updates(w io.Writer, reports []*updater.Report) error {
	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		rows = append(rows, []string{
			r.List,
			strconv.Itoa(r.Tickers),
			strconv.Itoa(r.Updated),
			strconv.Itoa(len(r.Failed)),
			strconv.Itoa(r.Bars),
			r.Elapsed.Round(time.Millisecond).String(),
		})
	}
	if err := render(w, []string{"List", "Tickers", "Updated", "Failed", "Bars", "Elapsed"}, rows); err != nil {
		return err
	}
	for _, r := range reports {
		for _, f := range r.Failed {
			fmt.Fprintf(w, "  %s/%s: %s\n", r.List, f.Ticker, f.Err)
		}
	}
	return nil
}

// Lists prints what the store holds per list
func Lists(w io.Writer, lists []store.ListSummary) error {
	rows := make([][]string, 0, len(lists))
	for _, l := range lists {
		rows = append(rows, []string{l.List, strconv.Itoa(l.Tickers), strconv.Itoa(l.Bars), Date(l.First), Date(l.Last)})
	}
	return render(w, []string{"List", "Tickers", "Bars", "First", "Last"}, rows)
}
