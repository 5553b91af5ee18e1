// Package export writes ranking files consumed by trading platforms and
// by the alert scans.
package export

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"setuplab/internal/backtest"
)

const (
	IFRDataFile     = "ifr_dados.txt"
	RankingRSIFile  = "ranking_rsi.txt"
	Setup123File    = "setup123_dados.txt"
	Ranking123File  = "ranking_fundo.txt"
	blueListSuffix  = "-lista_azul.set"
	timestampLayout = "20060102150405"
)

// BlueListName returns the timestamped name of the platform watch list
func BlueListName(at time.Time) string {
	return at.Format(timestampLayout) + blueListSuffix
}

// commaDecimal formats v with two decimals and a decimal comma
func commaDecimal(v float64) string {
	return strings.Replace(decimal.NewFromFloat(v).StringFixed(2), ".", ",", 1)
}

// twoYearThreshold is the threshold chosen in the two-year window, falling
// back to the reference one
func twoYearThreshold(r backtest.Ranking) float64 {
	if w, ok := r.Window(2); ok && w.HasThreshold {
		return w.Threshold
	}
	return r.BestThreshold
}

func writeLines(w io.Writer, lines func(bw *bufio.Writer)) error {
	bw := bufio.NewWriter(w)
	lines(bw)
	return bw.Flush()
}

// recentThreshold is the most recent window's threshold, falling back to
// the stored best
func recentThreshold(r backtest.Ranking) float64 {
	if v, ok := r.RecentThreshold(); ok {
		return v
	}
	return r.BestThreshold
}

// WriteIFRData writes TICKER;BEST_IFR lines
func WriteIFRData(w io.Writer, rankings []backtest.Ranking) error {
	return writeLines(w, func(bw *bufio.Writer) {
		for _, r := range rankings {
			fmt.Fprintf(bw, "%s;%d\n", r.Ticker, int(recentThreshold(r)))
		}
	})
}

// WriteRankingRSI writes TICKER;IFR_2Y;LD lines
func WriteRankingRSI(w io.Writer, rankings []backtest.Ranking) error {
	return writeLines(w, func(bw *bufio.Writer) {
		for _, r := range rankings {
			fmt.Fprintf(bw, "%s;%d;%s\n", r.Ticker, int(twoYearThreshold(r)), commaDecimal(r.CompositeLD))
		}
	})
}

// WriteSetup123Data writes TICKER;SETUP123 lines
func WriteSetup123Data(w io.Writer, rankings []backtest.Ranking) error {
	return writeLines(w, func(bw *bufio.Writer) {
		for _, r := range rankings {
			fmt.Fprintf(bw, "%s;SETUP123\n", r.Ticker)
		}
	})
}

// WriteRanking123 writes TICKER;LD lines
func WriteRanking123(w io.Writer, rankings []backtest.Ranking) error {
	return writeLines(w, func(bw *bufio.Writer) {
		for _, r := range rankings {
			fmt.Fprintf(bw, "%s;%s\n", r.Ticker, commaDecimal(r.CompositeLD))
		}
	})
}

// WriteBlueList writes a random id in 1..1000 followed by one ticker per line
func WriteBlueList(w io.Writer, id int, rankings []backtest.Ranking) error {
	return writeLines(w, func(bw *bufio.Writer) {
		fmt.Fprintf(bw, "%d\n", id)
		for _, r := range rankings {
			fmt.Fprintln(bw, r.Ticker)
		}
	})
}

// Exporter writes the file set of a ranking into a directory
type Exporter struct {
	dir  string
	now  func() time.Time
	intn func(n int) int
}

// New creates an Exporter writing into dir
func New(dir string) *Exporter {
	return &Exporter{dir: dir, now: time.Now, intn: rand.Intn}
}

// Export writes the files for setup and returns their paths. Excluded
// rankings are left out.
func (e *Exporter) Export(setup string, rankings []backtest.Ranking) ([]string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating export dir: %w", err)
	}
	eligible := backtest.Eligible(rankings)

	type file struct {
		name  string
		write func(io.Writer, []backtest.Ranking) error
	}
	var files []file
	switch setup {
	case "ifr":
		files = []file{{IFRDataFile, WriteIFRData}, {RankingRSIFile, WriteRankingRSI}}
	case "123":
		files = []file{{Setup123File, WriteSetup123Data}, {Ranking123File, WriteRanking123}}
	default:
		return nil, &backtest.UnknownError{Kind: "setup", Name: setup}
	}

	id := e.intn(1000) + 1
	files = append(files, file{BlueListName(e.now()), func(w io.Writer, r []backtest.Ranking) error {
		return WriteBlueList(w, id, r)
	}})

	paths := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(e.dir, f.name)
		if err := writeFile(path, eligible, f.write); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, rankings []backtest.Ranking, write func(io.Writer, []backtest.Ranking) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f, rankings); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}
