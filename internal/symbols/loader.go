package symbols

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"setuplab/pkg/model"
)

// YahooSuffix marks B3 tickers on Yahoo Finance
const YahooSuffix = ".SA"

// ErrUnknownList is returned for a list with neither a file nor a built-in universe
var ErrUnknownList = errors.New("unknown list")

// Loader reads ticker lists from <dir>/<list>.csv files, one ticker per line
type Loader struct {
	dir string
}

// NewLoader creates a loader over dir
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// Dir returns the directory the lists are read from
func (l *Loader) Dir() string {
	return l.dir
}

// Lists returns the available list names: files first, then built-in
// universes not shadowed by a file
func (l *Loader) Lists() ([]string, error) {
	seen := make(map[string]bool)
	var names []string

	entries, err := os.ReadDir(l.dir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading %s: %w", l.dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		seen[name] = true
		names = append(names, name)
	}
	sort.Strings(names)

	for _, u := range Universes() {
		if !seen[string(u)] {
			names = append(names, string(u))
		}
	}
	return names, nil
}

// Load returns the stocks of list. A list file wins over a built-in
// universe with the same name.
func (l *Loader) Load(list string) ([]model.Stock, error) {
	path := filepath.Join(l.dir, list+".csv")
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		tickers := GetUniverse(Universe(list))
		if tickers == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownList, list)
		}
		return toStocks(list, tickers), nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var tickers []string
	seen := make(map[string]bool)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// tolerate extra columns
		if i := strings.IndexAny(line, ";,\t"); i >= 0 {
			line = line[:i]
		}
		t := Ticker(line)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tickers = append(tickers, t)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return toStocks(list, tickers), nil
}

// LoadTickers is Load returning only the ticker codes
func (l *Loader) LoadTickers(list string) ([]string, error) {
	stocks, err := l.Load(list)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(stocks))
	for i, s := range stocks {
		out[i] = s.Symbol
	}
	return out, nil
}

// Save writes tickers as list, one per line
func (l *Loader) Save(list string, tickers []string) error {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", l.dir, err)
	}
	var b strings.Builder
	for _, t := range tickers {
		b.WriteString(Ticker(t))
		b.WriteByte('\n')
	}
	return os.WriteFile(filepath.Join(l.dir, list+".csv"), []byte(b.String()), 0o644)
}

func toStocks(list string, tickers []string) []model.Stock {
	stocks := make([]model.Stock, len(tickers))
	for i, t := range tickers {
		stocks[i] = model.Stock{Symbol: t, Name: t, List: list}
	}
	return stocks
}

// Ticker normalises a code to the bare B3 ticker: trimmed, upper case,
// without the Yahoo suffix
func Ticker(code string) string {
	code = strings.ToUpper(strings.TrimSpace(strings.Trim(code, `"`)))
	return strings.TrimSuffix(code, YahooSuffix)
}

// YahooSymbol returns the Yahoo Finance symbol of a B3 ticker
func YahooSymbol(ticker string) string {
	t := Ticker(ticker)
	if t == "" || strings.HasPrefix(t, "^") {
		return t
	}
	return t + YahooSuffix
}

var (
	stockPattern = regexp.MustCompile(`^[A-Z]{4}(3|4|11)$`)
	bdrPattern   = regexp.MustCompile(`^[A-Z]{4}34$`)
)

// ParseB3Export extracts tickers from a B3 index composition export:
// ';'-separated, two header lines and a footer. BDR lists (name contains
// "BDR") match BDR codes instead of shares and units.
func ParseB3Export(content, list string) []string {
	pattern := stockPattern
	if strings.Contains(strings.ToUpper(list), "BDR") {
		pattern = bdrPattern
	}

	var out []string
	for i, line := range strings.Split(strings.TrimSpace(content), "\n") {
		line = strings.TrimSpace(line)
		if i < 2 || strings.HasPrefix(line, "Quantidade") || strings.HasPrefix(line, "Redutor") {
			continue
		}
		for _, part := range strings.Split(line, ";") {
			part = strings.TrimSpace(strings.ReplaceAll(part, `"`, ""))
			if pattern.MatchString(part) {
				out = append(out, part)
				break
			}
		}
	}
	return out
}
