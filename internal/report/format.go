// Package report renders backtest results as terminal tables.
package report

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var brl = message.NewPrinter(language.BrazilianPortuguese)

// Money formats v as Brazilian reais, e.g. R$ 1.234,56
func Money(v float64) string {
	if v < 0 {
		return "-R$ " + brl.Sprintf("%.2f", -v)
	}
	return "R$ " + brl.Sprintf("%.2f", v)
}

// Number formats v with two decimals in Brazilian notation
func Number(v float64) string {
	if math.IsNaN(v) {
		return "N/A"
	}
	return brl.Sprintf("%.2f", v)
}

// Pct formats a percentage with sign-free two decimals
func Pct(v float64) string {
	return Number(v) + "%"
}

// Volume abbreviates large volumes: 1.50K, 2.30M, 4.00B
func Volume(v float64) string {
	switch {
	case math.IsNaN(v):
		return "N/A"
	case v >= 1e9:
		return fmt.Sprintf("%.2fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%.2fM", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%.2fK", v/1e3)
	}
	return fmt.Sprintf("%.2f", v)
}

// Date formats t as dd/mm/yyyy, or "-" when zero
func Date(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02/01/2006")
}
