package alert

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"setuplab/internal/report"
)

const separator = "─────────────\n"

func reais(v float64) string {
	return "R$" + report.Number(v)
}

// FormatIFR builds the IFR alert text
func FormatIFR(signals []IFRSignal, at time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "SETUP RSI - TOP %d\n", len(signals))
	fmt.Fprintf(&b, "Data: %s\n\n", at.Format("02/01/2006 15:04"))
	if len(signals) == 0 {
		b.WriteString("Nenhum ativo passou nos filtros.")
		return b.String()
	}
	for _, s := range signals {
		fmt.Fprintf(&b, "%s | LD=%.2f\n", s.Ticker, s.LD)
		fmt.Fprintf(&b, "RSI=%.2f (<%s)\n", s.RSI, strconv.FormatFloat(s.Reference, 'f', -1, 64))
		fmt.Fprintf(&b, "Preço=%s\n", reais(s.Price))
		fmt.Fprintf(&b, "EMA21=%s (%+.2f%%)\n", reais(s.EMA), s.EMADistPct)
		fmt.Fprintf(&b, "SMA200=%s\n", reais(s.SMA))
		b.WriteString(separator)
	}
	return b.String()
}

// Format123 builds the Setup 123 alert text
func Format123(signals []Signal123, filter bool, at time.Time) string {
	var b strings.Builder
	b.WriteString("📈 Setup 123 Compra\n")
	if filter {
		b.WriteString("Filtro EMAs: Ativado\n")
	} else {
		b.WriteString("Filtro EMAs: Desativado\n")
	}
	fmt.Fprintf(&b, "Data: %s\n\n", at.Format("02/01/2006 15:04"))
	if len(signals) == 0 {
		b.WriteString("Nenhum ativo passou nos filtros.")
		return b.String()
	}
	for _, s := range signals {
		ld := "N/A"
		if s.HasLD {
			ld = fmt.Sprintf("%.2f", s.LD)
		}
		fmt.Fprintf(&b, "%s | LD=%s\n", s.Ticker, ld)
		fmt.Fprintf(&b, "Entrada=%s\n", reais(s.Entry))
		fmt.Fprintf(&b, "Stop=%s\n", reais(s.Stop))
		fmt.Fprintf(&b, "Alvo=%s (2x ampl=%s)\n", reais(s.Target), reais(s.Amplitude))
		b.WriteString(separator)
	}
	return b.String()
}
