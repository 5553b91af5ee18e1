// Package alert scans the latest bars of ranked tickers for setups that
// trigger today.
package alert

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"setuplab/internal/symbols"
)

// IFRRef is one line of an IFR ranking file: the ticker's reference
// threshold and its LD index
type IFRRef struct {
	Ticker string  `json:"ticker"`
	IFR    float64 `json:"ifr"`
	LD     float64 `json:"ld"`
}

// Ref123 is one line of a Setup 123 ranking file. LD is optional.
type Ref123 struct {
	Ticker string  `json:"ticker"`
	LD     float64 `json:"ld"`
	HasLD  bool    `json:"has_ld"`
}

// parseNumber accepts both comma and dot decimals
func parseNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
}

// fields yields the ';'-separated fields of every non-blank, non-comment line
func fields(r io.Reader, fn func(line int, parts []string) error) error {
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, ";")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if err := fn(n, parts); err != nil {
			return err
		}
	}
	return sc.Err()
}

// ParseIFRRanking reads TICKER;IFR;LD lines. Lines with fewer than three
// fields or unparseable numbers are skipped.
func ParseIFRRanking(r io.Reader) ([]IFRRef, error) {
	var out []IFRRef
	err := fields(r, func(_ int, parts []string) error {
		if len(parts) < 3 || parts[0] == "" {
			return nil
		}
		ifr, err := parseNumber(parts[1])
		if err != nil {
			return nil
		}
		ld, err := parseNumber(parts[2])
		if err != nil {
			return nil
		}
		out = append(out, IFRRef{Ticker: symbols.Ticker(parts[0]), IFR: ifr, LD: ld})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading IFR ranking: %w", err)
	}
	return out, nil
}

// Parse123Ranking reads TICKER;LD lines; a missing or invalid LD leaves
// HasLD false.
func Parse123Ranking(r io.Reader) ([]Ref123, error) {
	var out []Ref123
	err := fields(r, func(_ int, parts []string) error {
		if parts[0] == "" {
			return nil
		}
		ref := Ref123{Ticker: symbols.Ticker(parts[0])}
		if len(parts) > 1 {
			if ld, err := parseNumber(parts[1]); err == nil {
				ref.LD, ref.HasLD = ld, true
			}
		}
		out = append(out, ref)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading 123 ranking: %w", err)
	}
	return out, nil
}
