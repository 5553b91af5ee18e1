package position

import (
	"math"
	"time"
)

// LotSize is the standard round lot on B3
const LotSize = 100

// Quantity returns how many shares capital buys at price, rounded down to a
// whole number of lots: floor(capital / price / LotSize) × LotSize.
// Zero means the entry must be skipped.
func Quantity(capital, price float64) int {
	if capital <= 0 || price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return 0
	}
	lots := math.Floor(math.Floor(capital/price) / LotSize)
	return int(lots) * LotSize
}

// Position is the transient state of an open long position.
// It exists only between an entry and its matching exit.
type Position struct {
	EntryIndex int       `json:"-"`
	EntryDate  time.Time `json:"entry_date"`
	EntryPrice float64   `json:"entry_price"`
	Quantity   int       `json:"quantity"`
	Stop       float64   `json:"stop,omitempty"`   // 0 when no stop is set
	Target     float64   `json:"target,omitempty"` // 0 when no target is set
	HoldDays   int       `json:"hold_days"`
	MaxPrice   float64   `json:"max_price"` // highest high while held
	Signal     float64   `json:"signal,omitempty"`
}

// Open creates a position for capital at price. ok is false when the lot
// rounding leaves zero shares.
func Open(index int, date time.Time, price, capital float64) (pos *Position, ok bool) {
	qty := Quantity(capital, price)
	if qty == 0 {
		return nil, false
	}
	return &Position{
		EntryIndex: index,
		EntryDate:  date,
		EntryPrice: price,
		Quantity:   qty,
		MaxPrice:   price,
	}, true
}

// HasStop reports whether a stop price is set
func (p *Position) HasStop() bool {
	return p.Stop > 0
}

// Invested returns the cash committed at entry
func (p *Position) Invested() float64 {
	return p.EntryPrice * float64(p.Quantity)
}

// ProfitAt returns the gross profit of closing the whole position at price
func (p *Position) ProfitAt(price float64) float64 {
	return (price - p.EntryPrice) * float64(p.Quantity)
}

// Track records one more held bar and its high
func (p *Position) Track(high float64) {
	p.HoldDays++
	if high > p.MaxPrice {
		p.MaxPrice = high
	}
}

// TrailingStop returns the stop after trailing pct below the highest high,
// never lower than the initial stop
func (p *Position) TrailingStop(pct float64) float64 {
	trail := p.MaxPrice * (1 - pct/100)
	return math.Max(p.Stop, trail)
}
