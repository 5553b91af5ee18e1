package position

import (
	"testing"
	"time"
)

func TestQuantity(t *testing.T) {
	tests := []struct {
		name     string
		capital  float64
		price    float64
		expected int
	}{
		{"Capital too small for one lot", 1000, 15, 0},
		{"Exact lots", 100000, 10, 10000},
		{"Rounds down to lot", 100000, 7, 14200},
		{"Just under one lot", 1499, 15, 0},
		{"One lot", 1500, 15, 100},
		{"Zero price", 100000, 0, 0},
		{"Negative capital", -5, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Quantity(tt.capital, tt.price)
			if got != tt.expected {
				t.Errorf("Quantity(%v, %v) = %d, expected %d", tt.capital, tt.price, got, tt.expected)
			}
			if got%LotSize != 0 {
				t.Errorf("Quantity %d is not a multiple of %d", got, LotSize)
			}
		})
	}
}

func TestOpen(t *testing.T) {
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	if _, ok := Open(0, date, 15, 1000); ok {
		t.Error("Expected no position when lot rounds to zero")
	}

	pos, ok := Open(3, date, 20, 10000)
	if !ok {
		t.Fatal("Expected position to open")
	}
	if pos.Quantity != 500 {
		t.Errorf("Expected 500 shares, got %d", pos.Quantity)
	}
	if pos.Invested() != 10000 {
		t.Errorf("Expected 10000 invested, got %f", pos.Invested())
	}
	if pos.ProfitAt(22) != 1000 {
		t.Errorf("Expected profit 1000, got %f", pos.ProfitAt(22))
	}
}

func TestTrailingStop(t *testing.T) {
	pos := &Position{EntryPrice: 100, Quantity: 100, Stop: 95, MaxPrice: 100}

	if got := pos.TrailingStop(10); got != 95 {
		t.Errorf("Expected initial stop 95 to hold, got %f", got)
	}

	pos.Track(120)
	if pos.HoldDays != 1 {
		t.Errorf("Expected 1 hold day, got %d", pos.HoldDays)
	}
	if got := pos.TrailingStop(10); got != 108 {
		t.Errorf("Expected trailing stop 108, got %f", got)
	}
}
