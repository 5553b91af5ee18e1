package market

import "time"

type monthDay struct {
	month time.Month
	day   int
}

// Fixed-date days without a B3 session
var fixedHolidays = []monthDay{
	{time.January, 1},
	{time.April, 21}, // Tiradentes
	{time.May, 1},    // Labour Day
	{time.September, 7},
	{time.October, 12},
	{time.November, 2},
	{time.November, 15},
	{time.December, 24},
	{time.December, 25},
	{time.December, 31},
}

// easter returns Easter Sunday of year (Gregorian computus)
func easter(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// IsHoliday reports whether t's calendar day is a national holiday or one
// of the Easter-based days B3 closes on: Carnival Monday and Tuesday, Good
// Friday and Corpus Christi
func IsHoliday(t time.Time) bool {
	y, m, d := t.Date()
	for _, h := range fixedHolidays {
		if h.month == m && h.day == d {
			return true
		}
	}
	// Black Consciousness Day became a national holiday in 2024
	if y >= 2024 && m == time.November && d == 20 {
		return true
	}

	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	e := easter(y)
	for _, offset := range []int{-48, -47, -2, 60} {
		if day.Equal(e.AddDate(0, 0, offset)) {
			return true
		}
	}
	return false
}
