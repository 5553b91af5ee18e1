// Package market knows when the B3 regular session runs.
package market

import (
	"context"
	"fmt"
	"time"
	_ "time/tzdata" // São Paulo zone on hosts without a zoneinfo database
)

// Schedule is the regular session in São Paulo time
type Schedule struct {
	OpenHour  int
	OpenMin   int
	CloseHour int
	CloseMin  int
}

// DefaultSchedule returns the B3 cash equities session, 10:00 to 17:00
func DefaultSchedule() Schedule {
	return Schedule{
		OpenHour:  10,
		OpenMin:   0,
		CloseHour: 17,
		CloseMin:  0,
	}
}

// Status describes the session at a moment
type Status struct {
	IsOpen      bool
	Now         time.Time // in São Paulo time
	OpenTime    time.Time
	CloseTime   time.Time
	TimeToOpen  time.Duration
	TimeToClose time.Duration
	Reason      string // "open", "weekend", "holiday", "pre-market", "after-hours"
}

// Location returns the São Paulo zone, falling back to a fixed UTC-3
func Location() *time.Location {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		loc = time.FixedZone("BRT", -3*60*60)
	}
	return loc
}

func (s Schedule) at(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}

// IsTradingDay reports whether B3 holds a session on t's calendar day
func IsTradingDay(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !IsHoliday(t)
}

// nextTradingDay returns the first trading day after day
func nextTradingDay(day time.Time) time.Time {
	next := day.AddDate(0, 0, 1)
	for !IsTradingDay(next) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// StatusAt returns the session status at now
func (s Schedule) StatusAt(now time.Time) Status {
	now = now.In(Location())
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	st := Status{
		Now:       now,
		OpenTime:  s.at(today, s.OpenHour, s.OpenMin),
		CloseTime: s.at(today, s.CloseHour, s.CloseMin),
	}

	if !IsTradingDay(today) {
		st.Reason = "holiday"
		if wd := today.Weekday(); wd == time.Saturday || wd == time.Sunday {
			st.Reason = "weekend"
		}
		st.TimeToOpen = s.at(nextTradingDay(today), s.OpenHour, s.OpenMin).Sub(now)
		return st
	}

	switch {
	case now.Before(st.OpenTime):
		st.Reason = "pre-market"
		st.TimeToOpen = st.OpenTime.Sub(now)
	case !now.Before(st.CloseTime):
		st.Reason = "after-hours"
		st.TimeToOpen = s.at(nextTradingDay(today), s.OpenHour, s.OpenMin).Sub(now)
	default:
		st.IsOpen = true
		st.Reason = "open"
		st.TimeToClose = st.CloseTime.Sub(now)
	}
	return st
}

// NextClose returns the first session close strictly after now
func (s Schedule) NextClose(now time.Time) time.Time {
	now = now.In(Location())
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if !IsTradingDay(day) {
		day = nextTradingDay(day)
	}
	if c := s.at(day, s.CloseHour, s.CloseMin); c.After(now) {
		return c
	}
	return s.at(nextTradingDay(day), s.CloseHour, s.CloseMin)
}

// Sleep waits for d or until ctx is done
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// FormatDuration formats d as "2h 5m" or "5m"
func FormatDuration(d time.Duration) string {
	if d < 0 {
		return "0s"
	}

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
