package backtest

import (
	"fmt"
	"time"
)

// Setup is one of the entry/exit rule sets the engine knows how to simulate.
// The set is closed: only IFRSetup, Setup123 and MaxMinSetup implement it.
type Setup interface {
	Name() string
	// Threshold returns the swept parameter, if the setup has one
	Threshold() (float64, bool)
	// WithThreshold returns a copy with the swept parameter replaced
	WithThreshold(v float64) Setup
	Validate() error

	// longestPeriod is the number of bars the setup's indicators need
	longestPeriod() int
	simulate(s *sim)
}

// Optional features. A nil pointer means the feature is off.

// TrendFilter requires close above a moving average before entering
type TrendFilter struct {
	Period      int  `yaml:"period" json:"period"`
	Exponential bool `yaml:"exponential" json:"exponential"`
}

// Timeout closes a position after a number of bars
type Timeout struct {
	Days int `yaml:"days" json:"days"`
}

// StopLoss places a stop below the entry price
type StopLoss struct {
	Pct float64 `yaml:"pct" json:"pct"`
}

// TrailingStop raises the stop as the highest high since entry rises
type TrailingStop struct {
	Pct float64 `yaml:"pct" json:"pct"`
}

// Eden only accepts 123 entries above both a fast and a slow EMA
type Eden struct {
	Fast int `yaml:"fast" json:"fast"`
	Slow int `yaml:"slow" json:"slow"`
}

// VolumeFilter requires a minimum volume on the pattern's third bar
type VolumeFilter struct {
	Min int64 `yaml:"min" json:"min"`
}

// GapFilter skips triggers whose open gaps too far from the previous close
type GapFilter struct {
	MaxPct float64 `yaml:"max_pct" json:"max_pct"`
}

// KeltnerFilter requires close above the upper Keltner band
type KeltnerFilter struct {
	Period       int     `yaml:"period" json:"period"`
	DeviationPct float64 `yaml:"deviation_pct" json:"deviation_pct"`
}

// IFRSetup buys oversold closes and sells on a breakout of recent highs
type IFRSetup struct {
	Period      int          `yaml:"period" json:"period"`
	Entry       float64      `yaml:"entry" json:"entry"`             // enter while IFR is below
	ExitWindow  int          `yaml:"exit_window" json:"exit_window"` // bars of highs for the exit
	TrendFilter *TrendFilter `yaml:"trend_filter,omitempty" json:"trend_filter,omitempty"`
	Timeout     *Timeout     `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	StopLoss    *StopLoss    `yaml:"stop_loss,omitempty" json:"stop_loss,omitempty"`
}

// DefaultIFRSetup returns the classic IFR(2) configuration
func DefaultIFRSetup() *IFRSetup {
	return &IFRSetup{
		Period:      2,
		Entry:       25,
		ExitWindow:  2,
		TrendFilter: &TrendFilter{Period: 50},
		Timeout:     &Timeout{Days: 7},
	}
}

func (s *IFRSetup) Name() string { return "ifr" }

func (s *IFRSetup) Threshold() (float64, bool) { return s.Entry, true }

func (s *IFRSetup) WithThreshold(v float64) Setup {
	c := *s
	c.Entry = v
	return &c
}

func (s *IFRSetup) Validate() error {
	if s.Period < 1 {
		return fmt.Errorf("ifr: period must be >= 1, got %d", s.Period)
	}
	if s.ExitWindow < 1 {
		return fmt.Errorf("ifr: exit window must be >= 1, got %d", s.ExitWindow)
	}
	if s.TrendFilter != nil && s.TrendFilter.Period < 1 {
		return fmt.Errorf("ifr: trend filter period must be >= 1")
	}
	if err := validateTimeout(s.Timeout); err != nil {
		return fmt.Errorf("ifr: %w", err)
	}
	if s.StopLoss != nil && (s.StopLoss.Pct <= 0 || s.StopLoss.Pct >= 100) {
		return fmt.Errorf("ifr: stop loss must be between 0 and 100%%")
	}
	return nil
}

func (s *IFRSetup) longestPeriod() int {
	if s.TrendFilter != nil && s.TrendFilter.Period > s.Period {
		return s.TrendFilter.Period
	}
	return s.Period
}

// StopAnchor picks which pattern bar's low protects a 123 entry
type StopAnchor string

const (
	StopAtSecond StopAnchor = "second"
	StopAtThird  StopAnchor = "third"
)

// RewardRisk is the 123 target multiple of the entry-to-stop amplitude
const RewardRisk = 2.0

// Setup123 trades the three-bar reversal pattern
type Setup123 struct {
	StopAt       StopAnchor    `yaml:"stop_at" json:"stop_at"`
	Eden         *Eden         `yaml:"eden,omitempty" json:"eden,omitempty"`
	VolumeFilter *VolumeFilter `yaml:"volume_filter,omitempty" json:"volume_filter,omitempty"`
	GapFilter    *GapFilter    `yaml:"gap_filter,omitempty" json:"gap_filter,omitempty"`
	Timeout      *Timeout      `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	Trailing     *TrailingStop `yaml:"trailing,omitempty" json:"trailing,omitempty"`
}

// DefaultSetup123 returns the 123 setup with Éden filter and stop on the second bar
func DefaultSetup123() *Setup123 {
	return &Setup123{
		StopAt:  StopAtSecond,
		Eden:    &Eden{Fast: 8, Slow: 80},
		Timeout: &Timeout{Days: 10},
	}
}

func (s *Setup123) Name() string { return "123" }

func (s *Setup123) Threshold() (float64, bool) { return 0, false }

func (s *Setup123) WithThreshold(float64) Setup {
	c := *s
	return &c
}

func (s *Setup123) Validate() error {
	switch s.StopAt {
	case StopAtSecond, StopAtThird, "":
	default:
		return fmt.Errorf("123: unknown stop anchor %q", s.StopAt)
	}
	if s.Eden != nil && (s.Eden.Fast < 1 || s.Eden.Slow < 1) {
		return fmt.Errorf("123: eden periods must be >= 1")
	}
	if s.GapFilter != nil && s.GapFilter.MaxPct < 0 {
		return fmt.Errorf("123: gap filter must be >= 0")
	}
	if s.Trailing != nil && (s.Trailing.Pct <= 0 || s.Trailing.Pct >= 100) {
		return fmt.Errorf("123: trailing stop must be between 0 and 100%%")
	}
	if err := validateTimeout(s.Timeout); err != nil {
		return fmt.Errorf("123: %w", err)
	}
	return nil
}

func (s *Setup123) longestPeriod() int {
	if s.Eden != nil {
		return max(s.Eden.Fast, s.Eden.Slow)
	}
	return 3
}

// minBars is the analysed range a 123 run needs before it looks for patterns
func (s *Setup123) minBars() int {
	if s.Eden != nil {
		return 90
	}
	return 10
}

// MaxMinSetup buys a new low of the last entryWindow bars and sells a new
// high of the last exitWindow bars
type MaxMinSetup struct {
	EntryWindow int            `yaml:"entry_window" json:"entry_window"`
	ExitWindow  int            `yaml:"exit_window" json:"exit_window"`
	Keltner     *KeltnerFilter `yaml:"keltner,omitempty" json:"keltner,omitempty"`
	Timeout     *Timeout       `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	StopLoss    *StopLoss      `yaml:"stop_loss,omitempty" json:"stop_loss,omitempty"`
}

// DefaultMaxMinSetup returns the 99-olds style configuration
func DefaultMaxMinSetup() *MaxMinSetup {
	return &MaxMinSetup{
		EntryWindow: 2,
		ExitWindow:  2,
		Keltner:     &KeltnerFilter{Period: 20, DeviationPct: 5},
		Timeout:     &Timeout{Days: 5},
	}
}

func (s *MaxMinSetup) Name() string { return "maxmin" }

func (s *MaxMinSetup) Threshold() (float64, bool) { return float64(s.EntryWindow), true }

func (s *MaxMinSetup) WithThreshold(v float64) Setup {
	c := *s
	c.EntryWindow = int(v)
	return &c
}

func (s *MaxMinSetup) Validate() error {
	if s.EntryWindow < 1 || s.ExitWindow < 1 {
		return fmt.Errorf("maxmin: windows must be >= 1")
	}
	if s.Keltner != nil && s.Keltner.Period < 1 {
		return fmt.Errorf("maxmin: keltner period must be >= 1")
	}
	if s.StopLoss != nil && (s.StopLoss.Pct <= 0 || s.StopLoss.Pct >= 100) {
		return fmt.Errorf("maxmin: stop loss must be between 0 and 100%%")
	}
	if err := validateTimeout(s.Timeout); err != nil {
		return fmt.Errorf("maxmin: %w", err)
	}
	return nil
}

func (s *MaxMinSetup) longestPeriod() int {
	n := max(s.EntryWindow, s.ExitWindow)
	if s.Keltner != nil {
		n = max(n, s.Keltner.Period)
	}
	return n
}

func validateTimeout(t *Timeout) error {
	if t != nil && t.Days < 1 {
		return fmt.Errorf("timeout must be >= 1 day, got %d", t.Days)
	}
	return nil
}

// Params is everything a single run needs besides the bars
type Params struct {
	Setup   Setup     `json:"setup"`
	Capital float64   `json:"capital"`
	Start   time.Time `json:"start"` // zero: from the first bar
	End     time.Time `json:"end"`   // zero: through the last bar
}

// DefaultCapital is the starting capital used when none is configured
const DefaultCapital = 100000.0

// WarmupDays is the calendar-day buffer loaded before Start for indicators
func (p Params) WarmupDays() int {
	n := 365
	if p.Setup != nil {
		n = max(n, p.Setup.longestPeriod())
	}
	return max(n, 10)
}
