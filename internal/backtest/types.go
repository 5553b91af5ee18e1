package backtest

import (
	"time"

	"setuplab/internal/position"
)

// ExitReason tells why a position was closed
type ExitReason string

const (
	ExitBreakoutHigh  ExitReason = "breakout-high"  // high reached the prior max
	ExitGapUp         ExitReason = "gap-up"         // opened above the prior max
	ExitCloseBreakout ExitReason = "close-breakout" // closed above the prior max
	ExitTimeout       ExitReason = "timeout"
	ExitStopLoss      ExitReason = "stop-loss"
	ExitTakeProfit    ExitReason = "take-profit"
)

// Trade represents a single completed trade
type Trade struct {
	Ticker     string     `json:"ticker"`
	Setup      string     `json:"setup"`
	Threshold  float64    `json:"threshold,omitempty"`
	Signal     float64    `json:"signal,omitempty"` // oscillator value at entry
	EntryDate  time.Time  `json:"entry_date"`
	ExitDate   time.Time  `json:"exit_date"`
	EntryPrice float64    `json:"entry_price"`
	ExitPrice  float64    `json:"exit_price"`
	Quantity   int        `json:"quantity"`
	Stop       float64    `json:"stop,omitempty"`
	Target     float64    `json:"target,omitempty"`
	HoldDays   int        `json:"hold_days"`
	Profit     float64    `json:"profit"`     // gross, in currency
	ReturnPct  float64    `json:"return_pct"` // exit vs entry price
	Capital    float64    `json:"capital"`    // accumulated capital after this trade
	Reason     ExitReason `json:"reason"`
}

// IsWin reports whether the trade made money
func (t Trade) IsWin() bool {
	return t.Profit > 0
}

// RunResult aggregates all trades of one (ticker, parameter set) run
type RunResult struct {
	Ticker       string  `json:"ticker"`
	List         string  `json:"list,omitempty"`
	Setup        string  `json:"setup"`
	Threshold    float64 `json:"threshold,omitempty"`
	HasThreshold bool    `json:"has_threshold"`

	// Summary
	TradeCount   int     `json:"trade_count"`
	Wins         int     `json:"wins"`
	WinRate      float64 `json:"win_rate"`
	TotalProfit  float64 `json:"total_profit"`
	InitialCap   float64 `json:"initial_capital"`
	FinalCapital float64 `json:"final_capital"`
	ResultPct    float64 `json:"result_pct"`
	DrawdownPct  float64 `json:"drawdown_pct"`
	ProfitFactor float64 `json:"profit_factor"`
	AvgGain      float64 `json:"avg_gain"`
	AvgLoss      float64 `json:"avg_loss"` // negative or zero
	LDIndex      float64 `json:"ld_index"`

	// Effective period after date filtering
	EffectiveStart time.Time `json:"effective_start,omitempty"`
	EffectiveEnd   time.Time `json:"effective_end,omitempty"`
	EffectiveDays  int       `json:"effective_days"`
	Bars           int       `json:"bars"`

	// Setup 123 diagnostics
	PatternsFound int `json:"patterns_found,omitempty"`
	EdenFiltered  int `json:"eden_filtered,omitempty"`

	// Signals ignored because capital could not buy one lot
	SkippedLots int `json:"skipped_lots,omitempty"`

	// Set when the first analysed bar still had undefined indicators, so
	// early signals may be missing.
	InsufficientWarmup bool `json:"insufficient_warmup,omitempty"`

	// Position still open when the data ended; not counted in the statistics
	Open *position.Position `json:"open_position,omitempty"`

	Trades      []Trade   `json:"trades"`
	EquityCurve []float64 `json:"equity_curve"`
}

// Metric selects the field used to rank run results
type Metric string

const (
	MetricProfit       Metric = "profit"
	MetricResultPct    Metric = "result_pct"
	MetricLD           Metric = "ld"
	MetricWinRate      Metric = "win_rate"
	MetricProfitFactor Metric = "profit_factor"
)

// Value extracts the metric from a run result
func (m Metric) Value(r *RunResult) float64 {
	switch m {
	case MetricResultPct:
		return r.ResultPct
	case MetricLD:
		return r.LDIndex
	case MetricWinRate:
		return r.WinRate
	case MetricProfitFactor:
		return r.ProfitFactor
	default:
		return r.TotalProfit
	}
}

// ParseMetric validates a metric name
func ParseMetric(s string) (Metric, error) {
	switch m := Metric(s); m {
	case MetricProfit, MetricResultPct, MetricLD, MetricWinRate, MetricProfitFactor:
		return m, nil
	case "":
		return MetricProfit, nil
	}
	return "", &UnknownError{Kind: "metric", Name: s}
}
