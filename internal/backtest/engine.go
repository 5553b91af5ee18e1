package backtest

import (
	"math"

	"setuplab/internal/indicator"
	"setuplab/internal/position"
	"setuplab/pkg/model"
)

// sim is the mutable state of one run. Bars before from are warm-up only.
type sim struct {
	ticker    string
	setup     string
	threshold float64
	capital   float64

	bars []model.Candle
	from int

	pos    *position.Position
	trades []Trade

	patterns     int
	edenFiltered int
	skippedLots  int
	warmupGap    bool
}

// open sizes a position for the current capital. It returns false when the
// capital cannot buy a single lot.
func (s *sim) open(i int, price float64) (*position.Position, bool) {
	pos, ok := position.Open(i, s.bars[i].Time, price, s.capital)
	if !ok {
		s.skippedLots++
		return nil, false
	}
	s.pos = pos
	return pos, true
}

func (s *sim) close(i int, price float64, reason ExitReason) {
	p := s.pos
	t := Trade{
		Ticker:     s.ticker,
		Setup:      s.setup,
		Threshold:  s.threshold,
		Signal:     p.Signal,
		EntryDate:  p.EntryDate,
		ExitDate:   s.bars[i].Time,
		EntryPrice: p.EntryPrice,
		ExitPrice:  price,
		Quantity:   p.Quantity,
		Stop:       p.Stop,
		Target:     p.Target,
		HoldDays:   p.HoldDays,
		Profit:     p.ProfitAt(price),
		Reason:     reason,
	}
	if p.EntryPrice > 0 {
		t.ReturnPct = (price - p.EntryPrice) / p.EntryPrice * 100
	}
	s.trades = append(s.trades, t)
	s.pos = nil
}

// Run simulates one setup over one ticker's bars. Data problems such as an
// empty date range or too few bars yield a zero result, never an error.
// Run is pure: the same inputs always give the same result.
func Run(ticker string, bars []model.Candle, p Params) *RunResult {
	capital := p.Capital
	if capital <= 0 {
		capital = DefaultCapital
	}

	result := &RunResult{
		Ticker:      ticker,
		InitialCap:  capital,
		Trades:      make([]Trade, 0),
		EquityCurve: []float64{capital},
	}
	if p.Setup == nil {
		result.FinalCapital = capital
		return result
	}
	result.Setup = p.Setup.Name()
	result.Threshold, result.HasThreshold = p.Setup.Threshold()

	window, from := slice(bars, p)
	if from >= len(window) {
		result.FinalCapital = capital
		return result
	}

	first, last := window[from].Time, window[len(window)-1].Time
	result.EffectiveStart = first
	result.EffectiveEnd = last
	result.EffectiveDays = int(last.Sub(first).Hours() / 24)
	result.Bars = len(window) - from

	s := &sim{
		ticker:    ticker,
		setup:     result.Setup,
		threshold: result.Threshold,
		capital:   capital,
		bars:      window,
		from:      from,
	}
	p.Setup.simulate(s)

	result.Trades = s.trades
	result.Open = s.pos
	result.PatternsFound = s.patterns
	result.EdenFiltered = s.edenFiltered
	result.SkippedLots = s.skippedLots
	result.InsufficientWarmup = s.warmupGap

	computeStats(result, capital)
	return result
}

// slice keeps the bars up to End plus a warm-up buffer before Start, and
// returns the index of the first bar inside [Start, End].
func slice(bars []model.Candle, p Params) ([]model.Candle, int) {
	hi := len(bars)
	if !p.End.IsZero() {
		end := model.Day(p.End)
		for hi > 0 && model.Day(bars[hi-1].Time).After(end) {
			hi--
		}
	}
	bars = bars[:hi]
	if p.Start.IsZero() {
		return bars, 0
	}

	start := model.Day(p.Start)
	buffer := start.AddDate(0, 0, -p.WarmupDays())
	lo := 0
	for lo < len(bars) && model.Day(bars[lo].Time).Before(buffer) {
		lo++
	}
	bars = bars[lo:]

	from := 0
	for from < len(bars) && model.Day(bars[from].Time).Before(start) {
		from++
	}
	return bars, from
}

func highs(bars []model.Candle) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.High
	}
	return out
}

func lows(bars []model.Candle) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Low
	}
	return out
}

func (s *IFRSetup) simulate(st *sim) {
	bars := st.bars
	closes := model.Closes(bars)
	hi := highs(bars)
	rsi := indicator.RSI(closes, s.Period)

	var trend []float64
	if s.TrendFilter != nil {
		trend = indicator.MovingAverage(closes, s.TrendFilter.Period, s.TrendFilter.Exponential)
	}

	// Only a date-filtered start can cut into the warm-up.
	if st.from > 0 && (!indicator.IsDefined(rsi[st.from]) || (trend != nil && !indicator.IsDefined(trend[st.from]))) {
		st.warmupGap = true
	}
	if len(bars)-st.from <= s.ExitWindow {
		return
	}

	for i := max(s.ExitWindow, st.from); i < len(bars); i++ {
		bar := bars[i]

		if st.pos == nil {
			if !(rsi[i] < s.Entry) || (trend != nil && !(bar.Close > trend[i])) {
				continue
			}
			pos, ok := st.open(i, bar.Close)
			if !ok {
				continue
			}
			pos.Signal = rsi[i]
			if s.StopLoss != nil {
				pos.Stop = bar.Close * (1 - s.StopLoss.Pct/100)
			}
			// exits are checked from the next bar on
			continue
		}

		pos := st.pos
		pos.Track(bar.High)

		prevMax := indicator.Highest(hi, i-s.ExitWindow, i)
		total := math.Max(prevMax, bar.High)

		switch {
		case bar.High >= prevMax:
			st.close(i, total, ExitBreakoutHigh)
		case bar.Open > prevMax:
			st.close(i, bar.Open, ExitGapUp)
		case bar.Close > prevMax:
			st.close(i, bar.Close, ExitCloseBreakout)
		case s.Timeout != nil && pos.HoldDays >= s.Timeout.Days:
			st.close(i, bar.Open, ExitTimeout)
		case pos.HasStop() && bar.Low <= pos.Stop:
			st.close(i, math.Min(bar.Open, pos.Stop), ExitStopLoss)
		}
	}
}

func (s *Setup123) simulate(st *sim) {
	bars := st.bars
	if len(bars)-st.from < s.minBars() {
		st.warmupGap = true
		return
	}

	lo := lows(bars)
	var fast, slow []float64
	if s.Eden != nil {
		closes := model.Closes(bars)
		fast = indicator.EMA(closes, s.Eden.Fast, true)
		slow = indicator.EMA(closes, s.Eden.Slow, true)
	}

	pending := -1 // index of the third bar of the last pattern
	for i := st.from; i < len(bars); i++ {
		if st.pos == nil && pending >= 0 && pending == i-1 {
			s.enter(st, i, pending, fast, slow)
		}
		if st.pos != nil {
			s.manage(st, i)
		}

		pending = -1
		if i-2 < st.from {
			continue
		}
		if s.VolumeFilter != nil && bars[i].Volume < s.VolumeFilter.Min {
			continue
		}
		if lo[i-1] < lo[i-2] && lo[i-1] < lo[i] {
			st.patterns++
			pending = i
		}
	}
}

// enter tries to trigger the pattern whose third bar is at c3 on bar i
func (s *Setup123) enter(st *sim, i, c3 int, fast, slow []float64) {
	bar := st.bars[i]
	prev := st.bars[c3]
	trigger := prev.High

	if s.GapFilter != nil && prev.Close > 0 {
		gap := math.Abs(bar.Open-prev.Close) / prev.Close * 100
		if gap > s.GapFilter.MaxPct {
			return
		}
	}
	if bar.High < trigger {
		return
	}

	entry := trigger
	if bar.Open >= trigger {
		entry = bar.Open
	}
	if s.Eden != nil && !(entry > fast[i] && entry > slow[i]) {
		st.edenFiltered++
		return
	}

	stop := st.bars[c3-1].Low
	if s.StopAt == StopAtThird {
		stop = prev.Low
	}
	risk := entry - stop
	if risk <= 0 {
		return
	}

	pos, ok := st.open(i, entry)
	if !ok {
		return
	}
	pos.Stop = stop
	pos.Target = entry + RewardRisk*risk
}

// manage checks the exits of an open 123 position, entry bar included
func (s *Setup123) manage(st *sim, i int) {
	bar := st.bars[i]
	pos := st.pos
	pos.Track(bar.High)

	stop := pos.Stop
	if s.Trailing != nil {
		stop = pos.TrailingStop(s.Trailing.Pct)
		pos.Stop = stop
	}

	switch {
	case bar.Low <= stop:
		st.close(i, math.Min(bar.Open, stop), ExitStopLoss)
	case bar.High >= pos.Target:
		price := pos.Target
		if bar.Open >= pos.Target {
			price = bar.Open
		}
		st.close(i, price, ExitTakeProfit)
	case s.Timeout != nil && pos.HoldDays >= s.Timeout.Days:
		st.close(i, bar.Close, ExitTimeout)
	}
}

func (s *MaxMinSetup) simulate(st *sim) {
	bars := st.bars
	closes := model.Closes(bars)
	hi, lo := highs(bars), lows(bars)

	var upper []float64
	if s.Keltner != nil {
		upper = indicator.Keltner(closes, s.Keltner.Period, s.Keltner.DeviationPct).Upper
	}
	if st.from > 0 && st.from < s.EntryWindow {
		st.warmupGap = true
	}

	for i := max(s.EntryWindow, s.ExitWindow, st.from); i < len(bars); i++ {
		bar := bars[i]

		if st.pos == nil {
			prevMin := indicator.Lowest(lo, i-s.EntryWindow, i)
			if !(bar.Low <= prevMin) || (upper != nil && !(bar.Close > upper[i])) {
				continue
			}
			pos, ok := st.open(i, bar.Close)
			if !ok {
				continue
			}
			if s.StopLoss != nil {
				pos.Stop = bar.Close * (1 - s.StopLoss.Pct/100)
			}
			continue
		}

		pos := st.pos
		pos.Track(bar.High)
		prevMax := indicator.Highest(hi, i-s.ExitWindow, i)

		switch {
		case bar.High >= prevMax:
			st.close(i, prevMax, ExitBreakoutHigh)
		case s.Timeout != nil && pos.HoldDays >= s.Timeout.Days:
			st.close(i, bar.Close, ExitTimeout)
		case pos.HasStop() && bar.Low <= pos.Stop:
			st.close(i, math.Min(bar.Open, pos.Stop), ExitStopLoss)
		}
	}
}
