package strategy

import (
	"time"

	"WeekendTrader/internal/model"
)

// RangeRetest trades the first pullback to a broken weekend range on the 1h series.
type RangeRetest struct {
	StopPct float64
}

// DefaultRangeRetest returns the production parameters.
func DefaultRangeRetest() *RangeRetest {
	return &RangeRetest{StopPct: 0.005}
}

func (r *RangeRetest) ID() model.StrategyID { return model.StrategyRangeRetest }

func (r *RangeRetest) Toggled(cfg SymbolSettings) bool { return cfg.RangeRetest }

func (r *RangeRetest) Ready(st *model.SymbolState) (time.Time, RejectReason) {
	if st.Last1h == nil {
		return time.Time{}, RejectInsufficientHistory
	}
	return st.Last1h.Time, RejectNone
}

// RetestLong: price broke above the frozen range, dipped back to the old high
// without trading through the range low, and closed back above the high.
func RetestLong(rg model.RangeState, c model.Candle) bool {
	if !rg.Frozen || !rg.Valid() || !rg.BrokeAbove || rg.BrokeBelow {
		return false
	}
	return c.Low <= *rg.High && c.Low > *rg.Low && c.Close > *rg.High
}

// RetestShort mirrors RetestLong around the range low.
func RetestShort(rg model.RangeState, c model.Candle) bool {
	if !rg.Frozen || !rg.Valid() || !rg.BrokeBelow || rg.BrokeAbove {
		return false
	}
	return c.High >= *rg.Low && c.High < *rg.High && c.Close < *rg.Low
}

func (r *RangeRetest) Evaluate(st *model.SymbolState) (*Intent, RejectReason) {
	rg := st.Range
	if !rg.Frozen || !rg.Valid() {
		return nil, RejectStaleRange
	}
	if st.Last1h == nil {
		return nil, RejectInsufficientHistory
	}
	c := *st.Last1h
	high, low := *rg.High, *rg.Low

	switch {
	case RetestLong(rg, c):
		entry := c.Close
		return &Intent{
			Strategy: r.ID(),
			Side:     model.Buy,
			Entry:    entry,
			StopLoss: entry * (1 - r.StopPct),
			TP1:      entry + (entry - high),
			TP2:      entry + 2*(entry-high),
			TP3:      high + (high - low),
		}, RejectNone
	case RetestShort(rg, c):
		entry := c.Close
		return &Intent{
			Strategy: r.ID(),
			Side:     model.Sell,
			Entry:    entry,
			StopLoss: entry * (1 + r.StopPct),
			TP1:      entry - (low - entry),
			TP2:      entry - 2*(low-entry),
			TP3:      low - (high - low),
		}, RejectNone
	}
	return nil, RejectNoSignal
}
