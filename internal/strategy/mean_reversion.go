package strategy

import (
	"math"
	"time"

	"WeekendTrader/internal/calculator"
	"WeekendTrader/internal/model"
)

// MeanReversion fades stretched moves away from VWAP once price crosses back
// over the 20-period SMA on the 15m series.
type MeanReversion struct {
	MinHistory int
	Deviation  float64 // minimum |close-vwap|/vwap
	Oversold   float64
	Overbought float64
	StopPct    float64
	TP2Pct     float64 // minimum TP2 distance; SMA50 wins when further out
}

// DefaultMeanReversion returns the production parameters.
func DefaultMeanReversion() *MeanReversion {
	return &MeanReversion{
		MinHistory: 60,
		Deviation:  0.015,
		Oversold:   30,
		Overbought: 70,
		StopPct:    0.008,
		TP2Pct:     0.01,
	}
}

func (m *MeanReversion) ID() model.StrategyID { return model.StrategyMeanReversion }

func (m *MeanReversion) Toggled(cfg SymbolSettings) bool { return cfg.MeanReversion }

func (m *MeanReversion) Ready(st *model.SymbolState) (time.Time, RejectReason) {
	if len(st.Closes15m) < m.MinHistory || len(st.Closes15m) < 2 || st.Last15m == nil {
		return time.Time{}, RejectInsufficientHistory
	}
	return st.Last15m.Time, RejectNone
}

func (m *MeanReversion) Evaluate(st *model.SymbolState) (*Intent, RejectReason) {
	n := len(st.Closes15m)
	if n < 2 {
		return nil, RejectInsufficientHistory
	}
	closePx := st.Closes15m[n-1]
	prevClose := st.Closes15m[n-2]

	vwap := st.VWAP.VWAP
	if vwap == 0 {
		vwap = closePx
	}
	deviation := (closePx - vwap) / vwap

	prevSMA20, err := calculator.SMA(st.Closes15m[:n-1], 20)
	if err != nil {
		return nil, RejectInsufficientHistory
	}
	longCross := prevClose < prevSMA20 && closePx > st.SMA20
	shortCross := prevClose > prevSMA20 && closePx < st.SMA20

	switch {
	case deviation <= -m.Deviation && st.RSI14 < m.Oversold && longCross:
		tp1 := vwap
		tp2 := math.Max(st.SMA50, closePx*(1+m.TP2Pct))
		return &Intent{
			Strategy: m.ID(),
			Side:     model.Buy,
			Entry:    closePx,
			StopLoss: closePx * (1 - m.StopPct),
			TP1:      tp1,
			TP2:      tp2,
			TP3:      closePx + 2*(tp1-closePx),
		}, RejectNone
	case deviation >= m.Deviation && st.RSI14 > m.Overbought && shortCross:
		tp1 := vwap
		tp2 := closePx * (1 - m.TP2Pct)
		if st.SMA50 > 0 {
			tp2 = math.Min(st.SMA50, tp2)
		}
		return &Intent{
			Strategy: m.ID(),
			Side:     model.Sell,
			Entry:    closePx,
			StopLoss: closePx * (1 + m.StopPct),
			TP1:      tp1,
			TP2:      tp2,
			TP3:      closePx - 2*(closePx-tp1),
		}, RejectNone
	}
	return nil, RejectNoSignal
}
