package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"WeekendTrader/internal/model"
)

var (
	// TP1Fraction and TP2Fraction are shares of the initial size; TP3 closes the rest.
	TP1Fraction = decimal.NewFromFloat(0.4)
	TP2Fraction = decimal.NewFromFloat(0.4)
)

// MarketContext carries the structure levels used to ratchet stops after TP2.
type MarketContext struct {
	SMA20  float64
	Last1h *model.Candle
}

// safeAdvance runs advance on a copy of t; t itself is never modified.
func safeAdvance(t *model.Trade, bid, ask float64, mc MarketContext, now time.Time) (next *model.Trade, fills []model.Fill, err error) {
	defer func() {
		if r := recover(); r != nil {
			next, fills, err = nil, nil, fmt.Errorf("advance trade %s: %v", t.ID, r)
		}
	}()
	if err := checkConsistent(t); err != nil {
		return nil, nil, err
	}
	next = t.Clone()
	fills = advance(next, bid, ask, mc, now)
	return next, fills, nil
}

func safeClose(t *model.Trade, price float64, reason model.CloseReason, now time.Time) (next *model.Trade, fills []model.Fill, err error) {
	defer func() {
		if r := recover(); r != nil {
			next, fills, err = nil, nil, fmt.Errorf("close trade %s: %v", t.ID, r)
		}
	}()
	if err := checkConsistent(t); err != nil {
		return nil, nil, err
	}
	next = t.Clone()
	fill := closeSlice(next, price, next.CurrentSize, reason, now)
	finish(next, price, reason, now)
	return next, []model.Fill{fill}, nil
}

func checkConsistent(t *model.Trade) error {
	if !t.IsOpen() {
		return fmt.Errorf("trade %s is %s", t.ID, t.Status)
	}
	if !t.CurrentSize.IsPositive() {
		return fmt.Errorf("trade %s is open with size %s", t.ID, t.CurrentSize)
	}
	if t.CurrentSize.GreaterThan(t.InitialSize) {
		return fmt.Errorf("trade %s size %s exceeds initial %s", t.ID, t.CurrentSize, t.InitialSize)
	}
	return nil
}

// advance applies, in order: full stop, TP1, TP2, TP3. A stop ends the tick for
// the trade; take-profit tiers may cascade within one tick.
func advance(t *model.Trade, bid, ask float64, mc MarketContext, now time.Time) []model.Fill {
	isBuy := t.IsBuy()
	exit := ask
	if isBuy {
		exit = bid
	}

	if (isBuy && exit <= t.StopLoss) || (!isBuy && exit >= t.StopLoss) {
		fill := closeSlice(t, exit, t.CurrentSize, model.ReasonStopLoss, now)
		finish(t, exit, model.ReasonStopLoss, now)
		return []model.Fill{fill}
	}

	reached := func(level float64) bool {
		if isBuy {
			return exit >= level
		}
		return exit <= level
	}

	var fills []model.Fill
	if !t.TP1Hit && reached(t.TP1) {
		qty := sliceQty(t, TP1Fraction)
		fills = append(fills, closeSlice(t, t.TP1, qty, model.ReasonTP1, now))
		t.TP1Hit = true
		ratchet(t, t.EntryPrice)
	}

	if t.TP1Hit && !t.TP2Hit && reached(t.TP2) {
		qty := sliceQty(t, TP2Fraction)
		fills = append(fills, closeSlice(t, t.TP2, qty, model.ReasonTP2, now))
		t.TP2Hit = true
		if level, ok := structureStop(t, mc); ok {
			ratchet(t, level)
		}
	}

	if t.TP2Hit && !t.TP3Hit && reached(t.TP3) {
		fills = append(fills, closeSlice(t, t.TP3, t.CurrentSize, model.ReasonTP3, now))
		t.TP3Hit = true
		finish(t, t.TP3, model.ReasonTP3, now)
	}
	return fills
}

// sliceQty is frac of the initial size, capped by what is still open.
func sliceQty(t *model.Trade, frac decimal.Decimal) decimal.Decimal {
	qty := t.InitialSize.Mul(frac)
	if qty.GreaterThan(t.CurrentSize) {
		return t.CurrentSize
	}
	return qty
}

// structureStop is the post-TP2 stop level: just beyond the 20-period SMA for
// mean reversion, beyond the prior hour's extreme for range retest.
func structureStop(t *model.Trade, mc MarketContext) (float64, bool) {
	switch t.Strategy {
	case model.StrategyMeanReversion:
		if mc.SMA20 <= 0 {
			return 0, false
		}
		if t.IsBuy() {
			return mc.SMA20 * 0.999, true
		}
		return mc.SMA20 * 1.001, true
	case model.StrategyRangeRetest:
		if mc.Last1h == nil {
			return 0, false
		}
		if t.IsBuy() {
			return mc.Last1h.Low * 0.999, true
		}
		return mc.Last1h.High * 1.001, true
	}
	return 0, false
}

// ratchet moves the stop to level only when that reduces risk.
func ratchet(t *model.Trade, level float64) {
	if t.IsBuy() {
		if level > t.StopLoss {
			t.StopLoss = level
		}
		return
	}
	if level < t.StopLoss {
		t.StopLoss = level
	}
}

func closeSlice(t *model.Trade, price float64, qty decimal.Decimal, reason model.CloseReason, now time.Time) model.Fill {
	pnl := t.SlicePnL(price, qty)
	t.PnL += pnl
	t.CurrentSize = t.CurrentSize.Sub(qty)
	f := model.Fill{Time: now, Price: price, Quantity: qty, PnL: pnl, Reason: reason}
	t.Fills = append(t.Fills, f)
	return f
}

func finish(t *model.Trade, price float64, reason model.CloseReason, now time.Time) {
	t.Status = model.StatusClosed
	t.CurrentSize = decimal.Zero
	ct := now
	t.CloseTime = &ct
	cp := price
	t.ClosePrice = &cp
	t.CloseReason = reason
}
