package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// StrategyID names a strategy variant. It doubles as the trade owner for pause control.
type StrategyID string

const (
	StrategyMeanReversion StrategyID = "VWAP_MEAN_REV"
	StrategyRangeRetest   StrategyID = "BTC_RANGE_RETEST"
)

// Side is the trade direction.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Status is the trade lifecycle state.
type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

// CloseReason tags why a slice or the whole trade was closed.
type CloseReason string

const (
	ReasonStopLoss    CloseReason = "STOP_LOSS"
	ReasonTP1         CloseReason = "TP1"
	ReasonTP2         CloseReason = "TP2"
	ReasonTP3         CloseReason = "TP3"
	ReasonManualPause CloseReason = "MANUAL_PAUSE"
)

// Fill is one realized slice of a trade.
type Fill struct {
	Time     time.Time       `json:"time"`
	Price    float64         `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
	PnL      float64         `json:"pnl"`
	Reason   CloseReason     `json:"reason"`
}

// Trade is a synthetic position with a three-tier take-profit ladder.
type Trade struct {
	ID          string          `json:"id"`
	Symbol      string          `json:"symbol"`
	Strategy    StrategyID      `json:"strategy"`
	Owner       StrategyID      `json:"owner"`
	Side        Side            `json:"type"`
	EntryPrice  float64         `json:"entry_price"`
	InitialSize decimal.Decimal `json:"initial_size"`
	CurrentSize decimal.Decimal `json:"current_size"`
	StopLoss    float64         `json:"stop_loss"`
	TP1         float64         `json:"tp1"`
	TP2         float64         `json:"tp2"`
	TP3         float64         `json:"tp3"`
	TP1Hit      bool            `json:"tp1_hit"`
	TP2Hit      bool            `json:"tp2_hit"`
	TP3Hit      bool            `json:"tp3_hit"`
	OpenTime    time.Time       `json:"open_time"`
	CloseTime   *time.Time      `json:"close_time,omitempty"`
	ClosePrice  *float64        `json:"close_price,omitempty"`
	CloseReason CloseReason     `json:"close_reason,omitempty"`
	PnL         float64         `json:"pnl"`
	Status      Status          `json:"status"`
	Fills       []Fill          `json:"fills,omitempty"`
}

// IsBuy reports whether the trade is long.
func (t *Trade) IsBuy() bool { return t.Side == Buy }

// IsOpen reports whether the trade still holds size.
func (t *Trade) IsOpen() bool { return t.Status == StatusOpen }

// SlicePnL returns the realized PnL of closing qty at price.
func (t *Trade) SlicePnL(price float64, qty decimal.Decimal) float64 {
	diff := price - t.EntryPrice
	if !t.IsBuy() {
		diff = -diff
	}
	return diff * qty.InexactFloat64()
}

// FloatingPnL marks the remaining size at price.
func (t *Trade) FloatingPnL(price float64) float64 {
	if !t.IsOpen() {
		return 0
	}
	return t.SlicePnL(price, t.CurrentSize)
}

// ClosedQuantity sums the quantities of all fills.
func (t *Trade) ClosedQuantity() decimal.Decimal {
	sum := decimal.Zero
	for _, f := range t.Fills {
		sum = sum.Add(f.Quantity)
	}
	return sum
}

// Clone returns a deep copy that shares no pointers with t.
func (t *Trade) Clone() *Trade {
	c := *t
	if t.CloseTime != nil {
		ct := *t.CloseTime
		c.CloseTime = &ct
	}
	if t.ClosePrice != nil {
		cp := *t.ClosePrice
		c.ClosePrice = &cp
	}
	if t.Fills != nil {
		c.Fills = append([]Fill(nil), t.Fills...)
	}
	return &c
}
