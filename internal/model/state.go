package model

import "time"

// VWAPState holds the cumulative sums of the current VWAP session.
type VWAPState struct {
	CumulativePV     float64   `json:"cumulative_pv"`
	CumulativeVolume float64   `json:"cumulative_volume"`
	VWAP             float64   `json:"vwap"`
	SessionStart     time.Time `json:"session_start"`
	NextReset        time.Time `json:"next_reset"` // zero means no reset scheduled
}

// RangeState is the weekend high/low band. High and Low are nil until the
// building session has seen at least one candle.
type RangeState struct {
	High       *float64 `json:"high"`
	Low        *float64 `json:"low"`
	Frozen     bool     `json:"frozen"`
	BrokeAbove bool     `json:"broke_above"`
	BrokeBelow bool     `json:"broke_below"`
}

// Valid reports whether both bounds are set.
func (r RangeState) Valid() bool {
	return r.High != nil && r.Low != nil
}

// SymbolState is the rolling indicator state of one traded symbol.
type SymbolState struct {
	Closes15m []float64  `json:"closes_15m"`
	Closes1h  []float64  `json:"closes_1h"`
	SMA20     float64    `json:"sma20"`
	SMA50     float64    `json:"sma50"`
	RSI14     float64    `json:"rsi14"`
	VWAP      VWAPState  `json:"vwap"`
	Range     RangeState `json:"range"`
	Last15m   *Candle    `json:"last_15m,omitempty"`
	Last1h    *Candle    `json:"last_1h,omitempty"`
}

// NewSymbolState returns an empty state with a neutral RSI.
func NewSymbolState() *SymbolState {
	return &SymbolState{RSI14: 50}
}

// PushClose appends c to closes, evicting the oldest values beyond limit.
func PushClose(closes []float64, c float64, limit int) []float64 {
	closes = append(closes, c)
	if limit > 0 && len(closes) > limit {
		closes = closes[len(closes)-limit:]
	}
	return closes
}
