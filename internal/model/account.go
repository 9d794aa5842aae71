package model

import "time"

// Account is the simulated account. Balance moves only on realized PnL.
type Account struct {
	Balance float64 `json:"balance"`
	Equity  float64 `json:"equity"`
}

// Snapshot is the read-only projection handed to dashboards and decision layers.
type Snapshot struct {
	Account Account   `json:"account"`
	Trades  []*Trade  `json:"trades"`
	TakenAt time.Time `json:"taken_at"`
}

// OpenTrades filters the snapshot to OPEN trades.
func (s Snapshot) OpenTrades() []*Trade {
	var out []*Trade
	for _, t := range s.Trades {
		if t.IsOpen() {
			out = append(out, t)
		}
	}
	return out
}

// RealizedPnL sums PnL across all trades in the snapshot.
func (s Snapshot) RealizedPnL() float64 {
	var sum float64
	for _, t := range s.Trades {
		sum += t.PnL
	}
	return sum
}
