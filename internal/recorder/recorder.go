package recorder

import (
	"time"

	"WeekendTrader/internal/model"
)

// TradeEvent is one journal row: a trade opening or one of its fills.
type TradeEvent struct {
	Time     time.Time
	Kind     string // "OPENED", "PARTIAL", "CLOSED"
	TradeID  string
	Symbol   string
	Strategy model.StrategyID
	Side     model.Side
	Reason   model.CloseReason
	Price    float64
	Quantity string // decimal text, exact
	PnL      float64
	TradePnL float64
	StopLoss float64
	Balance  float64
	Equity   float64
}

// AccountSnapshot is a periodic account sample.
type AccountSnapshot struct {
	Time        time.Time
	Balance     float64
	Equity      float64
	RealizedPnL float64
	OpenTrades  int
}

// Recorder persists the trade journal and account history for analysis.
type Recorder interface {
	RecordTradeEvent(evt *TradeEvent) error
	RecordAccount(snap *AccountSnapshot) error
	Close() error
}
