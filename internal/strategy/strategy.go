package strategy

import (
	"time"

	"WeekendTrader/internal/model"
	"WeekendTrader/internal/risk"
)

// RejectReason explains why an evaluation did not open a trade. Empty means opened.
type RejectReason string

const (
	RejectNone                RejectReason = ""
	RejectDisabled            RejectReason = "DISABLED"
	RejectStrategyOff         RejectReason = "STRATEGY_OFF"
	RejectPaused              RejectReason = "PAUSED"
	RejectOutsideSession      RejectReason = "OUTSIDE_SESSION"
	RejectOpenTrade           RejectReason = "OPEN_TRADE"
	RejectInsufficientHistory RejectReason = "INSUFFICIENT_HISTORY"
	RejectStaleRange          RejectReason = "STALE_RANGE"
	RejectNoSignal            RejectReason = "NO_SIGNAL"
	RejectVetoed              RejectReason = "VETOED"
	RejectInvalidSizing       RejectReason = "INVALID_SIZING"
)

// Intent is a proposed trade before sizing.
type Intent struct {
	Symbol   string
	Strategy model.StrategyID
	Side     model.Side
	Entry    float64
	StopLoss float64
	TP1      float64
	TP2      float64
	TP3      float64
	Time     time.Time
}

// SymbolSettings is the per-symbol configuration the evaluator reads.
type SymbolSettings struct {
	Enabled       bool
	MeanReversion bool
	RangeRetest   bool
	Lots          risk.Lots
}

// Strategy is one signal generator. Implementations are pure functions of the
// symbol state; gating shared by all strategies lives in the Evaluator.
type Strategy interface {
	ID() model.StrategyID
	// Toggled reports whether the symbol has this strategy switched on.
	Toggled(cfg SymbolSettings) bool
	// Ready returns the time of the candle that drives this strategy, or a
	// reject reason when the state cannot be evaluated yet.
	Ready(st *model.SymbolState) (time.Time, RejectReason)
	// Evaluate returns an intent, or nil with the reason no trade is proposed.
	Evaluate(st *model.SymbolState) (*Intent, RejectReason)
}

// All returns the closed set of strategy variants with default parameters.
func All() []Strategy {
	return []Strategy{DefaultMeanReversion(), DefaultRangeRetest()}
}
