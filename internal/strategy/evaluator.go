package strategy

import (
	"github.com/shopspring/decimal"

	"WeekendTrader/internal/calculator"
	"WeekendTrader/internal/model"
	"WeekendTrader/internal/risk"
)

// Book answers whether a (symbol, strategy) pair already holds an OPEN trade.
type Book interface {
	HasOpen(symbol string, id model.StrategyID) bool
}

// Controls carries the external switches consulted before a trade is sized.
// Both methods must return immediately.
type Controls interface {
	Paused(owner model.StrategyID) bool
	Vetoed(symbol string, id model.StrategyID, side model.Side) bool
}

// Outcome is the result of one evaluation. Intent and Size are set only when
// Reason is RejectNone.
type Outcome struct {
	Symbol   string
	Strategy model.StrategyID
	Intent   *Intent
	Size     decimal.Decimal
	Reason   RejectReason
}

// Accepted reports whether the evaluation produced a sized intent.
func (o Outcome) Accepted() bool { return o.Reason == RejectNone && o.Intent != nil }

// Evaluator applies the gates shared by every strategy and sizes accepted intents.
type Evaluator struct {
	sizing   risk.Policy
	book     Book
	controls Controls
}

// NewEvaluator creates an Evaluator. controls may be nil.
func NewEvaluator(sizing risk.Policy, book Book, controls Controls) *Evaluator {
	return &Evaluator{sizing: sizing, book: book, controls: controls}
}

// Evaluate runs s against st for symbol and returns the sized intent or the
// first gate that rejected it.
func (e *Evaluator) Evaluate(symbol string, s Strategy, st *model.SymbolState, cfg SymbolSettings, balance float64) Outcome {
	out := Outcome{Symbol: symbol, Strategy: s.ID()}
	reject := func(r RejectReason) Outcome {
		out.Reason = r
		return out
	}

	if !cfg.Enabled {
		return reject(RejectDisabled)
	}
	if !s.Toggled(cfg) {
		return reject(RejectStrategyOff)
	}
	if e.controls != nil && e.controls.Paused(s.ID()) {
		return reject(RejectPaused)
	}
	at, reason := s.Ready(st)
	if reason != RejectNone {
		return reject(reason)
	}
	if !calculator.IsWeekendUTC(at) {
		return reject(RejectOutsideSession)
	}
	if e.book != nil && e.book.HasOpen(symbol, s.ID()) {
		return reject(RejectOpenTrade)
	}

	intent, reason := s.Evaluate(st)
	if reason != RejectNone {
		return reject(reason)
	}
	if intent == nil {
		return reject(RejectNoSignal)
	}
	intent.Symbol = symbol
	intent.Time = at

	if e.controls != nil && e.controls.Vetoed(symbol, s.ID(), intent.Side) {
		return reject(RejectVetoed)
	}

	size := e.sizing.Size(intent.Entry, intent.StopLoss, balance, cfg.Lots)
	if !size.IsPositive() {
		return reject(RejectInvalidSizing)
	}
	out.Intent = intent
	out.Size = size
	return out
}
