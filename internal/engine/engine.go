package engine

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"WeekendTrader/internal/calculator"
	"WeekendTrader/internal/feed"
	"WeekendTrader/internal/fund"
	"WeekendTrader/internal/ledger"
	"WeekendTrader/internal/logger"
	"WeekendTrader/internal/model"
	"WeekendTrader/internal/recorder"
	"WeekendTrader/internal/risk"
	"WeekendTrader/internal/strategy"
)

// Vetoer answers whether the external decision layer blocks a setup.
type Vetoer interface {
	Vetoed(symbol string, id model.StrategyID, side model.Side) bool
}

// Options configures an Engine.
type Options struct {
	Symbols      map[string]strategy.SymbolSettings
	Sizing       risk.Policy
	Spread       float64 // synthetic half spread around the close
	HistoryLimit int
	VWAPReset    cron.Schedule
	Now          func() time.Time
	Recorder     recorder.Recorder
	Vetoer       Vetoer
	Log          *logger.Logger
}

type symbolSlot struct {
	mu sync.Mutex
	st *model.SymbolState
}

// Engine owns the per-symbol indicator state and the trade ledger. Candles of
// one symbol are processed strictly in order; different symbols run in parallel.
type Engine struct {
	opts        Options
	ledger      *ledger.Ledger
	eval        *strategy.Evaluator
	meanRev     strategy.Strategy
	rangeRetest strategy.Strategy
	slots       map[string]*symbolSlot
	log         *logger.Logger

	pmu    sync.RWMutex
	paused map[model.StrategyID]bool
}

// New creates an engine settling into acct.
func New(acct *fund.Accountant, opts Options) *Engine {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Log == nil {
		opts.Log = logger.Nop()
	}
	if opts.Recorder == nil {
		opts.Recorder = recorder.NewNoopRecorder()
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 300
	}
	if opts.Sizing.RiskPerTrade <= 0 {
		opts.Sizing = risk.NewPolicy(0)
	}

	e := &Engine{
		opts:        opts,
		ledger:      ledger.New(acct, opts.Log.With("component", "ledger")),
		meanRev:     strategy.DefaultMeanReversion(),
		rangeRetest: strategy.DefaultRangeRetest(),
		slots:       make(map[string]*symbolSlot, len(opts.Symbols)),
		log:         opts.Log.With("component", "engine"),
		paused:      make(map[model.StrategyID]bool),
	}
	e.eval = strategy.NewEvaluator(opts.Sizing, e.ledger, e)
	e.ledger.BlockOwners(e.Paused)
	for sym := range opts.Symbols {
		e.slots[sym] = &symbolSlot{st: model.NewSymbolState()}
	}
	return e
}

// Symbols returns the configured symbols in sorted order.
func (e *Engine) Symbols() []string {
	out := make([]string, 0, len(e.slots))
	for sym := range e.slots {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// OnCandle ingests one closed candle. It returns the evaluation outcome of the
// strategy driven by tf, or nil when the symbol is unknown.
func (e *Engine) OnCandle(symbol string, tf model.Timeframe, c model.Candle) *strategy.Outcome {
	slot, ok := e.slots[symbol]
	if !ok {
		e.log.Warn("candle for unknown symbol", "symbol", symbol, "tf", tf)
		return nil
	}
	slot.mu.Lock()
	defer slot.mu.Unlock()

	switch tf {
	case model.TF15m:
		return e.on15m(symbol, slot.st, c)
	case model.TF1h:
		return e.on1h(symbol, slot.st, c)
	}
	e.log.Warn("unsupported timeframe", "symbol", symbol, "tf", tf)
	return nil
}

func (e *Engine) on15m(symbol string, st *model.SymbolState, c model.Candle) *strategy.Outcome {
	st.Closes15m = model.PushClose(st.Closes15m, c.Close, e.opts.HistoryLimit)
	st.SMA20 = calculator.SMAOrZero(st.Closes15m, 20)
	st.SMA50 = calculator.SMAOrZero(st.Closes15m, 50)
	st.RSI14, _ = calculator.RSI(st.Closes15m, 14)
	st.VWAP = calculator.UpdateVWAP(st.VWAP, c.Close, c.Volume, c.Time, e.opts.VWAPReset)
	last := c
	st.Last15m = &last
	e.ledger.Mark(symbol, c.Close)

	out := e.evaluate(symbol, e.meanRev, st)

	bid := c.Close * (1 - e.opts.Spread)
	ask := c.Close * (1 + e.opts.Spread)
	mc := ledger.MarketContext{SMA20: st.SMA20, Last1h: st.Last1h}
	e.record(e.ledger.Manage(symbol, bid, ask, mc, e.opts.Now()))
	return &out
}

func (e *Engine) on1h(symbol string, st *model.SymbolState, c model.Candle) *strategy.Outcome {
	st.Closes1h = model.PushClose(st.Closes1h, c.Close, e.opts.HistoryLimit)
	st.Range = calculator.UpdateWeekendRange(st.Range, c)
	last := c
	st.Last1h = &last

	out := e.evaluate(symbol, e.rangeRetest, st)
	return &out
}

func (e *Engine) evaluate(symbol string, s strategy.Strategy, st *model.SymbolState) strategy.Outcome {
	cfg := e.opts.Symbols[symbol]
	out := e.eval.Evaluate(symbol, s, st, cfg, e.ledger.Account().Balance)
	if !out.Accepted() {
		e.log.Debug("no entry", "symbol", symbol, "strategy", s.ID(), "reason", out.Reason)
		return out
	}

	ev, err := e.ledger.Open(out.Intent, out.Size, e.opts.Now())
	if err != nil {
		e.log.Warn("open rejected", "symbol", symbol, "strategy", s.ID(), "error", err)
		out.Reason = strategy.RejectOpenTrade
		if errors.Is(err, ledger.ErrOwnerPaused) {
			out.Reason = strategy.RejectPaused
		}
		out.Intent = nil
		return out
	}
	e.record([]ledger.Event{ev})
	return out
}

// Paused reports whether new entries for owner are blocked.
func (e *Engine) Paused(owner model.StrategyID) bool {
	e.pmu.RLock()
	defer e.pmu.RUnlock()
	return e.paused[owner]
}

// Vetoed delegates to the configured decision board.
func (e *Engine) Vetoed(symbol string, id model.StrategyID, side model.Side) bool {
	if e.opts.Vetoer == nil {
		return false
	}
	return e.opts.Vetoer.Vetoed(symbol, id, side)
}

// Pause blocks new entries for owner and force-closes its OPEN trades at the
// last known price.
func (e *Engine) Pause(owner model.StrategyID) []ledger.Event {
	e.pmu.Lock()
	e.paused[owner] = true
	e.pmu.Unlock()

	events := e.ledger.ForceClose(owner, e.opts.Now())
	e.record(events)
	e.log.Info("owner paused", "owner", owner, "closed", len(events))
	return events
}

// Resume allows new entries for owner again.
func (e *Engine) Resume(owner model.StrategyID) {
	e.pmu.Lock()
	delete(e.paused, owner)
	e.pmu.Unlock()
	e.log.Info("owner resumed", "owner", owner)
}

// PausedOwners lists paused owners.
func (e *Engine) PausedOwners() []model.StrategyID {
	e.pmu.RLock()
	defer e.pmu.RUnlock()
	out := make([]model.StrategyID, 0, len(e.paused))
	for id := range e.paused {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Snapshot returns the read-only account and trade projection.
func (e *Engine) Snapshot() model.Snapshot {
	return e.ledger.Snapshot(e.opts.Now())
}

// Account returns the current account.
func (e *Engine) Account() model.Account {
	return e.ledger.Account()
}

// State returns a copy of the indicator state of symbol.
func (e *Engine) State(symbol string) (model.SymbolState, bool) {
	slot, ok := e.slots[symbol]
	if !ok {
		return model.SymbolState{}, false
	}
	slot.mu.Lock()
	defer slot.mu.Unlock()

	st := *slot.st
	st.Closes15m = append([]float64(nil), st.Closes15m...)
	st.Closes1h = append([]float64(nil), st.Closes1h...)
	if st.Last15m != nil {
		c := *st.Last15m
		st.Last15m = &c
	}
	if st.Last1h != nil {
		c := *st.Last1h
		st.Last1h = &c
	}
	if st.Range.High != nil {
		h := *st.Range.High
		st.Range.High = &h
	}
	if st.Range.Low != nil {
		l := *st.Range.Low
		st.Range.Low = &l
	}
	return st, true
}

// Run subscribes every enabled symbol to f: 15m for all, 1h only where range
// retest is on. The returned function unsubscribes everything and returns
// once no handler is running.
func (e *Engine) Run(f feed.CandleFeed) (stop func()) {
	var unsubs []func()
	for _, sym := range e.Symbols() {
		cfg := e.opts.Symbols[sym]
		if !cfg.Enabled {
			continue
		}
		sym := sym
		unsubs = append(unsubs, f.Subscribe(sym, model.TF15m, func(c model.Candle) {
			e.OnCandle(sym, model.TF15m, c)
		}))
		if cfg.RangeRetest {
			unsubs = append(unsubs, f.Subscribe(sym, model.TF1h, func(c model.Candle) {
				e.OnCandle(sym, model.TF1h, c)
			}))
		}
		e.log.Info("symbol subscribed", "symbol", sym, "range_retest", cfg.RangeRetest)
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func (e *Engine) record(events []ledger.Event) {
	for _, ev := range events {
		if err := e.opts.Recorder.RecordTradeEvent(toRecord(ev)); err != nil {
			e.log.Error("record trade event", "id", ev.Trade.ID, "error", err)
		}
	}
}

func toRecord(ev ledger.Event) *recorder.TradeEvent {
	t := ev.Trade
	r := &recorder.TradeEvent{
		Time:     ev.At,
		Kind:     string(ev.Kind),
		TradeID:  t.ID,
		Symbol:   t.Symbol,
		Strategy: t.Strategy,
		Side:     t.Side,
		Price:    t.EntryPrice,
		Quantity: t.InitialSize.String(),
		TradePnL: t.PnL,
		StopLoss: t.StopLoss,
		Balance:  ev.Account.Balance,
		Equity:   ev.Account.Equity,
	}
	if ev.Fill != nil {
		r.Reason = ev.Fill.Reason
		r.Price = ev.Fill.Price
		r.Quantity = ev.Fill.Quantity.String()
		r.PnL = ev.Fill.PnL
	}
	return r
}
