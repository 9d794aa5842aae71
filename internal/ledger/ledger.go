package ledger

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"WeekendTrader/internal/fund"
	"WeekendTrader/internal/logger"
	"WeekendTrader/internal/model"
	"WeekendTrader/internal/strategy"
)

var (
	ErrOpenTrade   = errors.New("open trade already exists for symbol and strategy")
	ErrInvalidSize = errors.New("trade size must be positive")
	ErrOwnerPaused = errors.New("owner is paused")
)

// EventKind classifies ledger mutations for the journal.
type EventKind string

const (
	EventOpened  EventKind = "OPENED"
	EventPartial EventKind = "PARTIAL"
	EventClosed  EventKind = "CLOSED"
)

// Event describes one committed mutation. Trade is a copy taken after the commit.
type Event struct {
	Kind    EventKind
	Trade   *model.Trade
	Fill    *model.Fill
	Account model.Account
	At      time.Time
}

type pairKey struct {
	symbol   string
	strategy model.StrategyID
}

// Ledger owns every trade record and is the only path that mutates trades or
// the account. All methods are safe for concurrent use.
type Ledger struct {
	mu     sync.Mutex
	trades []*model.Trade
	byID   map[string]int
	open   map[pairKey]string
	marks  map[string]float64
	acct   *fund.Accountant
	log    *logger.Logger
	newID  func() string

	blocked func(model.StrategyID) bool
}

// New creates an empty ledger settling into acct.
func New(acct *fund.Accountant, log *logger.Logger) *Ledger {
	if log == nil {
		log = logger.Nop()
	}
	return &Ledger{
		byID:  make(map[string]int),
		open:  make(map[pairKey]string),
		marks: make(map[string]float64),
		acct:  acct,
		log:   log,
		newID: uuid.NewString,
	}
}

// BlockOwners installs the pause gate consulted by Open. fn runs under the
// ledger lock, the same lock ForceClose takes.
func (l *Ledger) BlockOwners(fn func(model.StrategyID) bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.blocked = fn
}

// HasOpen reports whether symbol already holds an OPEN trade for the strategy.
func (l *Ledger) HasOpen(symbol string, id model.StrategyID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.open[pairKey{symbol, id}]
	return ok
}

// Open records a new trade for a sized intent.
func (l *Ledger) Open(in *strategy.Intent, size decimal.Decimal, now time.Time) (Event, error) {
	if !size.IsPositive() {
		return Event{}, ErrInvalidSize
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.blocked != nil && l.blocked(in.Strategy) {
		return Event{}, fmt.Errorf("%s %s: %w", in.Symbol, in.Strategy, ErrOwnerPaused)
	}
	key := pairKey{in.Symbol, in.Strategy}
	if _, ok := l.open[key]; ok {
		return Event{}, fmt.Errorf("%s %s: %w", in.Symbol, in.Strategy, ErrOpenTrade)
	}

	t := &model.Trade{
		ID:          l.newID(),
		Symbol:      in.Symbol,
		Strategy:    in.Strategy,
		Owner:       in.Strategy,
		Side:        in.Side,
		EntryPrice:  in.Entry,
		InitialSize: size,
		CurrentSize: size,
		StopLoss:    in.StopLoss,
		TP1:         in.TP1,
		TP2:         in.TP2,
		TP3:         in.TP3,
		OpenTime:    now,
		Status:      model.StatusOpen,
	}
	l.byID[t.ID] = len(l.trades)
	l.trades = append(l.trades, t)
	l.open[key] = t.ID

	acct := l.recomputeLocked()
	l.log.Info("trade opened",
		"id", t.ID, "symbol", t.Symbol, "strategy", t.Strategy, "side", t.Side,
		"entry", t.EntryPrice, "size", t.InitialSize.String(), "sl", t.StopLoss,
		"tp1", t.TP1, "tp2", t.TP2, "tp3", t.TP3)
	return Event{Kind: EventOpened, Trade: t.Clone(), Account: acct, At: now}, nil
}

// Mark records the last known market price of symbol and refreshes equity.
func (l *Ledger) Mark(symbol string, price float64) model.Account {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.marks[symbol] = price
	return l.recomputeLocked()
}

// Manage runs the exit state machine for every OPEN trade of symbol against
// the current bid/ask. One trade failing never stops the others.
func (l *Ledger) Manage(symbol string, bid, ask float64, mc MarketContext, now time.Time) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	var events []Event
	for i, t := range l.trades {
		if t.Symbol != symbol || !t.IsOpen() {
			continue
		}
		next, fills, err := safeAdvance(t, bid, ask, mc, now)
		if err != nil {
			l.log.Error("skip trade", "id", t.ID, "symbol", symbol, "error", err)
			continue
		}
		if len(fills) == 0 {
			continue
		}
		events = append(events, l.commitLocked(i, next, fills, now)...)
	}
	return events
}

// ForceClose closes every OPEN trade owned by owner at the last known price of
// its symbol (falling back to the entry price) with reason MANUAL_PAUSE.
func (l *Ledger) ForceClose(owner model.StrategyID, now time.Time) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	var events []Event
	for i, t := range l.trades {
		if t.Owner != owner || !t.IsOpen() {
			continue
		}
		price, ok := l.marks[t.Symbol]
		if !ok || price <= 0 {
			price = t.EntryPrice
		}
		next, fills, err := safeClose(t, price, model.ReasonManualPause, now)
		if err != nil {
			l.log.Error("skip force close", "id", t.ID, "error", err)
			continue
		}
		events = append(events, l.commitLocked(i, next, fills, now)...)
		l.log.Warn("trade force closed", "id", t.ID, "symbol", t.Symbol, "owner", owner, "price", price)
	}
	return events
}

// Trade returns a copy of the trade with the given id.
func (l *Ledger) Trade(id string) (*model.Trade, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i, ok := l.byID[id]
	if !ok {
		return nil, false
	}
	return l.trades[i].Clone(), true
}

// Account returns the current account.
func (l *Ledger) Account() model.Account {
	return l.acct.Account()
}

// Snapshot returns a deep copy of the account and all trades, newest first.
func (l *Ledger) Snapshot(now time.Time) model.Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	// l.trades is in open order; walk it backwards so equal OpenTimes stay newest first.
	trades := make([]*model.Trade, 0, len(l.trades))
	for i := len(l.trades) - 1; i >= 0; i-- {
		trades = append(trades, l.trades[i].Clone())
	}
	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].OpenTime.After(trades[j].OpenTime)
	})
	return model.Snapshot{Account: l.acct.Account(), Trades: trades, TakenAt: now}
}

// commitLocked swaps in the advanced copy, settles its fills and returns the events.
func (l *Ledger) commitLocked(i int, next *model.Trade, fills []model.Fill, now time.Time) []Event {
	l.trades[i] = next
	if !next.IsOpen() {
		delete(l.open, pairKey{next.Symbol, next.Strategy})
	}
	for _, f := range fills {
		l.acct.Realize(f.PnL)
	}
	acct := l.recomputeLocked()

	events := make([]Event, 0, len(fills))
	for j := range fills {
		f := fills[j]
		kind := EventPartial
		if j == len(fills)-1 && !next.IsOpen() {
			kind = EventClosed
		}
		events = append(events, Event{Kind: kind, Trade: next.Clone(), Fill: &f, Account: acct, At: now})
		l.log.Info("trade fill",
			"id", next.ID, "symbol", next.Symbol, "reason", f.Reason,
			"price", f.Price, "qty", f.Quantity.String(), "pnl", f.PnL, "balance", acct.Balance)
	}
	return events
}

func (l *Ledger) recomputeLocked() model.Account {
	var open []*model.Trade
	for _, t := range l.trades {
		if t.IsOpen() {
			open = append(open, t)
		}
	}
	return l.acct.Recompute(open, l.marks)
}
