package confirm

import (
	"sync"
	"time"

	"WeekendTrader/internal/logger"
	"WeekendTrader/internal/model"
)

// DefaultVetoTTL is how long a CANCEL verdict blocks entries.
const DefaultVetoTTL = time.Hour

type vetoKey struct {
	symbol   string
	strategy model.StrategyID
	side     model.Side
}

// Board holds the latest verdicts of the external decision layer. Reads do not
// block on submissions beyond a read lock.
type Board struct {
	mu            sync.RWMutex
	vetoes        map[vetoKey]time.Time
	ttl           time.Duration
	minConfidence float64
	now           func() time.Time
	log           *logger.Logger
}

// NewBoard creates an empty board. CANCEL verdicts below minConfidence are ignored.
func NewBoard(ttl time.Duration, minConfidence float64, now func() time.Time, log *logger.Logger) *Board {
	if ttl <= 0 {
		ttl = DefaultVetoTTL
	}
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Board{
		vetoes:        make(map[vetoKey]time.Time),
		ttl:           ttl,
		minConfidence: minConfidence,
		now:           now,
		log:           log,
	}
}

// Submit parses raw decision text and applies it. Unparsable text changes
// nothing; the parse error is returned for the caller to report.
func (b *Board) Submit(raw string) (int, error) {
	decisions, err := ParseDecisions(raw)
	if err != nil {
		b.log.Warn("ignore decision", "error", err)
		return 0, err
	}
	for _, d := range decisions {
		b.Apply(d)
	}
	return len(decisions), nil
}

// Apply records one decision. CONFIRM lifts a matching veto.
func (b *Board) Apply(d Decision) {
	k := vetoKey{d.Symbol, d.Strategy, d.Action}
	b.mu.Lock()
	defer b.mu.Unlock()
	switch d.Verdict {
	case VerdictCancel:
		if d.Confidence < b.minConfidence {
			return
		}
		b.vetoes[k] = b.now().Add(b.ttl)
		b.log.Info("veto set", "symbol", d.Symbol, "strategy", d.Strategy, "side", d.Action, "reason", d.Reason)
	case VerdictConfirm:
		delete(b.vetoes, k)
	}
}

// Vetoed reports whether an unexpired veto covers the setup, either exactly or
// through a wildcard strategy or side.
func (b *Board) Vetoed(symbol string, id model.StrategyID, side model.Side) bool {
	now := b.now()
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, k := range []vetoKey{
		{symbol, id, side},
		{symbol, id, ""},
		{symbol, "", side},
		{symbol, "", ""},
	} {
		if until, ok := b.vetoes[k]; ok && now.Before(until) {
			return true
		}
	}
	return false
}

// Clear removes every veto.
func (b *Board) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.vetoes = make(map[vetoKey]time.Time)
}
