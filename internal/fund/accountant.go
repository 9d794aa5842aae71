package fund

import (
	"sync"

	"WeekendTrader/internal/model"
)

// DefaultStartingBalance is the simulated account size.
const DefaultStartingBalance = 10000.0

// Accountant owns the account balance and equity. Balance changes only by
// realized PnL; equity is balance unless mark-to-market is enabled.
type Accountant struct {
	mu           sync.Mutex
	account      model.Account
	markToMarket bool
}

// NewAccountant creates an Accountant with the given starting balance.
func NewAccountant(startingBalance float64, markToMarket bool) *Accountant {
	if startingBalance <= 0 {
		startingBalance = DefaultStartingBalance
	}
	return &Accountant{
		account:      model.Account{Balance: startingBalance, Equity: startingBalance},
		markToMarket: markToMarket,
	}
}

// Account returns a copy of the current account.
func (a *Accountant) Account() model.Account {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.account
}

// MarkToMarket reports whether equity includes floating PnL.
func (a *Accountant) MarkToMarket() bool { return a.markToMarket }

// Realize adds a realized PnL slice to the balance.
func (a *Accountant) Realize(pnl float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.account.Balance += pnl
}

// Recompute refreshes equity from the balance and, when mark-to-market is on,
// the floating PnL of open trades at their last known price. Trades without a
// mark contribute nothing.
func (a *Accountant) Recompute(open []*model.Trade, marks map[string]float64) model.Account {
	a.mu.Lock()
	defer a.mu.Unlock()

	equity := a.account.Balance
	if a.markToMarket {
		for _, t := range open {
			if px, ok := marks[t.Symbol]; ok {
				equity += t.FloatingPnL(px)
			}
		}
	}
	a.account.Equity = equity
	return a.account
}
