package scheduler

import (
	"fmt"
	"sort"
	"strings"

	"WeekendTrader/internal/model"
)

// StrategyStats aggregates closed trades of one strategy.
type StrategyStats struct {
	Strategy model.StrategyID
	Closed   int
	Wins     int
	PnL      float64
}

// WinRate returns the share of closed trades with positive PnL.
func (s StrategyStats) WinRate() float64 {
	if s.Closed == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Closed)
}

// Stats groups closed trades by strategy, sorted by strategy ID.
func Stats(snap *model.Snapshot) []StrategyStats {
	by := make(map[model.StrategyID]*StrategyStats)
	for _, t := range snap.Trades {
		if t.IsOpen() {
			continue
		}
		st, ok := by[t.Strategy]
		if !ok {
			st = &StrategyStats{Strategy: t.Strategy}
			by[t.Strategy] = st
		}
		st.Closed++
		st.PnL += t.PnL
		if t.PnL > 0 {
			st.Wins++
		}
	}
	out := make([]StrategyStats, 0, len(by))
	for _, st := range by {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Strategy < out[j].Strategy })
	return out
}

// FormatSummary renders the account and per-strategy results as plain text.
func FormatSummary(snap *model.Snapshot) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Account | %s\n", snap.TakenAt.UTC().Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Balance: %.2f\n", snap.Account.Balance))
	b.WriteString(fmt.Sprintf("Equity: %.2f\n", snap.Account.Equity))
	b.WriteString(fmt.Sprintf("Realized PnL: %+.2f\n", snap.RealizedPnL()))

	open := snap.OpenTrades()
	b.WriteString(fmt.Sprintf("Open trades: %d\n", len(open)))
	for _, t := range open {
		b.WriteString(fmt.Sprintf("  %s %s %s @ %.4f size %s SL %.4f\n",
			t.Symbol, t.Strategy, t.Side, t.EntryPrice, t.CurrentSize.String(), t.StopLoss))
	}

	stats := Stats(snap)
	if len(stats) > 0 {
		b.WriteString("Closed by strategy:\n")
		for _, st := range stats {
			b.WriteString(fmt.Sprintf("  %s: %d trades, win %.0f%%, pnl %+.2f\n",
				st.Strategy, st.Closed, st.WinRate()*100, st.PnL))
		}
	}
	return b.String()
}
