package recorder

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"WeekendTrader/internal/model"
)

func TestSQLiteRecorder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	r, err := NewSQLiteRecorder(path, nil)
	require.NoError(t, err)
	defer r.Close()

	at := time.Date(2024, 6, 2, 10, 0, 0, 0, time.UTC)
	require.NoError(t, r.RecordTradeEvent(&TradeEvent{
		Time: at, Kind: "PARTIAL", TradeID: "t1", Symbol: "BTCUSDT",
		Strategy: model.StrategyRangeRetest, Side: model.Buy, Reason: model.ReasonTP1,
		Price: 105, Quantity: "4", PnL: 20, TradePnL: 20, StopLoss: 100,
		Balance: 10020, Equity: 10020,
	}))
	require.NoError(t, r.RecordAccount(&AccountSnapshot{Time: at, Balance: 10020, Equity: 10020, RealizedPnL: 20, OpenTrades: 1}))

	var kind, qty string
	var pnl float64
	var ts int64
	row := r.db.QueryRow(`SELECT kind, quantity, pnl, timestamp FROM trade_events WHERE trade_id = ?`, "t1")
	require.NoError(t, row.Scan(&kind, &qty, &pnl, &ts))
	assert.Equal(t, "PARTIAL", kind)
	assert.Equal(t, "4", qty)
	assert.Equal(t, 20.0, pnl)
	assert.Equal(t, at.Unix(), ts)

	var open int
	require.NoError(t, r.db.QueryRow(`SELECT open_trades FROM account_snapshots`).Scan(&open))
	assert.Equal(t, 1, open)
}

func TestSQLiteRecorderReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	r, err := NewSQLiteRecorder(path, nil)
	require.NoError(t, err)
	require.NoError(t, r.RecordAccount(&AccountSnapshot{Time: time.Now()}))
	require.NoError(t, r.Close())

	r, err = NewSQLiteRecorder(path, nil)
	require.NoError(t, err)
	defer r.Close()
	var n int
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM account_snapshots`).Scan(&n))
	assert.Equal(t, 1, n)
}

type memRecorder struct {
	mu     sync.Mutex
	events []*TradeEvent
	snaps  []*AccountSnapshot
	closed bool
}

func (m *memRecorder) RecordTradeEvent(evt *TradeEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
	return nil
}

func (m *memRecorder) RecordAccount(snap *AccountSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps = append(m.snaps, snap)
	return nil
}

func (m *memRecorder) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func TestAsyncDrainsOnClose(t *testing.T) {
	mem := &memRecorder{}
	a := NewAsync(mem, 100, nil)
	for i := 0; i < 50; i++ {
		require.NoError(t, a.RecordTradeEvent(&TradeEvent{TradeID: "t"}))
	}
	require.NoError(t, a.RecordAccount(&AccountSnapshot{}))
	require.NoError(t, a.Close())
	require.NoError(t, a.Close())

	assert.Len(t, mem.events, 50)
	assert.Len(t, mem.snaps, 1)
	assert.True(t, mem.closed)
	assert.Zero(t, a.Dropped())

	// after close, records are ignored
	require.NoError(t, a.RecordAccount(&AccountSnapshot{}))
	assert.Len(t, mem.snaps, 1)
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	assert.NoError(t, r.RecordTradeEvent(&TradeEvent{}))
	assert.NoError(t, r.RecordAccount(&AccountSnapshot{}))
	assert.NoError(t, r.Close())
}
