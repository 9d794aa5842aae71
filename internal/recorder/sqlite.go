package recorder

import (
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"WeekendTrader/internal/logger"
)

// SQLiteRecorder persists the journal to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log *logger.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log *logger.Logger) (*SQLiteRecorder, error) {
	if log == nil {
		log = logger.Nop()
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so dashboards can read while the engine writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info("sqlite recorder opened", "path", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS trade_events (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			kind      TEXT NOT NULL,
			trade_id  TEXT NOT NULL,
			symbol    TEXT,
			strategy  TEXT,
			side      TEXT,
			reason    TEXT,
			price     REAL,
			quantity  TEXT,
			pnl       REAL,
			trade_pnl REAL,
			stop_loss REAL,
			balance   REAL,
			equity    REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trade_events_ts ON trade_events(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_trade_events_trade ON trade_events(trade_id)`,

		`CREATE TABLE IF NOT EXISTS account_snapshots (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp    INTEGER NOT NULL,
			balance      REAL,
			equity       REAL,
			realized_pnl REAL,
			open_trades  INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_account_ts ON account_snapshots(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordTradeEvent(evt *TradeEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO trade_events
		(timestamp, kind, trade_id, symbol, strategy, side, reason,
		 price, quantity, pnl, trade_pnl, stop_loss, balance, equity)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		evt.Time.Unix(), evt.Kind, evt.TradeID, evt.Symbol, string(evt.Strategy),
		string(evt.Side), string(evt.Reason),
		evt.Price, evt.Quantity, evt.PnL, evt.TradePnL, evt.StopLoss,
		evt.Balance, evt.Equity,
	)
	if err != nil {
		return fmt.Errorf("insert trade event: %w", err)
	}
	return nil
}

func (r *SQLiteRecorder) RecordAccount(snap *AccountSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO account_snapshots
		(timestamp, balance, equity, realized_pnl, open_trades)
		VALUES (?,?,?,?,?)`,
		snap.Time.Unix(), snap.Balance, snap.Equity, snap.RealizedPnL, snap.OpenTrades,
	)
	if err != nil {
		return fmt.Errorf("insert account snapshot: %w", err)
	}
	return nil
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info("closing sqlite recorder")
	return r.db.Close()
}
