package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"PairTrader/internal/model"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists cycles and trades to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets reporting tools read while the trader writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS cycles (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp      INTEGER NOT NULL,
			symbol         TEXT NOT NULL,
			price          REAL,
			rsi            REAL,
			prev_rsi       REAL,
			rsi_window     REAL,
			ema_short      REAL,
			ema_long       REAL,
			trend_avg      REAL,
			position       TEXT,
			action         TEXT,
			reason         TEXT,
			outcome        TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cycles_ts ON cycles(timestamp)`,

		`CREATE TABLE IF NOT EXISTS trades (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp       INTEGER NOT NULL,
			symbol          TEXT NOT NULL,
			side            TEXT NOT NULL,
			quantity        TEXT NOT NULL,
			price           TEXT NOT NULL,
			order_id        TEXT,
			client_order_id TEXT,
			reason          TEXT,
			paper           INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_ts ON trades(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordCycle(evt *CycleEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := evt.Snapshot
	_, err := r.db.Exec(`INSERT INTO cycles
		(timestamp, symbol, price, rsi, prev_rsi, rsi_window, ema_short, ema_long, trend_avg,
		 position, action, reason, outcome)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		evt.Time.Unix(), evt.Symbol, evt.Price,
		s.RSI, s.PrevRSI, s.RSIWindowStart, s.EMAShort, s.EMALong, s.TrendAvg,
		evt.Position.String(), string(evt.Action), evt.Reason, evt.Outcome,
	)
	return err
}

func (r *SQLiteRecorder) RecordTrade(fill *model.Fill) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	paper := 0
	if fill.Paper {
		paper = 1
	}
	_, err := r.db.Exec(`INSERT INTO trades
		(timestamp, symbol, side, quantity, price, order_id, client_order_id, reason, paper)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		fill.FilledAt.Unix(), fill.Intent.Symbol, string(fill.Intent.Side),
		fill.Quantity.String(), fill.Price.String(),
		fill.OrderID, fill.ClientOrderID, fill.Reason, paper,
	)
	return err
}

// RecentTrades returns up to limit trades, newest first.
func (r *SQLiteRecorder) RecentTrades(limit int) ([]model.Fill, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT timestamp, symbol, side, quantity, price, order_id, client_order_id, reason, paper
		FROM trades ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Fill
	for rows.Next() {
		var (
			ts         int64
			side       string
			qty, price string
			paper      int
			f          model.Fill
		)
		if err := rows.Scan(&ts, &f.Intent.Symbol, &side, &qty, &price, &f.OrderID, &f.ClientOrderID, &f.Reason, &paper); err != nil {
			return nil, err
		}
		f.Intent.Side = model.Side(side)
		if f.Quantity, err = decimal.NewFromString(qty); err != nil {
			return nil, fmt.Errorf("trade quantity %q: %w", qty, err)
		}
		if f.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("trade price %q: %w", price, err)
		}
		f.Paper = paper == 1
		f.FilledAt = time.Unix(ts, 0)
		out = append(out, f)
	}
	return out, rows.Err()
}

// CountCyclesSince returns the number of cycles recorded since t, grouped by outcome.
func (r *SQLiteRecorder) CountCyclesSince(t time.Time) (map[string]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT outcome, COUNT(*) FROM cycles WHERE timestamp >= ? GROUP BY outcome`, t.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, err
		}
		out[outcome] = n
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
