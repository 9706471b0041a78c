// Package pnlstore persists per-strategy results in SQLite.
package pnlstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"strategy-pnl/internal/interfaces"
	"strategy-pnl/internal/strategy"
	"strategy-pnl/internal/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS strategy_pnl (
	trade_date    TEXT    NOT NULL,
	account       TEXT    NOT NULL,
	strategy_code TEXT    NOT NULL,
	pnl           TEXT    NOT NULL,
	trade_count   INTEGER NOT NULL,
	run_id        TEXT    NOT NULL,
	created_at    TEXT    NOT NULL,
	PRIMARY KEY (trade_date, account, strategy_code)
);`

// Row is one persisted strategy result.
type Row struct {
	TradeDate    string
	Account      string
	StrategyCode string
	Pnl          decimal.Decimal
	TradeCount   int
	RunID        string
	CreatedAt    time.Time
}

type Store struct {
	conn *sql.DB
	now  func() time.Time
}

var _ interfaces.ResultStore = (*Store)(nil)

// Open opens or creates the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	conn.SetMaxOpenConns(1)
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{conn: conn, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

// NewRunID tags every row written by one batch run.
func NewRunID() string {
	return uuid.NewString()
}

// ReplaceDay swaps the account's rows for the breakdown's day in one
// transaction. Failed breakdowns leave existing rows untouched.
func (s *Store) ReplaceDay(ctx context.Context, runID string, b types.AccountBreakdown) error {
	if b.Failed() {
		return nil
	}
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM strategy_pnl WHERE trade_date = ? AND account = ?`, b.TradeDate, b.Label); err != nil {
		return fmt.Errorf("delete %s/%s: %w", b.TradeDate, b.Label, err)
	}

	created := s.now().UTC().Format(time.RFC3339)
	for _, r := range b.Strategies {
		if !strategy.Reportable(r.StrategyCode) {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO strategy_pnl (trade_date, account, strategy_code, pnl, trade_count, run_id, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			b.TradeDate, b.Label, r.StrategyCode, r.RealizedPnl.StringFixed(2), r.TradeCount, runID, created); err != nil {
			return fmt.Errorf("insert %s: %w", r.StrategyCode, err)
		}
	}
	return tx.Commit()
}

// ListDay returns the rows of tradeDate ordered by account and code.
func (s *Store) ListDay(ctx context.Context, tradeDate string) ([]Row, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT trade_date, account, strategy_code, pnl, trade_count, run_id, created_at
		 FROM strategy_pnl WHERE trade_date = ? ORDER BY account, strategy_code`, tradeDate)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", tradeDate, err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var (
			r       Row
			pnl     string
			created string
		)
		if err := rows.Scan(&r.TradeDate, &r.Account, &r.StrategyCode, &pnl, &r.TradeCount, &r.RunID, &created); err != nil {
			return nil, err
		}
		if r.Pnl, err = decimal.NewFromString(pnl); err != nil {
			return nil, fmt.Errorf("row %s/%s: %w", r.Account, r.StrategyCode, err)
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339, created)
		out = append(out, r)
	}
	return out, rows.Err()
}
