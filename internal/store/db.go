// Package store provides a SQLite-backed source for budget snapshots and draw requests.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/drawdown/internal/model"
	"github.com/theirongolddev/drawdown/internal/source"

	_ "modernc.org/sqlite" // register sqlite driver
)

// DB holds an imported budget and the draw requests waiting to be processed.
// Allocation results are never written back.
type DB struct {
	db *sql.DB
}

// Open opens or creates the database at the given path.
func Open(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating store dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening store db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// SaveBudget replaces the stored budget and its items.
func (d *DB) SaveBudget(ctx context.Context, b model.Budget) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = tx.ExecContext(ctx, `INSERT OR REPLACE INTO budget (id, amount, balance_remaining, updated_at)
		VALUES (1, ?, ?, ?)`, b.Amount, b.BalanceRemaining, now)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM budget_items"); err != nil {
		return err
	}
	for i, item := range b.BudgetItems {
		_, err = tx.ExecContext(ctx, `INSERT INTO budget_items (item_id, position, funded_to_date, original_amount)
			VALUES (?, ?, ?, ?)`, item.ItemID, i, item.FundedToDate, item.OriginalAmount)
		if err != nil {
			return fmt.Errorf("saving item %d: %w", item.ItemID, err)
		}
	}

	return tx.Commit()
}

// AddDrawRequests appends requests to the pending batch. Malformed fields are
// stored as they arrived so they are reported again on every pass.
func (d *DB) AddDrawRequests(ctx context.Context, reqs []model.DrawRequest) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339)
	for i, r := range reqs {
		payload, err := source.EncodeDrawRequest(r)
		if err != nil {
			return fmt.Errorf("encoding draw request %d: %w", i, err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO draw_requests (payload, imported_at) VALUES (?, ?)",
			string(payload), now); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ClearDrawRequests removes every pending draw request.
func (d *DB) ClearDrawRequests(ctx context.Context) error {
	_, err := d.db.ExecContext(ctx, "DELETE FROM draw_requests")
	return err
}

// DrawRequestCount returns the number of pending draw requests.
func (d *DB) DrawRequestCount(ctx context.Context) (int, error) {
	var count int
	err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM draw_requests").Scan(&count)
	return count, err
}

// GetBudget returns the stored budget, or nil when none has been imported.
// The budget row and its items are read in one transaction so a concurrent
// SaveBudget is seen entirely or not at all.
func (d *DB) GetBudget(ctx context.Context) (*model.Budget, error) {
	tx, err := d.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("reading budget: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var b model.Budget
	err = tx.QueryRowContext(ctx, "SELECT amount, balance_remaining FROM budget WHERE id = 1").
		Scan(&b.Amount, &b.BalanceRemaining)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading budget: %w", err)
	}

	rows, err := tx.QueryContext(ctx, `SELECT item_id, funded_to_date, original_amount
		FROM budget_items ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("reading budget items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	b.BudgetItems = []model.BudgetItem{}
	for rows.Next() {
		var item model.BudgetItem
		if err := rows.Scan(&item.ItemID, &item.FundedToDate, &item.OriginalAmount); err != nil {
			return nil, err
		}
		b.BudgetItems = append(b.BudgetItems, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &b, nil
}

// GetDrawRequests returns the pending draw requests in import order.
func (d *DB) GetDrawRequests(ctx context.Context) ([]model.DrawRequest, error) {
	rows, err := d.db.QueryContext(ctx, "SELECT seq, payload FROM draw_requests ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("reading draw requests: %w", err)
	}
	defer func() { _ = rows.Close() }()

	reqs := []model.DrawRequest{}
	for rows.Next() {
		var seq int64
		var payload string
		if err := rows.Scan(&seq, &payload); err != nil {
			return nil, err
		}
		r, err := source.DecodeDrawRequest([]byte(payload))
		if err != nil {
			return nil, fmt.Errorf("draw request row %d: %w", seq, err)
		}
		reqs = append(reqs, r)
	}
	return reqs, rows.Err()
}
