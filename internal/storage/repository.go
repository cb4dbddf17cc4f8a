// Package storage provides the optional SQLite persistence backend. It
// implements the same ledger and budget ports as the CSV stores, with the
// identical TX-id allocation rule, for installs that outgrow flat files.
package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"budgetbook/internal/core"
	"budgetbook/internal/ledger"

	_ "modernc.org/sqlite"
)

// Repository is a SQLite-backed ledger and budget store.
type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// EnsureStorage is a no-op; migrations create the schema at open time.
func (r *Repository) EnsureStorage() error { return nil }

// MigrateSchema is a no-op; versioned SQL migrations replace CSV header
// sniffing on this backend.
func (r *Repository) MigrateSchema() error { return nil }

// Load returns all transactions in insertion order.
func (r *Repository) Load() ([]core.Transaction, ledger.LoadStats, error) {
	var stats ledger.LoadStats

	rows, err := r.db.Query(`
		SELECT tx_id, date, kind, category, amount_cents, description
		FROM transactions ORDER BY seq`)
	if err != nil {
		return nil, stats, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		var (
			tx      core.Transaction
			dateRaw string
			kindRaw string
			cents   int64
		)
		if err := rows.Scan(&tx.ID, &dateRaw, &kindRaw, &tx.Category, &cents, &tx.Description); err != nil {
			return nil, stats, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Kind = core.ParseKind(kindRaw)
		tx.Amount = core.Money{Cents: cents}
		tx.Date, err = time.Parse(core.DateLayout, dateRaw)
		if err != nil {
			tx.Date = todayUTC()
			stats.Coerced++
		}
		txs = append(txs, tx)
		stats.Rows++
	}
	if err := rows.Err(); err != nil {
		return nil, stats, fmt.Errorf("iterate transactions: %w", err)
	}
	return txs, stats, nil
}

// Append allocates the next TX id and inserts one row.
func (r *Repository) Append(tx core.Transaction) (core.Transaction, error) {
	out, err := r.appendMany(tx)
	if err != nil {
		return core.Transaction{}, err
	}
	return out[0], nil
}

// AppendPair inserts two rows with consecutive ids in one SQL transaction.
func (r *Repository) AppendPair(a, b core.Transaction) ([2]core.Transaction, error) {
	out, err := r.appendMany(a, b)
	if err != nil {
		return [2]core.Transaction{}, err
	}
	return [2]core.Transaction{out[0], out[1]}, nil
}

func (r *Repository) appendMany(txs ...core.Transaction) ([]core.Transaction, error) {
	dbTx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	var maxSeq int64
	if err := dbTx.QueryRow(`SELECT COALESCE(MAX(seq), 0) FROM transactions`).Scan(&maxSeq); err != nil {
		return nil, fmt.Errorf("query max seq: %w", err)
	}

	out := make([]core.Transaction, len(txs))
	for i, tx := range txs {
		tx = tx.Normalize()
		if tx.Date.IsZero() {
			tx.Date = todayUTC()
		}
		seq := maxSeq + int64(i) + 1
		tx.ID = fmt.Sprintf("TX%03d", seq)

		_, err := dbTx.Exec(`
			INSERT INTO transactions (tx_id, seq, date, kind, category, amount_cents, description)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			tx.ID, seq, tx.Date.Format(core.DateLayout), string(tx.Kind),
			tx.Category, tx.Amount.Cents, tx.Description)
		if err != nil {
			return nil, fmt.Errorf("insert transaction: %w", err)
		}
		out[i] = tx
	}

	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transactions: %w", err)
	}

	for _, tx := range out {
		slog.Info("Transaction saved to SQLite",
			"tx_id", tx.ID,
			"kind", tx.Kind,
			"category", tx.Category,
			"amount_cents", tx.Amount.Cents)
	}
	return out, nil
}

// UpdateByID merges the patch into the matching row. Returns false when
// no row matched.
func (r *Repository) UpdateByID(id string, p ledger.Patch) (bool, error) {
	sets := make([]string, 0, 5)
	args := make([]any, 0, 6)
	if p.Date != nil {
		sets = append(sets, "date = ?")
		args = append(args, p.Date.Format(core.DateLayout))
	}
	if p.Kind != nil {
		sets = append(sets, "kind = ?")
		args = append(args, string(*p.Kind))
	}
	if p.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *p.Category)
	}
	if p.Amount != nil {
		sets = append(sets, "amount_cents = ?")
		args = append(args, p.Amount.Cents)
	}
	if p.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *p.Description)
	}
	if len(sets) == 0 {
		var n int
		err := r.db.QueryRow(`SELECT COUNT(*) FROM transactions WHERE tx_id = ?`, id).Scan(&n)
		return n > 0, err
	}

	args = append(args, id)
	res, err := r.db.Exec(
		"UPDATE transactions SET "+strings.Join(sets, ", ")+" WHERE tx_id = ?", args...)
	if err != nil {
		return false, fmt.Errorf("update transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// RemoveByID deletes the matching row. Returns false when no row matched.
func (r *Repository) RemoveByID(id string) (bool, error) {
	res, err := r.db.Exec(`DELETE FROM transactions WHERE tx_id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// BudgetView exposes the budget table behind the budget-store port,
// keeping its Load distinct from the ledger Load.
type BudgetView struct {
	repo *Repository
}

// Budgets returns the budget-store view of this repository.
func (r *Repository) Budgets() *BudgetView {
	return &BudgetView{repo: r}
}

func (v *BudgetView) Load() (map[string]core.Money, error) {
	return v.repo.LoadBudgets()
}

func (v *BudgetView) Save(limits map[string]core.Money) error {
	return v.repo.SaveBudgets(limits)
}

func (v *BudgetView) SetLimit(category string, amount core.Money) error {
	return v.repo.SetLimit(category, amount)
}

// LoadBudgets returns the category -> limit mapping.
func (r *Repository) LoadBudgets() (map[string]core.Money, error) {
	rows, err := r.db.Query(`SELECT category, limit_cents FROM budgets`)
	if err != nil {
		return nil, fmt.Errorf("query budgets: %w", err)
	}
	defer rows.Close()

	out := make(map[string]core.Money)
	for rows.Next() {
		var (
			category string
			cents    int64
		)
		if err := rows.Scan(&category, &cents); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out[category] = core.Money{Cents: cents}
	}
	return out, rows.Err()
}

// SaveBudgets replaces the whole budget table.
func (r *Repository) SaveBudgets(limits map[string]core.Money) error {
	dbTx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin budget save: %w", err)
	}
	defer dbTx.Rollback()

	if _, err := dbTx.Exec(`DELETE FROM budgets`); err != nil {
		return fmt.Errorf("clear budgets: %w", err)
	}

	categories := make([]string, 0, len(limits))
	for c := range limits {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	for _, c := range categories {
		if _, err := dbTx.Exec(`INSERT INTO budgets (category, limit_cents) VALUES (?, ?)`,
			c, limits[c].Cents); err != nil {
			return fmt.Errorf("insert budget %s: %w", c, err)
		}
	}
	return dbTx.Commit()
}

// SetLimit validates and upserts one category limit.
func (r *Repository) SetLimit(category string, amount core.Money) error {
	category = strings.TrimSpace(category)
	if category == "" {
		return core.ErrMissingField
	}
	if amount.IsNegative() {
		return core.ErrInvalidAmount
	}
	_, err := r.db.Exec(`
		INSERT INTO budgets (category, limit_cents) VALUES (?, ?)
		ON CONFLICT(category) DO UPDATE SET limit_cents = excluded.limit_cents`,
		category, amount.Cents)
	if err != nil {
		return fmt.Errorf("set budget limit: %w", err)
	}
	return nil
}

func todayUTC() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
