// Package services orchestrates the stores, the aggregation engine and
// the optional event publisher behind the operations the API exposes.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"budgetbook/internal/amqp"
	"budgetbook/internal/backend"
	"budgetbook/internal/core"
	"budgetbook/internal/ledger"
	"budgetbook/internal/report"
)

// undoDepth bounds the in-memory stack of removed rows.
const undoDepth = 64

// BudgetAlert is raised when an expense append pushes a category past its
// monthly limit.
type BudgetAlert struct {
	Category string
	Limit    core.Money
	Spent    core.Money
	Overage  core.Money
}

// AddInput is one new ledger entry as entered by the user.
type AddInput struct {
	Date        time.Time
	Kind        core.Kind
	Category    string
	Amount      core.Money
	Description string
}

// SummaryResult bundles the month summary with the running figures the
// header displays.
type SummaryResult struct {
	core.MonthSummary
	Balance      core.Money
	TotalSavings core.Money
	Comparison   *core.Comparison
	CoercedRows  int
}

// LedgerService owns every mutation of the ledger. The stores stay the
// single source of truth: each operation reloads the full transaction
// list rather than patching memory.
type LedgerService struct {
	store   backend.LedgerStore
	budgets backend.BudgetStore
	events  *amqp.Client // nil when no broker is configured
	now     func() time.Time

	mu   sync.Mutex
	undo []core.Transaction
}

func NewLedgerService(store backend.LedgerStore, budgets backend.BudgetStore, events *amqp.Client) *LedgerService {
	return &LedgerService{
		store:   store,
		budgets: budgets,
		events:  events,
		now:     time.Now,
	}
}

// List returns the full ledger in file order along with load diagnostics.
func (s *LedgerService) List(ctx context.Context) ([]core.Transaction, ledger.LoadStats, error) {
	return s.store.Load()
}

// Add validates and appends one transaction. For expense entries the
// category's month-to-date total is rechecked afterwards and a non-nil
// alert returned when the budget is exceeded.
func (s *LedgerService) Add(ctx context.Context, in AddInput) (core.Transaction, *BudgetAlert, error) {
	if in.Amount.IsZero() || in.Amount.IsNegative() {
		return core.Transaction{}, nil, core.ErrInvalidAmount
	}
	if !in.Kind.IsValid() {
		in.Kind = core.Expense
	}
	if strings.TrimSpace(in.Description) == "" {
		in.Description = core.DefaultDescription
	}

	tx := core.Transaction{
		Date:        in.Date,
		Kind:        in.Kind,
		Category:    in.Category,
		Amount:      in.Amount,
		Description: in.Description,
	}
	saved, err := s.store.Append(tx)
	if err != nil {
		return core.Transaction{}, nil, fmt.Errorf("append transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction recorded",
		"tx_id", saved.ID,
		"kind", saved.Kind,
		"category", saved.Category,
		"amount", saved.Amount.String())

	alert := s.checkBudgetAfterExpense(ctx, saved)
	s.publishRecorded(ctx, saved)
	return saved, alert, nil
}

// Update merges the patch into the matching row. A missing id is a no-op
// failure, not a crash.
func (s *LedgerService) Update(ctx context.Context, id string, p ledger.Patch) error {
	ok, err := s.store.UpdateByID(id, p)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrRecordNotFound, id)
	}
	slog.InfoContext(ctx, "Transaction updated", "tx_id", id)
	return nil
}

// Remove deletes the matching row and remembers it for UndoRemove.
func (s *LedgerService) Remove(ctx context.Context, id string) error {
	txs, _, err := s.store.Load()
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	var removed *core.Transaction
	for i := range txs {
		if txs[i].ID == id {
			removed = &txs[i]
			break
		}
	}

	ok, err := s.store.RemoveByID(id)
	if err != nil {
		return fmt.Errorf("remove transaction: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrRecordNotFound, id)
	}

	if removed != nil {
		s.mu.Lock()
		s.undo = append(s.undo, *removed)
		if len(s.undo) > undoDepth {
			s.undo = s.undo[len(s.undo)-undoDepth:]
		}
		s.mu.Unlock()
	}
	slog.InfoContext(ctx, "Transaction removed", "tx_id", id)
	return nil
}

// UndoRemove re-inserts the most recently removed row as a new
// transaction. The restored row gets a fresh id; undo is not id-stable.
func (s *LedgerService) UndoRemove(ctx context.Context) (core.Transaction, error) {
	s.mu.Lock()
	if len(s.undo) == 0 {
		s.mu.Unlock()
		return core.Transaction{}, core.ErrNothingToUndo
	}
	last := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	s.mu.Unlock()

	last.ID = ""
	restored, err := s.store.Append(last)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("restore transaction: %w", err)
	}
	slog.InfoContext(ctx, "Transaction restored", "tx_id", restored.ID)
	return restored, nil
}

// UseSavings moves amount from a savings category into an expense
// category as a paired withdrawal + expense. The withdrawal is validated
// against the cumulative available balance before any write happens.
func (s *LedgerService) UseSavings(ctx context.Context, from, to string, amount core.Money, description string) ([2]core.Transaction, error) {
	var none [2]core.Transaction

	from = strings.TrimSpace(from)
	if from == "" {
		return none, core.ErrMissingField
	}
	if amount.IsZero() || amount.IsNegative() {
		return none, core.ErrInvalidAmount
	}
	if strings.TrimSpace(to) == "" {
		to = core.DefaultCategory
	}
	if strings.TrimSpace(description) == "" {
		description = core.DefaultDescription
	}

	txs, _, err := s.store.Load()
	if err != nil {
		return none, fmt.Errorf("load ledger: %w", err)
	}
	now := s.now()
	available := report.AvailableSavings(txs, from, now.Year(), now.Month())
	if amount.GreaterThan(available) {
		return none, fmt.Errorf("%w: %s has %s available", core.ErrInsufficientSavings, from, available)
	}

	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	pair, err := s.store.AppendPair(
		core.Transaction{
			Date:        day,
			Kind:        core.Savings,
			Category:    from,
			Amount:      amount.Neg(),
			Description: "Withdrawal: " + description,
		},
		core.Transaction{
			Date:        day,
			Kind:        core.Expense,
			Category:    to,
			Amount:      amount,
			Description: description,
		},
	)
	if err != nil {
		return none, fmt.Errorf("append transfer pair: %w", err)
	}

	slog.InfoContext(ctx, "Savings transfer recorded",
		"from", from, "to", to,
		"amount", amount.String(),
		"withdrawal_id", pair[0].ID,
		"expense_id", pair[1].ID)

	s.publishRecorded(ctx, pair[0])
	s.publishRecorded(ctx, pair[1])
	return pair, nil
}

// SetBudget validates and persists one category limit.
func (s *LedgerService) SetBudget(ctx context.Context, category string, limit core.Money) error {
	if err := s.budgets.SetLimit(category, limit); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Budget limit saved", "category", category, "limit", limit.String())
	return nil
}

// Budgets returns the configured limits.
func (s *LedgerService) Budgets(ctx context.Context) (map[string]core.Money, error) {
	return s.budgets.Load()
}

// Summary computes the month summary plus the running balance and
// cumulative savings; withCompare adds the previous-month deltas.
func (s *LedgerService) Summary(ctx context.Context, year int, month time.Month, withCompare bool) (SummaryResult, error) {
	txs, stats, err := s.store.Load()
	if err != nil {
		return SummaryResult{}, fmt.Errorf("load ledger: %w", err)
	}
	res := SummaryResult{
		MonthSummary: report.Summarize(txs, year, month),
		Balance:      report.Balance(txs),
		TotalSavings: report.TotalSavings(txs, year, month),
		CoercedRows:  stats.Coerced,
	}
	if withCompare {
		cmp := report.Compare(txs, year, month)
		res.Comparison = &cmp
	}
	return res, nil
}

// Breakdown reports per-category spend and budget variance for the month.
func (s *LedgerService) Breakdown(ctx context.Context, year int, month time.Month) ([]core.CategoryBreakdown, error) {
	txs, _, err := s.store.Load()
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	limits, err := s.budgets.Load()
	if err != nil {
		return nil, fmt.Errorf("load budgets: %w", err)
	}
	return report.Breakdown(txs, limits, year, month), nil
}

// Daily returns the cumulative per-day expense series for the month.
func (s *LedgerService) Daily(ctx context.Context, year int, month time.Month) ([]core.Money, error) {
	txs, _, err := s.store.Load()
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	return report.DailyCumulative(txs, year, month), nil
}

// Forecast projects the month-end position; ok is false outside the
// current month.
func (s *LedgerService) Forecast(ctx context.Context, year int, month time.Month) (core.Forecast, bool, error) {
	txs, _, err := s.store.Load()
	if err != nil {
		return core.Forecast{}, false, fmt.Errorf("load ledger: %w", err)
	}
	f, ok := report.ForecastMonth(txs, year, month, s.now())
	return f, ok, nil
}

// Savings returns the cumulative per-category savings balances as of the
// end of the month.
func (s *LedgerService) Savings(ctx context.Context, year int, month time.Month) (map[string]core.Money, error) {
	txs, _, err := s.store.Load()
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	return report.SavingsBalances(txs, year, month), nil
}

func (s *LedgerService) checkBudgetAfterExpense(ctx context.Context, tx core.Transaction) *BudgetAlert {
	if tx.Kind != core.Expense {
		return nil
	}
	limits, err := s.budgets.Load()
	if err != nil {
		slog.WarnContext(ctx, "Budget check skipped", "error", err)
		return nil
	}
	limit, ok := limits[tx.Category]
	if !ok {
		return nil
	}
	txs, _, err := s.store.Load()
	if err != nil {
		slog.WarnContext(ctx, "Budget check skipped", "error", err)
		return nil
	}
	overage, exceeded := report.CheckBudget(txs, limits, tx.Category, tx.Date.Year(), tx.Date.Month())
	if !exceeded {
		return nil
	}

	alert := &BudgetAlert{
		Category: tx.Category,
		Limit:    limit,
		Spent:    limit.Add(overage),
		Overage:  overage,
	}
	slog.WarnContext(ctx, "Budget exceeded",
		"category", alert.Category,
		"limit", alert.Limit.String(),
		"overage", alert.Overage.String())

	if err := s.events.PublishBudgetExceeded(ctx, tx.Category, overage.Cents, tx.Date.Year(), int(tx.Date.Month())); err != nil {
		slog.ErrorContext(ctx, "Failed to publish budget alert", "error", err)
	}
	return alert
}

func (s *LedgerService) publishRecorded(ctx context.Context, tx core.Transaction) {
	err := s.events.PublishTransactionRecorded(ctx, tx.ID, string(tx.Kind), tx.Category, tx.Amount.Cents)
	if err != nil {
		// The row is already durable; event delivery is best effort.
		slog.ErrorContext(ctx, "Failed to publish transaction event", "tx_id", tx.ID, "error", err)
	}
}
