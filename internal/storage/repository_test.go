package storage

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"budgetbook/internal/core"
	"budgetbook/internal/ledger"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestAppendAndLoad(t *testing.T) {
	repo := newTestRepository(t)

	saved, err := repo.Append(core.Transaction{
		Date:        time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		Kind:        core.Income,
		Amount:      core.Money{Cents: 100000},
		Description: "Allowance",
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if saved.ID != "TX001" {
		t.Errorf("id = %s, want TX001", saved.ID)
	}
	if saved.Category != core.DefaultCategory {
		t.Errorf("category = %s, want default applied", saved.Category)
	}

	txs, stats, err := repo.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if stats.Rows != 1 || stats.Coerced != 0 {
		t.Errorf("stats = %+v, want 1 row, 0 coerced", stats)
	}
	got := txs[0]
	if got.ID != "TX001" || got.Kind != core.Income || got.Amount.Cents != 100000 || got.Description != "Allowance" {
		t.Errorf("loaded = %+v", got)
	}
	if got.Date.Format(core.DateLayout) != "2025-03-01" {
		t.Errorf("date = %s, want 2025-03-01", got.Date.Format(core.DateLayout))
	}
}

func TestAppendPairConsecutiveIDs(t *testing.T) {
	repo := newTestRepository(t)

	if _, err := repo.Append(core.Transaction{Kind: core.Income, Amount: core.Money{Cents: 5000}}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	pair, err := repo.AppendPair(
		core.Transaction{Kind: core.Savings, Category: "Emergency", Amount: core.Money{Cents: -2000}},
		core.Transaction{Kind: core.Expense, Category: "Repairs", Amount: core.Money{Cents: 2000}},
	)
	if err != nil {
		t.Fatalf("AppendPair: %v", err)
	}
	if pair[0].ID != "TX002" || pair[1].ID != "TX003" {
		t.Errorf("pair ids = %s, %s, want TX002, TX003", pair[0].ID, pair[1].ID)
	}

	txs, _, err := repo.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("loaded %d rows, want 3", len(txs))
	}
}

func TestUpdateByID(t *testing.T) {
	repo := newTestRepository(t)

	saved, err := repo.Append(core.Transaction{Kind: core.Expense, Category: "Food", Amount: core.Money{Cents: 1200}})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	desc := "edited"
	amount := core.Money{Cents: 1500}
	ok, err := repo.UpdateByID(saved.ID, ledger.Patch{Description: &desc, Amount: &amount})
	if err != nil {
		t.Fatalf("UpdateByID: %v", err)
	}
	if !ok {
		t.Fatal("UpdateByID matched nothing")
	}

	txs, _, _ := repo.Load()
	if txs[0].Description != "edited" || txs[0].Amount.Cents != 1500 {
		t.Errorf("updated row = %+v", txs[0])
	}
	if txs[0].Category != "Food" {
		t.Errorf("category changed to %s, patch should not touch it", txs[0].Category)
	}

	ok, err = repo.UpdateByID("TX999", ledger.Patch{Description: &desc})
	if err != nil {
		t.Fatalf("UpdateByID missing: %v", err)
	}
	if ok {
		t.Error("UpdateByID reported a match for a missing id")
	}

	// Empty patch still reports whether the row exists.
	ok, err = repo.UpdateByID(saved.ID, ledger.Patch{})
	if err != nil || !ok {
		t.Errorf("empty patch on existing row: ok=%v err=%v", ok, err)
	}
}

func TestRemoveByID(t *testing.T) {
	repo := newTestRepository(t)

	saved, err := repo.Append(core.Transaction{Kind: core.Expense, Amount: core.Money{Cents: 100}})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	ok, err := repo.RemoveByID(saved.ID)
	if err != nil || !ok {
		t.Fatalf("RemoveByID: ok=%v err=%v", ok, err)
	}
	ok, err = repo.RemoveByID(saved.ID)
	if err != nil {
		t.Fatalf("RemoveByID second: %v", err)
	}
	if ok {
		t.Error("RemoveByID matched an already removed id")
	}

	txs, _, _ := repo.Load()
	if len(txs) != 0 {
		t.Errorf("ledger has %d rows, want 0", len(txs))
	}
}

func TestBudgets(t *testing.T) {
	repo := newTestRepository(t)
	budgets := repo.Budgets()

	if err := budgets.SetLimit("Food", core.Money{Cents: 30000}); err != nil {
		t.Fatalf("SetLimit: %v", err)
	}
	// Upsert replaces the previous value.
	if err := budgets.SetLimit("Food", core.Money{Cents: 35000}); err != nil {
		t.Fatalf("SetLimit upsert: %v", err)
	}

	limits, err := budgets.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if limits["Food"].Cents != 35000 {
		t.Errorf("Food limit = %d, want 35000", limits["Food"].Cents)
	}

	if err := budgets.SetLimit("", core.Money{Cents: 100}); !errors.Is(err, core.ErrMissingField) {
		t.Errorf("blank category error = %v, want ErrMissingField", err)
	}
	if err := budgets.SetLimit("Books", core.Money{Cents: -100}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("negative limit error = %v, want ErrInvalidAmount", err)
	}

	if err := budgets.Save(map[string]core.Money{"Rent": {Cents: 90000}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	limits, _ = budgets.Load()
	if len(limits) != 1 || limits["Rent"].Cents != 90000 {
		t.Errorf("after Save limits = %v, want only Rent", limits)
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	repo, err := NewRepository(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	repo.Close()

	// Reopening re-runs migrations; ErrNoChange must be swallowed.
	repo, err = NewRepository(path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	repo.Close()
}
