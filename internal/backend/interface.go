// Package backend selects and wires the persistence layer behind the
// ledger and budget stores.
package backend

import (
	"budgetbook/internal/core"
	"budgetbook/internal/ledger"
)

// LedgerStore is the persistence port for transactions. The CSV store is
// the canonical implementation; SQLite and memory follow the same id
// allocation and defaulting rules.
type LedgerStore interface {
	Load() ([]core.Transaction, ledger.LoadStats, error)
	Append(core.Transaction) (core.Transaction, error)
	AppendPair(a, b core.Transaction) ([2]core.Transaction, error)
	UpdateByID(id string, p ledger.Patch) (bool, error)
	RemoveByID(id string) (bool, error)
	EnsureStorage() error
	MigrateSchema() error
}

// BudgetStore is the persistence port for per-category monthly limits.
type BudgetStore interface {
	Load() (map[string]core.Money, error)
	Save(map[string]core.Money) error
	SetLimit(category string, amount core.Money) error
}

// CleanupFunc releases backend resources on shutdown.
type CleanupFunc func() error

// Result carries the constructed stores and an optional cleanup function.
type Result struct {
	Ledger  LedgerStore
	Budgets BudgetStore
	Cleanup CleanupFunc
}

// Type names a persistence backend.
type Type string

const (
	CSVBackend    Type = "csv"
	SQLiteBackend Type = "sqlite"
	MemoryBackend Type = "memory"
)

// String implements fmt.Stringer.
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is recognized.
func (t Type) IsValid() bool {
	switch t {
	case CSVBackend, SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
