package backend

import (
	"fmt"
	"log/slog"

	"budgetbook/internal/budget"
	"budgetbook/internal/ledger"
	"budgetbook/internal/storage"
)

// Config holds what the factory needs to build a backend.
type Config struct {
	Type Type

	// CSV backend
	DataDir string

	// SQLite backend
	SQLitePath string
}

// New constructs the stores for the configured backend type. The CSV
// backend runs EnsureStorage and MigrateSchema here, so callers start
// from an upgraded file.
func New(cfg Config, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.Type)
	}

	switch cfg.Type {
	case SQLiteBackend:
		repo, err := storage.NewRepository(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite repository: %w", err)
		}
		logger.Info("Initialized SQLite backend", "db_path", cfg.SQLitePath)
		return &Result{Ledger: repo, Budgets: repo.Budgets(), Cleanup: repo.Close}, nil

	case MemoryBackend:
		logger.Info("Initialized memory backend")
		return &Result{Ledger: ledger.NewMemoryStore(), Budgets: budget.NewMemoryStore()}, nil

	default:
		store := ledger.NewStore(cfg.DataDir)
		if err := store.EnsureStorage(); err != nil {
			return nil, fmt.Errorf("ensure ledger storage: %w", err)
		}
		if err := store.MigrateSchema(); err != nil {
			return nil, fmt.Errorf("migrate ledger schema: %w", err)
		}
		logger.Info("Initialized CSV backend", "data_dir", cfg.DataDir)
		return &Result{Ledger: store, Budgets: budget.NewStore(cfg.DataDir)}, nil
	}
}
