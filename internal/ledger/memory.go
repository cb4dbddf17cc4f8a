package ledger

import (
	"sync"
	"time"

	"budgetbook/internal/core"
)

// MemoryStore keeps the ledger in memory. It mirrors the CSV store's id
// allocation and defaulting so the service behaves identically on either
// backend. Used for tests and as the dev backend.
type MemoryStore struct {
	mu  sync.Mutex
	txs []core.Transaction
	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (m *MemoryStore) Load() ([]core.Transaction, LoadStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.Transaction, len(m.txs))
	copy(out, m.txs)
	return out, LoadStats{Rows: len(out)}, nil
}

func (m *MemoryStore) Append(tx core.Transaction) (core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx.ID = nextID(m.txs, 1)
	tx = m.fillDefaults(tx)
	m.txs = append(m.txs, tx)
	return tx, nil
}

func (m *MemoryStore) AppendPair(a, b core.Transaction) ([2]core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = nextID(m.txs, 1)
	b.ID = nextID(m.txs, 2)
	a = m.fillDefaults(a)
	b = m.fillDefaults(b)
	m.txs = append(m.txs, a, b)
	return [2]core.Transaction{a, b}, nil
}

func (m *MemoryStore) UpdateByID(id string, p Patch) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, tx := range m.txs {
		if tx.ID == id {
			m.txs[i] = applyPatch(tx, p)
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) RemoveByID(id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, tx := range m.txs {
		if tx.ID == id {
			m.txs = append(m.txs[:i], m.txs[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) EnsureStorage() error { return nil }

func (m *MemoryStore) MigrateSchema() error { return nil }

func (m *MemoryStore) fillDefaults(tx core.Transaction) core.Transaction {
	tx = tx.Normalize()
	if tx.Date.IsZero() {
		tx.Date = today(m.now())
	}
	return tx
}
