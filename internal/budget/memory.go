package budget

import (
	"strings"
	"sync"

	"budgetbook/internal/core"
)

// MemoryStore keeps budget limits in memory, for tests and the dev
// backend.
type MemoryStore struct {
	mu     sync.Mutex
	limits map[string]core.Money
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{limits: make(map[string]core.Money)}
}

func (m *MemoryStore) Load() (map[string]core.Money, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]core.Money, len(m.limits))
	for c, v := range m.limits {
		out[c] = v
	}
	return out, nil
}

func (m *MemoryStore) Save(limits map[string]core.Money) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limits = make(map[string]core.Money, len(limits))
	for c, v := range limits {
		m.limits[c] = v
	}
	return nil
}

func (m *MemoryStore) SetLimit(category string, amount core.Money) error {
	category = strings.TrimSpace(category)
	if category == "" {
		return core.ErrMissingField
	}
	if amount.IsNegative() {
		return core.ErrInvalidAmount
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limits[category] = amount
	return nil
}
