// Package budget implements the per-category monthly budget CSV store.
package budget

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"budgetbook/internal/core"
)

const budgetFile = "budgets.csv"

var header = []string{"category", "monthly_budget_rm"}

// Store reads and writes the budget CSV file. One row per category; a
// re-saved category overwrites its limit.
type Store struct {
	path string
}

func NewStore(dir string) *Store {
	return &Store{path: filepath.Join(dir, budgetFile)}
}

// Path returns the budget file path.
func (s *Store) Path() string {
	return s.path
}

// Load returns the category -> monthly limit mapping. A missing file is an
// empty mapping, not an error. Rows with unparseable limits are skipped.
func (s *Store) Load() (map[string]core.Money, error) {
	out := make(map[string]core.Money)

	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return out, nil
		}
		return nil, fmt.Errorf("open budgets: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read budgets: %w", err)
	}
	for i, row := range rows {
		if i == 0 || len(row) < 2 {
			continue
		}
		category := strings.TrimSpace(row[0])
		if category == "" {
			continue
		}
		limit, err := core.ParseMoney(row[1])
		if err != nil || limit.IsNegative() {
			continue
		}
		out[category] = limit
	}
	return out, nil
}

// Save rewrites the file wholesale, categories sorted lexicographically so
// the output is deterministic.
func (s *Store) Save(limits map[string]core.Money) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	categories := make([]string, 0, len(limits))
	for c := range limits {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	rows := make([][]string, 0, len(limits)+1)
	rows = append(rows, header)
	for _, c := range categories {
		rows = append(rows, []string{c, limits[c].String()})
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "budgets-*.csv")
	if err != nil {
		return fmt.Errorf("create temp budgets: %w", err)
	}
	tmpPath := tmp.Name()

	w := csv.NewWriter(tmp)
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write budgets: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("flush budgets: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp budgets: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace budgets: %w", err)
	}
	return nil
}

// SetLimit validates and persists one category limit. Rejects blank
// categories and negative amounts before anything touches the disk.
func (s *Store) SetLimit(category string, amount core.Money) error {
	category = strings.TrimSpace(category)
	if category == "" {
		return core.ErrMissingField
	}
	if amount.IsNegative() {
		return core.ErrInvalidAmount
	}

	limits, err := s.Load()
	if err != nil {
		return err
	}
	limits[category] = amount
	return s.Save(limits)
}
