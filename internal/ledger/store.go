// Package ledger implements the CSV-backed transaction store: loading,
// id allocation, in-place updates, deletes and schema migration.
//
// The CSV file is the single source of truth; every mutation rewrites or
// appends to it and callers reload afterwards. All full-file rewrites go
// through a temp-file + rename so a crash mid-write cannot truncate the
// ledger.
package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"budgetbook/internal/core"
)

const (
	ledgerFile    = "ledger.csv"
	legacyDirName = "budget_data"
)

// canonicalHeader is the on-disk column layout:
// tx_id,date,type,category,amount_rm,desc
var canonicalHeader = []string{"tx_id", "date", "type", "category", "amount_rm", "desc"}

// LoadStats reports what the loader had to tolerate.
type LoadStats struct {
	Rows    int
	Coerced int // rows with at least one defaulted field
}

// Patch carries the fields of an update; nil pointers keep the stored value.
type Patch struct {
	Date        *time.Time
	Kind        *core.Kind
	Category    *string
	Amount      *core.Money
	Description *string
}

// Store reads and writes the ledger CSV file. It is synchronous and
// single-writer; the file is the only durable state.
type Store struct {
	dir        string
	path       string
	legacyPath string

	now func() time.Time
}

// NewStore returns a store rooted at dir. The legacy location from the old
// application layout (a sibling budget_data directory) is checked once by
// EnsureStorage.
func NewStore(dir string) *Store {
	return &Store{
		dir:        dir,
		path:       filepath.Join(dir, ledgerFile),
		legacyPath: filepath.Join(filepath.Dir(dir), legacyDirName, ledgerFile),
		now:        time.Now,
	}
}

// Path returns the canonical ledger file path.
func (s *Store) Path() string {
	return s.path
}

// EnsureStorage creates the data directory and an empty ledger with the
// canonical header when absent. If only the legacy file exists it is
// copied forward first, so MigrateSchema can upgrade it in place.
// Idempotent.
func (s *Store) EnsureStorage() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat ledger: %w", err)
	}

	if data, err := os.ReadFile(s.legacyPath); err == nil {
		if err := os.WriteFile(s.path, data, 0o644); err != nil {
			return fmt.Errorf("copy legacy ledger forward: %w", err)
		}
		return nil
	}

	return writeCSV(s.path, [][]string{canonicalHeader})
}

// Load reads the ledger in file order. A missing file yields an empty
// slice, not an error. Malformed values are coerced to defaults (today's
// date, zero amount, expense kind, per-kind category); the stats report
// how many rows needed that.
func (s *Store) Load() ([]core.Transaction, LoadStats, error) {
	var stats LoadStats

	rows, err := s.readAll()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, stats, nil
		}
		return nil, stats, err
	}
	if len(rows) <= 1 {
		return nil, stats, nil
	}

	idx := columnIndex(rows[0])
	txs := make([]core.Transaction, 0, len(rows)-1)
	for _, row := range rows[1:] {
		tx, coerced := s.decodeRow(idx, row)
		txs = append(txs, tx)
		stats.Rows++
		if coerced {
			stats.Coerced++
		}
	}
	return txs, stats, nil
}

// Append allocates the next sequential id and writes one row at the end
// of the file. The in-memory state of callers is untouched on failure.
func (s *Store) Append(tx core.Transaction) (core.Transaction, error) {
	if err := s.EnsureStorage(); err != nil {
		return core.Transaction{}, err
	}

	existing, _, err := s.Load()
	if err != nil {
		return core.Transaction{}, err
	}
	tx.ID = nextID(existing, 1)
	tx = s.fillDefaults(tx)

	// An externally written file may end without a newline; appending to
	// it as-is would glue the new record onto the last row.
	if err := ensureTrailingNewline(s.path); err != nil {
		return core.Transaction{}, err
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("open ledger for append: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(encodeRow(tx)); err != nil {
		f.Close()
		return core.Transaction{}, fmt.Errorf("append ledger row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return core.Transaction{}, fmt.Errorf("flush ledger row: %w", err)
	}
	if err := f.Close(); err != nil {
		return core.Transaction{}, fmt.Errorf("close ledger: %w", err)
	}
	return tx, nil
}

// AppendPair writes two rows with consecutive ids in a single atomic
// rewrite. Used by the savings transfer so a crash cannot leave half of
// the pair behind.
func (s *Store) AppendPair(a, b core.Transaction) ([2]core.Transaction, error) {
	var out [2]core.Transaction

	if err := s.EnsureStorage(); err != nil {
		return out, err
	}
	rows, err := s.readAll()
	if err != nil {
		return out, err
	}
	if len(rows) == 0 {
		rows = [][]string{canonicalHeader}
	}

	existing, _, err := s.Load()
	if err != nil {
		return out, err
	}
	a.ID = nextID(existing, 1)
	b.ID = nextID(existing, 2)
	a = s.fillDefaults(a)
	b = s.fillDefaults(b)

	rows = append(rows, encodeRow(a), encodeRow(b))
	if err := writeCSV(s.path, rows); err != nil {
		return out, err
	}
	out[0], out[1] = a, b
	return out, nil
}

// UpdateByID rewrites the file with the matching row merged with the
// patch. The existing header column order is preserved; canonical columns
// the file lacks are appended. Returns false when no row matched.
func (s *Store) UpdateByID(id string, p Patch) (bool, error) {
	rows, err := s.readAll()
	if err != nil {
		return false, err
	}
	if len(rows) <= 1 {
		return false, nil
	}

	header, rows := completeHeader(rows)
	idx := columnIndex(header)

	matched := false
	for i, row := range rows[1:] {
		if cell(row, colIdx(idx, "tx_id")) != id {
			continue
		}
		tx, _ := s.decodeRow(idx, row)
		tx = applyPatch(tx, p)
		rows[i+1] = mergeRow(header, idx, row, tx)
		matched = true
		break
	}
	if !matched {
		return false, nil
	}
	return true, writeCSV(s.path, rows)
}

// RemoveByID rewrites the file without the matching row. Returns false
// when no row matched; the file is not rewritten in that case.
func (s *Store) RemoveByID(id string) (bool, error) {
	rows, err := s.readAll()
	if err != nil {
		return false, err
	}
	if len(rows) <= 1 {
		return false, nil
	}

	idx := columnIndex(rows[0])
	kept := rows[:1]
	matched := false
	for _, row := range rows[1:] {
		if !matched && cell(row, colIdx(idx, "tx_id")) == id {
			matched = true
			continue
		}
		kept = append(kept, row)
	}
	if !matched {
		return false, nil
	}
	return true, writeCSV(s.path, kept)
}

func (s *Store) readAll() ([][]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // tolerate ragged rows, the loader coerces
	rows, err := r.ReadAll()
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	return rows, nil
}

// decodeRow maps one raw CSV row to a transaction, defaulting every field
// it cannot parse. Tolerance over strictness: a half-corrupt row survives
// the reload instead of vanishing.
func (s *Store) decodeRow(idx map[string]int, row []string) (core.Transaction, bool) {
	coerced := false

	kindRaw := cell(row, colIdx(idx, "type"))
	kind := core.ParseKind(kindRaw)
	if !core.Kind(strings.ToLower(strings.TrimSpace(kindRaw))).IsValid() {
		coerced = true
	}

	date, err := time.Parse(core.DateLayout, cell(row, colIdx(idx, "date")))
	if err != nil {
		date = today(s.now())
		coerced = true
	}

	amount, err := core.ParseMoney(cell(row, colIdx(idx, "amount_rm")))
	if err != nil {
		amount = core.Money{}
		coerced = true
	}

	category := strings.TrimSpace(cell(row, colIdx(idx, "category")))
	if category == "" {
		category = core.DefaultCategoryFor(kind)
		coerced = true
	}

	return core.Transaction{
		ID:          strings.TrimSpace(cell(row, colIdx(idx, "tx_id"))),
		Date:        date,
		Kind:        kind,
		Category:    category,
		Amount:      amount,
		Description: cell(row, colIdx(idx, "desc")),
	}, coerced
}

func (s *Store) fillDefaults(tx core.Transaction) core.Transaction {
	tx = tx.Normalize()
	if tx.Date.IsZero() {
		tx.Date = today(s.now())
	}
	return tx
}

func encodeRow(tx core.Transaction) []string {
	return []string{
		tx.ID,
		tx.Date.Format(core.DateLayout),
		string(tx.Kind),
		tx.Category,
		tx.Amount.String(),
		tx.Description,
	}
}

// mergeRow writes the transaction back into the raw row, touching only
// canonical columns so unknown extra columns keep their cells.
func mergeRow(header []string, idx map[string]int, row []string, tx core.Transaction) []string {
	out := make([]string, len(header))
	copy(out, row)
	set := func(col, v string) {
		if i, ok := idx[col]; ok && i < len(out) {
			out[i] = v
		}
	}
	set("tx_id", tx.ID)
	set("date", tx.Date.Format(core.DateLayout))
	set("type", string(tx.Kind))
	set("category", tx.Category)
	set("amount_rm", tx.Amount.String())
	set("desc", tx.Description)
	return out
}

// completeHeader appends any missing canonical column to the header and
// pads every row to the new width.
func completeHeader(rows [][]string) ([]string, [][]string) {
	header := append([]string(nil), rows[0]...)
	idx := columnIndex(header)
	for _, col := range canonicalHeader {
		if _, ok := idx[col]; !ok {
			header = append(header, col)
		}
	}
	rows[0] = header
	for i := 1; i < len(rows); i++ {
		for len(rows[i]) < len(header) {
			rows[i] = append(rows[i], "")
		}
	}
	return header, rows
}

func applyPatch(tx core.Transaction, p Patch) core.Transaction {
	if p.Date != nil {
		tx.Date = *p.Date
	}
	if p.Kind != nil {
		tx.Kind = *p.Kind
	}
	if p.Category != nil {
		tx.Category = *p.Category
	}
	if p.Amount != nil {
		tx.Amount = *p.Amount
	}
	if p.Description != nil {
		tx.Description = *p.Description
	}
	return tx.Normalize()
}

// nextID returns TX{max+offset:03d} over the numeric suffixes present.
// Ids are never reused or renumbered, so the max survives deletes.
func nextID(txs []core.Transaction, offset int) string {
	max := 0
	for _, tx := range txs {
		if n, ok := idNumber(tx.ID); ok && n > max {
			max = n
		}
	}
	return fmt.Sprintf("TX%03d", max+offset)
}

func idNumber(id string) (int, bool) {
	id = strings.TrimSpace(id)
	if !strings.HasPrefix(strings.ToUpper(id), "TX") {
		return 0, false
	}
	n, err := strconv.Atoi(id[2:])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func columnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return idx
}

func colIdx(idx map[string]int, name string) int {
	if i, ok := idx[name]; ok {
		return i
	}
	return -1
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func today(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ensureTrailingNewline terminates the file's last line if an external
// writer left it open-ended, so an O_APPEND write starts a fresh record.
func ensureTrailingNewline(path string) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat ledger: %w", err)
	}
	if info.Size() == 0 {
		return nil
	}
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil {
		return fmt.Errorf("read ledger tail: %w", err)
	}
	if last[0] == '\n' {
		return nil
	}
	if _, err := f.WriteAt([]byte{'\n'}, info.Size()); err != nil {
		return fmt.Errorf("terminate ledger tail: %w", err)
	}
	return nil
}

// writeCSV rewrites the file atomically: temp file in the same directory,
// then rename over the target.
func writeCSV(path string, rows [][]string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "ledger-*.csv")
	if err != nil {
		return fmt.Errorf("create temp ledger: %w", err)
	}
	tmpPath := tmp.Name()

	w := csv.NewWriter(tmp)
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write ledger rows: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("flush ledger rows: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp ledger: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace ledger: %w", err)
	}
	return nil
}
