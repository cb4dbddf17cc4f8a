package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
	Savings Kind = "savings"
)

// Default category labels applied when a transaction is recorded or loaded
// with a blank category.
const (
	DefaultCategory        = "General"
	DefaultSavingsCategory = "Savings"
	DefaultDescription     = "No description"
)

// DateLayout is the on-disk date format for ledger rows.
const DateLayout = "2006-01-02"

type (
	// Kind is the transaction axis: income, expense or savings.
	Kind string

	// Transaction is one ledger row.
	Transaction struct {
		ID          string
		Date        time.Time
		Kind        Kind
		Category    string
		Amount      Money
		Description string
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrMissingField       = errors.New("missing required field")
	ErrRecordNotFound     = errors.New("record not found")
	ErrInsufficientSavings = errors.New("insufficient savings balance")
	ErrRateUnavailable    = errors.New("exchange rate unavailable")
	ErrNothingToUndo      = errors.New("nothing to undo")
)

// ParseKind normalizes a raw kind string. Unrecognized values fall back to
// Expense, matching the tolerance policy of the ledger loader.
func ParseKind(s string) Kind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(Income):
		return Income
	case string(Savings):
		return Savings
	default:
		return Expense
	}
}

// IsValid reports whether the kind is one of the three recognized values.
func (k Kind) IsValid() bool {
	switch k {
	case Income, Expense, Savings:
		return true
	default:
		return false
	}
}

// DefaultCategoryFor returns the category applied when none is given.
func DefaultCategoryFor(k Kind) string {
	if k == Savings {
		return DefaultSavingsCategory
	}
	return DefaultCategory
}

// Normalize fills blank category and kind fields with their defaults.
// The date is left untouched; the stores decide the fallback day.
func (t Transaction) Normalize() Transaction {
	if !t.Kind.IsValid() {
		t.Kind = Expense
	}
	if strings.TrimSpace(t.Category) == "" {
		t.Category = DefaultCategoryFor(t.Kind)
	}
	return t
}

// InMonth reports whether the transaction falls within the given calendar
// month.
func (t Transaction) InMonth(year int, month time.Month) bool {
	return t.Date.Year() == year && t.Date.Month() == month
}

// Validate checks a transaction before it is persisted. Loaded rows are
// coerced instead and never pass through here.
func (t Transaction) Validate() error {
	if !t.Kind.IsValid() {
		return errors.New("invalid transaction kind")
	}
	if t.Date.IsZero() {
		return errors.New("date cannot be zero")
	}
	if t.Amount.IsNegative() && t.Kind != Savings {
		return ErrInvalidAmount
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}
