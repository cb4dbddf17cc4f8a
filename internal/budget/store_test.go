package budget

import (
	"errors"
	"os"
	"testing"

	"budgetbook/internal/core"
)

func TestLoadMissingFile(t *testing.T) {
	s := NewStore(t.TempDir())
	limits, err := s.Load()
	if err != nil {
		t.Fatalf("Load on missing file: %v", err)
	}
	if len(limits) != 0 {
		t.Errorf("expected empty mapping, got %v", limits)
	}
}

func TestSetLimitRoundTrip(t *testing.T) {
	s := NewStore(t.TempDir())

	if err := s.SetLimit("Food", core.Money{Cents: 30000}); err != nil {
		t.Fatalf("SetLimit: %v", err)
	}
	if err := s.SetLimit("Books", core.Money{Cents: 20000}); err != nil {
		t.Fatalf("SetLimit: %v", err)
	}
	// Re-saving a category overwrites its limit.
	if err := s.SetLimit("Food", core.Money{Cents: 25000}); err != nil {
		t.Fatalf("SetLimit overwrite: %v", err)
	}

	limits, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(limits) != 2 {
		t.Fatalf("got %d categories, want 2", len(limits))
	}
	if limits["Food"].Cents != 25000 || limits["Books"].Cents != 20000 {
		t.Errorf("limits wrong: %v", limits)
	}
}

func TestSaveSortsCategories(t *testing.T) {
	s := NewStore(t.TempDir())
	err := s.Save(map[string]core.Money{
		"Transport": {Cents: 100},
		"Books":     {Cents: 200},
		"Food":      {Cents: 300},
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	want := "category,monthly_budget_rm\nBooks,2.00\nFood,3.00\nTransport,1.00\n"
	if string(data) != want {
		t.Errorf("file not sorted:\ngot:\n%s\nwant:\n%s", data, want)
	}
}

func TestSetLimitValidation(t *testing.T) {
	s := NewStore(t.TempDir())

	if err := s.SetLimit("", core.Money{Cents: 100}); !errors.Is(err, core.ErrMissingField) {
		t.Errorf("blank category: err = %v, want ErrMissingField", err)
	}
	if err := s.SetLimit("Food", core.Money{Cents: -1}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("negative limit: err = %v, want ErrInvalidAmount", err)
	}
	if _, err := os.Stat(s.Path()); !errors.Is(err, os.ErrNotExist) {
		t.Error("rejected SetLimit should not create the file")
	}
}
