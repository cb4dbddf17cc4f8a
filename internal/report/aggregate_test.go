package report

import (
	"testing"
	"time"

	"budgetbook/internal/core"
)

func tx(kind core.Kind, day string, category string, cents int64) core.Transaction {
	d, err := time.Parse(core.DateLayout, day)
	if err != nil {
		panic(err)
	}
	return core.Transaction{Date: d, Kind: kind, Category: category, Amount: core.Money{Cents: cents}}
}

func TestSummarize(t *testing.T) {
	txs := []core.Transaction{
		tx(core.Income, "2025-03-01", "Allowance", 100000),
		tx(core.Expense, "2025-03-05", "Books", 25000),
		tx(core.Savings, "2025-03-10", "Emergency", 10000),
		tx(core.Expense, "2025-04-01", "Food", 99999), // other month, ignored
	}
	s := Summarize(txs, 2025, time.March)
	if s.Income.Cents != 100000 || s.Expense.Cents != 25000 || s.Savings.Cents != 10000 {
		t.Errorf("totals wrong: %+v", s)
	}
	if s.Net.Cents != 65000 {
		t.Errorf("net = %s, want 650.00", s.Net)
	}
}

func TestBalanceIgnoresSavings(t *testing.T) {
	txs := []core.Transaction{
		tx(core.Income, "2025-03-01", "Allowance", 100000),
		tx(core.Expense, "2025-03-05", "Books", 25000),
		tx(core.Savings, "2025-03-10", "Emergency", 10000),
		tx(core.Savings, "2025-03-15", "Emergency", -4000), // withdrawal
		tx(core.Savings, "2025-05-01", "Holiday", 7000),
	}
	// balance == income - expense regardless of interleaved savings rows
	if got := Balance(txs); got.Cents != 75000 {
		t.Errorf("balance = %s, want 750.00", got)
	}
}

func TestSavingsBalancesCumulative(t *testing.T) {
	txs := []core.Transaction{
		tx(core.Savings, "2025-01-10", "Emergency", 10000),
		tx(core.Savings, "2025-02-10", "Emergency", 5000),
		tx(core.Savings, "2025-02-20", "Emergency", -3000),
		tx(core.Savings, "2025-04-01", "Emergency", 9999), // after cutoff
		tx(core.Savings, "2025-02-01", "Holiday", 2000),
	}
	got := SavingsBalances(txs, 2025, time.March)
	if got["Emergency"].Cents != 12000 {
		t.Errorf("Emergency = %s, want 120.00", got["Emergency"])
	}
	if got["Holiday"].Cents != 2000 {
		t.Errorf("Holiday = %s, want 20.00", got["Holiday"])
	}
	if AvailableSavings(txs, "Emergency", 2025, time.January).Cents != 10000 {
		t.Error("January cutoff should exclude later rows")
	}
	if TotalSavings(txs, 2025, time.March).Cents != 14000 {
		t.Errorf("total = %s, want 140.00", TotalSavings(txs, 2025, time.March))
	}
}

func TestBreakdown(t *testing.T) {
	txs := []core.Transaction{
		tx(core.Expense, "2025-03-02", "Books", 25000),
		tx(core.Expense, "2025-03-09", "Food", 9000),
		tx(core.Savings, "2025-03-12", "Emergency", 10000),
		tx(core.Savings, "2025-03-13", "Food", 1000), // mixed category
		tx(core.Income, "2025-03-01", "Job", 50000),  // income never appears
	}
	limits := map[string]core.Money{
		"Books":     {Cents: 20000},
		"Food":      {Cents: 15000},
		"Emergency": {Cents: 5000}, // savings-only: limit must be ignored
	}

	rows := Breakdown(txs, limits, 2025, time.March)
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}

	books := rows[0]
	if books.Category != "Books" || !books.HasLimit {
		t.Fatalf("unexpected first row: %+v", books)
	}
	if books.Variance.Cents != -5000 || !books.Over {
		t.Errorf("Books variance = %s over=%v, want -50.00 over budget", books.Variance, books.Over)
	}

	emergency := rows[1]
	if emergency.Category != "Emergency" || !emergency.SavingsOnly {
		t.Fatalf("unexpected second row: %+v", emergency)
	}
	if emergency.HasLimit {
		t.Error("savings-only category must carry no budget variance")
	}

	food := rows[2]
	if food.Spent.Cents != 10000 || food.ExpenseOnly.Cents != 9000 {
		t.Errorf("Food spent=%s expense=%s", food.Spent, food.ExpenseOnly)
	}
	if food.Variance.Cents != 6000 || food.Over {
		t.Errorf("Food variance = %s over=%v, want 60.00 within budget", food.Variance, food.Over)
	}
}

func TestCheckBudget(t *testing.T) {
	txs := []core.Transaction{
		tx(core.Expense, "2025-03-02", "Books", 15000),
		tx(core.Expense, "2025-03-20", "Books", 10000),
		tx(core.Savings, "2025-03-21", "Books", 99900), // savings never counts
	}
	limits := map[string]core.Money{"Books": {Cents: 20000}}

	over, exceeded := CheckBudget(txs, limits, "Books", 2025, time.March)
	if !exceeded || over.Cents != 5000 {
		t.Errorf("over = %s exceeded=%v, want 50.00 true", over, exceeded)
	}

	if _, exceeded := CheckBudget(txs, limits, "Food", 2025, time.March); exceeded {
		t.Error("category without limit can never exceed")
	}
	if _, exceeded := CheckBudget(txs[:1], limits, "Books", 2025, time.March); exceeded {
		t.Error("within-limit spend flagged as exceeded")
	}
}

func TestDailyCumulative(t *testing.T) {
	txs := []core.Transaction{
		tx(core.Expense, "2025-02-03", "Food", 1000),
		tx(core.Expense, "2025-02-03", "Food", 500),
		tx(core.Expense, "2025-02-10", "Books", 2000),
		tx(core.Income, "2025-02-05", "Job", 99999),
	}
	series := DailyCumulative(txs, 2025, time.February)
	if len(series) != 28 {
		t.Fatalf("series length = %d, want 28", len(series))
	}
	if series[0].Cents != 0 {
		t.Errorf("day 1 = %s, want 0.00", series[0])
	}
	if series[2].Cents != 1500 {
		t.Errorf("day 3 = %s, want 15.00", series[2])
	}
	if series[8].Cents != 1500 {
		t.Errorf("day 9 = %s, want carried 15.00", series[8])
	}
	if series[27].Cents != 3500 {
		t.Errorf("last day = %s, want 35.00", series[27])
	}
}

func TestCompareYearRollover(t *testing.T) {
	txs := []core.Transaction{
		tx(core.Expense, "2024-12-10", "Food", 10000),
		tx(core.Expense, "2025-01-10", "Food", 4000),
		tx(core.Income, "2025-01-05", "Job", 20000),
	}
	cmp := Compare(txs, 2025, time.January)
	if cmp.Previous.Year != 2024 || cmp.Previous.Month != 12 {
		t.Fatalf("previous period = %d-%d, want 2024-12", cmp.Previous.Year, cmp.Previous.Month)
	}
	if cmp.DeltaExpense.Cents != -6000 {
		t.Errorf("delta expense = %s, want -60.00", cmp.DeltaExpense)
	}
	if cmp.DeltaIncome.Cents != 20000 {
		t.Errorf("delta income = %s, want 200.00", cmp.DeltaIncome)
	}
}
