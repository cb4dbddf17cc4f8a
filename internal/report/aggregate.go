// Package report computes monthly financial summaries from the in-memory
// transaction list. Everything here is a pure function of its inputs: no
// I/O, no clock access except where the caller passes "now" in.
package report

import (
	"sort"
	"time"

	"budgetbook/internal/core"
)

// Summarize totals one calendar month by kind. Net subtracts both expense
// and savings from income: money put aside is an outflow for the month.
func Summarize(txs []core.Transaction, year int, month time.Month) core.MonthSummary {
	s := core.MonthSummary{Year: year, Month: int(month)}
	for _, tx := range txs {
		if !tx.InMonth(year, month) {
			continue
		}
		switch tx.Kind {
		case core.Income:
			s.Income = s.Income.Add(tx.Amount)
		case core.Expense:
			s.Expense = s.Expense.Add(tx.Amount)
		case core.Savings:
			s.Savings = s.Savings.Add(tx.Amount)
		}
	}
	s.Net = s.Income.Sub(s.Expense).Sub(s.Savings)
	return s
}

// Balance is the running header figure over ALL transactions:
// income minus expense. Savings rows are a neutral transfer and never
// move the balance, withdrawals included.
func Balance(txs []core.Transaction) core.Money {
	var b core.Money
	for _, tx := range txs {
		switch tx.Kind {
		case core.Income:
			b = b.Add(tx.Amount)
		case core.Expense:
			b = b.Sub(tx.Amount)
		}
	}
	return b
}

// SavingsBalances sums savings rows per category over every transaction
// dated up to and including the end of the target month. Withdrawals carry
// negative amounts, so the result is the balance still available.
func SavingsBalances(txs []core.Transaction, year int, month time.Month) map[string]core.Money {
	cutoff := endOfMonth(year, month)
	out := make(map[string]core.Money)
	for _, tx := range txs {
		if tx.Kind != core.Savings || tx.Date.After(cutoff) {
			continue
		}
		out[tx.Category] = out[tx.Category].Add(tx.Amount)
	}
	return out
}

// AvailableSavings returns the cumulative balance for one category as of
// the end of the given month.
func AvailableSavings(txs []core.Transaction, category string, year int, month time.Month) core.Money {
	return SavingsBalances(txs, year, month)[category]
}

// TotalSavings is the cumulative savings balance across all categories.
func TotalSavings(txs []core.Transaction, year int, month time.Month) core.Money {
	var total core.Money
	for _, m := range SavingsBalances(txs, year, month) {
		total = total.Add(m)
	}
	return total
}

// Breakdown reports, per category seen on expense or savings rows in the
// month, the outflow, the configured limit and the variance. Variance and
// the over flag compare only the expense portion against the limit; a
// category used exclusively for savings has no meaningful expense budget
// and is flagged instead. Rows come back sorted by category.
func Breakdown(txs []core.Transaction, limits map[string]core.Money, year int, month time.Month) []core.CategoryBreakdown {
	type acc struct {
		spent   core.Money
		expense core.Money
		hasExp  bool
	}
	byCat := make(map[string]*acc)
	for _, tx := range txs {
		if !tx.InMonth(year, month) {
			continue
		}
		if tx.Kind != core.Expense && tx.Kind != core.Savings {
			continue
		}
		a := byCat[tx.Category]
		if a == nil {
			a = &acc{}
			byCat[tx.Category] = a
		}
		a.spent = a.spent.Add(tx.Amount)
		if tx.Kind == core.Expense {
			a.expense = a.expense.Add(tx.Amount)
			a.hasExp = true
		}
	}

	out := make([]core.CategoryBreakdown, 0, len(byCat))
	for cat, a := range byCat {
		row := core.CategoryBreakdown{
			Category:    cat,
			Spent:       a.spent,
			ExpenseOnly: a.expense,
			SavingsOnly: !a.hasExp,
		}
		if limit, ok := limits[cat]; ok && a.hasExp {
			row.Limit = limit
			row.HasLimit = true
			row.Variance = limit.Sub(a.expense)
			row.Over = a.expense.GreaterThan(limit)
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// CheckBudget recomputes one category's month-to-date expense total
// against its limit. Returns the overage and true when the limit is
// exceeded. Meant to run right after an expense append; income and
// savings never trigger it.
func CheckBudget(txs []core.Transaction, limits map[string]core.Money, category string, year int, month time.Month) (core.Money, bool) {
	limit, ok := limits[category]
	if !ok {
		return core.Money{}, false
	}
	var spent core.Money
	for _, tx := range txs {
		if tx.Kind == core.Expense && tx.Category == category && tx.InMonth(year, month) {
			spent = spent.Add(tx.Amount)
		}
	}
	if spent.GreaterThan(limit) {
		return spent.Sub(limit), true
	}
	return core.Money{}, false
}

// DailyCumulative returns the running expense total per day of the month,
// zero-filled: index 0 is day 1, the last index is the final calendar day.
func DailyCumulative(txs []core.Transaction, year int, month time.Month) []core.Money {
	days := daysInMonth(year, month)
	perDay := make([]core.Money, days)
	for _, tx := range txs {
		if tx.Kind != core.Expense || !tx.InMonth(year, month) {
			continue
		}
		d := tx.Date.Day()
		if d >= 1 && d <= days {
			perDay[d-1] = perDay[d-1].Add(tx.Amount)
		}
	}
	var running core.Money
	for i := range perDay {
		running = running.Add(perDay[i])
		perDay[i] = running
	}
	return perDay
}

// Compare aggregates the immediately preceding calendar month (January
// rolls back to the prior December) and reports signed deltas.
func Compare(txs []core.Transaction, year int, month time.Month) core.Comparison {
	prevYear, prevMonth := year, month-1
	if prevMonth < time.January {
		prevMonth = time.December
		prevYear--
	}
	cur := Summarize(txs, year, month)
	prev := Summarize(txs, prevYear, prevMonth)
	return core.Comparison{
		Previous:     prev,
		DeltaIncome:  cur.Income.Sub(prev.Income),
		DeltaExpense: cur.Expense.Sub(prev.Expense),
		DeltaSavings: cur.Savings.Sub(prev.Savings),
		DeltaNet:     cur.Net.Sub(prev.Net),
	}
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func endOfMonth(year int, month time.Month) time.Time {
	return time.Date(year, month, daysInMonth(year, month), 23, 59, 59, 0, time.UTC)
}
