package report

import (
	"time"

	"budgetbook/internal/core"
)

// ForecastMonth projects the month-end net position by linear burn rate.
// It is defined only when (year, month) is the month "now" falls in;
// for past or future periods ok is false and the forecast is suppressed.
// Days elapsed and remaining are measured against the actual current
// date, and only transactions dated on or before today count.
func ForecastMonth(txs []core.Transaction, year int, month time.Month, now time.Time) (core.Forecast, bool) {
	if now.Year() != year || now.Month() != month {
		return core.Forecast{}, false
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, time.UTC)
	elapsed := now.Day()
	remaining := daysInMonth(year, month) - elapsed

	var income, expense core.Money
	for _, tx := range txs {
		if !tx.InMonth(year, month) || tx.Date.After(today) {
			continue
		}
		switch tx.Kind {
		case core.Income:
			income = income.Add(tx.Amount)
		case core.Expense:
			expense = expense.Add(tx.Amount)
		}
	}

	burn := core.MoneyFromFloat(expense.Float() / float64(elapsed))
	projected := income.Sub(expense).Sub(burn.MulRate(float64(remaining)))

	var safe core.Money
	left := income.Sub(expense)
	if remaining == 0 {
		safe = left
	} else {
		safe = core.MoneyFromFloat(left.Float() / float64(remaining))
	}

	return core.Forecast{
		DaysElapsed:    elapsed,
		DaysRemaining:  remaining,
		IncomeToDate:   income,
		ExpenseToDate:  expense,
		DailyBurn:      burn,
		ProjectedNet:   projected,
		SafeToSpendDay: safe,
	}, true
}
