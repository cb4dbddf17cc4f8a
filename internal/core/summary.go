package core

// CategoryBreakdown is one row of the monthly per-category report.
type CategoryBreakdown struct {
	Category    string
	Spent       Money // expense plus savings outflow in the month
	ExpenseOnly Money // expense portion, compared against the limit
	Limit       Money
	HasLimit    bool
	Variance    Money // Limit - ExpenseOnly, meaningful only when HasLimit
	Over        bool
	SavingsOnly bool // category seen only on savings rows this month
}

// MonthSummary aggregates one calendar month by kind.
type MonthSummary struct {
	Year    int
	Month   int // 1-12
	Income  Money
	Expense Money
	Savings Money
	Net     Money // income - expense - savings
}

// Comparison carries the previous month's summary and signed deltas.
type Comparison struct {
	Previous     MonthSummary
	DeltaIncome  Money
	DeltaExpense Money
	DeltaSavings Money
	DeltaNet     Money
}

// Forecast is the month-end projection for the current month.
type Forecast struct {
	DaysElapsed    int
	DaysRemaining  int
	IncomeToDate   Money
	ExpenseToDate  Money
	DailyBurn      Money
	ProjectedNet   Money
	SafeToSpendDay Money
}

// RateSnapshot is the cached exchange-rate state. FetchedAt is unix
// seconds; zero means never fetched.
type RateSnapshot struct {
	Base      string             `json:"base"`
	FetchedAt int64              `json:"timestamp"`
	Rates     map[string]float64 `json:"rates"`
}
