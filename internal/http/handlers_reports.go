package http

import (
	"fmt"
	"net/http"
	"strings"
)

type summaryJSON struct {
	Year           int             `json:"year"`
	Month          int             `json:"month"`
	IncomeRM       string          `json:"income_rm"`
	ExpenseRM      string          `json:"expense_rm"`
	SavingsRM      string          `json:"savings_rm"`
	NetRM          string          `json:"net_rm"`
	BalanceRM      string          `json:"balance_rm"`
	TotalSavingsRM string          `json:"total_savings_rm"`
	CoercedRows    int             `json:"coerced_rows"`
	Comparison     *comparisonJSON `json:"comparison,omitempty"`
}

type comparisonJSON struct {
	PrevYear       int    `json:"prev_year"`
	PrevMonth      int    `json:"prev_month"`
	PrevNetRM      string `json:"prev_net_rm"`
	IncomeDeltaRM  string `json:"income_delta_rm"`
	ExpenseDeltaRM string `json:"expense_delta_rm"`
	SavingsDeltaRM string `json:"savings_delta_rm"`
	NetDeltaRM     string `json:"net_delta_rm"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}
	year, month := parseYearMonth(r)
	withCompare := strings.EqualFold(r.URL.Query().Get("compare"), "true")

	res, err := s.svc.Summary(r.Context(), year, month, withCompare)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := summaryJSON{
		Year:           res.Year,
		Month:          res.Month,
		IncomeRM:       res.Income.String(),
		ExpenseRM:      res.Expense.String(),
		SavingsRM:      res.Savings.String(),
		NetRM:          res.Net.String(),
		BalanceRM:      res.Balance.String(),
		TotalSavingsRM: res.TotalSavings.String(),
		CoercedRows:    res.CoercedRows,
	}
	if res.Comparison != nil {
		c := res.Comparison
		out.Comparison = &comparisonJSON{
			PrevYear:       c.Previous.Year,
			PrevMonth:      c.Previous.Month,
			PrevNetRM:      c.Previous.Net.String(),
			IncomeDeltaRM:  c.DeltaIncome.String(),
			ExpenseDeltaRM: c.DeltaExpense.String(),
			SavingsDeltaRM: c.DeltaSavings.String(),
			NetDeltaRM:     c.DeltaNet.String(),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

type breakdownJSON struct {
	Category      string `json:"category"`
	SpentRM       string `json:"spent_rm"`
	ExpenseOnlyRM string `json:"expense_only_rm"`
	LimitRM       string `json:"limit_rm,omitempty"`
	VarianceRM    string `json:"variance_rm,omitempty"`
	Over          bool   `json:"over"`
	SavingsOnly   bool   `json:"savings_only"`
}

func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}
	year, month := parseYearMonth(r)

	rows, err := s.svc.Breakdown(r.Context(), year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]breakdownJSON, 0, len(rows))
	for _, row := range rows {
		item := breakdownJSON{
			Category:      row.Category,
			SpentRM:       row.Spent.String(),
			ExpenseOnlyRM: row.ExpenseOnly.String(),
			Over:          row.Over,
			SavingsOnly:   row.SavingsOnly,
		}
		if row.HasLimit {
			item.LimitRM = row.Limit.String()
			item.VarianceRM = row.Variance.String()
		}
		out = append(out, item)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"year":       year,
		"month":      int(month),
		"categories": out,
	})
}

type forecastJSON struct {
	Available       bool   `json:"available"`
	DaysElapsed     int    `json:"days_elapsed,omitempty"`
	DaysRemaining   int    `json:"days_remaining,omitempty"`
	IncomeToDateRM  string `json:"income_to_date_rm,omitempty"`
	ExpenseToDateRM string `json:"expense_to_date_rm,omitempty"`
	DailyBurnRM     string `json:"daily_burn_rm,omitempty"`
	ProjectedNetRM  string `json:"projected_net_rm,omitempty"`
	SafeToSpendRM   string `json:"safe_to_spend_day_rm,omitempty"`
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}
	year, month := parseYearMonth(r)

	f, ok, err := s.svc.Forecast(r.Context(), year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, forecastJSON{Available: false})
		return
	}
	writeJSON(w, http.StatusOK, forecastJSON{
		Available:       true,
		DaysElapsed:     f.DaysElapsed,
		DaysRemaining:   f.DaysRemaining,
		IncomeToDateRM:  f.IncomeToDate.String(),
		ExpenseToDateRM: f.ExpenseToDate.String(),
		DailyBurnRM:     f.DailyBurn.String(),
		ProjectedNetRM:  f.ProjectedNet.String(),
		SafeToSpendRM:   f.SafeToSpendDay.String(),
	})
}

func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}
	year, month := parseYearMonth(r)

	series, err := s.svc.Daily(r.Context(), year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]string, len(series))
	for i, v := range series {
		out[i] = v.String()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"year":       year,
		"month":      int(month),
		"cumulative": out,
	})
}

func (s *Server) handleSavings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}
	year, month := parseYearMonth(r)

	balances, err := s.svc.Savings(r.Context(), year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make(map[string]string, len(balances))
	for category, balance := range balances {
		out[category] = balance.String()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"year":     year,
		"month":    int(month),
		"balances": out,
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}
	year, month := parseYearMonth(r)

	filename := fmt.Sprintf("budgetbook-%04d-%02d.csv", year, int(month))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	if _, err := s.svc.ExportMonth(r.Context(), w, year, month); err != nil {
		// Headers are gone; all we can do is log.
		s.logger.ErrorContext(r.Context(), "Export failed", "error", err)
	}
}
