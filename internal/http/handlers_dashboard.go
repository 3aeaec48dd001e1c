package http

import (
	"encoding/json"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"tally/internal/core"
	applog "tally/internal/log"
	"tally/internal/services"
)

// handleDashboard renders the current-month summary and the trailing twelve
// months with a bar chart.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	months, err := s.trailingMonths(r, now)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Trailing months failed", applog.FieldError, err)
		writeErrorPage(w, http.StatusInternalServerError, "Failed to compute summaries")
		return
	}

	// The reference month is the last entry.
	current := months[len(months)-1]

	labels := make([]string, len(months))
	incomes := make([]float64, len(months))
	expenses := make([]float64, len(months))
	for i, m := range months {
		labels[i] = m.YearMonth
		// Chart values only; exact decimals stay in the table.
		incomes[i], _ = m.Income.Float64()
		expenses[i], _ = m.Expense.Float64()
	}

	data := struct {
		DBName   string
		Current  core.MonthSummary
		Months   []core.MonthSummary
		Labels   template.JS
		Incomes  template.JS
		Expenses template.JS
	}{
		DBName:   s.dbName,
		Current:  current,
		Months:   months,
		Labels:   jsArray(labels),
		Incomes:  jsArray(incomes),
		Expenses: jsArray(expenses),
	}

	if err := s.templates.ExecuteTemplate(w, "dashboard.html", data); err != nil {
		s.logger.ErrorContext(r.Context(), "Dashboard template execution failed", applog.FieldError, err)
		writeErrorPage(w, http.StatusInternalServerError, "Failed to render dashboard")
	}
}

// handleSummaryAPI returns one month's totals as JSON. Amounts are serialized
// as exact decimal strings.
func (s *Server) handleSummaryAPI(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	year, _ := strconv.Atoi(vars["year"])
	month, _ := strconv.Atoi(vars["month"])
	if month < 1 || month > 12 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "month must be between 1 and 12"})
		return
	}

	sum, err := s.monthSummary(r, year, month)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Monthly summary failed", applog.FieldError, err,
			applog.FieldYear, year, applog.FieldMonth, month)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to compute summary"})
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Income  string `json:"income"`
		Expense string `json:"expense"`
		Net     string `json:"net"`
	}{
		Income:  sum.Income.String(),
		Expense: sum.Expense.String(),
		Net:     sum.Net.String(),
	})
}

// monthSummary answers from the cache when possible.
func (s *Server) monthSummary(r *http.Request, year, month int) (core.Summary, error) {
	key := core.MonthKey(year, month)
	if sum, ok := s.summaryCache.Get(key); ok {
		s.logger.DebugContext(r.Context(), "Summary cache hit", applog.FieldYear, year, applog.FieldMonth, month)
		return sum, nil
	}

	sum, err := s.agg.MonthlySummary(r.Context(), year, month)
	if err != nil {
		return core.Summary{}, err
	}
	s.summaryCache.Set(key, sum)
	return sum, nil
}

// trailingMonths answers from the cache when possible, keyed by the reference
// month.
func (s *Server) trailingMonths(r *http.Request, ref time.Time) ([]core.MonthSummary, error) {
	key := core.MonthKey(ref.Year(), int(ref.Month()))
	if months, ok := s.trailingCache.Get(key); ok {
		s.logger.DebugContext(r.Context(), "Trailing months cache hit")
		return months, nil
	}

	months, err := s.agg.TrailingMonths(r.Context(), ref, services.TrailingMonthsDefault)
	if err != nil {
		return nil, err
	}
	s.trailingCache.Set(key, months)
	return months, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// jsArray marshals v for safe embedding into an inline script.
func jsArray(v any) template.JS {
	b, err := json.Marshal(v)
	if err != nil {
		return template.JS("[]")
	}
	return template.JS(b)
}
