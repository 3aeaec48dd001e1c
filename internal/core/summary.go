package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Summary holds the aggregate totals for one month. Expense is reported as a
// positive magnitude; Net = Income - Expense.
type Summary struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
	Net     decimal.Decimal
}

// MonthSummary is a Summary labeled with its YYYY-MM month key.
type MonthSummary struct {
	YearMonth string
	Summary
}

// ZeroSummary returns an all-zero summary, never missing values.
func ZeroSummary() Summary {
	return Summary{Income: decimal.Zero, Expense: decimal.Zero, Net: decimal.Zero}
}

// MonthInterval returns the half-open date interval [first day of the month,
// first day of the next month) as ISO date strings. time.AddDate handles the
// December to January rollover.
func MonthInterval(year, month int) (start, end string) {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return first.Format(DateLayout), first.AddDate(0, 1, 0).Format(DateLayout)
}

// MonthKey formats a year+month pair as YYYY-MM.
func MonthKey(year, month int) string {
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}
