package services

import (
	"context"
	"fmt"
	"time"

	"tally/internal/core"
)

// TrailingMonthsDefault is how many months the dashboard looks back.
const TrailingMonthsDefault = 12

// Aggregator computes monthly income/expense/net totals. It reads through the
// same store access the Ledger uses.
type Aggregator struct {
	store Store
}

func NewAggregator(store Store) *Aggregator {
	return &Aggregator{store: store}
}

// MonthlySummary totals the month's half-open interval. Months with no
// matching records yield an all-zero summary.
func (a *Aggregator) MonthlySummary(ctx context.Context, year, month int) (core.Summary, error) {
	start, end := core.MonthInterval(year, month)
	sum, err := a.store.SummarizeRange(ctx, start, end)
	if err != nil {
		return core.Summary{}, fmt.Errorf("monthly summary %s: %w", core.MonthKey(year, month), err)
	}
	return sum, nil
}

// TrailingMonths computes summaries for the count months ending at (and
// including) the month containing ref, oldest first, each labeled YYYY-MM.
// A non-positive count falls back to TrailingMonthsDefault.
func (a *Aggregator) TrailingMonths(ctx context.Context, ref time.Time, count int) ([]core.MonthSummary, error) {
	if count <= 0 {
		count = TrailingMonthsDefault
	}

	// Anchor on the first of ref's month so AddDate arithmetic can't skip
	// months on day-31 references.
	anchor := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC)

	out := make([]core.MonthSummary, 0, count)
	for i := count - 1; i >= 0; i-- {
		m := anchor.AddDate(0, -i, 0)
		sum, err := a.MonthlySummary(ctx, m.Year(), int(m.Month()))
		if err != nil {
			return nil, err
		}
		out = append(out, core.MonthSummary{
			YearMonth: core.MonthKey(m.Year(), int(m.Month())),
			Summary:   sum,
		})
	}

	return out, nil
}
