package services

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tally/internal/core"
	"tally/internal/storage"
)

// fakeStore is an in-memory Store keeping the same ordering and filter
// semantics as the SQLite repository.
type fakeStore struct {
	nextID int64
	rows   map[int64]core.Transaction
}

func newFakeStore() *fakeStore {
	return &fakeStore{nextID: 1, rows: make(map[int64]core.Transaction)}
}

func (s *fakeStore) Insert(_ context.Context, tx core.Transaction) (int64, error) {
	tx.ID = s.nextID
	s.nextID++
	s.rows[tx.ID] = tx
	return tx.ID, nil
}

func (s *fakeStore) Update(_ context.Context, id int64, tx core.Transaction) error {
	old, ok := s.rows[id]
	if !ok {
		return storage.ErrNotFound
	}
	tx.ID = id
	tx.CreatedAt = old.CreatedAt
	s.rows[id] = tx
	return nil
}

func (s *fakeStore) Delete(_ context.Context, id int64) error {
	delete(s.rows, id)
	return nil
}

func (s *fakeStore) Find(_ context.Context, f storage.Filter, limit int) ([]core.Transaction, error) {
	var out []core.Transaction
	for _, tx := range s.rows {
		if f.StartDate != "" && tx.Date < f.StartDate {
			continue
		}
		if f.EndDate != "" && tx.Date > f.EndDate {
			continue
		}
		if f.Category != "" && tx.Category != f.Category {
			continue
		}
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeStore) FindOne(_ context.Context, id int64) (core.Transaction, error) {
	tx, ok := s.rows[id]
	if !ok {
		return core.Transaction{}, storage.ErrNotFound
	}
	return tx, nil
}

func (s *fakeStore) SummarizeRange(_ context.Context, start, end string) (core.Summary, error) {
	sum := core.ZeroSummary()
	for _, tx := range s.rows {
		if tx.Date < start || tx.Date >= end {
			continue
		}
		switch tx.Type {
		case core.Income:
			sum.Income = sum.Income.Add(tx.Amount)
		case core.Expense:
			sum.Expense = sum.Expense.Add(tx.Amount.Neg())
		}
	}
	sum.Net = sum.Income.Sub(sum.Expense)
	return sum, nil
}

func TestAddNormalizesExpenseSign(t *testing.T) {
	store := newFakeStore()
	ledger := NewLedger(store)
	ctx := context.Background()

	id, err := ledger.Add(ctx, Input{Date: "2024-03-15", Amount: "42.50", Type: "expense"})
	require.NoError(t, err)

	got, err := ledger.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("-42.50")), "amount %s", got.Amount)
}

func TestAddNormalizesIncomeSign(t *testing.T) {
	store := newFakeStore()
	ledger := NewLedger(store)
	ctx := context.Background()

	id, err := ledger.Add(ctx, Input{Date: "2024-03-15", Amount: "-1500", Type: "income"})
	require.NoError(t, err)

	got, err := ledger.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(1500)), "amount %s", got.Amount)
}

func TestAddTrimsOptionalFields(t *testing.T) {
	store := newFakeStore()
	ledger := NewLedger(store)
	ctx := context.Background()

	id, err := ledger.Add(ctx, Input{
		Date: "2024-03-15", Amount: "10", Type: "income",
		Category: "  Salary ", Tags: " monthly ", Notes: "  ",
	})
	require.NoError(t, err)

	got, err := ledger.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Salary", got.Category)
	assert.Equal(t, "monthly", got.Tags)
	assert.Empty(t, got.Notes)
}

func TestAddValidation(t *testing.T) {
	ledger := NewLedger(newFakeStore())
	ctx := context.Background()

	tests := []struct {
		name string
		in   Input
		want error
	}{
		{"bad date", Input{Date: "15/03/2024", Amount: "10", Type: "expense"}, core.ErrInvalidDate},
		{"empty date", Input{Date: "", Amount: "10", Type: "expense"}, core.ErrInvalidDate},
		{"bad amount", Input{Date: "2024-03-15", Amount: "abc", Type: "expense"}, core.ErrInvalidAmount},
		{"empty amount", Input{Date: "2024-03-15", Amount: "", Type: "expense"}, core.ErrInvalidAmount},
		{"bad type", Input{Date: "2024-03-15", Amount: "10", Type: "transfer"}, core.ErrInvalidType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ledger.Add(ctx, tt.in)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, core.ErrValidation)
		})
	}
}

func TestUpdateValidatesBeforeTouchingStore(t *testing.T) {
	store := newFakeStore()
	ledger := NewLedger(store)
	ctx := context.Background()

	id, err := ledger.Add(ctx, Input{Date: "2024-03-15", Amount: "10", Type: "expense"})
	require.NoError(t, err)

	err = ledger.Update(ctx, id, Input{Date: "bogus", Amount: "10", Type: "expense"})
	assert.ErrorIs(t, err, core.ErrValidation)

	// Original row unchanged.
	got, err := ledger.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", got.Date)
}

func TestUpdateMissingTransaction(t *testing.T) {
	ledger := NewLedger(newFakeStore())

	err := ledger.Update(context.Background(), 42, Input{Date: "2024-03-15", Amount: "10", Type: "expense"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteMissingTransactionIsNoError(t *testing.T) {
	ledger := NewLedger(newFakeStore())

	assert.NoError(t, ledger.Delete(context.Background(), 42))
}

func TestListDefaultsLimit(t *testing.T) {
	store := newFakeStore()
	ledger := NewLedger(store)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := ledger.Add(ctx, Input{Date: fmt.Sprintf("2024-03-%02d", i+1), Amount: "1", Type: "expense"})
		require.NoError(t, err)
	}

	got, err := ledger.List(ctx, storage.Filter{}, 0)
	require.NoError(t, err)
	assert.Len(t, got, 5)

	capped, err := ledger.List(ctx, storage.Filter{}, 2)
	require.NoError(t, err)
	assert.Len(t, capped, 2)
}
