package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tally/internal/core"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "tally.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestInsertAndFindOne(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.Insert(ctx, core.Transaction{
		Date:     "2024-03-15",
		Amount:   dec(t, "-42.50"),
		Type:     core.Expense,
		Category: "Food",
		Tags:     "lunch,work",
		Notes:    "team lunch",
	})
	require.NoError(t, err)
	require.Greater(t, id, int64(0))

	got, err := repo.FindOne(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "2024-03-15", got.Date)
	assert.True(t, got.Amount.Equal(dec(t, "-42.50")), "amount %s", got.Amount)
	assert.Equal(t, core.Expense, got.Type)
	assert.Equal(t, "Food", got.Category)
	assert.Equal(t, "lunch,work", got.Tags)
	assert.Equal(t, "team lunch", got.Notes)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestInsertEmptyOptionalFields(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.Insert(ctx, core.Transaction{
		Date:   "2024-03-15",
		Amount: dec(t, "100"),
		Type:   core.Income,
	})
	require.NoError(t, err)

	got, err := repo.FindOne(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, got.Category)
	assert.Empty(t, got.Tags)
	assert.Empty(t, got.Notes)
}

func TestFindOneMissing(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.FindOne(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdatePreservesIDAndCreatedAt(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.Insert(ctx, core.Transaction{
		Date: "2024-03-15", Amount: dec(t, "-10"), Type: core.Expense,
	})
	require.NoError(t, err)

	before, err := repo.FindOne(ctx, id)
	require.NoError(t, err)

	err = repo.Update(ctx, id, core.Transaction{
		Date: "2024-04-01", Amount: dec(t, "250"), Type: core.Income, Category: "Salary",
	})
	require.NoError(t, err)

	after, err := repo.FindOne(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, after.ID)
	assert.Equal(t, "2024-04-01", after.Date)
	assert.True(t, after.Amount.Equal(dec(t, "250")))
	assert.Equal(t, core.Income, after.Type)
	assert.Equal(t, "Salary", after.Category)
	assert.True(t, after.CreatedAt.Equal(before.CreatedAt), "created_at must not change on update")
}

func TestUpdateMissing(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.Update(context.Background(), 999, core.Transaction{
		Date: "2024-01-01", Amount: dec(t, "1"), Type: core.Income,
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteIsIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.Insert(ctx, core.Transaction{
		Date: "2024-03-15", Amount: dec(t, "-5"), Type: core.Expense,
	})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, id))
	_, err = repo.FindOne(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting again is still a success.
	assert.NoError(t, repo.Delete(ctx, id))
}

func TestFindOrderingAndLimit(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	dates := []string{"2024-01-10", "2024-03-05", "2024-03-05", "2024-02-20"}
	ids := make([]int64, 0, len(dates))
	for _, d := range dates {
		id, err := repo.Insert(ctx, core.Transaction{Date: d, Amount: dec(t, "-1"), Type: core.Expense})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	got, err := repo.Find(ctx, Filter{}, 100)
	require.NoError(t, err)
	require.Len(t, got, 4)

	// Newest date first; for the shared date the higher id wins.
	assert.Equal(t, ids[2], got[0].ID)
	assert.Equal(t, ids[1], got[1].ID)
	assert.Equal(t, "2024-02-20", got[2].Date)
	assert.Equal(t, "2024-01-10", got[3].Date)

	limited, err := repo.Find(ctx, Filter{}, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestFindFilters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	rows := []core.Transaction{
		{Date: "2024-01-15", Amount: decimal.NewFromInt(-10), Type: core.Expense, Category: "Food"},
		{Date: "2024-02-15", Amount: decimal.NewFromInt(-20), Type: core.Expense, Category: "Rent"},
		{Date: "2024-03-15", Amount: decimal.NewFromInt(-30), Type: core.Expense, Category: "Food"},
	}
	for _, tx := range rows {
		_, err := repo.Insert(ctx, tx)
		require.NoError(t, err)
	}

	t.Run("date range is inclusive", func(t *testing.T) {
		got, err := repo.Find(ctx, Filter{StartDate: "2024-02-15", EndDate: "2024-03-15"}, 100)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("category is exact", func(t *testing.T) {
		got, err := repo.Find(ctx, Filter{Category: "Food"}, 100)
		require.NoError(t, err)
		require.Len(t, got, 2)
		for _, tx := range got {
			assert.Equal(t, "Food", tx.Category)
		}
	})

	t.Run("combined", func(t *testing.T) {
		got, err := repo.Find(ctx, Filter{StartDate: "2024-02-01", Category: "Food"}, 100)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "2024-03-15", got[0].Date)
	})

	t.Run("no match", func(t *testing.T) {
		got, err := repo.Find(ctx, Filter{Category: "Travel"}, 100)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestSummarizeRange(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	rows := []core.Transaction{
		{Date: "2024-03-01", Amount: dec(t, "-50"), Type: core.Expense},
		{Date: "2024-03-10", Amount: dec(t, "-30"), Type: core.Expense},
		{Date: "2024-03-20", Amount: dec(t, "1500"), Type: core.Income},
		// Outside the range, must not count.
		{Date: "2024-04-01", Amount: dec(t, "-99"), Type: core.Expense},
	}
	for _, tx := range rows {
		_, err := repo.Insert(ctx, tx)
		require.NoError(t, err)
	}

	sum, err := repo.SummarizeRange(ctx, "2024-03-01", "2024-04-01")
	require.NoError(t, err)
	assert.True(t, sum.Income.Equal(dec(t, "1500")), "income %s", sum.Income)
	assert.True(t, sum.Expense.Equal(dec(t, "80")), "expense %s", sum.Expense)
	assert.True(t, sum.Net.Equal(dec(t, "1420")), "net %s", sum.Net)
}

func TestSummarizeRangeEmpty(t *testing.T) {
	repo := newTestRepo(t)

	sum, err := repo.SummarizeRange(context.Background(), "2024-03-01", "2024-04-01")
	require.NoError(t, err)
	assert.True(t, sum.Income.IsZero())
	assert.True(t, sum.Expense.IsZero())
	assert.True(t, sum.Net.IsZero())
}

func TestEnsureSchemaIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "tally.db")

	repo, err := NewRepository(dbPath)
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	// Opening the same file again must tolerate the schema already existing.
	repo, err = NewRepository(dbPath)
	require.NoError(t, err)
	require.NoError(t, repo.Close())
}
