package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"tally/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound reports that no transaction exists for the given id.
var ErrNotFound = errors.New("transaction not found")

// createdAtLayout is how created_at timestamps are persisted. RFC 3339 with
// nanoseconds keeps the column sortable and round-trippable.
const createdAtLayout = time.RFC3339Nano

// Filter narrows a Find to a date range and/or a category. Zero values mean
// "no constraint". Dates are inclusive on both ends.
type Filter struct {
	StartDate string
	EndDate   string
	Category  string
}

// Repository is the durable ledger store backed by a single SQLite file.
// The underlying *sql.DB pool hands a connection to each statement and
// returns it when the statement completes, so no handle outlives a request.
type Repository struct {
	db *sql.DB
}

// NewRepository opens (creating if needed) the SQLite database at dbPath and
// ensures the schema exists.
func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := EnsureSchema(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Insert persists a new transaction and returns the assigned id. CreatedAt is
// stamped here, in UTC, and never changes afterwards.
func (r *Repository) Insert(ctx context.Context, tx core.Transaction) (int64, error) {
	created := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (date, amount, type, category, tags, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		tx.Date, tx.Amount.String(), string(tx.Type),
		nullable(tx.Category), nullable(tx.Tags), nullable(tx.Notes),
		created.Format(createdAtLayout))
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", id,
		"date", tx.Date,
		"amount", tx.Amount.String(),
		"type", tx.Type)

	return id, nil
}

// Update overwrites the mutable fields of the transaction identified by id.
// It returns ErrNotFound when no such row exists; id and created_at are never
// touched.
func (r *Repository) Update(ctx context.Context, id int64, tx core.Transaction) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET date = ?, amount = ?, type = ?, category = ?, tags = ?, notes = ?
		 WHERE id = ?`,
		tx.Date, tx.Amount.String(), string(tx.Type),
		nullable(tx.Category), nullable(tx.Tags), nullable(tx.Notes), id)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes the transaction identified by id. Deleting an id that is
// already absent is not an error; the operation is idempotent.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

// Find returns transactions matching the filter, newest date first with id
// descending as the tie-break, capped at limit.
func (r *Repository) Find(ctx context.Context, f Filter, limit int) ([]core.Transaction, error) {
	q := `SELECT id, date, amount, type, category, tags, notes, created_at
	      FROM transactions WHERE 1=1`
	args := make([]any, 0, 4)
	if f.StartDate != "" {
		q += " AND date >= ?"
		args = append(args, f.StartDate)
	}
	if f.EndDate != "" {
		q += " AND date <= ?"
		args = append(args, f.EndDate)
	}
	if f.Category != "" {
		q += " AND category = ?"
		args = append(args, f.Category)
	}
	q += " ORDER BY date DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("find transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	return out, nil
}

// FindOne returns the transaction identified by id, or ErrNotFound.
func (r *Repository) FindOne(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, date, amount, type, category, tags, notes, created_at
		 FROM transactions WHERE id = ?`, id)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

// SummarizeRange folds income and expense totals over the half-open date
// interval [start, end). Sums are exact decimals computed row by row; the
// expense total is reported as a positive magnitude. An empty range yields
// all zeros.
func (r *Repository) SummarizeRange(ctx context.Context, start, end string) (core.Summary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT type, amount FROM transactions WHERE date >= ? AND date < ?`,
		start, end)
	if err != nil {
		return core.Summary{}, fmt.Errorf("summarize range: %w", err)
	}
	defer rows.Close()

	sum := core.ZeroSummary()
	for rows.Next() {
		var typ, amountStr string
		if err := rows.Scan(&typ, &amountStr); err != nil {
			return core.Summary{}, fmt.Errorf("scan summary row: %w", err)
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return core.Summary{}, fmt.Errorf("parse stored amount %q: %w", amountStr, err)
		}
		switch core.Type(typ) {
		case core.Income:
			sum.Income = sum.Income.Add(amount)
		case core.Expense:
			sum.Expense = sum.Expense.Add(amount.Neg())
		}
	}
	if err := rows.Err(); err != nil {
		return core.Summary{}, fmt.Errorf("iterate summary rows: %w", err)
	}

	sum.Net = sum.Income.Sub(sum.Expense)
	return sum, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		tx                    core.Transaction
		amountStr, createdAt  string
		typ                   string
		category, tags, notes sql.NullString
	)
	if err := row.Scan(&tx.ID, &tx.Date, &amountStr, &typ, &category, &tags, &notes, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, err
		}
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored amount %q: %w", amountStr, err)
	}
	created, err := time.Parse(createdAtLayout, createdAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}

	tx.Amount = amount
	tx.Type = core.Type(typ)
	tx.Category = category.String
	tx.Tags = tags.String
	tx.Notes = notes.String
	tx.CreatedAt = created
	return tx, nil
}

// nullable maps the empty string to NULL so absent optional fields are stored
// as NULL rather than "".
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
