package services

import (
	"context"
	"fmt"
	"strings"

	"tally/internal/core"
	"tally/internal/storage"
)

const (
	// DefaultListLimit caps listings unless the caller asks for more.
	DefaultListLimit = 1000
	// ExportListLimit is the higher cap used by the CSV export path.
	ExportListLimit = 10000
)

// Store is the ledger persistence surface the services depend on. It is
// satisfied by *storage.Repository.
type Store interface {
	Insert(ctx context.Context, tx core.Transaction) (int64, error)
	Update(ctx context.Context, id int64, tx core.Transaction) error
	Delete(ctx context.Context, id int64) error
	Find(ctx context.Context, f storage.Filter, limit int) ([]core.Transaction, error)
	FindOne(ctx context.Context, id int64) (core.Transaction, error)
	SummarizeRange(ctx context.Context, start, end string) (core.Summary, error)
}

// Input carries the raw, unvalidated fields of a create or update request.
type Input struct {
	Date     string
	Amount   string
	Type     string
	Category string
	Tags     string
	Notes    string
}

// Ledger validates and normalizes transaction data before delegating to the
// store.
type Ledger struct {
	store Store
}

func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

// Add validates the input, normalizes the amount sign against the type, and
// persists a new transaction. Returns the assigned id.
func (l *Ledger) Add(ctx context.Context, in Input) (int64, error) {
	tx, err := l.prepare(in)
	if err != nil {
		return 0, err
	}

	id, err := l.store.Insert(ctx, tx)
	if err != nil {
		return 0, fmt.Errorf("add transaction: %w", err)
	}
	return id, nil
}

// Update applies the same validation and normalization as Add, then
// overwrites the mutable fields of the identified transaction. The id and
// created_at of the stored record are preserved.
func (l *Ledger) Update(ctx context.Context, id int64, in Input) error {
	tx, err := l.prepare(in)
	if err != nil {
		return err
	}

	if err := l.store.Update(ctx, id, tx); err != nil {
		if err == storage.ErrNotFound {
			return err
		}
		return fmt.Errorf("update transaction %d: %w", id, err)
	}
	return nil
}

// Delete removes the identified transaction. Like the store, it treats an
// already absent id as success.
func (l *Ledger) Delete(ctx context.Context, id int64) error {
	if err := l.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	return nil
}

// Get returns a single transaction by id, or storage.ErrNotFound.
func (l *Ledger) Get(ctx context.Context, id int64) (core.Transaction, error) {
	return l.store.FindOne(ctx, id)
}

// List returns transactions matching the filter, ordered by date descending
// then id descending. A non-positive limit falls back to DefaultListLimit.
func (l *Ledger) List(ctx context.Context, f storage.Filter, limit int) ([]core.Transaction, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	out, err := l.store.Find(ctx, f, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return out, nil
}

// prepare turns raw input into a storable transaction: date and type are
// validated, the amount is parsed and sign-normalized, and empty-string
// optional fields collapse to absent.
func (l *Ledger) prepare(in Input) (core.Transaction, error) {
	if err := core.ValidateDate(in.Date); err != nil {
		return core.Transaction{}, err
	}

	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return core.Transaction{}, err
	}

	typ, err := core.ParseType(in.Type)
	if err != nil {
		return core.Transaction{}, err
	}

	return core.Transaction{
		Date:     in.Date,
		Amount:   core.Normalize(amount, typ),
		Type:     typ,
		Category: strings.TrimSpace(in.Category),
		Tags:     strings.TrimSpace(in.Tags),
		Notes:    strings.TrimSpace(in.Notes),
	}, nil
}
