package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  Type = "income"
	Expense Type = "expense"
)

// DateLayout is the calendar date format used everywhere in the ledger.
const DateLayout = "2006-01-02"

type (
	Type string

	// Transaction is a single ledger entry. Amount carries the normalized
	// sign: expense entries are <= 0, income entries are >= 0.
	Transaction struct {
		ID        int64
		Date      string // YYYY-MM-DD
		Amount    decimal.Decimal
		Type      Type
		Category  string // empty means absent
		Tags      string // comma-separated, opaque to the ledger
		Notes     string
		CreatedAt time.Time // UTC, set once at insertion
	}
)

var (
	ErrValidation    = errors.New("validation failed")
	ErrInvalidDate   = fmt.Errorf("%w: invalid date", ErrValidation)
	ErrInvalidAmount = fmt.Errorf("%w: invalid amount", ErrValidation)
	ErrInvalidType   = fmt.Errorf("%w: invalid transaction type", ErrValidation)
)

// ParseType validates the type enum.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case Income, Expense:
		return Type(s), nil
	default:
		return "", ErrInvalidType
	}
}

// ValidateDate checks that s is a well-formed calendar date in DateLayout.
// time.Parse rejects impossible dates such as 2025-02-30.
func ValidateDate(s string) error {
	if _, err := time.Parse(DateLayout, s); err != nil {
		return ErrInvalidDate
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := ValidateDate(t.Date); err != nil {
		return err
	}
	if _, err := ParseType(string(t.Type)); err != nil {
		return err
	}
	return nil
}
