// Package core holds the ledger's domain model.
//
// This file contains amount parsing and sign normalization. Amounts are exact
// decimals; float arithmetic is never used for money.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a user-supplied string into an exact decimal.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and an
// optional leading sign. The sign is preserved here; callers normalize it
// against the transaction type with Normalize.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// Normalize enforces the sign convention: expense amounts are stored with
// negative magnitude, income amounts with positive magnitude, regardless of
// the sign supplied by the caller. Exact zero passes through unchanged.
func Normalize(amount decimal.Decimal, t Type) decimal.Decimal {
	switch {
	case t == Expense && amount.IsPositive():
		return amount.Neg()
	case t == Income && amount.IsNegative():
		return amount.Abs()
	default:
		return amount
	}
}
