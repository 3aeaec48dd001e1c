package core

import (
	"errors"
	"testing"
)

func TestValidateDate(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"2025-01-01", true},
		{"2025-12-31", true},
		{"2024-02-29", true},  // leap day
		{"2025-02-29", false}, // not a leap year
		{"2025-13-01", false},
		{"2025-00-10", false},
		{"01/02/2025", false},
		{"", false},
	}
	for i, tc := range cases {
		err := ValidateDate(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("case %d (%q) expected ok, got %v", i, tc.in, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d (%q) expected error", i, tc.in)
		}
		if !tc.ok && !errors.Is(err, ErrValidation) {
			t.Fatalf("case %d (%q) error should wrap ErrValidation", i, tc.in)
		}
	}
}

func TestParseType(t *testing.T) {
	if _, err := ParseType("income"); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if _, err := ParseType("expense"); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	for _, bad := range []string{"", "Income", "transfer", "EXPENSE"} {
		if _, err := ParseType(bad); !errors.Is(err, ErrInvalidType) {
			t.Fatalf("%q expected ErrInvalidType, got %v", bad, err)
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{Date: "2025-03-15", Type: Expense}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []Transaction{
		{Date: "2025-03-32", Type: Expense},
		{Date: "2025-03-15", Type: "refund"},
	}
	for i, tx := range bads {
		if err := tx.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}
