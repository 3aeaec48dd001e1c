// Package csvio serializes the ledger to a tabular dump and parses it back.
//
// The column order is fixed so exports are diffable and reimportable:
// id, date, amount, type, category, tags, notes, created_at.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tally/internal/core"
)

// Columns is the fixed header of the tabular dump.
var Columns = []string{"id", "date", "amount", "type", "category", "tags", "notes", "created_at"}

const createdAtLayout = time.RFC3339Nano

// Export writes the transactions as CSV, header first, preserving the stored
// sign convention and the exact decimal amounts.
func Export(w io.Writer, txs []core.Transaction) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, tx := range txs {
		row := []string{
			strconv.FormatInt(tx.ID, 10),
			tx.Date,
			tx.Amount.String(),
			string(tx.Type),
			tx.Category,
			tx.Tags,
			tx.Notes,
			tx.CreatedAt.Format(createdAtLayout),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row for transaction %d: %w", tx.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Import parses a dump produced by Export. The header row is required and
// must carry the expected columns; malformed rows abort with a row-numbered
// error rather than being skipped silently.
func Import(r io.Reader) ([]core.Transaction, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty csv input")
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	if err := checkHeader(header); err != nil {
		return nil, err
	}

	var out []core.Transaction
	for rowNum := 2; ; rowNum++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}

		tx, err := parseRow(record)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}
		out = append(out, tx)
	}

	return out, nil
}

func checkHeader(header []string) error {
	if len(header) != len(Columns) {
		return fmt.Errorf("unexpected header: got %d columns, want %d", len(header), len(Columns))
	}
	for i, want := range Columns {
		if !strings.EqualFold(strings.TrimSpace(header[i]), want) {
			return fmt.Errorf("unexpected header column %d: got %q, want %q", i+1, header[i], want)
		}
	}
	return nil
}

func parseRow(record []string) (core.Transaction, error) {
	if len(record) != len(Columns) {
		return core.Transaction{}, fmt.Errorf("got %d fields, want %d", len(record), len(Columns))
	}

	id, err := strconv.ParseInt(record[0], 10, 64)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("invalid id %q", record[0])
	}

	date := record[1]
	if err := core.ValidateDate(date); err != nil {
		return core.Transaction{}, fmt.Errorf("invalid date %q", date)
	}

	amount, err := decimal.NewFromString(record[2])
	if err != nil {
		return core.Transaction{}, fmt.Errorf("invalid amount %q", record[2])
	}

	typ, err := core.ParseType(record[3])
	if err != nil {
		return core.Transaction{}, fmt.Errorf("invalid type %q", record[3])
	}

	var created time.Time
	if record[7] != "" {
		created, err = time.Parse(createdAtLayout, record[7])
		if err != nil {
			return core.Transaction{}, fmt.Errorf("invalid created_at %q", record[7])
		}
	}

	return core.Transaction{
		ID:        id,
		Date:      date,
		Amount:    amount,
		Type:      typ,
		Category:  record[4],
		Tags:      record[5],
		Notes:     record[6],
		CreatedAt: created,
	}, nil
}
