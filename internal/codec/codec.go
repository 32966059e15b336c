// Package codec maps tables between their stored representation and the
// human-readable text tree. Encoding is canonical: fields are normalised per
// their schema type and rows are sorted by the table's key column, so
// re-encoding an unchanged table is byte-identical and diff-friendly.
package codec

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/folio-dev/folio/internal/schema"
)

// Encode renders rows of one table as CSV with a header line. Rows are
// validated against the table's column types and sorted by the key column,
// independent of the order they were supplied in.
func Encode(table schema.Table, rows [][]string) ([]byte, error) {
	canon := make([][]string, len(rows))
	for i, row := range rows {
		c, err := canonicalise(table, row)
		if err != nil {
			return nil, &ParseError{Table: table.Name, Line: i + 1, Err: err}
		}
		canon[i] = c
	}

	sortRows(canon)

	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write(table.ColumnNames()); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}
	for i, row := range canon {
		if err := cw.Write(row); err != nil {
			return nil, fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("flushing %s: %w", table.Name, err)
	}
	return buf.Bytes(), nil
}

// Decode parses the CSV data of one table. Every row is validated against
// the table's column types; the first inconsistency fails the whole decode.
func Decode(table schema.Table, data []byte) ([][]string, error) {
	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = len(table.Columns)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, &ParseError{Table: table.Name, Line: lineOf(err), Err: err}
	}
	if len(records) == 0 {
		return nil, &ParseError{Table: table.Name, Line: 1, Err: fmt.Errorf("missing header")}
	}
	if got, want := strings.Join(records[0], ","), strings.Join(table.ColumnNames(), ","); got != want {
		return nil, &ParseError{Table: table.Name, Line: 1, Err: fmt.Errorf("header %q, want %q", got, want)}
	}

	rows := make([][]string, 0, len(records)-1)
	for i, rec := range records[1:] {
		c, err := canonicalise(table, rec)
		if err != nil {
			return nil, &ParseError{Table: table.Name, Line: i + 2, Err: err}
		}
		rows = append(rows, c)
	}
	return rows, nil
}

// canonicalise validates one row against the column types and returns the
// normalised form: decimals via decimal.String, times as RFC3339 UTC.
func canonicalise(table schema.Table, row []string) ([]string, error) {
	if len(row) != len(table.Columns) {
		return nil, fmt.Errorf("expected %d fields, got %d", len(table.Columns), len(row))
	}
	out := make([]string, len(row))
	for i, col := range table.Columns {
		v, err := canonicalValue(col.Type, row[i])
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", col.Name, err)
		}
		out[i] = v
	}
	if out[0] == "" {
		return nil, fmt.Errorf("field %s: empty key", table.Key())
	}
	return out, nil
}

func canonicalValue(t schema.Type, raw string) (string, error) {
	switch t {
	case schema.TypeText:
		return raw, nil
	case schema.TypeInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return "", fmt.Errorf("parsing int %q: %w", raw, err)
		}
		return strconv.FormatInt(n, 10), nil
	case schema.TypeDecimal:
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return "", fmt.Errorf("parsing decimal %q: %w", raw, err)
		}
		return d.String(), nil
	case schema.TypeTime:
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return "", fmt.Errorf("parsing timestamp %q: %w", raw, err)
		}
		return ts.UTC().Format(time.RFC3339), nil
	default:
		return "", fmt.Errorf("unknown column type %q", t)
	}
}

func sortRows(rows [][]string) {
	// Key uniqueness is enforced by the store, so ties cannot occur.
	slices.SortFunc(rows, func(a, b []string) int {
		return strings.Compare(a[0], b[0])
	})
}

func lineOf(err error) int {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return pe.Line
	}
	return 0
}
