// Package table holds raw tabular data read from spreadsheets and CSV files.
package table

import (
	"fmt"
	"strconv"
	"strings"

	"physlab/internal/errors"
)

// Table is a header row plus string cells, as read from disk
type Table struct {
	Source  string
	Sheet   string
	Headers []string
	Rows    [][]string
}

// Cell returns the trimmed cell at (row, col), empty when out of range
func (t *Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return strings.TrimSpace(t.Rows[row][col])
}

// ColumnIndex finds a header by case-insensitive name
func (t *Table) ColumnIndex(name string) (int, bool) {
	for i, h := range t.Headers {
		if strings.EqualFold(strings.TrimSpace(h), strings.TrimSpace(name)) {
			return i, true
		}
	}
	return -1, false
}

// Numeric returns the requested columns as floats. Rows where any
// requested cell is blank are skipped so all columns stay aligned; a
// non-numeric cell is an error.
func (t *Table) Numeric(cols ...int) ([][]float64, error) {
	out := make([][]float64, len(cols))
	for _, c := range cols {
		outOfRange := len(t.Headers) > 0 && c >= len(t.Headers)
		if c < 0 || outOfRange {
			return nil, errors.InvalidInput(fmt.Sprintf("column %d out of range (%d columns)", c, len(t.Headers)))
		}
	}

rows:
	for r := range t.Rows {
		vals := make([]float64, len(cols))
		for i, c := range cols {
			cell := t.Cell(r, c)
			if cell == "" {
				continue rows
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, errors.InvalidInput(fmt.Sprintf("row %d column %d: %q is not a number", r+2, c+1, cell))
			}
			vals[i] = v
		}
		for i := range cols {
			out[i] = append(out[i], vals[i])
		}
	}
	return out, nil
}

// XY returns the first two columns, the shape a live scatter plot reads
func (t *Table) XY() (x, y []float64, err error) {
	cols, err := t.Numeric(0, 1)
	if err != nil {
		return nil, nil, err
	}
	return cols[0], cols[1], nil
}
