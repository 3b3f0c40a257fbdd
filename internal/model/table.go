package model

import (
	"fmt"
	"strconv"
	"time"
)

// RawTable is one feed's decoded payload: ordered rows of string cells under
// named columns, exactly as they came off the wire. It carries no schema
// beyond the header row; callers validate the columns they need up front.
type RawTable struct {
	Columns []string
	Rows    [][]string

	index map[string]int
}

// NewRawTable builds a RawTable from a header and rows. Rows shorter than the
// header are allowed; the missing cells read as empty strings.
func NewRawTable(columns []string, rows [][]string) *RawTable {
	idx := make(map[string]int, len(columns))
	for i, c := range columns {
		idx[c] = i
	}
	return &RawTable{Columns: columns, Rows: rows, index: idx}
}

func (t *RawTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// HasColumn reports whether the named column exists in the header.
func (t *RawTable) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// MissingColumns returns the subset of required that is absent from the
// header, preserving the order given.
func (t *RawTable) MissingColumns(required ...string) []string {
	var missing []string
	for _, c := range required {
		if !t.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// Cell returns the string value at (row, column), or "" if the column does
// not exist or the row is short.
func (t *RawTable) Cell(row int, column string) string {
	i, ok := t.index[column]
	if !ok || row < 0 || row >= len(t.Rows) || i >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][i]
}

// Float parses the cell at (row, column) as a float64.
func (t *RawTable) Float(row int, column string) (float64, error) {
	s := t.Cell(row, column)
	if s == "" {
		return 0, fmt.Errorf("column %q row %d: empty value", column, row)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("column %q row %d: %w", column, row, err)
	}
	return v, nil
}

// Time parses the cell at (row, column) as a timestamp and normalizes it to
// UTC. OASIS emits RFC3339 interval timestamps (e.g. 2025-08-29T17:55:00-00:00).
func (t *RawTable) Time(row int, column string) (time.Time, error) {
	s := t.Cell(row, column)
	if s == "" {
		return time.Time{}, fmt.Errorf("column %q row %d: empty timestamp", column, row)
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("column %q row %d: %w", column, row, err)
	}
	return ts.UTC(), nil
}
