package model

import (
	"fmt"
	"sort"
	"time"
)

// Key identifies one row of a SparseTable: the interval start plus an
// optional secondary grouping entity (a hub/node for price feeds, empty for
// system-wide feeds).
type Key struct {
	Timestamp time.Time
	Entity    string
}

// SparseRow holds the observed cells for one key. A category missing from
// Cells was not observed for that key; it is unknown, not zero.
type SparseRow struct {
	Key   Key
	Cells map[string]float64
}

// SparseTable is the shape produced by pivoting raw long-format rows.
// Columns lists every category observed anywhere in the table, but an
// individual row only carries the cells that were actually present in the
// input. Consumers must not read an absent cell as zero.
type SparseTable struct {
	Columns []string
	Rows    []SparseRow
}

// Has reports whether the row observed the named column.
func (r SparseRow) Has(column string) bool {
	_, ok := r.Cells[column]
	return ok
}

// Sort orders rows by (timestamp, entity) and columns alphabetically.
func (t *SparseTable) Sort() {
	sort.Strings(t.Columns)
	sort.Slice(t.Rows, func(i, j int) bool {
		a, b := t.Rows[i].Key, t.Rows[j].Key
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		return a.Entity < b.Entity
	})
}

// DenseRow is one timestamp's worth of a DenseTable. Every column of the
// table is present in Values.
type DenseRow struct {
	Timestamp time.Time
	Values    map[string]float64
}

// DenseTable is the filled shape consumed by derivation and joins: keyed by
// timestamp alone, with zero standing in for anything unobserved so that
// column arithmetic never has to handle missing values.
type DenseTable struct {
	Columns []string
	Rows    []DenseRow
}

// Sort orders rows by timestamp and columns alphabetically.
func (t *DenseTable) Sort() {
	sort.Strings(t.Columns)
	sort.Slice(t.Rows, func(i, j int) bool {
		return t.Rows[i].Timestamp.Before(t.Rows[j].Timestamp)
	})
}

// Timestamps returns the row keys in table order.
func (t *DenseTable) Timestamps() []time.Time {
	out := make([]time.Time, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Timestamp
	}
	return out
}

// AddColumn appends a column and sets it on every row.
func (t *DenseTable) AddColumn(name string, value func(DenseRow) float64) {
	t.Columns = append(t.Columns, name)
	for i := range t.Rows {
		t.Rows[i].Values[name] = value(t.Rows[i])
	}
}

// Fill converts a sparse observed table into a dense filled one, writing an
// explicit zero into every absent cell. This is the only sanctioned crossing
// from "absence means unknown" to "absence means zero", and it requires the
// secondary dimension to be gone already: a table still carrying entities
// must be collapsed first.
func Fill(t *SparseTable) (*DenseTable, error) {
	out := &DenseTable{Columns: append([]string(nil), t.Columns...)}
	seen := make(map[time.Time]bool, len(t.Rows))
	for _, r := range t.Rows {
		if r.Key.Entity != "" {
			return nil, fmt.Errorf("fill: row at %s still has entity %q; collapse the entity dimension first",
				r.Key.Timestamp.Format(time.RFC3339), r.Key.Entity)
		}
		if seen[r.Key.Timestamp] {
			return nil, fmt.Errorf("fill: duplicate timestamp %s", r.Key.Timestamp.Format(time.RFC3339))
		}
		seen[r.Key.Timestamp] = true

		values := make(map[string]float64, len(t.Columns))
		for _, c := range t.Columns {
			values[c] = r.Cells[c]
		}
		out.Rows = append(out.Rows, DenseRow{Timestamp: r.Key.Timestamp, Values: values})
	}
	out.Sort()
	return out, nil
}
