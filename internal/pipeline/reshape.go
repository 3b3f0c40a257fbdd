package pipeline

import (
	"log"

	"caiso-pipeline/internal/model"
)

// Reshape pivots one feed's long-format raw rows into a sparse wide table:
// one row per (timestamp, entity), one column per category observed in the
// filtered input.
//
// Rows failing an equality pre-filter or falling before the window start are
// dropped before pivoting. When two raw rows land on the same (timestamp,
// entity, category) the first in input order wins; reshape never aggregates
// across duplicates. Categories absent from the filtered input simply do not
// appear as columns, and an absent cell downstream means "not observed",
// never zero.
func Reshape(feed *model.FeedDefinition, raw *model.RawTable, w model.Window) (*model.SparseTable, error) {
	if missing := raw.MissingColumns(feed.RequiredColumns()...); len(missing) > 0 {
		return nil, &SchemaError{Feed: feed.Name, Stage: "reshape", Missing: missing}
	}

	out := &model.SparseTable{}
	rowIdx := make(map[model.Key]int)
	seenCol := make(map[string]bool)
	unmapped := make(map[string]bool)
	dropped := 0

	for i := range raw.Rows {
		if !matchFilters(feed, raw, i) {
			continue
		}
		ts, err := raw.Time(i, feed.TimeColumn)
		if err != nil {
			dropped++
			continue
		}
		if !w.Contains(ts) {
			continue
		}
		value, err := raw.Float(i, feed.ValueColumn)
		if err != nil {
			dropped++
			continue
		}

		entity := raw.Cell(i, feed.EntityColumn)
		column := feed.OutputColumn(raw.Cell(i, feed.CategoryColumn))

		label, known := feed.Label(entity)
		if !known && len(feed.Labels) > 0 && !unmapped[entity] {
			unmapped[entity] = true
			log.Printf("[Pipeline] feed %s: entity %q has no configured label, passing through raw", feed.Name, entity)
		}

		key := model.Key{Timestamp: ts, Entity: label}
		idx, ok := rowIdx[key]
		if !ok {
			idx = len(out.Rows)
			rowIdx[key] = idx
			out.Rows = append(out.Rows, model.SparseRow{Key: key, Cells: map[string]float64{}})
		}
		if _, dup := out.Rows[idx].Cells[column]; dup {
			// first occurrence wins
			continue
		}
		out.Rows[idx].Cells[column] = value
		if !seenCol[column] {
			seenCol[column] = true
			out.Columns = append(out.Columns, column)
		}
	}

	if dropped > 0 {
		log.Printf("[Pipeline] feed %s: reshape dropped %d rows with unparsable cells", feed.Name, dropped)
	}
	out.Sort()
	return out, nil
}

func matchFilters(feed *model.FeedDefinition, raw *model.RawTable, row int) bool {
	for col, want := range feed.Filters {
		if raw.Cell(row, col) != want {
			return false
		}
	}
	return true
}
