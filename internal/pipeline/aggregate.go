package pipeline

import (
	"log"
	"time"

	"caiso-pipeline/internal/model"
)

// group accumulates one (timestamp, category) cell during aggregation.
type group struct {
	sum   float64
	count int
	first float64
}

func (g *group) add(v float64) {
	if g.count == 0 {
		g.first = v
	}
	g.sum += v
	g.count++
}

func (g *group) reduce(r model.Reducer) float64 {
	switch r {
	case model.ReduceSum:
		return g.sum
	case model.ReduceMean:
		return g.sum / float64(g.count)
	default:
		return g.first
	}
}

// Aggregate collapses a system-wide feed (no entity dimension) into a dense
// wide table: rows grouped by (timestamp, category), the value column reduced
// with the feed's reducer, categories pivoted into columns, and every absent
// cell filled with an explicit zero.
//
// The zero-fill is deliberate and differs from Reshape: the output feeds
// straight into column arithmetic (derivations, outer joins) that must not
// see missing values. For sum and mean reducers the result is independent of
// input row order.
func Aggregate(feed *model.FeedDefinition, raw *model.RawTable, w model.Window) (*model.DenseTable, error) {
	if missing := raw.MissingColumns(feed.RequiredColumns()...); len(missing) > 0 {
		return nil, &SchemaError{Feed: feed.Name, Stage: "aggregate", Missing: missing}
	}

	groups := make(map[time.Time]map[string]*group)
	var order []time.Time
	var columns []string
	seenCol := make(map[string]bool)
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

		// A feed without a category column yields a single output column
		// named after the (renamed) value column.
		column := feed.OutputColumn(feed.ValueColumn)
		if feed.CategoryColumn != "" {
			column = feed.OutputColumn(raw.Cell(i, feed.CategoryColumn))
		}

		byCol, ok := groups[ts]
		if !ok {
			byCol = make(map[string]*group)
			groups[ts] = byCol
			order = append(order, ts)
		}
		g, ok := byCol[column]
		if !ok {
			g = &group{}
			byCol[column] = g
		}
		g.add(value)
		if !seenCol[column] {
			seenCol[column] = true
			columns = append(columns, column)
		}
	}

	if dropped > 0 {
		log.Printf("[Pipeline] feed %s: aggregate dropped %d rows with unparsable cells", feed.Name, dropped)
	}

	// Materialize as a sparse table first, then cross into dense shape via
	// the one named conversion that writes zeros.
	sparse := &model.SparseTable{Columns: columns}
	for _, ts := range order {
		cells := make(map[string]float64, len(groups[ts]))
		for col, g := range groups[ts] {
			cells[col] = g.reduce(feed.Reducer)
		}
		sparse.Rows = append(sparse.Rows, model.SparseRow{Key: model.Key{Timestamp: ts}, Cells: cells})
	}
	return model.Fill(sparse)
}
