package pipeline

import (
	"time"

	"caiso-pipeline/internal/model"
)

// CollapseMean removes a sparse table's entity dimension by averaging each
// column across entities per timestamp. Only observed cells enter a mean:
// a hub that never reported congestion does not drag the average toward
// zero. A column with no observations at all for a timestamp does end up
// zero in the dense output, a consequence of the fill contract.
func CollapseMean(t *model.SparseTable) (*model.DenseTable, error) {
	sums := make(map[time.Time]map[string]*group)
	var order []time.Time

	for _, r := range t.Rows {
		ts := r.Key.Timestamp
		byCol, ok := sums[ts]
		if !ok {
			byCol = make(map[string]*group)
			sums[ts] = byCol
			order = append(order, ts)
		}
		for col, v := range r.Cells {
			g, ok := byCol[col]
			if !ok {
				g = &group{}
				byCol[col] = g
			}
			g.add(v)
		}
	}

	sparse := &model.SparseTable{Columns: append([]string(nil), t.Columns...)}
	for _, ts := range order {
		cells := make(map[string]float64, len(sums[ts]))
		for col, g := range sums[ts] {
			cells[col] = g.reduce(model.ReduceMean)
		}
		sparse.Rows = append(sparse.Rows, model.SparseRow{Key: model.Key{Timestamp: ts}, Cells: cells})
	}
	return model.Fill(sparse)
}
