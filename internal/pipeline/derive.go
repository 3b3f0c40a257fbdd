package pipeline

import "caiso-pipeline/internal/model"

// Derive appends computed columns to a dense table, in order, so a later
// derivation can reference an earlier one. Each column is sum(Plus) minus
// sum(Minus); any referenced column that is absent reads as zero, so the
// computation is total and never fails. That makes a residual computable
// even when every subcomponent is missing (it then equals the total), which
// is the documented contract rather than an error.
func Derive(t *model.DenseTable, derivations ...model.Derivation) *model.DenseTable {
	for _, d := range derivations {
		d := d
		t.AddColumn(d.Name, func(row model.DenseRow) float64 {
			var v float64
			for _, c := range d.Plus {
				v += row.Values[c]
			}
			for _, c := range d.Minus {
				v -= row.Values[c]
			}
			return v
		})
	}
	return t
}
