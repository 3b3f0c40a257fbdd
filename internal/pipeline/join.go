package pipeline

import (
	"time"

	"caiso-pipeline/internal/model"
)

// Join merges two dense tables on their timestamp key.
//
// Inner keeps only timestamps present in both inputs; non-matching rows are
// dropped silently. Outer keeps the union, zero-filling whichever side is
// missing so consumers can do arithmetic on the result.
//
// A column name appearing on both sides is a configuration error — renames
// must have made the sides disjoint before this point — and fails fast
// rather than silently overwriting. An inner join with no overlap yields a
// valid zero-row table, not an error.
func Join(left, right *model.DenseTable, policy model.JoinPolicy) (*model.DenseTable, error) {
	if shared := sharedColumns(left.Columns, right.Columns); len(shared) > 0 {
		return nil, &JoinCollisionError{Columns: shared}
	}

	columns := make([]string, 0, len(left.Columns)+len(right.Columns))
	columns = append(columns, left.Columns...)
	columns = append(columns, right.Columns...)

	rightRows := make(map[time.Time]model.DenseRow, len(right.Rows))
	for _, r := range right.Rows {
		rightRows[r.Timestamp] = r
	}

	out := &model.DenseTable{Columns: columns}
	leftSeen := make(map[time.Time]bool, len(left.Rows))
	for _, lr := range left.Rows {
		leftSeen[lr.Timestamp] = true
		rr, matched := rightRows[lr.Timestamp]
		if !matched && policy == model.JoinInner {
			continue
		}
		values := make(map[string]float64, len(columns))
		for _, c := range left.Columns {
			values[c] = lr.Values[c]
		}
		for _, c := range right.Columns {
			values[c] = rr.Values[c] // zero map read when unmatched
		}
		out.Rows = append(out.Rows, model.DenseRow{Timestamp: lr.Timestamp, Values: values})
	}

	if policy == model.JoinOuter {
		for _, rr := range right.Rows {
			if leftSeen[rr.Timestamp] {
				continue
			}
			values := make(map[string]float64, len(columns))
			for _, c := range left.Columns {
				values[c] = 0
			}
			for _, c := range right.Columns {
				values[c] = rr.Values[c]
			}
			out.Rows = append(out.Rows, model.DenseRow{Timestamp: rr.Timestamp, Values: values})
		}
	}

	out.Sort()
	return out, nil
}

func sharedColumns(a, b []string) []string {
	inA := make(map[string]bool, len(a))
	for _, c := range a {
		inA[c] = true
	}
	var shared []string
	for _, c := range b {
		if inA[c] {
			shared = append(shared, c)
		}
	}
	return shared
}
