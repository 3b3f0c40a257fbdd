package pipeline

import (
	"testing"

	"caiso-pipeline/internal/model"
)

func TestCollapseMeanAveragesAcrossEntities(t *testing.T) {
	sparse := &model.SparseTable{
		Columns: []string{"congestion", "lmp_total"},
		Rows: []model.SparseRow{
			{Key: model.Key{Timestamp: utc(ts0), Entity: "SP15"},
				Cells: map[string]float64{"lmp_total": 30, "congestion": -2}},
			{Key: model.Key{Timestamp: utc(ts0), Entity: "NP15"},
				Cells: map[string]float64{"lmp_total": 40}},
			{Key: model.Key{Timestamp: utc(ts1), Entity: "SP15"},
				Cells: map[string]float64{"lmp_total": 50}},
		},
	}

	out, err := CollapseMean(sparse)
	if err != nil {
		t.Fatalf("CollapseMean: %v", err)
	}
	if len(out.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(out.Rows))
	}
	if v := out.Rows[0].Values["lmp_total"]; v != 35 {
		t.Errorf("lmp_total at ts0 = %v, want mean 35", v)
	}
	// Only SP15 observed congestion at ts0: the mean runs over observed
	// cells, so NP15's absence does not drag it toward zero.
	if v := out.Rows[0].Values["congestion"]; v != -2 {
		t.Errorf("congestion at ts0 = %v, want -2", v)
	}
	// Nobody observed congestion at ts1: the dense output fills zero.
	if v, ok := out.Rows[1].Values["congestion"]; !ok || v != 0 {
		t.Errorf("congestion at ts1 = %v (present=%v), want filled 0", v, ok)
	}
}

func TestCollapseMeanRemovesEntityDimension(t *testing.T) {
	sparse := &model.SparseTable{
		Columns: []string{"lmp_total"},
		Rows: []model.SparseRow{
			{Key: model.Key{Timestamp: utc(ts0), Entity: "SP15"}, Cells: map[string]float64{"lmp_total": 10}},
			{Key: model.Key{Timestamp: utc(ts0), Entity: "NP15"}, Cells: map[string]float64{"lmp_total": 20}},
		},
	}
	out, err := CollapseMean(sparse)
	if err != nil {
		t.Fatalf("CollapseMean: %v", err)
	}
	if len(out.Rows) != 1 {
		t.Fatalf("rows = %d, want 1 per timestamp", len(out.Rows))
	}
}
