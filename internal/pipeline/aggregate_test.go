package pipeline

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"caiso-pipeline/internal/model"
)

func renewablesFeed() *model.FeedDefinition {
	return &model.FeedDefinition{
		Name:           "renewables",
		Query:          model.Query{Name: "SLD_REN_FCST"},
		TimeColumn:     "INTERVALSTARTTIME_GMT",
		CategoryColumn: "RENEWABLE_TYPE",
		ValueColumn:    "MW",
		Filters:        map[string]string{"MARKET_RUN_ID": "RTD"},
		Reducer:        model.ReduceSum,
		Join:           model.JoinOuter,
	}
}

func renewablesRaw(rows [][]string) *model.RawTable {
	return model.NewRawTable(
		[]string{"INTERVALSTARTTIME_GMT", "MARKET_RUN_ID", "RENEWABLE_TYPE", "MW"}, rows)
}

func TestAggregateSumsByTimestampAndCategory(t *testing.T) {
	raw := renewablesRaw([][]string{
		{ts0, "RTD", "Solar", "3.0"},
		{ts0, "RTD", "Solar", "2.0"},
		{ts0, "RTD", "Wind", "3.0"},
		{ts0, "DAM", "Solar", "500.0"}, // filtered out
	})

	out, err := Aggregate(renewablesFeed(), raw, testWindow())
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(out.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(out.Rows))
	}
	if v := out.Rows[0].Values["Solar"]; v != 5.0 {
		t.Errorf("Solar = %v, want 5.0", v)
	}
	if v := out.Rows[0].Values["Wind"]; v != 3.0 {
		t.Errorf("Wind = %v, want 3.0", v)
	}
}

func TestAggregateZeroFillsMissingCategories(t *testing.T) {
	raw := renewablesRaw([][]string{
		{ts0, "RTD", "Solar", "5.0"},
		{ts0, "RTD", "Wind", "3.0"},
		{ts1, "RTD", "Solar", "4.0"}, // no Wind at ts1
	})

	out, err := Aggregate(renewablesFeed(), raw, testWindow())
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(out.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(out.Rows))
	}
	// Unlike reshape, aggregation fills the unobserved cell with zero so
	// downstream arithmetic never sees a gap.
	if v, ok := out.Rows[1].Values["Wind"]; !ok || v != 0 {
		t.Errorf("Wind at ts1 = %v (present=%v), want explicit 0", v, ok)
	}
}

func TestAggregateMeanReducer(t *testing.T) {
	feed := lmpFeed()
	feed.EntityColumn = ""
	feed.Reducer = model.ReduceMean

	raw := lmpRaw([][]string{
		{ts0, "", "LMP", "10.0"},
		{ts0, "", "LMP", "20.0"},
		{ts0, "", "LMP", "30.0"},
	})

	out, err := Aggregate(feed, raw, testWindow())
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if v := out.Rows[0].Values["lmp_total"]; v != 20.0 {
		t.Errorf("mean = %v, want 20.0", v)
	}
}

func TestAggregateOrderIndependentForSum(t *testing.T) {
	rows := [][]string{
		{ts0, "RTD", "Solar", "1.5"},
		{ts0, "RTD", "Wind", "2.5"},
		{ts1, "RTD", "Solar", "3.5"},
		{ts0, "RTD", "Solar", "4.5"},
	}
	reversed := make([][]string, len(rows))
	for i, r := range rows {
		reversed[len(rows)-1-i] = r
	}

	a, err := Aggregate(renewablesFeed(), renewablesRaw(rows), testWindow())
	if err != nil {
		t.Fatal(err)
	}
	b, err := Aggregate(renewablesFeed(), renewablesRaw(reversed), testWindow())
	if err != nil {
		t.Fatal(err)
	}

	if len(a.Rows) != len(b.Rows) {
		t.Fatalf("row counts differ: %d vs %d", len(a.Rows), len(b.Rows))
	}
	for i := range a.Rows {
		if !a.Rows[i].Timestamp.Equal(b.Rows[i].Timestamp) {
			t.Fatalf("row %d timestamps differ", i)
		}
		for _, c := range a.Columns {
			if a.Rows[i].Values[c] != b.Rows[i].Values[c] {
				t.Errorf("row %d column %s: %v vs %v", i, c, a.Rows[i].Values[c], b.Rows[i].Values[c])
			}
		}
	}
}

func TestAggregateIdempotentOnAggregatedInput(t *testing.T) {
	raw := renewablesRaw([][]string{
		{ts0, "RTD", "Solar", "3.0"},
		{ts0, "RTD", "Solar", "2.0"},
		{ts0, "RTD", "Wind", "3.0"},
		{ts1, "RTD", "Solar", "4.0"},
	})

	once, err := Aggregate(renewablesFeed(), raw, testWindow())
	if err != nil {
		t.Fatal(err)
	}

	// Re-encode the aggregated table as long-format rows and aggregate
	// again: sum over unique keys is a fixed point.
	var longRows [][]string
	for _, r := range once.Rows {
		for _, c := range once.Columns {
			longRows = append(longRows, []string{
				r.Timestamp.Format(time.RFC3339), "RTD", c,
				fmt.Sprintf("%v", r.Values[c]),
			})
		}
	}
	twice, err := Aggregate(renewablesFeed(), renewablesRaw(longRows), testWindow())
	if err != nil {
		t.Fatal(err)
	}

	if len(once.Rows) != len(twice.Rows) {
		t.Fatalf("row counts differ: %d vs %d", len(once.Rows), len(twice.Rows))
	}
	for i := range once.Rows {
		for _, c := range once.Columns {
			if once.Rows[i].Values[c] != twice.Rows[i].Values[c] {
				t.Errorf("row %d column %s: %v vs %v", i, c, once.Rows[i].Values[c], twice.Rows[i].Values[c])
			}
		}
	}
}

func TestAggregateWithoutCategoryColumn(t *testing.T) {
	feed := &model.FeedDefinition{
		Name:        "generation",
		Query:       model.Query{Name: "ENE_SLRS"},
		TimeColumn:  "INTERVALSTARTTIME_GMT",
		ValueColumn: "MW",
		Filters:     map[string]string{"TAC_ZONE_NAME": "Caiso_Totals"},
		Rename:      map[string]string{"MW": "total_generation"},
		Reducer:     model.ReduceSum,
		Join:        model.JoinOuter,
	}
	raw := model.NewRawTable(
		[]string{"INTERVALSTARTTIME_GMT", "TAC_ZONE_NAME", "MW"},
		[][]string{
			{ts0, "Caiso_Totals", "7.0"},
			{ts0, "Caiso_Totals", "5.0"},
			{ts0, "PGE_TAC", "999.0"},
		},
	)

	out, err := Aggregate(feed, raw, testWindow())
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(out.Columns) != 1 || out.Columns[0] != "total_generation" {
		t.Fatalf("columns = %v, want [total_generation]", out.Columns)
	}
	if v := out.Rows[0].Values["total_generation"]; v != 12.0 {
		t.Errorf("total_generation = %v, want 12.0", v)
	}
}

func TestAggregateUniqueTimestamps(t *testing.T) {
	raw := renewablesRaw([][]string{
		{ts0, "RTD", "Solar", "1"},
		{ts0, "RTD", "Solar", "2"},
		{ts1, "RTD", "Solar", "3"},
		{ts0, "RTD", "Wind", "4"},
	})
	out, err := Aggregate(renewablesFeed(), raw, testWindow())
	if err != nil {
		t.Fatal(err)
	}
	seen := map[string]bool{}
	for _, r := range out.Rows {
		k := r.Timestamp.String()
		if seen[k] {
			t.Fatalf("duplicate timestamp %s", k)
		}
		seen[k] = true
	}
}

func TestAggregateMissingColumnIsSchemaError(t *testing.T) {
	raw := model.NewRawTable([]string{"INTERVALSTARTTIME_GMT", "MW"}, nil)
	_, err := Aggregate(renewablesFeed(), raw, testWindow())
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("err = %v, want SchemaError", err)
	}
	if schemaErr.Stage != "aggregate" {
		t.Errorf("stage = %q, want aggregate", schemaErr.Stage)
	}
}
