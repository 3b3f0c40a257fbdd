package pipeline

import (
	"errors"
	"fmt"
	"testing"

	"caiso-pipeline/internal/model"
)

// fakeFetcher serves canned tables by query name.
type fakeFetcher map[string]*model.RawTable

func (f fakeFetcher) Fetch(q model.Query, _ model.Window) (*model.RawTable, error) {
	table, ok := f[q.Name]
	if !ok {
		return nil, fmt.Errorf("no fixture for query %s", q.Name)
	}
	return table, nil
}

type failingFetcher struct{ err error }

func (f failingFetcher) Fetch(model.Query, model.Window) (*model.RawTable, error) {
	return nil, f.err
}

func caisoFixtures(lmpTS, genTS string) fakeFetcher {
	return fakeFetcher{
		"PRC_INTVL_LMP": model.NewRawTable(
			[]string{"INTERVALSTARTTIME_GMT", "NODE", "LMP_TYPE", "MW"},
			[][]string{
				{lmpTS, "TH_SP15_GEN-APND", "LMP", "30.0"},
				{lmpTS, "TH_SP15_GEN-APND", "MCC", "-1.0"},
				{lmpTS, "TH_NP15_GEN-APND", "LMP", "40.0"},
				{lmpTS, "TH_NP15_GEN-APND", "MCC", "1.0"},
			},
		),
		"SLD_REN_FCST": model.NewRawTable(
			[]string{"INTERVALSTARTTIME_GMT", "MARKET_RUN_ID", "RENEWABLE_TYPE", "MW"},
			[][]string{
				{genTS, "RTD", "Solar", "5.0"},
				{genTS, "RTD", "Wind", "3.0"},
				{genTS, "DAM", "Solar", "777.0"},
			},
		),
		"ENE_SLRS": model.NewRawTable(
			[]string{"INTERVALSTARTTIME_GMT", "TAC_ZONE_NAME", "SLRS_TYPE", "MW"},
			[][]string{
				{genTS, "Caiso_Totals", "ALL", "7.0"},
				{genTS, "Caiso_Totals", "ALL", "5.0"},
				{genTS, "PGE_TAC", "ALL", "888.0"},
			},
		),
	}
}

func testPipeline(fetcher Fetcher) *Pipeline {
	p := CAISOFeeds(
		[]string{"TH_SP15_GEN-APND", "TH_NP15_GEN-APND"},
		map[string]string{"TH_SP15_GEN-APND": "SP15", "TH_NP15_GEN-APND": "NP15"},
	)
	p.Fetcher = fetcher
	return p
}

func TestPipelineMergesPricesAndGeneration(t *testing.T) {
	p := testPipeline(caisoFixtures(ts0, ts0))

	result, err := p.Run(testWindow())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	merged := result.Merged
	if len(merged.Rows) != 1 {
		t.Fatalf("merged rows = %d, want 1", len(merged.Rows))
	}
	row := merged.Rows[0].Values

	if v := row["renewables_total"]; v != 8 {
		t.Errorf("renewables_total = %v, want 8", v)
	}
	if v := row["total_generation"]; v != 12 {
		t.Errorf("total_generation = %v, want 12", v)
	}
	if v := row["thermal_and_other"]; v != 4 {
		t.Errorf("thermal_and_other = %v, want 4", v)
	}
	if v := row["lmp_total"]; v != 35 {
		t.Errorf("lmp_total = %v, want hub mean 35", v)
	}
	if v := row["congestion"]; v != 0 {
		t.Errorf("congestion = %v, want hub mean 0", v)
	}

	// The pre-collapse hub table rides along as a second artifact.
	hubs := result.Hubs
	if hubs == nil || len(hubs.Rows) != 2 {
		t.Fatalf("hub artifact rows = %v, want 2", hubs)
	}
	if hubs.Rows[0].Key.Entity != "NP15" || hubs.Rows[1].Key.Entity != "SP15" {
		t.Errorf("hub entities = %q, %q", hubs.Rows[0].Key.Entity, hubs.Rows[1].Key.Entity)
	}
}

func TestPipelineDisjointTimestampsYieldEmptyMerge(t *testing.T) {
	// Prices and generation share no intervals; the final inner join
	// produces zero rows, which is a result, not an error.
	p := testPipeline(caisoFixtures(ts0, ts2))

	result, err := p.Run(testWindow())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Merged.Rows) != 0 {
		t.Errorf("merged rows = %d, want 0", len(result.Merged.Rows))
	}
	if len(result.Hubs.Rows) == 0 {
		t.Error("hub artifact should still carry the price rows")
	}
}

func TestPipelineFetchFailureAbortsRun(t *testing.T) {
	p := testPipeline(failingFetcher{err: errors.New("connection refused")})

	_, err := p.Run(testWindow())
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("err = %v, want FetchError", err)
	}
	if fetchErr.Feed != "lmp" {
		t.Errorf("failing feed = %q, want lmp (first in order)", fetchErr.Feed)
	}
}

func TestPipelineSchemaMismatchCarriesFeedContext(t *testing.T) {
	fixtures := caisoFixtures(ts0, ts0)
	fixtures["SLD_REN_FCST"] = model.NewRawTable(
		[]string{"INTERVALSTARTTIME_GMT", "MW"}, nil) // category + filter columns missing
	p := testPipeline(fixtures)

	_, err := p.Run(testWindow())
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("err = %v, want SchemaError", err)
	}
	if schemaErr.Feed != "renewables" {
		t.Errorf("feed = %q, want renewables", schemaErr.Feed)
	}
}

func TestPipelineRejectsInvalidWindow(t *testing.T) {
	p := testPipeline(caisoFixtures(ts0, ts0))
	w := testWindow()
	w.End = w.Start

	if _, err := p.Run(w); err == nil {
		t.Fatal("expected invalid window to abort the run")
	}
}
