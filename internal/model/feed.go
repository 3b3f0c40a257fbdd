package model

import "fmt"

// Reducer selects how multiple raw rows sharing a grouping key collapse
// into one value.
type Reducer string

const (
	// ReduceFirst keeps the first occurrence in input order. Order-sensitive
	// by definition; used when duplicates are not expected and any survivor
	// will do.
	ReduceFirst Reducer = "first"
	ReduceSum   Reducer = "sum"
	ReduceMean  Reducer = "mean"
)

func (r Reducer) Validate() error {
	switch r {
	case ReduceFirst, ReduceSum, ReduceMean:
		return nil
	}
	return fmt.Errorf("unknown reducer %q", r)
}

// JoinPolicy selects how a feed's table merges into the running output.
type JoinPolicy string

const (
	// JoinInner keeps only timestamps present on both sides.
	JoinInner JoinPolicy = "inner"
	// JoinOuter keeps the union of timestamps, zero-filling the missing side.
	JoinOuter JoinPolicy = "outer"
)

// Query names an upstream report and its fixed query parameters. The window
// bounds are supplied separately per run.
type Query struct {
	Name        string   // OASIS queryname, e.g. "PRC_INTVL_LMP"
	Version     string   // report version, usually "1"
	MarketRunID string   // optional market_run_id filter, e.g. "RTM"
	Nodes       []string // optional node filter, joined with commas
}

// FeedDefinition is the static per-feed configuration: where the long-format
// columns live, how rows are filtered, reduced and renamed, and how the
// feed's table joins into the merged output. Built once at startup and never
// mutated; the pipeline passes it by reference.
type FeedDefinition struct {
	Name  string
	Query Query

	// Long-format layout.
	TimeColumn     string
	EntityColumn   string // empty for system-wide feeds with no secondary dimension
	CategoryColumn string // empty when the feed yields a single value column
	ValueColumn    string

	// Filters are equality predicates on auxiliary columns, applied before
	// pivoting (e.g. MARKET_RUN_ID == "RTD").
	Filters map[string]string

	// Rename maps raw pivot column names to output names; unmapped names
	// pass through unchanged.
	Rename map[string]string

	// Labels maps entity identifiers to human-readable ones. Unmapped
	// identifiers pass through unchanged (logged, not dropped).
	Labels map[string]string

	Reducer Reducer

	// Derived columns computed after aggregation, in order.
	Derived []Derivation

	Join JoinPolicy
}

// Derivation is one computed column: value = sum(Plus) - sum(Minus), with
// absent operands reading as zero so the computation always succeeds.
type Derivation struct {
	Name  string
	Plus  []string
	Minus []string
}

// OutputColumn resolves the pivoted name a raw category lands under.
func (f *FeedDefinition) OutputColumn(rawName string) string {
	if out, ok := f.Rename[rawName]; ok {
		return out
	}
	return rawName
}

// Label resolves an entity identifier to its display label, falling back to
// the raw identifier.
func (f *FeedDefinition) Label(entity string) (string, bool) {
	if l, ok := f.Labels[entity]; ok {
		return l, true
	}
	return entity, false
}

// RequiredColumns lists every raw column the feed reads: timestamp, value,
// optional entity/category, and each filter's auxiliary column.
func (f *FeedDefinition) RequiredColumns() []string {
	cols := []string{f.TimeColumn}
	if f.EntityColumn != "" {
		cols = append(cols, f.EntityColumn)
	}
	if f.CategoryColumn != "" {
		cols = append(cols, f.CategoryColumn)
	}
	cols = append(cols, f.ValueColumn)
	for c := range f.Filters {
		cols = append(cols, c)
	}
	return cols
}

func (f *FeedDefinition) Validate() error {
	if f.Name == "" {
		return fmt.Errorf("feed name is required")
	}
	if f.Query.Name == "" {
		return fmt.Errorf("feed %s: query name is required", f.Name)
	}
	if f.TimeColumn == "" {
		return fmt.Errorf("feed %s: time column is required", f.Name)
	}
	if f.ValueColumn == "" {
		return fmt.Errorf("feed %s: value column is required", f.Name)
	}
	if err := f.Reducer.Validate(); err != nil {
		return fmt.Errorf("feed %s: %w", f.Name, err)
	}
	switch f.Join {
	case JoinInner, JoinOuter:
	default:
		return fmt.Errorf("feed %s: unknown join policy %q", f.Name, f.Join)
	}
	return nil
}
