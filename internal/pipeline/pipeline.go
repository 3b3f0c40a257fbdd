package pipeline

import (
	"fmt"
	"log"

	"caiso-pipeline/internal/model"
)

// Fetcher is the ingestion collaborator: given a feed's query identity and
// the shared window, it returns that feed's decoded raw table or fails.
// Transport, retries and decoding live behind this interface.
type Fetcher interface {
	Fetch(q model.Query, w model.Window) (*model.RawTable, error)
}

// Pipeline runs a fixed set of feed definitions against one shared window
// and merges their wide tables into a single timestamp-keyed output.
//
// Feeds are processed sequentially and share no state until the join, so a
// run either completes to a merged table or aborts on the first fatal error;
// partial output is never emitted.
type Pipeline struct {
	Fetcher Fetcher

	// Feeds in processing order. Feeds without an entity column produce
	// dense tables that join progressively, each under its own policy.
	// A feed with an entity column keeps its sparse per-entity table as a
	// secondary artifact, is collapsed (mean across entities) and joins
	// last, again under its own policy.
	Feeds []*model.FeedDefinition

	// Derived are cross-feed derivations computed on the progressive dense
	// merge, before the entity feed joins (they may reference columns from
	// several feeds, e.g. a residual of a total minus another feed's sum).
	Derived []model.Derivation
}

// Result is the dual output of one run: the merged timestamp-keyed table,
// plus the pre-collapse per-entity table for the entity-dimensioned feed,
// kept for diagnostic and legacy consumers.
type Result struct {
	Merged *model.DenseTable
	Hubs   *model.SparseTable
}

// Run executes one batch over the window. All transformations are pure and
// in-memory; the only blocking calls are the fetches.
func (p *Pipeline) Run(w model.Window) (*Result, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if len(p.Feeds) == 0 {
		return nil, fmt.Errorf("pipeline: no feeds configured")
	}

	var merged *model.DenseTable
	var hubs *model.SparseTable
	var hubFeed *model.FeedDefinition

	for _, feed := range p.Feeds {
		if err := feed.Validate(); err != nil {
			return nil, err
		}
		raw, err := p.Fetcher.Fetch(feed.Query, w)
		if err != nil {
			return nil, &FetchError{Feed: feed.Name, Err: err}
		}
		log.Printf("[Pipeline] feed %s: fetched %d raw rows", feed.Name, raw.Len())

		if feed.EntityColumn != "" {
			if hubFeed != nil {
				return nil, fmt.Errorf("pipeline: feeds %s and %s both carry an entity dimension; only one is supported",
					hubFeed.Name, feed.Name)
			}
			hubs, err = Reshape(feed, raw, w)
			if err != nil {
				return nil, err
			}
			hubFeed = feed
			log.Printf("[Pipeline] feed %s: reshaped to %d rows x %d columns", feed.Name, len(hubs.Rows), len(hubs.Columns))
			continue
		}

		table, err := Aggregate(feed, raw, w)
		if err != nil {
			return nil, err
		}
		table = Derive(table, feed.Derived...)
		log.Printf("[Pipeline] feed %s: aggregated to %d rows x %d columns", feed.Name, len(table.Rows), len(table.Columns))

		if merged == nil {
			merged = table
			continue
		}
		merged, err = Join(merged, table, feed.Join)
		if err != nil {
			return nil, err
		}
	}
	if merged == nil {
		return nil, fmt.Errorf("pipeline: no system-wide feeds configured")
	}

	merged = Derive(merged, p.Derived...)

	if hubFeed != nil {
		collapsed, err := CollapseMean(hubs)
		if err != nil {
			return nil, fmt.Errorf("feed %s: collapse: %w", hubFeed.Name, err)
		}
		merged, err = Join(collapsed, merged, hubFeed.Join)
		if err != nil {
			return nil, err
		}
	}

	if len(merged.Rows) == 0 {
		// A valid result: the caller decides whether an empty window is
		// actionable.
		log.Printf("[Pipeline] merged output has zero rows for window %s .. %s", w.StartWire(), w.EndWire())
	}
	return &Result{Merged: merged, Hubs: hubs}, nil
}
