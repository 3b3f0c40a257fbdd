package service

import (
	"log"
	"time"

	"github.com/google/uuid"

	"caiso-pipeline/internal/data"
	"caiso-pipeline/internal/model"
	"caiso-pipeline/internal/pipeline"
	"caiso-pipeline/internal/store"
)

// Runner wires the pipeline to its collaborators: the fetcher that supplies
// raw tables, the output directory the CSV artifacts land in, and an
// optional run-history store.
type Runner struct {
	Pipeline *pipeline.Pipeline
	OutDir   string
	Store    *store.Store // nil disables run tracking
	Lookback time.Duration
}

// RunReport summarizes one invocation for callers (CLI output, API
// responses). It mirrors the persisted store.Run.
type RunReport struct {
	Run    store.Run
	Result *pipeline.Result
}

// RunOnce executes the pipeline for the window ending now, persists both
// artifacts, and records the run. On a pipeline failure nothing is written
// to disk; the failed run is still recorded when a store is configured.
func (r *Runner) RunOnce(now time.Time) (*RunReport, error) {
	w := model.NewWindow(now, r.Lookback)
	run := store.Run{
		ID:          uuid.NewString(),
		StartedAt:   now.UTC(),
		WindowStart: w.Start,
		WindowEnd:   w.End,
		Status:      "ok",
	}

	started := time.Now()
	result, err := r.Pipeline.Run(w)
	run.DurationMS = time.Since(started).Milliseconds()

	if err != nil {
		run.Status = "failed"
		run.Error = err.Error()
		r.record(run)
		return nil, err
	}

	mergedPath, err := data.WriteMergedCSV(r.OutDir, now, result.Merged)
	if err != nil {
		run.Status = "failed"
		run.Error = err.Error()
		r.record(run)
		return nil, err
	}
	var hubPath string
	if result.Hubs != nil {
		hubPath, err = data.WriteHubCSV(r.OutDir, now, result.Hubs)
		if err != nil {
			run.Status = "failed"
			run.Error = err.Error()
			r.record(run)
			return nil, err
		}
		run.HubRows = len(result.Hubs.Rows)
	}

	run.MergedRows = len(result.Merged.Rows)
	run.MergedFile = mergedPath
	run.HubFile = hubPath
	r.record(run)

	log.Printf("[Runner] run %s: wrote %d merged rows to %s, %d hub rows to %s",
		run.ID, run.MergedRows, mergedPath, run.HubRows, hubPath)
	return &RunReport{Run: run, Result: result}, nil
}

func (r *Runner) record(run store.Run) {
	if r.Store == nil {
		return
	}
	if err := r.Store.SaveRun(run); err != nil {
		log.Printf("[Runner] failed to record run %s: %v", run.ID, err)
	}
}
