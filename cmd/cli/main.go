package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"caiso-pipeline/internal/config"
	"caiso-pipeline/internal/data"
	"caiso-pipeline/internal/model"
	"caiso-pipeline/internal/pipeline"
	"caiso-pipeline/internal/service"
	"caiso-pipeline/internal/store"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "run":
		cmdRun(os.Args[2:])
	case "replay":
		cmdReplay(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli run --config config.yaml")
	fmt.Println("  cli replay --lmp lmp.csv --renewables ren.csv --generation gen.csv --out results")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - run fetches the last hour from OASIS and writes merged + per-hub CSVs")
	fmt.Println("  - replay runs the same pipeline over local CSV payloads, no network")
}

func cmdRun(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config (empty = built-in defaults)")
	lookback := fs.Int("lookback", 0, "Optional: override lookback minutes")
	_ = fs.Parse(args)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fatal(err)
	}
	if *lookback > 0 {
		cfg.Pipeline.LookbackMinutes = *lookback
	}

	var db *store.Store
	if cfg.Store.Path != "" {
		db, err = store.Open(cfg.Store.Path)
		if err != nil {
			fatal(err)
		}
		defer db.Close()
	}

	pipe := pipeline.CAISOFeeds(cfg.Nodes(), cfg.HubLabels())
	pipe.Fetcher = data.NewOASISClient(cfg.OASIS.BaseURL)
	runner := &service.Runner{
		Pipeline: pipe,
		OutDir:   cfg.Output.Dir,
		Store:    db,
		Lookback: time.Duration(cfg.Pipeline.LookbackMinutes) * time.Minute,
	}

	report, err := runner.RunOnce(time.Now().UTC())
	if err != nil {
		fatal(err)
	}
	printReport(report)
}

func cmdReplay(args []string) {
	fs := flag.NewFlagSet("replay", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config (empty = built-in defaults)")
	lmpPath := fs.String("lmp", "", "Path to a PRC_INTVL_LMP CSV payload")
	renPath := fs.String("renewables", "", "Path to a SLD_REN_FCST CSV payload")
	genPath := fs.String("generation", "", "Path to an ENE_SLRS CSV payload")
	outDir := fs.String("out", "results", "Output directory")
	since := fs.String("since", "", "Window start, RFC3339 (required)")
	_ = fs.Parse(args)

	if *lmpPath == "" || *renPath == "" || *genPath == "" {
		fmt.Println("--lmp, --renewables and --generation are required")
		os.Exit(2)
	}
	if *since == "" {
		fmt.Println("--since is required for replay (RFC3339, e.g. 2025-08-29T16:50:00Z)")
		os.Exit(2)
	}
	start, err := time.Parse(time.RFC3339, *since)
	if err != nil {
		fatal(fmt.Errorf("invalid --since: %w", err))
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fatal(err)
	}

	fetcher := fileFetcher{}
	for query, path := range map[string]string{
		"PRC_INTVL_LMP": *lmpPath,
		"SLD_REN_FCST":  *renPath,
		"ENE_SLRS":      *genPath,
	} {
		table, err := data.LoadRawCSV(path)
		if err != nil {
			fatal(fmt.Errorf("%s: %w", path, err))
		}
		fetcher[query] = table
	}

	pipe := pipeline.CAISOFeeds(cfg.Nodes(), cfg.HubLabels())
	pipe.Fetcher = fetcher

	now := time.Now().UTC()
	runner := &service.Runner{
		Pipeline: pipe,
		OutDir:   *outDir,
		Lookback: now.Sub(start),
	}
	report, err := runner.RunOnce(now)
	if err != nil {
		fatal(err)
	}
	printReport(report)
}

// fileFetcher serves pre-downloaded payloads by query name.
type fileFetcher map[string]*model.RawTable

func (f fileFetcher) Fetch(q model.Query, _ model.Window) (*model.RawTable, error) {
	table, ok := f[q.Name]
	if !ok {
		return nil, fmt.Errorf("no local payload for query %s", q.Name)
	}
	return table, nil
}

func printReport(report *service.RunReport) {
	run := report.Run
	fmt.Printf("Run %s: %s\n", run.ID, run.Status)
	fmt.Printf("Window: %s .. %s\n", run.WindowStart.Format(time.RFC3339), run.WindowEnd.Format(time.RFC3339))
	fmt.Printf("Wrote %d merged rows to %s\n", run.MergedRows, run.MergedFile)
	if run.HubFile != "" {
		fmt.Printf("Wrote %d per-hub rows to %s\n", run.HubRows, run.HubFile)
	}
	if run.MergedRows == 0 {
		fmt.Println("Note: merged output is empty (no overlapping intervals in the window)")
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
