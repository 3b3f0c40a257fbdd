package data

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"caiso-pipeline/internal/model"
)

// File naming mirrors the legacy exporter: one merged price+generation file
// and one per-hub price file, both stamped with the run time in UTC.
const fileStampFormat = "20060102_1504"

// MergedFileName returns the merged artifact's file name for a run time.
func MergedFileName(runTime time.Time) string {
	return fmt.Sprintf("caiso_lmp_generation_%sUTC.csv", runTime.UTC().Format(fileStampFormat))
}

// HubFileName returns the legacy per-hub price artifact's file name.
func HubFileName(runTime time.Time) string {
	return fmt.Sprintf("caiso_lmp_last_hour_%sUTC.csv", runTime.UTC().Format(fileStampFormat))
}

// WriteMergedCSV persists the merged output table. Every cell is dense, so
// all values serialize as fixed-precision floats.
func WriteMergedCSV(dir string, runTime time.Time, t *model.DenseTable) (string, error) {
	path := filepath.Join(dir, MergedFileName(runTime))
	f, err := createWithDir(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := append([]string{"timestamp_utc_interval"}, t.Columns...)
	if err := w.Write(header); err != nil {
		return "", err
	}
	for _, r := range t.Rows {
		row := make([]string, 0, len(header))
		row = append(row, fmtTime(r.Timestamp))
		for _, c := range t.Columns {
			row = append(row, fmtFloat(r.Values[c]))
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	return path, w.Error()
}

// WriteHubCSV persists the pre-collapse per-hub price table. Cells a hub
// never reported serialize as empty strings, not zeros.
func WriteHubCSV(dir string, runTime time.Time, t *model.SparseTable) (string, error) {
	path := filepath.Join(dir, HubFileName(runTime))
	f, err := createWithDir(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := append([]string{"timestamp_utc", "hub"}, t.Columns...)
	if err := w.Write(header); err != nil {
		return "", err
	}
	for _, r := range t.Rows {
		row := make([]string, 0, len(header))
		row = append(row, fmtTime(r.Key.Timestamp), r.Key.Entity)
		for _, c := range t.Columns {
			if v, ok := r.Cells[c]; ok {
				row = append(row, fmtFloat(v))
			} else {
				row = append(row, "")
			}
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	return path, w.Error()
}

func createWithDir(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.Create(path)
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
