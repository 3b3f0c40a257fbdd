package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Run is one recorded pipeline invocation.
type Run struct {
	ID          string    `json:"id"`
	StartedAt   time.Time `json:"started_at"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
	Status      string    `json:"status"` // "ok" or "failed"
	MergedRows  int       `json:"merged_rows"`
	HubRows     int       `json:"hub_rows"`
	MergedFile  string    `json:"merged_file,omitempty"`
	HubFile     string    `json:"hub_file,omitempty"`
	Error       string    `json:"error,omitempty"`
	DurationMS  int64     `json:"duration_ms"`
}

// Store keeps pipeline run history in a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the run-history database at path.
// ":memory:" is accepted for tests.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at DATETIME,
		window_start DATETIME,
		window_end DATETIME,
		status TEXT,
		merged_rows INTEGER,
		hub_rows INTEGER,
		merged_file TEXT,
		hub_file TEXT,
		error_message TEXT,
		duration_ms INTEGER
	);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// SaveRun records one completed or failed run.
func (s *Store) SaveRun(r Run) error {
	_, err := s.db.Exec(`INSERT INTO runs
		(id, started_at, window_start, window_end, status, merged_rows, hub_rows, merged_file, hub_file, error_message, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.StartedAt.UTC(), r.WindowStart.UTC(), r.WindowEnd.UTC(), r.Status,
		r.MergedRows, r.HubRows, r.MergedFile, r.HubFile, r.Error, r.DurationMS)
	return err
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`SELECT id, started_at, window_start, window_end, status,
		merged_rows, hub_rows, merged_file, hub_file, error_message, duration_ms
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows.Scan)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun fetches one run by id. Returns sql.ErrNoRows when absent.
func (s *Store) GetRun(id string) (*Run, error) {
	row := s.db.QueryRow(`SELECT id, started_at, window_start, window_end, status,
		merged_rows, hub_rows, merged_file, hub_file, error_message, duration_ms
		FROM runs WHERE id = ?`, id)
	r, err := scanRun(row.Scan)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func scanRun(scan func(...any) error) (Run, error) {
	var r Run
	err := scan(&r.ID, &r.StartedAt, &r.WindowStart, &r.WindowEnd, &r.Status,
		&r.MergedRows, &r.HubRows, &r.MergedFile, &r.HubFile, &r.Error, &r.DurationMS)
	return r, err
}
