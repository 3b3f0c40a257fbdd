package pipeline

import (
	"fmt"
	"strings"
)

// FetchError wraps a collaborator failure to obtain a feed's raw table.
// The run aborts; the core never retries.
type FetchError struct {
	Feed string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("feed %s: fetch failed: %v", e.Feed, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// SchemaError reports required columns missing from a feed's raw table.
type SchemaError struct {
	Feed    string
	Stage   string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("feed %s: %s: missing required columns: %s",
		e.Feed, e.Stage, strings.Join(e.Missing, ", "))
}

// JoinCollisionError reports duplicate non-key column names entering a join.
// This is a configuration error: the colliding feed's rename map must make
// its columns unique before the join runs. The join never overwrites.
type JoinCollisionError struct {
	Columns []string
}

func (e *JoinCollisionError) Error() string {
	return fmt.Sprintf("join: duplicate non-key columns on both sides: %s",
		strings.Join(e.Columns, ", "))
}
