package model

import (
	"fmt"
	"time"
)

// wireTimeFormat is the OASIS datetime format: compact date, literal T,
// colon-separated time. The zero offset is appended literally because OASIS
// expects "-0000", which Go's stdlib never renders for UTC.
const wireTimeFormat = "20060102T15:04"

// Window is the closed-open interval [Start, End) every feed is filtered
// against. Both bounds are UTC. The start bound is enforced during reshape;
// the end bound is advisory (feeds do not return rows past it, and rows at
// or after it are not explicitly dropped, matching upstream behavior).
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow builds the window ending at now and reaching lookback into the
// past. Both bounds are normalized to UTC.
func NewWindow(now time.Time, lookback time.Duration) Window {
	end := now.UTC()
	return Window{Start: end.Add(-lookback), End: end}
}

func (w Window) Validate() error {
	if w.Start.IsZero() || w.End.IsZero() {
		return fmt.Errorf("window: start and end are required")
	}
	if !w.Start.Before(w.End) {
		return fmt.Errorf("window: start %s must be before end %s",
			w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
	}
	return nil
}

// StartWire and EndWire render the bounds in the upstream query format,
// e.g. "20250829T16:50-0000".
func (w Window) StartWire() string { return w.Start.UTC().Format(wireTimeFormat) + "-0000" }
func (w Window) EndWire() string   { return w.End.UTC().Format(wireTimeFormat) + "-0000" }

// Contains reports whether ts satisfies the enforced lower bound.
func (w Window) Contains(ts time.Time) bool {
	return !ts.Before(w.Start)
}
