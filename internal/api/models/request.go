package models

// RunRequest optionally overrides the configured query window for one run.
type RunRequest struct {
	// LookbackMinutes sizes the window ending at the current time.
	// Zero means "use the configured lookback".
	LookbackMinutes int `json:"lookback_minutes"`
}
