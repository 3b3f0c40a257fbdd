package models

import "caiso-pipeline/internal/store"

// ErrorDetail carries a machine-readable code plus a human message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the envelope every failed request returns.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// RunResponse is the result of triggering one pipeline run.
type RunResponse struct {
	Run store.Run `json:"run"`
}

// RunListResponse wraps the run history listing.
type RunListResponse struct {
	Runs  []store.Run `json:"runs"`
	Count int         `json:"count"`
}
