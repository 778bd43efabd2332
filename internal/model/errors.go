package model

import "errors"

// Setup errors abort a whole invocation before any job runs.
var (
	ErrNotFound          = errors.New("input not found")
	ErrNoValidInput      = errors.New("no valid input")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrInvalidInput      = errors.New("invalid input")
)

// Per-job errors are recorded in the batch report.
var (
	ErrMissingAlignment = errors.New("missing alignment")
	ErrSearchMismatch   = errors.New("alignment search result count mismatch")
)
