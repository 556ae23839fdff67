package repository

import "errors"

// Sentinel kinds for store errors. Callers classify with errors.Is.
var (
	// ErrDuplicate marks an idempotency-key conflict. Batch ingest counts
	// these as skipped; single ingest surfaces them as a duplicate signal.
	ErrDuplicate = errors.New("duplicate event ref")

	// ErrNotFound marks a missing score row or unknown subject.
	ErrNotFound = errors.New("not found")
)
