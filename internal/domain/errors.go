package domain

import "errors"

var (
	// ErrInvalidEntity aborts a whole batch.
	ErrInvalidEntity = errors.New("invalid monitored entity")
	// ErrMalformedCandidate marks a single candidate that is skipped with a diagnostic.
	ErrMalformedCandidate = errors.New("malformed candidate")
)
