package repositories

import "errors"

var (
	// ErrNotFound indicates no matching row exists. Distinct from
	// ErrStoreUnavailable so callers can tell "no rows" from "no store".
	ErrNotFound = errors.New("record not found")

	// ErrStoreUnavailable indicates the backing store could not be reached.
	// Recoverable by retry/backoff at the caller.
	ErrStoreUnavailable = errors.New("backing store unreachable")
)
