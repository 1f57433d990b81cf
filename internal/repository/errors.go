package repository

import "errors"

// Sentinel errors distinguishing which compare-and-swap lost inside a
// multi-entity transaction. Services translate these into the typed
// domain errors surfaced to callers.
var (
	// ErrStateConflict means the primary record (claim, match,
	// verification request) was not in the expected prior status.
	ErrStateConflict = errors.New("record state conflict")

	// ErrItemConflict means the found item status compare-and-swap
	// affected zero rows: a concurrent request moved the item first.
	ErrItemConflict = errors.New("found item status conflict")
)
