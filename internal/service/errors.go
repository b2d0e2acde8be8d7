package service

import "errors"

var (
	// ErrNotFound signals a missing student or transaction. It is always
	// surfaced to the caller, never defaulted away.
	ErrNotFound = errors.New("not found")

	// ErrInvalidAmount rejects negative amounts, and zero amounts where the
	// policy requires strictly positive, before anything is persisted.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInconsistentState means a student's history cannot be recomputed,
	// e.g. a transaction carries an unsortable date key. Reported rather than
	// skipped: skipping would corrupt every later balance.
	ErrInconsistentState = errors.New("inconsistent ledger state")
)
