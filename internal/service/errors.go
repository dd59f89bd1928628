package service

import "fmt"

// ValidationError reports a trade request rejected before any mutation. The
// message is safe to return to API clients.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// PersistenceError reports a failed write to the ledger or position store.
// Ledgered says whether the trade landed in the ledger before the failure;
// when true the portfolio is behind the ledger until reconciled.
type PersistenceError struct {
	Op       string
	Ledgered bool
	Err      error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
