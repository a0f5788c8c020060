package ledger

import "errors"

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrSameAccountTransfer = errors.New("cannot transfer to the same account")
	ErrInvalidCredentials  = errors.New("invalid pin")
	ErrInvalidAmount       = errors.New("invalid amount (must be > 0)")
	ErrAllocationExhausted = errors.New("failed to allocate a unique account number")

	// ErrConflict reports a concurrent-modification conflict detected by the
	// store at commit time. The core never retries; retry policy belongs to
	// the caller.
	ErrConflict = errors.New("concurrent modification")

	// ErrPersistence wraps infrastructure faults from the store so callers
	// can distinguish them from business outcomes for alerting.
	ErrPersistence = errors.New("persistence failure")
)
