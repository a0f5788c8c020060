package ledger

import (
	"context"
	"time"

	"transferd.org/internal/account"
)

// AccountStore is the persistence boundary for accounts. Implementations must
// provide the read-modify-write guarantee the service relies on: Save and
// SavePair reject writes whose version no longer matches the stored record
// with ErrConflict.
type AccountStore interface {
	// Get returns a copy of the account or ErrAccountNotFound.
	Get(ctx context.Context, id int64) (*account.Account, error)
	// Exists reports whether an account number is already taken.
	Exists(ctx context.Context, number string) (bool, error)
	// Create persists a new account and assigns its id.
	Create(ctx context.Context, acc *account.Account) error
	// Save persists a mutated account under optimistic version check.
	Save(ctx context.Context, acc *account.Account) error
	// SavePair persists both sides of a transfer atomically, acquiring the
	// underlying records in ascending account id order.
	SavePair(ctx context.Context, a, b *account.Account) error
	// Delete removes an account. Lifecycle policy around deletion is the
	// caller's concern.
	Delete(ctx context.Context, id int64) error
}

// TransactionStore is the append-oriented persistence boundary for
// transaction records.
type TransactionStore interface {
	// Append persists a finalized transaction and assigns its id.
	Append(ctx context.Context, tx *Transaction) error
	// Get returns a transaction or ErrTransactionNotFound.
	Get(ctx context.Context, id int64) (*Transaction, error)
	// ListForAccount returns every transaction in which the account appears
	// as source or target, oldest first.
	ListForAccount(ctx context.Context, accountID int64) ([]Transaction, error)
	// CountForAccountSince counts transactions originated by the account at
	// or after the given instant.
	CountForAccountSince(ctx context.Context, accountID int64, since time.Time) (int, error)
}
