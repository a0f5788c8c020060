// Package memory implements the account and transaction stores in process
// memory. It backs tests, the smoke binary and DSN-less development runs,
// and enforces the same optimistic version check as the Postgres store.
package memory

import (
	"context"
	"sync"
	"time"

	"transferd.org/internal/account"
	"transferd.org/internal/ledger"
)

// AccountStore keeps accounts in a mutex-guarded map. Accounts are cloned on
// the way in and out so callers never alias stored state.
type AccountStore struct {
	mu       sync.RWMutex
	accounts map[int64]*account.Account
	byNumber map[string]int64
	next     int64
}

var _ ledger.AccountStore = (*AccountStore)(nil)

func NewAccountStore() *AccountStore {
	return &AccountStore{
		accounts: make(map[int64]*account.Account),
		byNumber: make(map[string]int64),
	}
}

func (s *AccountStore) Get(ctx context.Context, id int64) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[id]
	if !ok {
		return nil, ledger.ErrAccountNotFound
	}
	return acc.Clone(), nil
}

func (s *AccountStore) Exists(ctx context.Context, number string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byNumber[number]
	return ok, nil
}

func (s *AccountStore) Create(ctx context.Context, acc *account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	acc.ID = s.next
	acc.Version = 1
	s.accounts[acc.ID] = acc.Clone()
	s.byNumber[acc.Number] = acc.ID
	return nil
}

func (s *AccountStore) Save(ctx context.Context, acc *account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(acc)
}

// SavePair commits both sides of a transfer under the single store lock, so
// either both version checks pass and both records advance, or neither does.
func (s *AccountStore) SavePair(ctx context.Context, a, b *account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acc := range []*account.Account{a, b} {
		stored, ok := s.accounts[acc.ID]
		if !ok {
			return ledger.ErrAccountNotFound
		}
		if stored.Version != acc.Version {
			return ledger.ErrConflict
		}
	}
	if err := s.saveLocked(a); err != nil {
		return err
	}
	return s.saveLocked(b)
}

func (s *AccountStore) saveLocked(acc *account.Account) error {
	stored, ok := s.accounts[acc.ID]
	if !ok {
		return ledger.ErrAccountNotFound
	}
	if stored.Version != acc.Version {
		return ledger.ErrConflict
	}
	acc.Version++
	s.accounts[acc.ID] = acc.Clone()
	return nil
}

func (s *AccountStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return ledger.ErrAccountNotFound
	}
	delete(s.byNumber, acc.Number)
	delete(s.accounts, id)
	return nil
}

// TransactionStore is an append-only in-memory transaction log.
type TransactionStore struct {
	mu   sync.RWMutex
	txs  []ledger.Transaction
	next int64
}

var _ ledger.TransactionStore = (*TransactionStore)(nil)

func NewTransactionStore() *TransactionStore {
	return &TransactionStore{}
}

func (s *TransactionStore) Append(ctx context.Context, tx *ledger.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	tx.ID = s.next
	s.txs = append(s.txs, *tx)
	return nil
}

func (s *TransactionStore) Get(ctx context.Context, id int64) (*ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.txs {
		if s.txs[i].ID == id {
			cp := s.txs[i]
			return &cp, nil
		}
	}
	return nil, ledger.ErrTransactionNotFound
}

func (s *TransactionStore) ListForAccount(ctx context.Context, accountID int64) ([]ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []ledger.Transaction
	for _, tx := range s.txs {
		if tx.AccountID == accountID || (tx.TargetAccountID != nil && *tx.TargetAccountID == accountID) {
			res = append(res, tx)
		}
	}
	return res, nil
}

func (s *TransactionStore) CountForAccountSince(ctx context.Context, accountID int64, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, tx := range s.txs {
		if tx.AccountID == accountID && !tx.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}
