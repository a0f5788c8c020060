package ledger

import (
	"time"

	"transferd.org/internal/ids"
	"transferd.org/internal/money"
)

type TransactionType string

const (
	TypeDeposit    TransactionType = "deposit"
	TypeWithdrawal TransactionType = "withdrawal"
	TypeTransfer   TransactionType = "transfer"
)

type TransactionStatus string

const (
	StatusPending TransactionStatus = "pending"
	StatusSuccess TransactionStatus = "success"
	StatusFailed  TransactionStatus = "failed"
)

// Transaction is the immutable record of one ledger movement. It is created
// pending the moment an operation decides to attempt a mutation and
// transitions exactly once to success or failed; failed attempts are retained
// for audit.
type Transaction struct {
	ID              int64             `json:"id"`
	Reference       string            `json:"reference"`
	AccountID       int64             `json:"account_id"`
	TargetAccountID *int64            `json:"target_account_id,omitempty"`
	Amount          money.Amount      `json:"amount"`
	Type            TransactionType   `json:"type"`
	Status          TransactionStatus `json:"status"`
	CreatedAt       time.Time         `json:"created_at"`
}

func newTransaction(accountID int64, amount money.Amount, typ TransactionType, targetID *int64, now time.Time) (Transaction, error) {
	if !amount.IsPositive() {
		return Transaction{}, ErrInvalidAmount
	}
	return Transaction{
		Reference:       ids.New(),
		AccountID:       accountID,
		TargetAccountID: targetID,
		Amount:          amount,
		Type:            typ,
		Status:          StatusPending,
		CreatedAt:       now.UTC(),
	}, nil
}

// NewDeposit builds a pending deposit record for the gross amount.
func NewDeposit(accountID int64, amount money.Amount, now time.Time) (Transaction, error) {
	return newTransaction(accountID, amount, TypeDeposit, nil, now)
}

// NewWithdrawal builds a pending withdrawal record.
func NewWithdrawal(accountID int64, amount money.Amount, now time.Time) (Transaction, error) {
	return newTransaction(accountID, amount, TypeWithdrawal, nil, now)
}

// NewTransfer builds a pending transfer record referencing both accounts.
func NewTransfer(accountID int64, amount money.Amount, targetID int64, now time.Time) (Transaction, error) {
	return newTransaction(accountID, amount, TypeTransfer, &targetID, now)
}

// MarkSuccess finalizes a pending transaction. Terminal states never change.
func (t *Transaction) MarkSuccess() {
	if t.Status == StatusPending {
		t.Status = StatusSuccess
	}
}

// MarkFailed finalizes a pending transaction as rejected.
func (t *Transaction) MarkFailed() {
	if t.Status == StatusPending {
		t.Status = StatusFailed
	}
}
