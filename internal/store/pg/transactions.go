package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"transferd.org/internal/ledger"
)

type TransactionStore struct {
	db *sql.DB
}

var _ ledger.TransactionStore = (*TransactionStore)(nil)

func NewTransactionStore(db *sql.DB) *TransactionStore {
	return &TransactionStore{db: db}
}

func (s *TransactionStore) Append(ctx context.Context, tx *ledger.Transaction) error {
	var target sql.NullInt64
	if tx.TargetAccountID != nil {
		target = sql.NullInt64{Int64: *tx.TargetAccountID, Valid: true}
	}
	return s.db.QueryRowContext(ctx, `
		insert into transactions(reference, account_id, target_account_id, amount, type, status, created_at)
		values ($1,$2,$3,$4,$5,$6,$7)
		returning transaction_id
	`, tx.Reference, tx.AccountID, target, tx.Amount, tx.Type, tx.Status, tx.CreatedAt).Scan(&tx.ID)
}

const transactionColumns = `
	transaction_id, reference, account_id, target_account_id, amount, type, status, created_at`

func scanTransaction(row rowScanner) (*ledger.Transaction, error) {
	var tx ledger.Transaction
	var target sql.NullInt64
	err := row.Scan(&tx.ID, &tx.Reference, &tx.AccountID, &target, &tx.Amount, &tx.Type, &tx.Status, &tx.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	if target.Valid {
		tx.TargetAccountID = &target.Int64
	}
	return &tx, nil
}

func (s *TransactionStore) Get(ctx context.Context, id int64) (*ledger.Transaction, error) {
	row := s.db.QueryRowContext(ctx, `select`+transactionColumns+` from transactions where transaction_id=$1`, id)
	return scanTransaction(row)
}

func (s *TransactionStore) ListForAccount(ctx context.Context, accountID int64) ([]ledger.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		select`+transactionColumns+`
		from transactions
		where account_id=$1 or target_account_id=$1
		order by transaction_id asc
	`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []ledger.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *tx)
	}
	return res, rows.Err()
}

func (s *TransactionStore) CountForAccountSince(ctx context.Context, accountID int64, since time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		select count(*) from transactions where account_id=$1 and created_at >= $2
	`, accountID, since).Scan(&n)
	return n, err
}
