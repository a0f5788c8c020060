package pg

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"transferd.org/internal/account"
	"transferd.org/internal/ledger"
)

type AccountStore struct {
	db *sql.DB
}

var _ ledger.AccountStore = (*AccountStore)(nil)

func NewAccountStore(db *sql.DB) *AccountStore {
	return &AccountStore{db: db}
}

const accountColumns = `
	account_id, name, number, customer_id, type, tier, status, currency,
	balance, lien_amount, total_lodgements, total_withdrawals,
	restricted, pin_hash, bank_code, scheme_code, version, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*account.Account, error) {
	var acc account.Account
	var scheme sql.NullString
	err := row.Scan(
		&acc.ID, &acc.Name, &acc.Number, &acc.CustomerID, &acc.Type, &acc.Tier,
		&acc.Status, &acc.Currency, &acc.Balance, &acc.LienAmount,
		&acc.TotalLodgements, &acc.TotalWithdrawals, &acc.Restricted,
		&acc.PinHash, &acc.BankCode, &scheme, &acc.Version, &acc.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	if scheme.Valid {
		acc.SchemeCode = scheme.String
	}
	return &acc, nil
}

func (s *AccountStore) Get(ctx context.Context, id int64) (*account.Account, error) {
	row := s.db.QueryRowContext(ctx, `select`+accountColumns+` from accounts where account_id=$1`, id)
	return scanAccount(row)
}

func (s *AccountStore) Exists(ctx context.Context, number string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `select exists(select 1 from accounts where number=$1)`, number).Scan(&exists)
	return exists, err
}

func (s *AccountStore) Create(ctx context.Context, acc *account.Account) error {
	return s.db.QueryRowContext(ctx, `
		insert into accounts(
			name, number, customer_id, type, tier, status, currency,
			balance, lien_amount, total_lodgements, total_withdrawals,
			restricted, pin_hash, bank_code, scheme_code, version, created_at
		) values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,nullif($15,''),1,$16)
		returning account_id, version
	`,
		acc.Name, acc.Number, acc.CustomerID, acc.Type, acc.Tier, acc.Status,
		acc.Currency, acc.Balance, acc.LienAmount, acc.TotalLodgements,
		acc.TotalWithdrawals, acc.Restricted, acc.PinHash, acc.BankCode,
		acc.SchemeCode, acc.CreatedAt,
	).Scan(&acc.ID, &acc.Version)
}

const saveAccountSQL = `
	update accounts set
		name=$3, type=$4, tier=$5, status=$6,
		balance=$7, lien_amount=$8, total_lodgements=$9, total_withdrawals=$10,
		restricted=$11, pin_hash=$12, scheme_code=nullif($13,''),
		version = version + 1
	where account_id=$1 and version=$2`

func saveArgs(acc *account.Account) []any {
	return []any{
		acc.ID, acc.Version, acc.Name, acc.Type, acc.Tier, acc.Status,
		acc.Balance, acc.LienAmount, acc.TotalLodgements, acc.TotalWithdrawals,
		acc.Restricted, acc.PinHash, acc.SchemeCode,
	}
}

// Save commits a mutated account. A version miss means someone else won the
// read-modify-write race and surfaces as ErrConflict.
func (s *AccountStore) Save(ctx context.Context, acc *account.Account) error {
	res, err := s.db.ExecContext(ctx, saveAccountSQL, saveArgs(acc)...)
	if err != nil {
		return mapConflict(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		exists := false
		if err := s.db.QueryRowContext(ctx, `select exists(select 1 from accounts where account_id=$1)`, acc.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ledger.ErrAccountNotFound
		}
		return ledger.ErrConflict
	}
	acc.Version++
	return nil
}

// SavePair commits both sides of a transfer in a single database
// transaction, locking rows in ascending account id order so two concurrent
// opposite-direction transfers cannot deadlock.
func (s *AccountStore) SavePair(ctx context.Context, a, b *account.Account) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	ordered := []*account.Account{a, b}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	for _, acc := range ordered {
		var stored int64
		err := tx.QueryRowContext(ctx, `select version from accounts where account_id=$1 for update`, acc.ID).Scan(&stored)
		if errors.Is(err, sql.ErrNoRows) {
			return ledger.ErrAccountNotFound
		}
		if err != nil {
			return mapConflict(err)
		}
		if stored != acc.Version {
			return ledger.ErrConflict
		}
	}
	for _, acc := range ordered {
		if _, err := tx.ExecContext(ctx, saveAccountSQL, saveArgs(acc)...); err != nil {
			return mapConflict(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return mapConflict(err)
	}
	a.Version++
	b.Version++
	return nil
}

func (s *AccountStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `delete from accounts where account_id=$1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ledger.ErrAccountNotFound
	}
	return nil
}
