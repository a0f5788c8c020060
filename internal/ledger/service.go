package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"transferd.org/internal/account"
	"transferd.org/internal/money"
	"transferd.org/internal/obs"
	"transferd.org/internal/pin"
	"transferd.org/internal/rules"
)

const defaultCurrency = "NGN"

// EventPublisher receives successfully committed transactions, e.g. for
// publication to a message broker. Publish failures do not affect the
// committed ledger state.
type EventPublisher interface {
	PublishTransaction(ctx context.Context, tx Transaction) error
}

// Service orchestrates account mutations: it loads accounts, authorizes via
// PIN, validates the proposed mutation against the rule set, applies the
// mutation and persists both the account and the finalized transaction
// record. Any failure after the transaction record exists still persists it,
// marked failed.
type Service struct {
	accounts     AccountStore
	transactions TransactionStore
	validator    *rules.Validator
	numbers      *NumberAllocator
	publisher    EventPublisher
	now          func() time.Time
}

// Option configures Service behavior.
type Option func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithPublisher attaches an event publisher for committed transactions.
func WithPublisher(p EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// NewService wires the orchestrator.
func NewService(accounts AccountStore, transactions TransactionStore, validator *rules.Validator, numbers *NumberAllocator, opts ...Option) *Service {
	s := &Service{
		accounts:     accounts,
		transactions: transactions,
		validator:    validator,
		numbers:      numbers,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenAccountParams carries everything needed to open an account. Currency
// defaults to NGN when empty.
type OpenAccountParams struct {
	Name           string
	CustomerID     uuid.UUID
	Type           account.Type
	Tier           account.Tier
	Currency       string
	OpeningBalance money.Amount
	Pin            string
}

// OpenAccount allocates an account number, hashes the PIN and persists a new
// active account. The tier/currency minimum opening balance is enforced by
// the account constructor.
func (s *Service) OpenAccount(ctx context.Context, p OpenAccountParams) (*account.Account, error) {
	pinHash, err := pin.Hash(p.Pin)
	if err != nil {
		return nil, err
	}
	currency := p.Currency
	if currency == "" {
		currency = defaultCurrency
	}
	number, err := s.numbers.Allocate(ctx, s.accounts)
	if err != nil {
		return nil, err
	}
	acc, err := account.Open(account.OpenParams{
		Name:           p.Name,
		CustomerID:     p.CustomerID,
		Type:           p.Type,
		Tier:           p.Tier,
		Currency:       currency,
		OpeningBalance: p.OpeningBalance,
		Number:         number,
		PinHash:        pinHash,
	}, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.accounts.Create(ctx, acc); err != nil {
		return nil, s.persistErr(err)
	}
	return acc, nil
}

// Deposit credits an account. The returned transaction records the gross
// amount even when part of it is absorbed by an outstanding lien.
func (s *Service) Deposit(ctx context.Context, accountID int64, amount money.Amount, rawPin string) (Transaction, error) {
	acc, err := s.authorize(ctx, accountID, rawPin)
	if err != nil {
		return Transaction{}, err
	}

	tx, err := NewDeposit(accountID, amount, s.now())
	if err != nil {
		return Transaction{}, err
	}

	vctx := rules.Context{Account: acc, Deposit: &amount}
	if err := s.validate(ctx, acc, &vctx); err != nil {
		return tx, s.fail(ctx, &tx, err)
	}
	if err := acc.Deposit(amount, false); err != nil {
		return tx, s.fail(ctx, &tx, err)
	}
	if err := s.accounts.Save(ctx, acc); err != nil {
		return tx, s.fail(ctx, &tx, s.persistErr(err))
	}
	return tx, s.commit(ctx, &tx)
}

// Withdraw debits an account.
func (s *Service) Withdraw(ctx context.Context, accountID int64, amount money.Amount, rawPin string) (Transaction, error) {
	acc, err := s.authorize(ctx, accountID, rawPin)
	if err != nil {
		return Transaction{}, err
	}

	tx, err := NewWithdrawal(accountID, amount, s.now())
	if err != nil {
		return Transaction{}, err
	}

	vctx := rules.Context{Account: acc, Withdrawal: &amount}
	if err := s.validate(ctx, acc, &vctx); err != nil {
		return tx, s.fail(ctx, &tx, err)
	}
	if err := acc.Withdraw(amount); err != nil {
		return tx, s.fail(ctx, &tx, err)
	}
	if err := s.accounts.Save(ctx, acc); err != nil {
		return tx, s.fail(ctx, &tx, s.persistErr(err))
	}
	return tx, s.commit(ctx, &tx)
}

// Transfer moves funds between two accounts as one logical operation with a
// single transfer-typed transaction referencing both. Rule validation runs
// against the source; both accounts are persisted atomically.
func (s *Service) Transfer(ctx context.Context, fromID, toID int64, amount money.Amount, rawPin string) (Transaction, error) {
	from, err := s.accounts.Get(ctx, fromID)
	if err != nil {
		return Transaction{}, s.persistErr(err)
	}
	if fromID == toID {
		return Transaction{}, ErrSameAccountTransfer
	}
	to, err := s.accounts.Get(ctx, toID)
	if err != nil {
		return Transaction{}, s.persistErr(err)
	}
	if !pin.Verify(from.PinHash, rawPin) {
		return Transaction{}, ErrInvalidCredentials
	}

	tx, err := NewTransfer(fromID, amount, toID, s.now())
	if err != nil {
		return Transaction{}, err
	}

	vctx := rules.Context{Account: from, Withdrawal: &amount}
	if err := s.validate(ctx, from, &vctx); err != nil {
		return tx, s.fail(ctx, &tx, err)
	}
	if err := from.TransferTo(amount, to); err != nil {
		return tx, s.fail(ctx, &tx, err)
	}
	if err := s.accounts.SavePair(ctx, from, to); err != nil {
		return tx, s.fail(ctx, &tx, s.persistErr(err))
	}
	return tx, s.commit(ctx, &tx)
}

// ChangePin rotates the PIN after verifying the current one.
func (s *Service) ChangePin(ctx context.Context, accountID int64, currentPin, newPin string) error {
	acc, err := s.authorize(ctx, accountID, currentPin)
	if err != nil {
		return err
	}
	hash, err := pin.Hash(newPin)
	if err != nil {
		return err
	}
	acc.UpdatePin(hash)
	if err := s.accounts.Save(ctx, acc); err != nil {
		return s.persistErr(err)
	}
	return nil
}

// Authenticate verifies an account's PIN without mutating anything. It backs
// token issuance in the service layer.
func (s *Service) Authenticate(ctx context.Context, accountID int64, rawPin string) (*account.Account, error) {
	return s.authorize(ctx, accountID, rawPin)
}

// BalanceSummary is the read-model for balance queries.
type BalanceSummary struct {
	AccountID int64        `json:"account_id"`
	Currency  string       `json:"currency"`
	Balance   money.Amount `json:"balance"`
	Lien      money.Amount `json:"lien_amount"`
	Available money.Amount `json:"available_balance"`
}

// Balance returns the nominal, held and available balance of an account.
func (s *Service) Balance(ctx context.Context, accountID int64) (BalanceSummary, error) {
	acc, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return BalanceSummary{}, s.persistErr(err)
	}
	return BalanceSummary{
		AccountID: acc.ID,
		Currency:  acc.Currency,
		Balance:   acc.Balance,
		Lien:      acc.LienAmount,
		Available: acc.Available(),
	}, nil
}

// Account returns the account by id.
func (s *Service) Account(ctx context.Context, accountID int64) (*account.Account, error) {
	acc, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return nil, s.persistErr(err)
	}
	return acc, nil
}

// Transactions returns the account's full movement history, oldest first.
func (s *Service) Transactions(ctx context.Context, accountID int64) ([]Transaction, error) {
	if _, err := s.accounts.Get(ctx, accountID); err != nil {
		return nil, s.persistErr(err)
	}
	items, err := s.transactions.ListForAccount(ctx, accountID)
	if err != nil {
		return nil, s.persistErr(err)
	}
	return items, nil
}

// Transaction returns one transaction, scoped to an account it references.
func (s *Service) Transaction(ctx context.Context, accountID, txID int64) (*Transaction, error) {
	tx, err := s.transactions.Get(ctx, txID)
	if err != nil {
		return nil, s.persistErr(err)
	}
	if tx.AccountID != accountID && (tx.TargetAccountID == nil || *tx.TargetAccountID != accountID) {
		return nil, ErrTransactionNotFound
	}
	return tx, nil
}

// UpdateAccount applies a partial profile update; nil fields stay unchanged.
func (s *Service) UpdateAccount(ctx context.Context, accountID int64, name *string, typ *account.Type, tier *account.Tier) (*account.Account, error) {
	acc, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return nil, s.persistErr(err)
	}
	acc.Update(name, typ, tier)
	if err := s.accounts.Save(ctx, acc); err != nil {
		return nil, s.persistErr(err)
	}
	return acc, nil
}

// PlaceLien places a hold against the account's balance. The hold may not
// exceed the current balance.
func (s *Service) PlaceLien(ctx context.Context, accountID int64, amount money.Amount) (*account.Account, error) {
	acc, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return nil, s.persistErr(err)
	}
	if acc.LienAmount.Add(amount).GreaterThan(acc.Balance) {
		return nil, account.ErrLienExceedsBalance
	}
	if err := acc.ApplyLien(amount); err != nil {
		return nil, err
	}
	if err := s.accounts.Save(ctx, acc); err != nil {
		return nil, s.persistErr(err)
	}
	return acc, nil
}

// authorize loads the account and verifies its PIN. Failures here precede
// transaction creation, so no record is produced.
func (s *Service) authorize(ctx context.Context, accountID int64, rawPin string) (*account.Account, error) {
	acc, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return nil, s.persistErr(err)
	}
	if !pin.Verify(acc.PinHash, rawPin) {
		return nil, ErrInvalidCredentials
	}
	return acc, nil
}

// validate runs the rule engine against the pre-mutation account, fetching
// the monthly transaction count only when a rule needs it.
func (s *Service) validate(ctx context.Context, acc *account.Account, vctx *rules.Context) error {
	if s.validator == nil {
		return nil
	}
	if s.validator.RequiresMonthlyCount(acc) {
		n, err := s.transactions.CountForAccountSince(ctx, acc.ID, startOfMonth(s.now()))
		if err != nil {
			return s.persistErr(err)
		}
		vctx.MonthlyTransactions = n
	}
	return s.validator.Validate(*vctx)
}

// fail finalizes the transaction as failed, persists it best-effort for
// audit, and re-surfaces the originating error.
func (s *Service) fail(ctx context.Context, tx *Transaction, cause error) error {
	tx.MarkFailed()
	if err := s.transactions.Append(ctx, tx); err != nil {
		obs.LogRequest(map[string]any{
			"level":     "warn",
			"msg":       "failed to persist failed transaction",
			"reference": tx.Reference,
			"err":       err.Error(),
		})
	}
	obs.ObserveTransaction(string(tx.Type), string(tx.Status))
	return cause
}

// commit finalizes the transaction as successful and persists it. The
// account mutation is already committed at this point.
func (s *Service) commit(ctx context.Context, tx *Transaction) error {
	tx.MarkSuccess()
	if err := s.transactions.Append(ctx, tx); err != nil {
		return s.persistErr(err)
	}
	obs.ObserveTransaction(string(tx.Type), string(tx.Status))
	if s.publisher != nil {
		if err := s.publisher.PublishTransaction(ctx, *tx); err != nil {
			obs.LogRequest(map[string]any{
				"level":     "warn",
				"msg":       "transaction event publish failed",
				"reference": tx.Reference,
				"err":       err.Error(),
			})
		}
	}
	return nil
}

// persistErr keeps sentinel outcomes intact and wraps everything else as an
// infrastructure fault.
func (s *Service) persistErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrAccountNotFound),
		errors.Is(err, ErrTransactionNotFound),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrPersistence):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
}

func startOfMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
