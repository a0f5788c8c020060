package account

import (
	"time"

	"github.com/google/uuid"

	"transferd.org/internal/money"
)

type Type string

const (
	Savings Type = "savings"
	Current Type = "current"
)

type Tier string

const (
	TierOne   Tier = "tier_one"
	TierTwo   Tier = "tier_two"
	TierThree Tier = "tier_three"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusClosed   Status = "closed"
)

const defaultBankCode = "035"

// minimumOpeningBalances keys tier+currency combinations that require a
// minimum balance at account opening.
var minimumOpeningBalances = map[Tier]map[string]money.Amount{
	TierThree: {"NGN": money.FromInt(2000)},
}

// Account is the ledger entity. Balance changes only through Deposit,
// Withdraw, TransferTo and ApplyLien; persistence is the caller's concern.
type Account struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Number     string    `json:"number"`
	CustomerID uuid.UUID `json:"customer_id"`
	Type       Type      `json:"type"`
	Tier       Tier      `json:"tier"`
	Status     Status    `json:"status"`
	Currency   string    `json:"currency"`

	Balance          money.Amount `json:"balance"`
	LienAmount       money.Amount `json:"lien_amount"`
	TotalLodgements  money.Amount `json:"total_lodgements"`
	TotalWithdrawals money.Amount `json:"total_withdrawals"`

	// Restricted is the post-no-debit flag: all debits are blocked
	// regardless of balance.
	Restricted bool   `json:"restricted"`
	PinHash    string `json:"-"`
	BankCode   string `json:"bank_code"`
	SchemeCode string `json:"scheme_code,omitempty"`

	// Version is the optimistic concurrency token managed by the store.
	Version   int64     `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// OpenParams carries the attributes needed to open an account. PinHash must
// already be hashed; raw PINs never reach this package.
type OpenParams struct {
	Name           string
	CustomerID     uuid.UUID
	Type           Type
	Tier           Tier
	Currency       string
	OpeningBalance money.Amount
	Number         string
	PinHash        string
}

// Open constructs an active account, enforcing the tier/currency minimum
// opening balance and the account number format.
func Open(p OpenParams, now time.Time) (*Account, error) {
	if min, ok := minimumOpeningBalances[p.Tier][p.Currency]; ok && p.OpeningBalance.LessThan(min) {
		return nil, ErrBelowMinimumBalance
	}
	if !ValidNumber(p.Number) {
		return nil, ErrInvalidNumber
	}
	if p.OpeningBalance.IsNegative() {
		return nil, ErrInvalidAmount
	}
	return &Account{
		Name:       p.Name,
		Number:     p.Number,
		CustomerID: p.CustomerID,
		Type:       p.Type,
		Tier:       p.Tier,
		Status:     StatusActive,
		Currency:   p.Currency,
		Balance:    p.OpeningBalance,
		PinHash:    p.PinHash,
		BankCode:   defaultBankCode,
		CreatedAt:  now.UTC(),
	}, nil
}

// Available is the spendable balance: balance minus active lien. It is
// derived, never stored.
func (a *Account) Available() money.Amount {
	return a.Balance.Sub(a.LienAmount)
}

// Deposit credits the account. Any outstanding lien absorbs the credit first;
// TotalLodgements records the gross amount either way. isTransferLeg marks
// the credit half of a transfer.
func (a *Account) Deposit(amount money.Amount, isTransferLeg bool) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if err := a.requireActive(); err != nil {
		return err
	}
	deduction := a.deductLien(amount)
	a.Balance = a.Balance.Add(amount.Sub(deduction))
	a.TotalLodgements = a.TotalLodgements.Add(amount)
	if isTransferLeg {
		// Transfer credits count double in the lodgement total.
		a.TotalLodgements = a.TotalLodgements.Add(amount)
	}
	return nil
}

// Withdraw debits the account. Preconditions are checked in order: active,
// not restricted, sufficient available balance.
func (a *Account) Withdraw(amount money.Amount) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if err := a.requireActive(); err != nil {
		return err
	}
	if err := a.requireDebitable(); err != nil {
		return err
	}
	if a.Available().LessThan(amount) {
		return ErrInsufficientFunds
	}
	a.Balance = a.Balance.Sub(amount)
	a.TotalWithdrawals = a.TotalWithdrawals.Add(amount)
	return nil
}

// TransferTo moves amount from the account to target. The balance pre-check
// runs before any mutation so a failed transfer leaves both sides untouched.
// The target's lodgement counter is bumped a second time as transfer-specific
// bookkeeping.
func (a *Account) TransferTo(amount money.Amount, target *Account) error {
	if target == nil {
		return ErrNilTarget
	}
	if err := a.requireActive(); err != nil {
		return err
	}
	if err := a.requireDebitable(); err != nil {
		return err
	}
	if a.Balance.LessThan(amount) {
		return ErrInsufficientFunds
	}
	if err := a.Withdraw(amount); err != nil {
		return err
	}
	return target.Deposit(amount, true)
}

// ApplyLien places a hold against the balance. Callers must keep the
// lien <= balance invariant; the hold itself is not re-validated here.
func (a *Account) ApplyLien(amount money.Amount) error {
	if amount.IsNegative() {
		return ErrInvalidAmount
	}
	a.LienAmount = a.LienAmount.Add(amount)
	return nil
}

// deductLien consumes up to amount from the outstanding lien and returns the
// portion consumed.
func (a *Account) deductLien(amount money.Amount) money.Amount {
	deduction := money.Min(a.LienAmount, amount)
	a.LienAmount = a.LienAmount.Sub(deduction)
	return deduction
}

// UpdatePin replaces the stored PIN hash.
func (a *Account) UpdatePin(pinHash string) {
	a.PinHash = pinHash
}

// Update applies a partial profile update; nil fields are left unchanged.
func (a *Account) Update(name *string, typ *Type, tier *Tier) {
	if name != nil {
		a.Name = *name
	}
	if typ != nil {
		a.Type = *typ
	}
	if tier != nil {
		a.Tier = *tier
	}
}

func (a *Account) requireActive() error {
	if a.Status == StatusInactive || a.Status == StatusClosed {
		return ErrInactive
	}
	return nil
}

func (a *Account) requireDebitable() error {
	if a.Restricted {
		return ErrRestricted
	}
	return nil
}

// ValidNumber reports whether s is a well-formed account number: exactly ten
// ASCII digits.
func ValidNumber(s string) bool {
	if len(s) != 10 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Clone returns a deep copy; stores hand out clones so callers never alias
// persisted state.
func (a *Account) Clone() *Account {
	cp := *a
	return &cp
}
