// Package rules implements the tiered limit checks evaluated before any
// balance mutation. A Rule is immutable configuration data: a kind, a
// threshold and an applicability filter in which nil/empty fields match
// everything. The active rule set is fixed at validator construction.
package rules

import (
	"fmt"

	"transferd.org/internal/account"
	"transferd.org/internal/money"
)

type Kind string

const (
	MaxBalance             Kind = "max_balance"
	MaxSingleDeposit       Kind = "max_single_deposit"
	MaxWithdrawal          Kind = "max_withdrawal"
	MaxMonthlyTransactions Kind = "max_monthly_transactions"
	MinBalance             Kind = "min_balance"
)

// Violation is returned when a mutation would break a rule. It is an expected
// business outcome, not a system fault.
type Violation struct {
	Kind    Kind
	Message string
}

func (v *Violation) Error() string { return v.Message }

func violationf(kind Kind, format string, args ...any) *Violation {
	return &Violation{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Rule is one tagged limit variant. Amount carries the threshold for
// money-valued kinds, Count for MaxMonthlyTransactions.
type Rule struct {
	Kind        Kind
	AccountType *account.Type
	Tier        *account.Tier
	Currency    string
	Amount      money.Amount
	Count       int
}

// Applies reports whether the rule's filter matches the account. A nil
// type/tier or empty currency is a wildcard.
func (r Rule) Applies(acc *account.Account) bool {
	if r.AccountType != nil && *r.AccountType != acc.Type {
		return false
	}
	if r.Tier != nil && *r.Tier != acc.Tier {
		return false
	}
	if r.Currency != "" && r.Currency != acc.Currency {
		return false
	}
	return true
}

// Context is the ephemeral per-operation input to validation: the account in
// its current, pre-mutation state plus the proposed deltas. A rule whose
// relevant field is absent is a no-op for that invocation.
type Context struct {
	Account             *account.Account
	Deposit             *money.Amount
	Withdrawal          *money.Amount
	MonthlyTransactions int
}

// Check evaluates the rule against the context.
func (r Rule) Check(c Context) error {
	switch r.Kind {
	case MaxSingleDeposit:
		if c.Deposit != nil && c.Deposit.GreaterThan(r.Amount) {
			return violationf(r.Kind, "deposit exceeds the single-deposit limit of %s", r.Amount)
		}
	case MaxBalance:
		projected := c.Account.Balance
		if c.Deposit != nil {
			projected = projected.Add(*c.Deposit)
		}
		if projected.GreaterThan(r.Amount) {
			return violationf(r.Kind, "balance would exceed the maximum of %s", r.Amount)
		}
	case MaxWithdrawal:
		if c.Withdrawal != nil && c.Withdrawal.GreaterThan(r.Amount) {
			return violationf(r.Kind, "withdrawal exceeds the single-withdrawal limit of %s", r.Amount)
		}
	case MaxMonthlyTransactions:
		if r.Count > 0 && c.MonthlyTransactions >= r.Count {
			return violationf(r.Kind, "monthly transaction limit of %d reached", r.Count)
		}
	case MinBalance:
		if c.Withdrawal != nil {
			if c.Account.Balance.Sub(*c.Withdrawal).LessThan(r.Amount) {
				return violationf(r.Kind, "balance may not drop below %s", r.Amount)
			}
		} else if c.Deposit == nil && c.Account.Balance.LessThan(r.Amount) {
			return violationf(r.Kind, "balance is below the minimum of %s", r.Amount)
		}
	}
	return nil
}

// Validator evaluates rules fail-fast in registration order against a
// mutation in progress; the account is never tentatively mutated.
type Validator struct {
	rules []Rule
}

func NewValidator(rules ...Rule) *Validator {
	return &Validator{rules: rules}
}

// Validate runs every applicable rule in order and returns the first
// *Violation encountered, or nil.
func (v *Validator) Validate(c Context) error {
	for _, r := range v.rules {
		if !r.Applies(c.Account) {
			continue
		}
		if err := r.Check(c); err != nil {
			return err
		}
	}
	return nil
}

// RequiresMonthlyCount reports whether any applicable rule needs the
// account's transaction count for the current month.
func (v *Validator) RequiresMonthlyCount(acc *account.Account) bool {
	for _, r := range v.rules {
		if r.Kind == MaxMonthlyTransactions && r.Applies(acc) {
			return true
		}
	}
	return false
}

func ptr[T any](v T) *T { return &v }

// Default returns the stock NGN rule set. Tier three savings and current
// accounts are unrestricted.
func Default() []Rule {
	savings := ptr(account.Savings)
	one := ptr(account.TierOne)
	two := ptr(account.TierTwo)
	return []Rule{
		{Kind: MaxSingleDeposit, AccountType: savings, Tier: one, Currency: "NGN", Amount: money.FromInt(50_000)},
		{Kind: MaxBalance, AccountType: savings, Tier: one, Currency: "NGN", Amount: money.FromInt(300_000)},
		{Kind: MaxSingleDeposit, AccountType: savings, Tier: two, Currency: "NGN", Amount: money.FromInt(100_000)},
		{Kind: MaxBalance, AccountType: savings, Tier: two, Currency: "NGN", Amount: money.FromInt(500_000)},
	}
}
