package rules

import (
	"errors"
	"testing"

	"transferd.org/internal/account"
	"transferd.org/internal/money"
)

func tierOneSavings(balance int64) *account.Account {
	return &account.Account{
		Type:     account.Savings,
		Tier:     account.TierOne,
		Currency: "NGN",
		Balance:  money.FromInt(balance),
	}
}

func TestAppliesWildcards(t *testing.T) {
	acc := tierOneSavings(0)

	all := Rule{Kind: MaxBalance, Amount: money.FromInt(1)}
	if !all.Applies(acc) {
		t.Fatal("empty filter should match everything")
	}

	current := Rule{Kind: MaxBalance, AccountType: ptr(account.Current)}
	if current.Applies(acc) {
		t.Fatal("type filter should exclude savings")
	}

	usd := Rule{Kind: MaxBalance, Currency: "USD"}
	if usd.Applies(acc) {
		t.Fatal("currency filter should exclude NGN")
	}

	tierTwo := Rule{Kind: MaxBalance, Tier: ptr(account.TierTwo)}
	if tierTwo.Applies(acc) {
		t.Fatal("tier filter should exclude tier one")
	}
}

func TestMaxSingleDepositBoundary(t *testing.T) {
	r := Rule{Kind: MaxSingleDeposit, Amount: money.FromInt(50_000)}
	acc := tierOneSavings(0)

	atLimit := money.FromInt(50_000)
	if err := r.Check(Context{Account: acc, Deposit: &atLimit}); err != nil {
		t.Fatalf("deposit at the limit should pass: %v", err)
	}

	over := money.MustParse("50000.01")
	err := r.Check(Context{Account: acc, Deposit: &over})
	var v *Violation
	if !errors.As(err, &v) || v.Kind != MaxSingleDeposit {
		t.Fatalf("expected MaxSingleDeposit violation, got %v", err)
	}
}

func TestMaxBalanceIncludesProposedDeposit(t *testing.T) {
	r := Rule{Kind: MaxBalance, Amount: money.FromInt(300_000)}
	acc := tierOneSavings(299_000)

	small := money.FromInt(1_000)
	if err := r.Check(Context{Account: acc, Deposit: &small}); err != nil {
		t.Fatalf("deposit landing exactly at the cap should pass: %v", err)
	}

	big := money.FromInt(1_001)
	if err := r.Check(Context{Account: acc, Deposit: &big}); err == nil {
		t.Fatal("deposit pushing past the cap should violate")
	}
}

func TestRuleIgnoresAbsentFields(t *testing.T) {
	deposit := money.FromInt(1)
	withdrawalRule := Rule{Kind: MaxWithdrawal, Amount: money.Zero()}
	if err := withdrawalRule.Check(Context{Account: tierOneSavings(0), Deposit: &deposit}); err != nil {
		t.Fatalf("withdrawal rule should ignore a deposit context: %v", err)
	}

	depositRule := Rule{Kind: MaxSingleDeposit, Amount: money.Zero()}
	w := money.FromInt(1)
	if err := depositRule.Check(Context{Account: tierOneSavings(0), Withdrawal: &w}); err != nil {
		t.Fatalf("deposit rule should ignore a withdrawal context: %v", err)
	}
}

func TestValidatorFailFastOrder(t *testing.T) {
	v := NewValidator(
		Rule{Kind: MaxSingleDeposit, Amount: money.FromInt(10)},
		Rule{Kind: MaxBalance, Amount: money.FromInt(10)},
	)
	amount := money.FromInt(100)
	err := v.Validate(Context{Account: tierOneSavings(0), Deposit: &amount})

	var violation *Violation
	if !errors.As(err, &violation) {
		t.Fatalf("expected a violation, got %v", err)
	}
	// Both rules are violated; registration order decides which one reports.
	if violation.Kind != MaxSingleDeposit {
		t.Fatalf("expected the first registered rule, got %s", violation.Kind)
	}
}

func TestMaxMonthlyTransactions(t *testing.T) {
	r := Rule{Kind: MaxMonthlyTransactions, Count: 3}
	if err := r.Check(Context{Account: tierOneSavings(0), MonthlyTransactions: 2}); err != nil {
		t.Fatalf("below the monthly cap should pass: %v", err)
	}
	if err := r.Check(Context{Account: tierOneSavings(0), MonthlyTransactions: 3}); err == nil {
		t.Fatal("at the monthly cap should violate")
	}
}

func TestRequiresMonthlyCount(t *testing.T) {
	acc := tierOneSavings(0)
	v := NewValidator(Rule{Kind: MaxBalance, Amount: money.FromInt(1)})
	if v.RequiresMonthlyCount(acc) {
		t.Fatal("no monthly rule registered")
	}
	v = NewValidator(Rule{Kind: MaxMonthlyTransactions, Count: 5, Tier: ptr(account.TierTwo)})
	if v.RequiresMonthlyCount(acc) {
		t.Fatal("monthly rule does not apply to tier one")
	}
	v = NewValidator(Rule{Kind: MaxMonthlyTransactions, Count: 5})
	if !v.RequiresMonthlyCount(acc) {
		t.Fatal("monthly rule applies")
	}
}

func TestDefaultRuleSet(t *testing.T) {
	v := NewValidator(Default()...)

	over := money.FromInt(60_000)
	if err := v.Validate(Context{Account: tierOneSavings(0), Deposit: &over}); err == nil {
		t.Fatal("tier one deposit over 50k should violate")
	}

	// The same deposit is fine for tier two (limit 100k).
	tierTwo := tierOneSavings(0)
	tierTwo.Tier = account.TierTwo
	if err := v.Validate(Context{Account: tierTwo, Deposit: &over}); err != nil {
		t.Fatalf("tier two deposit under 100k should pass: %v", err)
	}

	// Tier three is unrestricted.
	tierThree := tierOneSavings(1_000_000)
	tierThree.Tier = account.TierThree
	huge := money.FromInt(10_000_000)
	if err := v.Validate(Context{Account: tierThree, Deposit: &huge}); err != nil {
		t.Fatalf("tier three should be unrestricted: %v", err)
	}
}
