package account

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"transferd.org/internal/money"
)

func open(t *testing.T, tier Tier, balance money.Amount) *Account {
	t.Helper()
	acc, err := Open(OpenParams{
		Name:           "Ada",
		CustomerID:     uuid.New(),
		Type:           Savings,
		Tier:           tier,
		Currency:       "NGN",
		OpeningBalance: balance,
		Number:         "1234567890",
		PinHash:        "hash",
	}, time.Now())
	if err != nil {
		t.Fatalf("open account: %v", err)
	}
	return acc
}

func TestOpenMinimumBalance(t *testing.T) {
	_, err := Open(OpenParams{
		Tier:           TierThree,
		Currency:       "NGN",
		OpeningBalance: money.FromInt(1999),
		Number:         "1234567890",
	}, time.Now())
	if !errors.Is(err, ErrBelowMinimumBalance) {
		t.Fatalf("expected ErrBelowMinimumBalance, got %v", err)
	}

	// Exactly the minimum is accepted.
	if _, err := Open(OpenParams{
		Tier:           TierThree,
		Currency:       "NGN",
		OpeningBalance: money.FromInt(2000),
		Number:         "1234567890",
	}, time.Now()); err != nil {
		t.Fatalf("minimum balance rejected: %v", err)
	}

	// Other tiers have no minimum.
	if _, err := Open(OpenParams{
		Tier:           TierOne,
		Currency:       "NGN",
		OpeningBalance: money.Zero(),
		Number:         "1234567890",
	}, time.Now()); err != nil {
		t.Fatalf("tier one zero opening rejected: %v", err)
	}
}

func TestOpenInvalidNumber(t *testing.T) {
	for _, number := range []string{"", "123", "12345678901", "12345abcde"} {
		_, err := Open(OpenParams{Tier: TierOne, Number: number}, time.Now())
		if !errors.Is(err, ErrInvalidNumber) {
			t.Fatalf("number %q: expected ErrInvalidNumber, got %v", number, err)
		}
	}
}

func TestDepositLienAbsorption(t *testing.T) {
	acc := open(t, TierOne, money.FromInt(100))
	acc.LienAmount = money.FromInt(30)

	if err := acc.Deposit(money.FromInt(50), false); err != nil {
		t.Fatal(err)
	}
	if !acc.LienAmount.IsZero() {
		t.Fatalf("lien not cleared: %s", acc.LienAmount)
	}
	if !acc.Balance.Equal(money.FromInt(120)) {
		t.Fatalf("balance: got %s, want 120", acc.Balance)
	}
	// Lodgements record the gross amount.
	if !acc.TotalLodgements.Equal(money.FromInt(50)) {
		t.Fatalf("lodgements: got %s, want 50", acc.TotalLodgements)
	}
}

func TestDepositLienLargerThanAmount(t *testing.T) {
	acc := open(t, TierOne, money.FromInt(100))
	acc.LienAmount = money.FromInt(80)

	if err := acc.Deposit(money.FromInt(50), false); err != nil {
		t.Fatal(err)
	}
	if !acc.LienAmount.Equal(money.FromInt(30)) {
		t.Fatalf("lien: got %s, want 30", acc.LienAmount)
	}
	if !acc.Balance.Equal(money.FromInt(100)) {
		t.Fatalf("balance: got %s, want 100", acc.Balance)
	}
}

func TestDepositInactive(t *testing.T) {
	acc := open(t, TierOne, money.FromInt(100))
	acc.Status = StatusInactive
	if err := acc.Deposit(money.FromInt(10), false); !errors.Is(err, ErrInactive) {
		t.Fatalf("expected ErrInactive, got %v", err)
	}
}

func TestWithdrawPreconditionOrder(t *testing.T) {
	acc := open(t, TierOne, money.FromInt(100))
	acc.Status = StatusInactive
	acc.Restricted = true

	// Inactive wins over restricted.
	if err := acc.Withdraw(money.FromInt(10)); !errors.Is(err, ErrInactive) {
		t.Fatalf("expected ErrInactive, got %v", err)
	}

	acc.Status = StatusActive
	if err := acc.Withdraw(money.FromInt(10)); !errors.Is(err, ErrRestricted) {
		t.Fatalf("expected ErrRestricted, got %v", err)
	}

	acc.Restricted = false
	acc.LienAmount = money.FromInt(50)
	// Balance 100, lien 50: only 50 available.
	if err := acc.Withdraw(money.FromInt(60)); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if err := acc.Withdraw(money.FromInt(50)); err != nil {
		t.Fatal(err)
	}
	if !acc.Balance.Equal(money.FromInt(50)) {
		t.Fatalf("balance: got %s, want 50", acc.Balance)
	}
	if !acc.TotalWithdrawals.Equal(money.FromInt(50)) {
		t.Fatalf("withdrawals: got %s, want 50", acc.TotalWithdrawals)
	}
}

func TestTransferTo(t *testing.T) {
	src := open(t, TierOne, money.FromInt(500))
	dst := open(t, TierOne, money.FromInt(100))

	if err := src.TransferTo(money.FromInt(200), dst); err != nil {
		t.Fatal(err)
	}
	if !src.Balance.Equal(money.FromInt(300)) || !dst.Balance.Equal(money.FromInt(300)) {
		t.Fatalf("balances: src=%s dst=%s", src.Balance, dst.Balance)
	}
	// Target lodgements are bumped twice on transfers.
	if !dst.TotalLodgements.Equal(money.FromInt(400)) {
		t.Fatalf("target lodgements: got %s, want 400", dst.TotalLodgements)
	}
}

func TestTransferToFailureLeavesBothUntouched(t *testing.T) {
	src := open(t, TierOne, money.FromInt(100))
	dst := open(t, TierOne, money.Zero())

	if err := src.TransferTo(money.FromInt(200), dst); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if !src.Balance.Equal(money.FromInt(100)) || !dst.Balance.IsZero() {
		t.Fatalf("balances mutated: src=%s dst=%s", src.Balance, dst.Balance)
	}
	if err := src.TransferTo(money.FromInt(10), nil); !errors.Is(err, ErrNilTarget) {
		t.Fatalf("expected ErrNilTarget, got %v", err)
	}
}

func TestUpdatePartial(t *testing.T) {
	acc := open(t, TierOne, money.Zero())
	name := "Grace"
	tier := TierTwo
	acc.Update(&name, nil, &tier)
	if acc.Name != "Grace" || acc.Tier != TierTwo || acc.Type != Savings {
		t.Fatalf("unexpected state: %+v", acc)
	}
}

func TestAvailable(t *testing.T) {
	acc := open(t, TierOne, money.FromInt(100))
	acc.LienAmount = money.FromInt(40)
	if !acc.Available().Equal(money.FromInt(60)) {
		t.Fatalf("available: got %s, want 60", acc.Available())
	}
}
