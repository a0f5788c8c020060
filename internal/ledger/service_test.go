package ledger_test

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"

	"github.com/google/uuid"

	"transferd.org/internal/account"
	"transferd.org/internal/ledger"
	"transferd.org/internal/money"
	"transferd.org/internal/rules"
	"transferd.org/internal/store/memory"
)

type fixture struct {
	svc          *ledger.Service
	accounts     *memory.AccountStore
	transactions *memory.TransactionStore
}

func newFixture(t *testing.T, ruleSet ...rules.Rule) *fixture {
	t.Helper()
	accounts := memory.NewAccountStore()
	transactions := memory.NewTransactionStore()
	svc := ledger.NewService(
		accounts,
		transactions,
		rules.NewValidator(ruleSet...),
		ledger.NewNumberAllocator(rand.NewSource(1)),
	)
	return &fixture{svc: svc, accounts: accounts, transactions: transactions}
}

func (f *fixture) open(t *testing.T, tier account.Tier, opening int64) *account.Account {
	t.Helper()
	acc, err := f.svc.OpenAccount(context.Background(), ledger.OpenAccountParams{
		Name:           "Test",
		CustomerID:     uuid.New(),
		Type:           account.Savings,
		Tier:           tier,
		OpeningBalance: money.FromInt(opening),
		Pin:            "1234",
	})
	if err != nil {
		t.Fatalf("open account: %v", err)
	}
	return acc
}

func TestOpenAccount(t *testing.T) {
	f := newFixture(t)
	acc := f.open(t, account.TierOne, 100)

	if !account.ValidNumber(acc.Number) {
		t.Fatalf("bad account number %q", acc.Number)
	}
	if acc.Currency != "NGN" {
		t.Fatalf("currency should default to NGN, got %s", acc.Currency)
	}
	if acc.Status != account.StatusActive {
		t.Fatalf("new account should be active, got %s", acc.Status)
	}
	if acc.PinHash == "" || acc.PinHash == "1234" {
		t.Fatal("pin must be stored hashed")
	}
}

func TestOpenAccountRejectsBadPin(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.OpenAccount(context.Background(), ledger.OpenAccountParams{
		Name: "Test", CustomerID: uuid.New(), Tier: account.TierOne, Pin: "12",
	})
	if err == nil {
		t.Fatal("expected pin format error")
	}
}

func TestDepositSuccess(t *testing.T) {
	f := newFixture(t, rules.Default()...)
	acc := f.open(t, account.TierOne, 100)

	tx, err := f.svc.Deposit(context.Background(), acc.ID, money.FromInt(500), "1234")
	if err != nil {
		t.Fatal(err)
	}
	if tx.Status != ledger.StatusSuccess || tx.Type != ledger.TypeDeposit {
		t.Fatalf("unexpected transaction: %+v", tx)
	}
	if tx.Reference == "" {
		t.Fatal("missing reference")
	}

	bal, err := f.svc.Balance(context.Background(), acc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !bal.Balance.Equal(money.FromInt(600)) {
		t.Fatalf("balance: got %s, want 600", bal.Balance)
	}
}

func TestDepositViolationPersistsFailedTransaction(t *testing.T) {
	f := newFixture(t, rules.Default()...)
	acc := f.open(t, account.TierOne, 100)

	_, err := f.svc.Deposit(context.Background(), acc.ID, money.FromInt(60_000), "1234")
	var violation *rules.Violation
	if !errors.As(err, &violation) || violation.Kind != rules.MaxSingleDeposit {
		t.Fatalf("expected MaxSingleDeposit violation, got %v", err)
	}

	// Balance untouched, but the failed attempt is on record.
	bal, _ := f.svc.Balance(context.Background(), acc.ID)
	if !bal.Balance.Equal(money.FromInt(100)) {
		t.Fatalf("balance mutated on violation: %s", bal.Balance)
	}
	items, err := f.svc.Transactions(context.Background(), acc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Status != ledger.StatusFailed {
		t.Fatalf("expected one failed transaction, got %+v", items)
	}
}

func TestBadPinLeavesNoRecord(t *testing.T) {
	f := newFixture(t)
	acc := f.open(t, account.TierOne, 100)

	_, err := f.svc.Deposit(context.Background(), acc.ID, money.FromInt(10), "9999")
	if !errors.Is(err, ledger.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	items, _ := f.svc.Transactions(context.Background(), acc.ID)
	if len(items) != 0 {
		t.Fatalf("authorization failures must not create records, got %d", len(items))
	}
}

func TestWithdrawInsufficientFundsRecordsFailure(t *testing.T) {
	f := newFixture(t)
	acc := f.open(t, account.TierOne, 100)

	_, err := f.svc.Withdraw(context.Background(), acc.ID, money.FromInt(200), "1234")
	if !errors.Is(err, account.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	items, _ := f.svc.Transactions(context.Background(), acc.ID)
	if len(items) != 1 || items[0].Status != ledger.StatusFailed {
		t.Fatalf("expected one failed transaction, got %+v", items)
	}
}

func TestTransfer(t *testing.T) {
	f := newFixture(t)
	src := f.open(t, account.TierOne, 1000)
	dst := f.open(t, account.TierOne, 0)

	tx, err := f.svc.Transfer(context.Background(), src.ID, dst.ID, money.FromInt(600), "1234")
	if err != nil {
		t.Fatal(err)
	}
	if tx.Type != ledger.TypeTransfer || tx.TargetAccountID == nil || *tx.TargetAccountID != dst.ID {
		t.Fatalf("unexpected transaction: %+v", tx)
	}

	balSrc, _ := f.svc.Balance(context.Background(), src.ID)
	balDst, _ := f.svc.Balance(context.Background(), dst.ID)
	if !balSrc.Balance.Equal(money.FromInt(400)) || !balDst.Balance.Equal(money.FromInt(600)) {
		t.Fatalf("unexpected balances: src=%s dst=%s", balSrc.Balance, balDst.Balance)
	}

	// One shared record, visible from both sides.
	srcItems, _ := f.svc.Transactions(context.Background(), src.ID)
	dstItems, _ := f.svc.Transactions(context.Background(), dst.ID)
	if len(srcItems) != 1 || len(dstItems) != 1 || srcItems[0].Reference != dstItems[0].Reference {
		t.Fatalf("transfer should produce one shared record: src=%+v dst=%+v", srcItems, dstItems)
	}
}

func TestTransferErrorPrecedence(t *testing.T) {
	f := newFixture(t)
	src := f.open(t, account.TierOne, 100)

	// Unknown source: not found, even when ids match.
	if _, err := f.svc.Transfer(context.Background(), 999, 999, money.FromInt(10), "1234"); !errors.Is(err, ledger.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
	// Same account: rejected before target lookup.
	if _, err := f.svc.Transfer(context.Background(), src.ID, src.ID, money.FromInt(10), "1234"); !errors.Is(err, ledger.ErrSameAccountTransfer) {
		t.Fatalf("expected ErrSameAccountTransfer, got %v", err)
	}
	// Unknown target.
	if _, err := f.svc.Transfer(context.Background(), src.ID, 999, money.FromInt(10), "1234"); !errors.Is(err, ledger.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
	// Wrong pin, checked after both accounts resolve.
	dst := f.open(t, account.TierOne, 0)
	if _, err := f.svc.Transfer(context.Background(), src.ID, dst.ID, money.FromInt(10), "0000"); !errors.Is(err, ledger.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	// None of the failures above left a record.
	items, _ := f.svc.Transactions(context.Background(), src.ID)
	if len(items) != 0 {
		t.Fatalf("expected no records, got %d", len(items))
	}
}

func TestConcurrentTransfersConserveMoney(t *testing.T) {
	f := newFixture(t)
	src := f.open(t, account.TierOne, 10_000)
	dst := f.open(t, account.TierOne, 0)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Conflicting commits fail; money must still be conserved.
			_, _ = f.svc.Transfer(context.Background(), src.ID, dst.ID, money.FromInt(100), "1234")
		}()
	}
	wg.Wait()

	balSrc, _ := f.svc.Balance(context.Background(), src.ID)
	balDst, _ := f.svc.Balance(context.Background(), dst.ID)
	if !balSrc.Balance.Add(balDst.Balance).Equal(money.FromInt(10_000)) {
		t.Fatalf("conservation violated: src=%s dst=%s", balSrc.Balance, balDst.Balance)
	}
}

func TestMonthlyTransactionLimit(t *testing.T) {
	f := newFixture(t, rules.Rule{Kind: rules.MaxMonthlyTransactions, Count: 2})
	acc := f.open(t, account.TierOne, 0)

	for i := 0; i < 2; i++ {
		if _, err := f.svc.Deposit(context.Background(), acc.ID, money.FromInt(10), "1234"); err != nil {
			t.Fatalf("deposit %d: %v", i, err)
		}
	}
	_, err := f.svc.Deposit(context.Background(), acc.ID, money.FromInt(10), "1234")
	var violation *rules.Violation
	if !errors.As(err, &violation) || violation.Kind != rules.MaxMonthlyTransactions {
		t.Fatalf("expected MaxMonthlyTransactions violation, got %v", err)
	}
}

func TestChangePin(t *testing.T) {
	f := newFixture(t)
	acc := f.open(t, account.TierOne, 100)

	if err := f.svc.ChangePin(context.Background(), acc.ID, "0000", "5678"); !errors.Is(err, ledger.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := f.svc.ChangePin(context.Background(), acc.ID, "1234", "5678"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Deposit(context.Background(), acc.ID, money.FromInt(10), "1234"); !errors.Is(err, ledger.ErrInvalidCredentials) {
		t.Fatal("old pin still accepted")
	}
	if _, err := f.svc.Deposit(context.Background(), acc.ID, money.FromInt(10), "5678"); err != nil {
		t.Fatalf("new pin rejected: %v", err)
	}
}

func TestPlaceLien(t *testing.T) {
	f := newFixture(t)
	acc := f.open(t, account.TierOne, 100)

	if _, err := f.svc.PlaceLien(context.Background(), acc.ID, money.FromInt(150)); !errors.Is(err, account.ErrLienExceedsBalance) {
		t.Fatalf("expected ErrLienExceedsBalance, got %v", err)
	}
	updated, err := f.svc.PlaceLien(context.Background(), acc.ID, money.FromInt(60))
	if err != nil {
		t.Fatal(err)
	}
	if !updated.Available().Equal(money.FromInt(40)) {
		t.Fatalf("available: got %s, want 40", updated.Available())
	}
	// Available funds now gate withdrawals.
	if _, err := f.svc.Withdraw(context.Background(), acc.ID, money.FromInt(50), "1234"); !errors.Is(err, account.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestTransactionScopedLookup(t *testing.T) {
	f := newFixture(t)
	src := f.open(t, account.TierOne, 1000)
	dst := f.open(t, account.TierOne, 0)
	other := f.open(t, account.TierOne, 0)

	tx, err := f.svc.Transfer(context.Background(), src.ID, dst.ID, money.FromInt(100), "1234")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.Transaction(context.Background(), src.ID, tx.ID); err != nil {
		t.Fatalf("source lookup: %v", err)
	}
	if _, err := f.svc.Transaction(context.Background(), dst.ID, tx.ID); err != nil {
		t.Fatalf("target lookup: %v", err)
	}
	if _, err := f.svc.Transaction(context.Background(), other.ID, tx.ID); !errors.Is(err, ledger.ErrTransactionNotFound) {
		t.Fatalf("unrelated account must not see the record, got %v", err)
	}
}

func TestUpdateAccount(t *testing.T) {
	f := newFixture(t)
	acc := f.open(t, account.TierOne, 0)

	name := "Renamed"
	tier := account.TierTwo
	updated, err := f.svc.UpdateAccount(context.Background(), acc.ID, &name, nil, &tier)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Name != "Renamed" || updated.Tier != account.TierTwo || updated.Type != account.Savings {
		t.Fatalf("unexpected state: %+v", updated)
	}
}
