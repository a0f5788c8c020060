// smoke-ledger exercises a full account lifecycle against the in-memory
// stores: open two accounts, deposit, withdraw, transfer, and verify that
// money is conserved.
package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"transferd.org/internal/account"
	"transferd.org/internal/ledger"
	"transferd.org/internal/money"
	"transferd.org/internal/rules"
	"transferd.org/internal/store/memory"
)

func main() {
	svc := ledger.NewService(
		memory.NewAccountStore(),
		memory.NewTransactionStore(),
		rules.NewValidator(rules.Default()...),
		ledger.NewNumberAllocator(rand.NewSource(time.Now().UnixNano())),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	accA, err := svc.OpenAccount(ctx, ledger.OpenAccountParams{
		Name:           "Smoke A",
		CustomerID:     uuid.New(),
		Type:           account.Savings,
		Tier:           account.TierOne,
		OpeningBalance: money.FromInt(1_000),
		Pin:            "1234",
	})
	if err != nil {
		log.Fatalf("open account A: %v", err)
	}
	accB, err := svc.OpenAccount(ctx, ledger.OpenAccountParams{
		Name:           "Smoke B",
		CustomerID:     uuid.New(),
		Type:           account.Savings,
		Tier:           account.TierOne,
		OpeningBalance: money.Zero(),
		Pin:            "4321",
	})
	if err != nil {
		log.Fatalf("open account B: %v", err)
	}

	if _, err := svc.Deposit(ctx, accA.ID, money.FromInt(500), "1234"); err != nil {
		log.Fatalf("deposit: %v", err)
	}
	if _, err := svc.Withdraw(ctx, accA.ID, money.FromInt(200), "1234"); err != nil {
		log.Fatalf("withdraw: %v", err)
	}
	if _, err := svc.Transfer(ctx, accA.ID, accB.ID, money.FromInt(420), "1234"); err != nil {
		log.Fatalf("transfer: %v", err)
	}

	balA, err := svc.Balance(ctx, accA.ID)
	if err != nil {
		log.Fatalf("balance A: %v", err)
	}
	balB, err := svc.Balance(ctx, accB.ID)
	if err != nil {
		log.Fatalf("balance B: %v", err)
	}

	total := balA.Balance.Add(balB.Balance)
	if !total.Equal(money.FromInt(1_300)) {
		log.Fatalf("ledger conservation failed: %s + %s", balA.Balance, balB.Balance)
	}
	if !balA.Balance.Equal(money.FromInt(880)) || !balB.Balance.Equal(money.FromInt(420)) {
		log.Fatalf("unexpected balances: A=%s B=%s", balA.Balance, balB.Balance)
	}

	fmt.Printf("ledger smoke test passed: accounts=%s,%s\n", accA.Number, accB.Number)
}
