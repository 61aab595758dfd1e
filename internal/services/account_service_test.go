package services

import (
	"context"
	"errors"
	"testing"

	"boxyledger/internal/core"
)

// Create normalizes credit balances to the negative debt convention no
// matter which sign the caller used.
func TestCreateNormalizesCreditBalance(t *testing.T) {
	ctx := context.Background()
	store, _, accounts := newFixture(t)

	a, err := accounts.Create(ctx, core.Account{
		Name:     "CardX",
		Type:     "信用账户",
		Balance:  core.Cents(50000),
		IsCredit: true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.Balance.Cents != -50000 {
		t.Fatalf("expected -50000, got %d", a.Balance.Cents)
	}
	got := balance(t, store, a.ID)
	if got != -50000 {
		t.Fatalf("stored balance %d", got)
	}

	// non-credit accounts keep their sign
	b, err := accounts.Create(ctx, core.Account{Name: "Wallet", Type: "现金账户", Balance: core.Cents(50000)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.Balance.Cents != 50000 {
		t.Fatalf("non-credit balance flipped: %d", b.Balance.Cents)
	}
}

func TestCreateRejectsBlankName(t *testing.T) {
	_, _, accounts := newFixture(t)
	_, err := accounts.Create(context.Background(), core.Account{Name: "  ", Type: "现金账户"})
	if !errors.Is(err, core.ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}

// Scenario C: repaying 150 from a 200 wallet against 500 of card debt
// leaves the wallet at 50 and the card at -350.
func TestRepay(t *testing.T) {
	ctx := context.Background()
	store, _, accounts := newFixture(t)
	wallet := mustAccount(t, store, "Wallet", 20000, false)
	card := mustAccount(t, store, "CardX", -50000, true)

	if err := accounts.Repay(ctx, card.ID, wallet.ID, core.Cents(15000)); err != nil {
		t.Fatalf("repay: %v", err)
	}
	if got := balance(t, store, wallet.ID); got != 5000 {
		t.Fatalf("wallet: expected 5000, got %d", got)
	}
	if got := balance(t, store, card.ID); got != -35000 {
		t.Fatalf("card: expected -35000, got %d", got)
	}
}

// P4: the sum of the two balances is unchanged by a repayment.
func TestRepayConservesTotal(t *testing.T) {
	ctx := context.Background()
	store, _, accounts := newFixture(t)
	wallet := mustAccount(t, store, "Wallet", 30000, false)
	card := mustAccount(t, store, "CardX", -12300, true)
	before := balance(t, store, wallet.ID) + balance(t, store, card.ID)

	if err := accounts.Repay(ctx, card.ID, wallet.ID, core.Cents(123)); err != nil {
		t.Fatalf("repay: %v", err)
	}
	after := balance(t, store, wallet.ID) + balance(t, store, card.ID)
	if before != after {
		t.Fatalf("total drifted: before=%d after=%d", before, after)
	}
}

func TestRepayValidation(t *testing.T) {
	ctx := context.Background()
	store, _, accounts := newFixture(t)
	wallet := mustAccount(t, store, "Wallet", 10000, false)
	other := mustAccount(t, store, "Savings", 10000, false)
	card := mustAccount(t, store, "CardX", -50000, true)
	card2 := mustAccount(t, store, "CardY", -1000, true)

	cases := []struct {
		name            string
		credit, payment int64
		amount          int64
		err             error
	}{
		{"same account", card.ID, card.ID, 100, core.ErrInvalidTransfer},
		{"zero amount", card.ID, wallet.ID, 0, core.ErrInvalidAmount},
		{"negative amount", card.ID, wallet.ID, -100, core.ErrInvalidAmount},
		{"target not credit", other.ID, wallet.ID, 100, core.ErrInvalidTransfer},
		{"source is credit", card.ID, card2.ID, 100, core.ErrInvalidTransfer},
		{"payment too small", card.ID, wallet.ID, 10001, core.ErrInsufficientBalance},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := accounts.Repay(ctx, tc.credit, tc.payment, core.Cents(tc.amount))
			if !errors.Is(err, tc.err) {
				t.Fatalf("expected %v, got %v", tc.err, err)
			}
		})
	}

	// nothing above may have moved money
	if got := balance(t, store, wallet.ID); got != 10000 {
		t.Fatalf("wallet mutated: %d", got)
	}
	if got := balance(t, store, card.ID); got != -50000 {
		t.Fatalf("card mutated: %d", got)
	}
}

func TestDefaultRepayment(t *testing.T) {
	_, _, accounts := newFixture(t)
	card := core.Account{Name: "CardX", IsCredit: true, Balance: core.Cents(-35000)}
	if got := accounts.DefaultRepayment(card); got.Cents != 35000 {
		t.Fatalf("expected 35000, got %d", got.Cents)
	}
	clean := core.Account{Name: "CardY", IsCredit: true}
	if got := accounts.DefaultRepayment(clean); got.Cents != 0 {
		t.Fatalf("expected 0, got %d", got.Cents)
	}
}

func TestDeleteAccountInUse(t *testing.T) {
	ctx := context.Background()
	store, ledger, accounts := newFixture(t)
	wallet := mustAccount(t, store, "Wallet", 10000, false)

	rec, err := ledger.Save(ctx, RecordDraft{AmountInput: "5", Type: core.Expense, AccountID: wallet.ID})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := accounts.Delete(ctx, wallet.ID); !errors.Is(err, core.ErrAccountInUse) {
		t.Fatalf("expected ErrAccountInUse, got %v", err)
	}

	if err := ledger.Delete(ctx, rec); err != nil {
		t.Fatalf("delete record: %v", err)
	}
	if err := accounts.Delete(ctx, wallet.ID); err != nil {
		t.Fatalf("delete account: %v", err)
	}
}

func TestRenameType(t *testing.T) {
	ctx := context.Background()
	store, _, accounts := newFixture(t)
	mustAccount(t, store, "Wallet", 0, false)

	if err := accounts.RenameType(ctx, "现金账户", "  "); err == nil {
		t.Fatalf("expected error for blank type")
	}
	if err := accounts.RenameType(ctx, "现金账户", "现金账户"); err == nil {
		t.Fatalf("expected error for unchanged type")
	}
	if err := accounts.RenameType(ctx, "现金账户", "零钱"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	all, _ := store.ListAccounts(ctx)
	if len(all) != 1 || all[0].Type != "零钱" {
		t.Fatalf("rename not applied: %+v", all)
	}
}

func TestSeedDefaultAccounts(t *testing.T) {
	ctx := context.Background()
	store, _, accounts := newFixture(t)

	if err := accounts.SeedDefaults(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}
	all, _ := store.ListAccounts(ctx)
	if len(all) != len(core.DefaultAccounts()) {
		t.Fatalf("expected %d accounts, got %d", len(core.DefaultAccounts()), len(all))
	}

	// idempotent: a second run adds nothing
	if err := accounts.SeedDefaults(ctx); err != nil {
		t.Fatalf("reseed: %v", err)
	}
	again, _ := store.ListAccounts(ctx)
	if len(again) != len(all) {
		t.Fatalf("reseed duplicated accounts: %d", len(again))
	}
}

func TestUpdateAccount(t *testing.T) {
	ctx := context.Background()
	store, _, accounts := newFixture(t)
	a := mustAccount(t, store, "Wallet", 10000, false)

	a.Name = "Main Wallet"
	a.Balance = core.Cents(12345)
	if err := accounts.Update(ctx, a); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := store.GetAccount(ctx, a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Main Wallet" || got.Balance.Cents != 12345 {
		t.Fatalf("update not applied: %+v", got)
	}
}
