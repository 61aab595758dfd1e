package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"boxyledger/internal/core"
	"boxyledger/internal/log"
	"boxyledger/internal/storage"
)

// AccountService owns account lifecycle and the operations that move money
// between accounts without creating ledger records.
type AccountService struct {
	store storage.Store
	locks *AccountLocks
}

func NewAccountService(store storage.Store, locks *AccountLocks) *AccountService {
	if locks == nil {
		locks = NewAccountLocks()
	}
	return &AccountService{store: store, locks: locks}
}

// Create persists a new account. The initial balance is sign-normalized:
// credit accounts store debt as a negative magnitude regardless of how the
// user entered it.
func (s *AccountService) Create(ctx context.Context, a core.Account) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	a.ID = 0
	a = a.Normalized()
	if err := s.store.UpsertAccount(ctx, &a); err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}
	slog.InfoContext(ctx, "Account created",
		log.FieldAccountID, a.ID, "name", a.Name, "type", a.Type, "is_credit", a.IsCredit)
	return a, nil
}

// Update overwrites the account wholesale, re-applying the credit sign
// convention.
func (s *AccountService) Update(ctx context.Context, a core.Account) error {
	if a.ID == 0 {
		return errors.New("account id required")
	}
	if err := a.Validate(); err != nil {
		return err
	}
	a = a.Normalized()

	unlock := s.locks.Lock(a.ID)
	defer unlock()
	if err := s.store.UpsertAccount(ctx, &a); err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	return nil
}

// Delete removes an account. It refuses while ledger records still reference
// the account, so no record is ever orphaned.
func (s *AccountService) Delete(ctx context.Context, id int64) error {
	n, err := s.store.CountRecordsByAccount(ctx, id)
	if err != nil {
		return fmt.Errorf("count account records: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("account %d has %d records: %w", id, n, core.ErrAccountInUse)
	}
	if err := s.store.DeleteAccount(ctx, id); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	slog.InfoContext(ctx, "Account deleted", log.FieldAccountID, id)
	return nil
}

func (s *AccountService) Get(ctx context.Context, id int64) (core.Account, error) {
	return s.store.GetAccount(ctx, id)
}

func (s *AccountService) List(ctx context.Context) ([]core.Account, error) {
	return s.store.ListAccounts(ctx)
}

// Repay moves amount from a non-credit payment account onto a credit
// account, reducing its debt. Both balances change together; no ledger
// record is written, so repayments appear only in the balances.
func (s *AccountService) Repay(ctx context.Context, creditID, paymentID int64, amount core.Money) error {
	if creditID == paymentID {
		return fmt.Errorf("repayment needs two distinct accounts: %w", core.ErrInvalidTransfer)
	}
	if !amount.IsPositive() {
		return core.ErrInvalidAmount
	}

	ctx = context.WithoutCancel(ctx)
	unlock := s.locks.Lock(creditID, paymentID)
	defer unlock()

	err := s.store.InTx(ctx, func(tx storage.Store) error {
		credit, err := tx.GetAccount(ctx, creditID)
		if err != nil {
			return fmt.Errorf("credit account: %w", err)
		}
		payment, err := tx.GetAccount(ctx, paymentID)
		if err != nil {
			return fmt.Errorf("payment account: %w", err)
		}
		if !credit.IsCredit {
			return fmt.Errorf("account %q is not a credit account: %w", credit.Name, core.ErrInvalidTransfer)
		}
		if payment.IsCredit {
			return fmt.Errorf("account %q cannot pay a repayment: %w", payment.Name, core.ErrInvalidTransfer)
		}
		if payment.Balance.Cents < amount.Cents {
			return fmt.Errorf("account %q: %w", payment.Name, core.ErrInsufficientBalance)
		}

		payment.Balance = payment.Balance.Sub(amount)
		credit.Balance = credit.Balance.Add(amount)
		if err := tx.UpsertAccount(ctx, &payment); err != nil {
			return err
		}
		return tx.UpsertAccount(ctx, &credit)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Credit repayment applied",
		"credit_id", creditID, "payment_id", paymentID, log.FieldAmountCents, amount.Cents)
	return nil
}

// DefaultRepayment is the amount suggested when opening the repayment
// dialog: the full outstanding debt of the credit account.
func (s *AccountService) DefaultRepayment(a core.Account) core.Money {
	return a.Debt()
}

// RenameType rewrites the grouping label of every account tagged oldType.
// Renaming onto an existing label merges the two groups, which is the
// intended way to combine them.
func (s *AccountService) RenameType(ctx context.Context, oldType, newType string) error {
	if strings.TrimSpace(newType) == "" {
		return errors.New("new type cannot be blank")
	}
	if newType == oldType {
		return errors.New("new type matches the current one")
	}
	if err := s.store.RenameAccountType(ctx, oldType, newType); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Account type renamed", "old", oldType, "new", newType)
	return nil
}

// SeedDefaults installs the starter accounts when the store has none.
func (s *AccountService) SeedDefaults(ctx context.Context) error {
	existing, err := s.store.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}
	for _, a := range core.DefaultAccounts() {
		if err := s.store.UpsertAccount(ctx, &a); err != nil {
			return fmt.Errorf("seed account %q: %w", a.Name, err)
		}
	}
	slog.InfoContext(ctx, "Seeded default accounts", "count", len(core.DefaultAccounts()))
	return nil
}
