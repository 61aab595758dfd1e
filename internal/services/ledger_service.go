// Package services hosts the ledger engine: the operations that mutate
// records and account balances together, keeping the invariant that the sum
// of all record effects on an account equals its balance minus the initial
// balance.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"boxyledger/internal/core"
	"boxyledger/internal/log"
	"boxyledger/internal/storage"
)

// FallbackCategory receives records saved without a category selection.
const FallbackCategory = "其他"

// RecordDraft is a candidate record as collected by the presentation layer.
// AmountInput is the raw keypad string and may still contain an unresolved
// expression, which Save rejects. ID zero means "create"; a non-zero ID
// edits the persisted record with that id.
type RecordDraft struct {
	ID          int64
	AmountInput string
	Type        core.RecordType
	Category    string
	Date        time.Time
	AccountID   int64
	Note        string
	Discount    core.Money
}

// LedgerService implements the save and delete operations of the ledger
// engine. All balance mutations run inside a store transaction and under the
// per-account locks.
type LedgerService struct {
	store storage.Store
	locks *AccountLocks
}

func NewLedgerService(store storage.Store, locks *AccountLocks) *LedgerService {
	if locks == nil {
		locks = NewAccountLocks()
	}
	return &LedgerService{store: store, locks: locks}
}

// Save validates the draft and persists it, adjusting account balances.
//
// Validation happens before any write, first failure wins: an unresolved
// expression fails with ErrPendingCalculation, a negative amount with
// ErrNegativeAmount, more than two decimals with ErrTooManyDecimals, and an
// expense exceeding a non-credit account's balance with
// ErrInsufficientBalance. Credit accounts and income entries skip the
// balance check.
//
// In edit mode the old record's effect is reverted on its account before the
// new effect is applied, so moving a record between accounts settles both
// balances. The whole sequence commits atomically.
func (s *LedgerService) Save(ctx context.Context, draft RecordDraft) (core.LedgerRecord, error) {
	var zero core.LedgerRecord

	amount, err := core.ParseAmount(draft.AmountInput)
	if err != nil {
		return zero, err
	}
	if draft.AccountID == 0 {
		return zero, errors.New("record requires an account")
	}
	if !draft.Type.Valid() {
		return zero, fmt.Errorf("invalid record type %d", draft.Type)
	}

	rec := core.LedgerRecord{
		ID:        draft.ID,
		Amount:    amount,
		Type:      draft.Type,
		Category:  draft.Category,
		Date:      draft.Date,
		AccountID: draft.AccountID,
		Note:      draft.Note,
		Discount:  draft.Discount,
	}
	if rec.Category == "" {
		rec.Category = FallbackCategory
	}
	if rec.Date.IsZero() {
		rec.Date = time.Now()
	}

	// The write sequence must survive UI teardown; a cancelled context
	// halfway through would leave balance and record out of sync.
	ctx = context.WithoutCancel(ctx)

	var old *core.LedgerRecord
	if rec.ID != 0 {
		prev, err := s.store.GetRecord(ctx, rec.ID)
		switch {
		case err == nil:
			old = &prev
		case !errors.Is(err, storage.ErrNotFound):
			return zero, fmt.Errorf("load previous record: %w", err)
		}
	}

	ids := []int64{rec.AccountID}
	if old != nil {
		ids = append(ids, old.AccountID)
	}
	unlock := s.locks.Lock(ids...)
	defer unlock()

	err = s.store.InTx(ctx, func(tx storage.Store) error {
		// Balance precondition, checked against the current balance
		// before any write. A missing target account skips the check.
		if rec.Type == core.Expense {
			acct, err := tx.GetAccount(ctx, rec.AccountID)
			if err != nil && !errors.Is(err, storage.ErrNotFound) {
				return err
			}
			if err == nil && !acct.IsCredit && acct.Balance.Cents < rec.Amount.Cents {
				return fmt.Errorf("account %q: %w", acct.Name, core.ErrInsufficientBalance)
			}
		}

		// A vanished account skips its balance step; the record itself
		// is still written.
		if old != nil {
			err := adjustBalance(ctx, tx, old.AccountID, old.Effect().Neg())
			if err != nil && !errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("revert previous effect: %w", err)
			}
		}
		if err := tx.UpsertRecord(ctx, &rec); err != nil {
			return err
		}
		err := adjustBalance(ctx, tx, rec.AccountID, rec.Effect())
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("apply effect: %w", err)
		}
		return nil
	})
	if err != nil {
		return zero, err
	}

	slog.InfoContext(ctx, "Ledger record saved",
		log.FieldRecordID, rec.ID,
		log.FieldRecordType, rec.Type.String(),
		log.FieldAmountCents, rec.Amount.Cents,
		log.FieldCategory, rec.Category,
		log.FieldAccountID, rec.AccountID,
		"edit", old != nil)
	return rec, nil
}

// Delete removes a record, first reverting its effect on the owning account.
// It never fails a precondition: when the owning account no longer exists
// the reversion is skipped and only the record is removed.
func (s *LedgerService) Delete(ctx context.Context, rec core.LedgerRecord) error {
	ctx = context.WithoutCancel(ctx)

	unlock := s.locks.Lock(rec.AccountID)
	defer unlock()

	err := s.store.InTx(ctx, func(tx storage.Store) error {
		err := adjustBalance(ctx, tx, rec.AccountID, rec.Effect().Neg())
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("revert effect: %w", err)
		}
		return tx.DeleteRecord(ctx, rec.ID)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Ledger record deleted",
		log.FieldRecordID, rec.ID,
		log.FieldAmountCents, rec.Amount.Cents,
		log.FieldAccountID, rec.AccountID)
	return nil
}

// LoadDraft rebuilds an editable draft from a persisted record. Records
// imported from the old export format carry the discount embedded in the
// note; it is split back out here.
func (s *LedgerService) LoadDraft(ctx context.Context, id int64) (RecordDraft, error) {
	rec, err := s.store.GetRecord(ctx, id)
	if err != nil {
		return RecordDraft{}, err
	}

	note, discount := rec.Note, rec.Discount
	if discount.IsZero() {
		note, discount = core.SplitNote(rec.Note)
	}

	return RecordDraft{
		ID:          rec.ID,
		AmountInput: rec.Amount.String(),
		Type:        rec.Type,
		Category:    rec.Category,
		Date:        rec.Date,
		AccountID:   rec.AccountID,
		Note:        note,
		Discount:    discount,
	}, nil
}

// Record fetches a single record.
func (s *LedgerService) Record(ctx context.Context, id int64) (core.LedgerRecord, error) {
	return s.store.GetRecord(ctx, id)
}

// Records lists all records, newest first.
func (s *LedgerService) Records(ctx context.Context) ([]core.LedgerRecord, error) {
	return s.store.ListRecords(ctx)
}

// RecordsByRange lists records with [from, to) dates, newest first.
func (s *LedgerService) RecordsByRange(ctx context.Context, from, to time.Time) ([]core.LedgerRecord, error) {
	return s.store.ListRecordsByRange(ctx, from, to)
}

// adjustBalance applies a signed delta to an account's balance. Propagates
// storage.ErrNotFound so callers can decide whether a missing account is
// tolerable.
func adjustBalance(ctx context.Context, tx storage.Store, accountID int64, delta core.Money) error {
	acct, err := tx.GetAccount(ctx, accountID)
	if err != nil {
		return err
	}
	acct.Balance = acct.Balance.Add(delta)
	return tx.UpsertAccount(ctx, &acct)
}
