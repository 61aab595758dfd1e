package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Expense RecordType = 0
	Income  RecordType = 1
)

type (
	// RecordType distinguishes expense entries from income entries. The
	// numeric values are part of the persisted format.
	RecordType int

	// Account is a user-defined money holder. Credit accounts carry their
	// debt as a zero-or-negative balance.
	Account struct {
		ID       int64
		Name     string
		Type     string // grouping label, e.g. "现金账户"
		Balance  Money
		Icon     string
		IsCredit bool
	}

	// Category labels a record. Records reference categories by name
	// snapshot, never by id, so renaming a category does not rewrite
	// history.
	Category struct {
		ID        int64
		Name      string
		Icon      string
		Type      RecordType
		SortOrder int
	}

	// LedgerRecord is a single income or expense entry. Amount is always
	// non-negative; the direction is carried by Type. Discount is
	// informational only and never changes the balance effect.
	LedgerRecord struct {
		ID        int64
		Amount    Money
		Type      RecordType
		Category  string
		Date      time.Time
		AccountID int64
		Note      string
		Discount  Money
	}
)

var (
	ErrPendingCalculation  = errors.New("amount expression not yet calculated")
	ErrNegativeAmount      = errors.New("amount cannot be negative")
	ErrTooManyDecimals     = errors.New("amount has more than 2 decimal places")
	ErrInsufficientBalance = errors.New("insufficient account balance")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrPartialWrite        = errors.New("ledger write could not be applied atomically")
	ErrAccountInUse        = errors.New("account still has ledger records")
	ErrDuplicateCategory   = errors.New("category with this name and type already exists")
	ErrInvalidTransfer     = errors.New("invalid repayment transfer")
	ErrEmptyName           = errors.New("name cannot be empty")
)

func (t RecordType) Valid() bool {
	return t == Expense || t == Income
}

func (t RecordType) String() string {
	switch t {
	case Expense:
		return "expense"
	case Income:
		return "income"
	default:
		return "unknown"
	}
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

// Normalized returns the account with its balance sign convention applied:
// credit accounts store debt as a negative magnitude.
func (a Account) Normalized() Account {
	if a.IsCredit {
		a.Balance = Money{Cents: -abs64(a.Balance.Cents)}
	}
	return a
}

// Debt is the positive magnitude owed on a credit account.
func (a Account) Debt() Money {
	return Money{Cents: abs64(a.Balance.Cents)}
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if !c.Type.Valid() {
		return errors.New("invalid category type")
	}
	return nil
}

func (r LedgerRecord) Validate() error {
	if r.Amount.Cents < 0 {
		return ErrNegativeAmount
	}
	if !r.Type.Valid() {
		return errors.New("invalid record type")
	}
	if r.AccountID == 0 {
		return errors.New("record requires an account")
	}
	return nil
}

// Effect is the signed balance delta this record has on its owning account:
// negative for an expense, positive for income. Reverting a record means
// subtracting its effect.
func (r LedgerRecord) Effect() Money {
	if r.Type == Expense {
		return r.Amount.Neg()
	}
	return r.Amount
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
