package core

import (
	"testing"
	"time"
)

func TestRecordEffect(t *testing.T) {
	exp := LedgerRecord{Amount: Cents(3000), Type: Expense}
	if got := exp.Effect(); got.Cents != -3000 {
		t.Fatalf("expense effect expected -3000, got %d", got.Cents)
	}
	inc := LedgerRecord{Amount: Cents(3000), Type: Income}
	if got := inc.Effect(); got.Cents != 3000 {
		t.Fatalf("income effect expected 3000, got %d", got.Cents)
	}
}

func TestAccountNormalized(t *testing.T) {
	cases := []struct {
		balance  int64
		isCredit bool
		want     int64
	}{
		{20000, true, -20000}, // credit debt entered as positive
		{-20000, true, -20000},
		{0, true, 0},
		{20000, false, 20000},
		{-5, false, -5}, // non-credit accounts keep their sign
	}
	for i, tc := range cases {
		a := Account{Name: "a", Balance: Cents(tc.balance), IsCredit: tc.isCredit}
		if got := a.Normalized().Balance.Cents; got != tc.want {
			t.Fatalf("case %d expected %d, got %d", i, tc.want, got)
		}
	}
}

func TestAccountDebt(t *testing.T) {
	a := Account{Balance: Cents(-20000), IsCredit: true}
	if got := a.Debt(); got.Cents != 20000 {
		t.Fatalf("expected 20000, got %d", got.Cents)
	}
}

func TestRecordValidate(t *testing.T) {
	good := LedgerRecord{Amount: Cents(100), Type: Expense, AccountID: 1, Date: time.Now()}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []LedgerRecord{
		{Amount: Cents(-1), Type: Expense, AccountID: 1},
		{Amount: Cents(1), Type: RecordType(2), AccountID: 1},
		{Amount: Cents(1), Type: Income, AccountID: 0},
	}
	for i, r := range bads {
		if err := r.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestCategoryValidate(t *testing.T) {
	if err := (Category{Name: "餐饮", Type: Expense}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Category{Name: " ", Type: Expense}).Validate(); err == nil {
		t.Fatalf("expected error for blank name")
	}
	if err := (Category{Name: "x", Type: RecordType(5)}).Validate(); err == nil {
		t.Fatalf("expected error for invalid type")
	}
}

func TestDefaultSeeds(t *testing.T) {
	cats := DefaultCategories()
	var expense, income int
	for _, c := range cats {
		switch c.Type {
		case Expense:
			if c.SortOrder != expense {
				t.Fatalf("expense sort order gap at %q", c.Name)
			}
			expense++
		case Income:
			if c.SortOrder != income {
				t.Fatalf("income sort order gap at %q", c.Name)
			}
			income++
		}
	}
	if expense != 10 || income != 7 {
		t.Fatalf("expected 10 expense + 7 income categories, got %d + %d", expense, income)
	}

	for _, a := range DefaultAccounts() {
		if !a.Balance.IsZero() || a.IsCredit {
			t.Fatalf("starter account %q should be a zero-balance non-credit account", a.Name)
		}
	}
}
