// Package core holds the domain model of the ledger: accounts, categories,
// records, monetary amounts and the summaries derived from them.
//
// Money is an int64 amount of cents. All arithmetic happens on cents;
// decimals only appear at the parsing and formatting boundary.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a currency amount in cents (2 fractional digits).
type Money struct {
	Cents int64
}

// Cents builds a Money from a raw cent count.
func Cents(c int64) Money {
	return Money{Cents: c}
}

func (m Money) Add(n Money) Money { return Money{Cents: m.Cents + n.Cents} }
func (m Money) Sub(n Money) Money { return Money{Cents: m.Cents - n.Cents} }
func (m Money) Neg() Money        { return Money{Cents: -m.Cents} }

func (m Money) IsZero() bool     { return m.Cents == 0 }
func (m Money) IsNegative() bool { return m.Cents < 0 }
func (m Money) IsPositive() bool { return m.Cents > 0 }

// Yuan returns the amount as a float64 for display purposes only.
func (m Money) Yuan() float64 {
	return float64(m.Cents) / 100.0
}

// String renders the amount with trailing zeros trimmed ("40", "25.5").
func (m Money) String() string {
	return decimal.New(m.Cents, -2).String()
}

// Format renders the amount with exactly two decimals ("40.00").
func (m Money) Format() string {
	return decimal.New(m.Cents, -2).StringFixed(2)
}

// operators accepted by the on-screen keypad; their presence in an amount
// string means the user has not resolved the expression yet.
const operators = "+-×÷*/"

// HasOperator reports whether s still contains an arithmetic operator.
// A leading sign does not count: "-3" is a (negative) number, "3-1" is an
// unresolved expression.
func HasOperator(s string) bool {
	s = strings.TrimSpace(s)
	for i, r := range s {
		if i == 0 && (r == '+' || r == '-') {
			continue
		}
		if strings.ContainsRune(operators, r) {
			return true
		}
	}
	return false
}

// ParseAmount validates a raw amount input and converts it to Money.
//
// Checks run in a fixed order, first failure wins: an unresolved operator
// fails with ErrPendingCalculation, an unparsable value with
// ErrInvalidAmount, a negative value with ErrNegativeAmount, and more than
// two meaningful fractional digits with ErrTooManyDecimals. Zero is a valid
// amount.
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	if HasOperator(s) {
		return Money{}, ErrPendingCalculation
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if d.IsNegative() {
		return Money{}, ErrNegativeAmount
	}
	cents := d.Shift(2)
	if !cents.IsInteger() {
		return Money{}, ErrTooManyDecimals
	}
	if !cents.BigInt().IsInt64() {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents.IntPart()}, nil
}
