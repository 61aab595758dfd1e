package core

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Older exports embedded the discount in the note text instead of storing it
// in its own column. The suffix pattern is fixed: "<note> (优惠: <discount>)".
var legacyDiscountRe = regexp.MustCompile(`^(.*) \(优惠: (.*)\)$`)

// ComposeNote renders a note together with its discount annotation. A zero
// discount leaves the note unchanged.
func ComposeNote(note string, discount Money) string {
	if !discount.IsPositive() {
		return note
	}
	return note + " (优惠: " + discount.String() + ")"
}

// SplitNote parses a legacy discount annotation back out of a note. When the
// suffix is absent or its value does not parse, the note is returned as-is
// with a zero discount.
func SplitNote(note string) (string, Money) {
	m := legacyDiscountRe.FindStringSubmatch(note)
	if m == nil {
		return note, Money{}
	}
	d, err := decimal.NewFromString(strings.TrimSpace(m[2]))
	if err != nil {
		return note, Money{}
	}
	cents := d.Shift(2)
	if !cents.IsInteger() || !cents.BigInt().IsInt64() {
		return note, Money{}
	}
	return m[1], Money{Cents: cents.IntPart()}
}
