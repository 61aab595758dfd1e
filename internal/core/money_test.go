package core

import (
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in    string
		cents int64
		err   error
	}{
		{"1", 100, nil},
		{"1.0", 100, nil},
		{"1.23", 123, nil},
		{"0.01", 1, nil},
		{"0", 0, nil},
		{" 2.50 ", 250, nil},
		{"1.230", 123, nil}, // trailing zero is not a third decimal
		{"30", 3000, nil},
		{"1.234", 0, ErrTooManyDecimals},
		{"0.001", 0, ErrTooManyDecimals},
		{"-1", 0, ErrNegativeAmount},
		{"-0.5", 0, ErrNegativeAmount},
		{"12+5", 0, ErrPendingCalculation},
		{"12×5", 0, ErrPendingCalculation},
		{"3÷2", 0, ErrPendingCalculation},
		{"1-", 0, ErrPendingCalculation},
		{"abc", 0, ErrInvalidAmount},
		{"", 0, ErrInvalidAmount},
		{"1.2.3", 0, ErrInvalidAmount},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.err == nil {
			if err != nil || got.Cents != tc.cents {
				t.Fatalf("%q expected %d cents, got %d (err=%v)", tc.in, tc.cents, got.Cents, err)
			}
			continue
		}
		if !errors.Is(err, tc.err) {
			t.Fatalf("%q expected %v, got %v", tc.in, tc.err, err)
		}
	}
}

func TestHasOperator(t *testing.T) {
	cases := []struct {
		in  string
		out bool
	}{
		{"12", false},
		{"-12", false},  // leading sign, not an operator
		{"+12", false},
		{"12+5", true},
		{"12-5", true},
		{"1×2", true},
		{"1÷2", true},
		{"1*2", true},
		{"1/2", true},
	}
	for _, tc := range cases {
		if got := HasOperator(tc.in); got != tc.out {
			t.Fatalf("%q expected %v, got %v", tc.in, tc.out, got)
		}
	}
}

func TestMoneyString(t *testing.T) {
	cases := []struct {
		cents int64
		out   string
	}{
		{4000, "40"},
		{2550, "25.5"},
		{123, "1.23"},
		{0, "0"},
		{-15000, "-150"},
	}
	for _, tc := range cases {
		if got := Cents(tc.cents).String(); got != tc.out {
			t.Fatalf("%d cents expected %q, got %q", tc.cents, tc.out, got)
		}
	}
	if got := Cents(4000).Format(); got != "40.00" {
		t.Fatalf("Format expected 40.00, got %q", got)
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := Cents(7000)
	if got := a.Sub(Cents(3000)); got.Cents != 4000 {
		t.Fatalf("expected 4000, got %d", got.Cents)
	}
	if got := a.Add(Cents(500)); got.Cents != 7500 {
		t.Fatalf("expected 7500, got %d", got.Cents)
	}
	if got := Cents(-200).Neg(); got.Cents != 200 {
		t.Fatalf("expected 200, got %d", got.Cents)
	}
	if Cents(100).Yuan() != 1.0 {
		t.Fatalf("expected 1.0 yuan")
	}
}
