package core

import "testing"

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"0", 0, true},
		{"10.005", 1001, true}, // half-up on the third digit
		{"10.004", 1000, true},
		{" 2.50 ", 250, true},
		{"-4.20", -420, true},
		{"+7", 700, true},
		{".5", 50, true},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"-", 0, false},
		{"1e3", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseMoney(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error, got %d", tc.in, got.Cents)
			}
		}
	}
}

func TestMoneyString(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "0.00"},
		{1, "0.01"},
		{1234, "12.34"},
		{100000, "1000.00"},
		{-420, "-4.20"},
	}
	for _, tc := range cases {
		if got := (Money{Cents: tc.cents}).String(); got != tc.want {
			t.Errorf("Money{%d}.String() = %q, want %q", tc.cents, got, tc.want)
		}
	}
}

func TestMoneyStringAlwaysTwoDigits(t *testing.T) {
	// Rounding law: any parseable input with extra fractional digits still
	// renders with exactly two digits.
	inputs := []string{"10.005", "10.004", "3.14159", "0.999", "7"}
	for _, in := range inputs {
		m, err := ParseMoney(in)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		s := m.String()
		dot := -1
		for i := range s {
			if s[i] == '.' {
				dot = i
			}
		}
		if dot == -1 || len(s)-dot-1 != 2 {
			t.Errorf("%q -> %q: not exactly two fractional digits", in, s)
		}
	}
}

func TestMoneyFromFloat(t *testing.T) {
	cases := []struct {
		in   float64
		want int64
	}{
		{0, 0},
		{1.005, 101},
		{1.004, 100},
		{-1.005, -101},
		{210.4999, 21050},
	}
	for _, tc := range cases {
		if got := MoneyFromFloat(tc.in); got.Cents != tc.want {
			t.Errorf("MoneyFromFloat(%v) = %d, want %d", tc.in, got.Cents, tc.want)
		}
	}
}

func TestMoneyMulRate(t *testing.T) {
	m := Money{Cents: 10000} // 100.00
	got := m.MulRate(0.2115)
	if got.Cents != 2115 {
		t.Errorf("100.00 * 0.2115 = %s, want 21.15", got)
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := Money{Cents: 150}
	b := Money{Cents: 70}
	if got := a.Add(b); got.Cents != 220 {
		t.Errorf("Add = %d, want 220", got.Cents)
	}
	if got := a.Sub(b); got.Cents != 80 {
		t.Errorf("Sub = %d, want 80", got.Cents)
	}
	if got := a.Neg(); got.Cents != -150 {
		t.Errorf("Neg = %d, want -150", got.Cents)
	}
	if !a.GreaterThan(b) || b.GreaterThan(a) {
		t.Error("GreaterThan comparison wrong")
	}
}
