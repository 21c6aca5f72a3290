package core

import "testing"

func TestFormatBRL(t *testing.T) {
	cases := []struct {
		in  float64
		out string
	}{
		{0, "R$ 0,00"},
		{1.005, "R$ 1,01"},
		{12.3, "R$ 12,30"},
		{1234.5, "R$ 1.234,50"},
		{1000000, "R$ 1.000.000,00"},
		{-10, "-R$ 10,00"},
	}
	for _, tc := range cases {
		if got := FormatBRL(tc.in); got != tc.out {
			t.Errorf("FormatBRL(%v) = %q, want %q", tc.in, got, tc.out)
		}
	}
}

func TestDecimalAmount(t *testing.T) {
	if got := DecimalAmount(0.1 + 0.2).String(); got != "0.3" {
		t.Errorf("DecimalAmount = %s, want 0.3", got)
	}
}
