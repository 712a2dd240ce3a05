package earnings

import "testing"

func TestShortCurrencyString(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1234.5, "$1.23K"},
		{42, "$42"},
		{9.999, "$9.999"},
		{0, "$0"},
		{999.5, "$999.5"},
		{12345, "$12.3K"},
		{123456, "$123K"},
		{1000000, "$1000K"},
		{12.5, "$12.5"},
		{120, "$120"},
		{-5, "-$5"},
		{-999.7, "-$999.7"},
		{-1500, "-$1.5K"},
		{-0.0001, "$0"},
	}
	for _, tc := range tests {
		if got := ShortCurrencyString(tc.in); got != tc.want {
			t.Fatalf("ShortCurrencyString(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCurrencyString(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0.00"},
		{120, "$120.00"},
		{1234.5, "$1,234.50"},
		{1234567.891, "$1,234,567.89"},
		{-20, "-$20.00"},
	}
	for _, tc := range tests {
		if got := CurrencyString(tc.in); got != tc.want {
			t.Fatalf("CurrencyString(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
