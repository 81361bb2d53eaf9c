package utils

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCalculateNetPrice(t *testing.T) {
	cases := []struct {
		name                   string
		base, d1, d2, d3, want string
	}{
		{"no discount is identity", "100000", "0", "0", "0", "100000"},
		{"single discount", "100000", "10", "0", "0", "90000"},
		{"discounts compound on running price", "100", "10", "5", "0", "85.5"},
		{"three discounts", "100", "10", "10", "10", "72.9"},
		{"two halves leave a quarter", "100", "50", "50", "0", "25"},
		{"full discount gives zero", "12345.67", "100", "0", "0", "0"},
		{"full discount in last slot gives zero", "500", "20", "30", "100", "0"},
		{"rounds half up at the end", "10.005", "0", "0", "0", "10.01"},
		{"rounds once after all discounts", "99.99", "15", "0", "0", "84.99"},
		{"fractional percent", "10", "33.33", "0", "0", "6.67"},
		{"zero base", "0", "10", "20", "30", "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CalculateNetPrice(d(tc.base), d(tc.d1), d(tc.d2), d(tc.d3))
			if !got.Equal(d(tc.want)) {
				t.Fatalf("CalculateNetPrice(%s, %s, %s, %s) = %s, want %s", tc.base, tc.d1, tc.d2, tc.d3, got, tc.want)
			}
		})
	}
}

func TestCalculateNetPriceMatchesProductFormula(t *testing.T) {
	base, d1, d2, d3 := d("250000"), d("12.5"), d("7"), d("3")
	one := decimal.NewFromInt(1)
	hundred := decimal.NewFromInt(100)
	want := base.
		Mul(one.Sub(d1.Div(hundred))).
		Mul(one.Sub(d2.Div(hundred))).
		Mul(one.Sub(d3.Div(hundred))).
		Round(2)

	got := CalculateNetPrice(base, d1, d2, d3)
	if !got.Equal(want) {
		t.Fatalf("net price = %s, want %s", got, want)
	}
	if got.Exponent() < -2 {
		t.Fatalf("net price %s has more than 2 decimal places", got)
	}
}

func TestCalculateLineAmount(t *testing.T) {
	got := CalculateLineAmount(d("90000.00"), 2)
	if !got.Equal(d("180000")) {
		t.Fatalf("line amount = %s, want 180000", got)
	}
	if got := CalculateLineAmount(d("84.99"), 3); !got.Equal(d("254.97")) {
		t.Fatalf("line amount = %s, want 254.97", got)
	}
}

func TestSumAmounts(t *testing.T) {
	if got := SumAmounts(); !got.IsZero() {
		t.Fatalf("empty sum = %s, want 0", got)
	}
	if got := SumAmounts(d("1.10"), d("2.20"), d("3.30")); !got.Equal(d("6.6")) {
		t.Fatalf("sum = %s, want 6.6", got)
	}
}

func TestIsValidDiscount(t *testing.T) {
	cases := map[string]bool{
		"-0.01":  false,
		"0":      true,
		"50":     true,
		"100":    true,
		"100.01": false,
	}
	for in, want := range cases {
		if got := IsValidDiscount(d(in)); got != want {
			t.Errorf("IsValidDiscount(%s) = %v, want %v", in, got, want)
		}
	}
}

func TestRoundDiscount(t *testing.T) {
	cases := []struct{ in, want string }{
		{"12.345", "12.35"},
		{"12.344", "12.34"},
		{"10", "10"},
		{"99.996", "100"},
	}
	for _, tc := range cases {
		if got := RoundDiscount(d(tc.in)); !got.Equal(d(tc.want)) {
			t.Fatalf("RoundDiscount(%s) = %s, want %s", tc.in, got, tc.want)
		}
	}
}
