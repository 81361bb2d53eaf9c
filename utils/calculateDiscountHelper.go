package utils

import (
	"github.com/shopspring/decimal"
)

var decimalOneHundred = decimal.NewFromInt(100)

// DiscountPlaces matches the scale of the disc1..disc3 columns.
const DiscountPlaces = 2

// CalculateDiscountAmount returns the percentage discount taken off price.
// Non-positive percentages give no discount.
func CalculateDiscountAmount(price decimal.Decimal, percent decimal.Decimal) decimal.Decimal {
	if !percent.GreaterThan(decimal.Zero) {
		return decimal.Zero
	}
	return price.Mul(percent).Div(decimalOneHundred)
}

// CalculateNetPrice applies disc1, disc2 and disc3 in order, each to the price
// left by the previous one, and rounds the result once to 2 places.
//
//	net = round(base * (1 - d1/100) * (1 - d2/100) * (1 - d3/100), 2)
func CalculateNetPrice(base, disc1, disc2, disc3 decimal.Decimal) decimal.Decimal {
	price := base
	for _, disc := range []decimal.Decimal{disc1, disc2, disc3} {
		price = price.Sub(CalculateDiscountAmount(price, disc))
	}
	return price.Round(2)
}

// CalculateLineAmount is net price times quantity, without further rounding.
func CalculateLineAmount(netPrice decimal.Decimal, quantity int) decimal.Decimal {
	return netPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

func SumAmounts(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// RoundDiscount brings a percentage to the stored scale, half away from zero.
func RoundDiscount(percent decimal.Decimal) decimal.Decimal {
	return percent.Round(DiscountPlaces)
}

// IsValidDiscount reports whether percent lies within [0, 100].
func IsValidDiscount(percent decimal.Decimal) bool {
	return !percent.LessThan(decimal.Zero) && !percent.GreaterThan(decimalOneHundred)
}
