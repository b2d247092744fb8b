// Package pricing holds the money arithmetic shared by suppliers, products and orders.
package pricing

import (
	"github.com/shopspring/decimal"
)

// MarkupRate is the fixed markup applied to a buying price to derive the selling price
var MarkupRate = decimal.RequireFromString("0.15")

var markupFactor = decimal.NewFromInt(1).Add(MarkupRate)

// SellingPrice returns buyingPrice * 1.15 rendered with two decimals, e.g. "115.00"
func SellingPrice(buyingPrice float64) string {
	return decimal.NewFromFloat(buyingPrice).Mul(markupFactor).StringFixed(2)
}

// FormatPrice renders an explicit price with two decimals
func FormatPrice(price float64) string {
	return decimal.NewFromFloat(price).StringFixed(2)
}

// ParsePrice parses a two-decimal price string back into a float
func ParsePrice(s string) (float64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}

// LineTotal is price * quantity rounded to cents
func LineTotal(price float64, quantity int) decimal.Decimal {
	return decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}

// Total sums line totals and returns the amount rounded to cents
func Total(lines ...decimal.Decimal) float64 {
	return decimal.Sum(decimal.Zero, lines...).Round(2).InexactFloat64()
}

// Round rounds an amount to cents
func Round(amount float64) float64 {
	return decimal.NewFromFloat(amount).Round(2).InexactFloat64()
}
