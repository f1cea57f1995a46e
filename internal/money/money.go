// Package money holds the order math. All amounts are decimal with two
// fractional digits; rounding happens once per line and once per derived
// amount, never on intermediate values.
package money

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("money: amount must not be negative")

// LineSubtotal is unitPrice * quantity rounded to cents, half up.
func LineSubtotal(unitPrice decimal.Decimal, quantity int32) (decimal.Decimal, error) {
	if unitPrice.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	if quantity <= 0 {
		return decimal.Zero, ErrInvalidAmount
	}
	return unitPrice.Mul(decimal.NewFromInt32(quantity)).Round(2), nil
}

// Subtotal sums already-rounded line subtotals.
func Subtotal(lines []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l)
	}
	return total.Round(2)
}

// Tax applies a percentage rate (10 means 10%) to the subtotal.
func Tax(subtotal, ratePercent decimal.Decimal) (decimal.Decimal, error) {
	if subtotal.IsNegative() || ratePercent.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	return subtotal.Mul(ratePercent).Div(decimal.NewFromInt(100)).Round(2), nil
}

// WithTax is subtotal plus its tax amount.
func WithTax(subtotal, taxAmount decimal.Decimal) decimal.Decimal {
	return subtotal.Add(taxAmount).Round(2)
}

// Final subtracts a discount from the taxed total, clamped at zero so a
// discount can never drive the bill negative.
func Final(totalWithTax, discount decimal.Decimal) (decimal.Decimal, error) {
	if discount.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	final := totalWithTax.Sub(discount).Round(2)
	if final.IsNegative() {
		return decimal.Zero, nil
	}
	return final, nil
}

// Change is amountReceived minus totalFinal, clamped at zero. A nil
// received amount means exact payment.
func Change(totalFinal decimal.Decimal, amountReceived *decimal.Decimal) (decimal.Decimal, error) {
	if amountReceived == nil {
		return decimal.Zero, nil
	}
	if amountReceived.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	change := amountReceived.Sub(totalFinal).Round(2)
	if change.IsNegative() {
		return decimal.Zero, nil
	}
	return change, nil
}

// Covers reports whether a received amount pays the bill in full. A nil
// received amount is treated as exact payment.
func Covers(totalFinal decimal.Decimal, amountReceived *decimal.Decimal) bool {
	if amountReceived == nil {
		return true
	}
	return amountReceived.GreaterThanOrEqual(totalFinal)
}
