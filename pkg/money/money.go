package money

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Round2 rounds to 2 decimal places, half away from zero. Applied only at the
// display/persistence edge; intermediate math stays at full precision so
// repeated additions do not compound rounding error.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// LineTotal computes quantity × unitPrice − discount.
func LineTotal(unitPrice decimal.Decimal, quantity int, discount decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Sub(discount)
}

// Commission computes the staff commission for one line:
// (unitPrice × quantity − discount) × pct / 100, rounded to 2 decimal places.
func Commission(unitPrice decimal.Decimal, quantity int, discount, pct decimal.Decimal) decimal.Decimal {
	return Round2(LineTotal(unitPrice, quantity, discount).Mul(pct).Div(hundred))
}

// TicketTotal computes subtotal − discount − subtotal × discountPct/100 +
// surcharge, clamped at zero.
func TicketTotal(subtotal, discount, discountPct, surcharge decimal.Decimal) decimal.Decimal {
	total := subtotal.
		Sub(discount).
		Sub(subtotal.Mul(discountPct).Div(hundred)).
		Add(surcharge)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}
