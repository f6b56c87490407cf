package coupon

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// CalculateDiscount computes the discount amount for an order total.
//
// Percentage discounts are amount * value / 100, clamped to maxDiscount when
// one is set. Fixed discounts are clamped to the order total so an order can
// never go negative. The caller guarantees the discount type is valid;
// coupon creation rejects anything else.
func CalculateDiscount(amount decimal.Decimal, typ DiscountType, value decimal.Decimal, maxDiscount *decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal
	switch typ {
	case DiscountPercentage:
		discount = amount.Mul(value).Div(hundred)
		if maxDiscount != nil && discount.GreaterThan(*maxDiscount) {
			discount = *maxDiscount
		}
	default: // DiscountFixed
		discount = decimal.Min(value, amount)
	}

	if discount.IsNegative() {
		return decimal.Zero
	}
	return discount.Round(2)
}

// Discount computes this coupon's discount for the given order total.
func (c *Coupon) Discount(total decimal.Decimal) decimal.Decimal {
	return CalculateDiscount(total, c.DiscountType, c.Value, c.MaxDiscount)
}
