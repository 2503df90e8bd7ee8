package coupons

import "github.com/shopspring/decimal"

type DiscountType string

const (
	DiscountPercent DiscountType = "percent"
	DiscountFixed   DiscountType = "fixed"
)

type Coupon struct {
	Code          string          `json:"code"`
	Active        bool            `json:"active"`
	DiscountType  DiscountType    `json:"discount_type"`
	DiscountValue decimal.Decimal `json:"discount_value"`
}

type Result struct {
	Valid          bool            `json:"valid"`
	Code           string          `json:"code"`
	DiscountType   DiscountType    `json:"discount_type"`
	DiscountValue  decimal.Decimal `json:"discount_value"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	FinalAmount    decimal.Decimal `json:"final_amount"`
}

var hundred = decimal.NewFromInt(100)

// Evaluate computes the discount of c on amount. The discount never exceeds
// amount, so the final amount is never negative. Unknown types discount
// nothing.
func Evaluate(c Coupon, amount decimal.Decimal) Result {
	discount := decimal.Zero
	switch c.DiscountType {
	case DiscountPercent:
		discount = amount.Mul(c.DiscountValue).Div(hundred)
	case DiscountFixed:
		discount = c.DiscountValue
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	if discount.GreaterThan(amount) {
		discount = amount
	}
	discount = discount.Round(2)
	return Result{
		Valid:          true,
		Code:           c.Code,
		DiscountType:   c.DiscountType,
		DiscountValue:  c.DiscountValue,
		DiscountAmount: discount,
		FinalAmount:    amount.Sub(discount),
	}
}
