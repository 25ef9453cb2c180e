package pricing

import (
	"github.com/shopspring/decimal"
)

// Summary 订单金额汇总，各字段均为已取整的持久化值
type Summary struct {
	Subtotal               decimal.Decimal `json:"subtotal"`
	ShippingFee            decimal.Decimal `json:"shipping_fee"`
	ProductDiscountAmount  decimal.Decimal `json:"product_discount_amount"`
	ShippingDiscountAmount decimal.Decimal `json:"shipping_discount_amount"`
	Total                  decimal.Decimal `json:"total"`
}

// NewSummary 取整各项金额并计算应付金额
// total = (subtotal - productDiscount) + (shippingFee - shippingDiscount)
func NewSummary(subtotal, shippingFee, productDiscount, shippingDiscount decimal.Decimal) Summary {
	s := Summary{
		Subtotal:    Ceil(subtotal),
		ShippingFee: Ceil(shippingFee),
	}
	s.ProductDiscountAmount = Clamp(Ceil(productDiscount), s.Subtotal)
	s.ShippingDiscountAmount = Clamp(Ceil(shippingDiscount), s.ShippingFee)
	s.Total = s.Subtotal.Sub(s.ProductDiscountAmount).Add(s.ShippingFee.Sub(s.ShippingDiscountAmount))
	return s
}

// Add 汇总两笔金额
func (s Summary) Add(o Summary) Summary {
	return Summary{
		Subtotal:               s.Subtotal.Add(o.Subtotal),
		ShippingFee:            s.ShippingFee.Add(o.ShippingFee),
		ProductDiscountAmount:  s.ProductDiscountAmount.Add(o.ProductDiscountAmount),
		ShippingDiscountAmount: s.ShippingDiscountAmount.Add(o.ShippingDiscountAmount),
		Total:                  s.Total.Add(o.Total),
	}
}
