package pricing

import (
	"github.com/bazaar-next/internal/constants"
	"github.com/bazaar-next/internal/models"

	"github.com/shopspring/decimal"
)

// ShippingDiscount 运费优惠：不超过优惠上限，也不超过运费本身
func ShippingDiscount(coupon *models.Coupon, fee decimal.Decimal) decimal.Decimal {
	if coupon == nil || !fee.IsPositive() {
		return decimal.Zero
	}
	var d decimal.Decimal
	switch coupon.DiscountType {
	case constants.DiscountTypePercent:
		d = Percent(fee, coupon.Value.Decimal)
	case constants.DiscountTypeAmount:
		d = coupon.Value.Decimal
	default:
		return decimal.Zero
	}
	return Clamp(d, discountCap(coupon), fee)
}

// ProductDiscount 店铺订单的商品优惠
// 限定分类的优惠券只以命中分类的行金额为基数，否则以店铺小计为基数
func ProductDiscount(coupon *models.Coupon, lines []Line, shopSubtotal decimal.Decimal) decimal.Decimal {
	if coupon == nil {
		return decimal.Zero
	}
	base := shopSubtotal
	if scope := couponScope(coupon); len(scope) > 0 {
		base = decimal.Zero
		for _, l := range lines {
			if l.InCategories(scope) {
				base = base.Add(l.Total())
			}
		}
	}
	if !base.IsPositive() {
		return decimal.Zero
	}

	var d decimal.Decimal
	switch coupon.DiscountType {
	case constants.DiscountTypePercent:
		d = Percent(base, coupon.Value.Decimal)
	case constants.DiscountTypeAmount:
		d = decimal.Min(coupon.Value.Decimal, base)
	default:
		return decimal.Zero
	}
	return Clamp(d, discountCap(coupon))
}

// LineDiscount 订单行快照上的行级优惠，与订单级优惠分开计算
func LineDiscount(coupon *models.Coupon, line Line, shopSubtotal, productDiscount decimal.Decimal) decimal.Decimal {
	if coupon == nil {
		return decimal.Zero
	}
	lineTotal := line.Total()
	scope := couponScope(coupon)
	if len(scope) == 0 {
		return Clamp(Share(productDiscount, lineTotal, shopSubtotal), lineTotal)
	}
	if !line.InCategories(scope) {
		return decimal.Zero
	}

	var d decimal.Decimal
	switch coupon.DiscountType {
	case constants.DiscountTypePercent:
		d = Percent(line.Price, coupon.Value.Decimal).Mul(decimal.NewFromInt(int64(line.Quantity)))
	case constants.DiscountTypeAmount:
		d = decimal.Min(Share(coupon.Value.Decimal, lineTotal, shopSubtotal), lineTotal)
	default:
		return decimal.Zero
	}
	return Clamp(d, discountCap(coupon), lineTotal)
}

// discountCap 优惠上限向下取整到整数货币单位，持久化向上取整后仍不超过上限
func discountCap(coupon *models.Coupon) decimal.Decimal {
	return coupon.MaxDiscountAmount.Decimal.Floor()
}

func couponScope(coupon *models.Coupon) map[uint]struct{} {
	if coupon == nil || len(coupon.Categories) == 0 {
		return nil
	}
	return models.CategoryIDSet(coupon.Categories)
}
