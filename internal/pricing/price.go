package pricing

import (
	"time"

	"github.com/bazaar-next/internal/models"

	"github.com/shopspring/decimal"
)

// IsDiscountActive 判断折扣在 now 时刻是否生效，区间为 [StartTime, EndTime)
func IsDiscountActive(d models.ProductDiscount, now time.Time) bool {
	return !now.Before(d.StartTime) && now.Before(d.EndTime)
}

// ActiveDiscount 返回当前生效折扣中价格最低的一条
func ActiveDiscount(product *models.Product, now time.Time) *models.ProductDiscount {
	if product == nil {
		return nil
	}
	var best *models.ProductDiscount
	for i := range product.Discounts {
		d := &product.Discounts[i]
		if !IsDiscountActive(*d, now) {
			continue
		}
		if best == nil || d.DiscountPrice.Decimal.LessThan(best.DiscountPrice.Decimal) {
			best = d
		}
	}
	return best
}

// EffectivePrice 商品成交单价：生效折扣价与原价取低
func EffectivePrice(product *models.Product, now time.Time) decimal.Decimal {
	if product == nil {
		return decimal.Zero
	}
	regular := product.RegularPrice.Decimal
	if best := ActiveDiscount(product, now); best != nil && best.DiscountPrice.Decimal.LessThan(regular) {
		return best.DiscountPrice.Decimal
	}
	return regular
}
