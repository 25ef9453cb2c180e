package pricing

import (
	"time"

	"github.com/bazaar-next/internal/models"

	"github.com/shopspring/decimal"
)

// Line 已定价的购物车行
type Line struct {
	ProductID   uint
	ShopID      uint
	Name        string
	Price       decimal.Decimal // 成交单价
	Quantity    int
	CategoryIDs map[uint]struct{}
}

// NewLine 以 now 时刻的成交价构造行
func NewLine(product *models.Product, quantity int, now time.Time) Line {
	line := Line{
		Price:    EffectivePrice(product, now),
		Quantity: quantity,
	}
	if product != nil {
		line.ProductID = product.ID
		line.ShopID = product.ShopID
		line.Name = product.Name
		line.CategoryIDs = models.CategoryIDSet(product.Categories)
	}
	return line
}

// Total 行金额（未取整）
func (l Line) Total() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// InCategories 行商品是否属于给定分类集合之一
func (l Line) InCategories(set map[uint]struct{}) bool {
	for id := range l.CategoryIDs {
		if _, ok := set[id]; ok {
			return true
		}
	}
	return false
}

// Subtotal 多行金额合计，向上取整
func Subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Total())
	}
	return Ceil(sum)
}

// CategoryUnion 多行商品分类 ID 并集
func CategoryUnion(lines []Line) map[uint]struct{} {
	out := make(map[uint]struct{})
	for _, l := range lines {
		for id := range l.CategoryIDs {
			out[id] = struct{}{}
		}
	}
	return out
}

// Intersects 两个 ID 集合是否有交集
func Intersects(a, b map[uint]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for id := range a {
		if _, ok := b[id]; ok {
			return true
		}
	}
	return false
}
