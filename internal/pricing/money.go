package pricing

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Ceil 向上取整到整数货币单位，只在写入持久化字段时调用
func Ceil(d decimal.Decimal) decimal.Decimal {
	return d.Ceil()
}

// Clamp 返回 d 与所有上限中的最小值，且不小于 0
func Clamp(d decimal.Decimal, limits ...decimal.Decimal) decimal.Decimal {
	out := d
	for _, limit := range limits {
		if limit.LessThan(out) {
			out = limit
		}
	}
	if out.IsNegative() {
		return decimal.Zero
	}
	return out
}

// Percent 计算 base 的 value% 部分
func Percent(base, value decimal.Decimal) decimal.Decimal {
	return base.Mul(value).Div(hundred)
}

// Share 按 part/whole 比例分摊 amount，whole 为 0 时返回 0
func Share(amount, part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return amount.Mul(part).Div(whole)
}
