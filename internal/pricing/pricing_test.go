package pricing

import (
	"testing"
	"time"

	"github.com/bazaar-next/internal/constants"
	"github.com/bazaar-next/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func money(v string) models.Money {
	return models.Money{Decimal: decimal.RequireFromString(v)}
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestEffectivePricePicksCheapestActiveDiscount(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	product := &models.Product{
		RegularPrice: money("100"),
		Discounts: []models.ProductDiscount{
			{DiscountPrice: money("90"), StartTime: now.Add(-time.Hour), EndTime: now.Add(time.Hour)},
			{DiscountPrice: money("80"), StartTime: now.Add(-2 * time.Hour), EndTime: now.Add(2 * time.Hour)},
			{DiscountPrice: money("10"), StartTime: now.Add(time.Hour), EndTime: now.Add(3 * time.Hour)},
		},
	}
	assert.True(t, EffectivePrice(product, now).Equal(dec("80")))
}

func TestEffectivePriceWindowIsHalfOpen(t *testing.T) {
	start := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	product := &models.Product{
		RegularPrice: money("100"),
		Discounts:    []models.ProductDiscount{{DiscountPrice: money("70"), StartTime: start, EndTime: end}},
	}

	tests := []struct {
		name string
		now  time.Time
		want string
	}{
		{name: "before start", now: start.Add(-time.Nanosecond), want: "100"},
		{name: "at start", now: start, want: "70"},
		{name: "inside", now: start.Add(time.Hour), want: "70"},
		{name: "at end", now: end, want: "100"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, EffectivePrice(product, tt.now).Equal(dec(tt.want)))
		})
	}
}

func TestEffectivePriceIgnoresDiscountAboveRegular(t *testing.T) {
	now := time.Now()
	product := &models.Product{
		RegularPrice: money("50"),
		Discounts:    []models.ProductDiscount{{DiscountPrice: money("60"), StartTime: now.Add(-time.Hour), EndTime: now.Add(time.Hour)}},
	}
	assert.True(t, EffectivePrice(product, now).Equal(dec("50")))
}

func TestSubtotalRoundsUpOnce(t *testing.T) {
	lines := []Line{{Price: dec("33.33"), Quantity: 3}}
	assert.Equal(t, "100", Subtotal(lines).String())

	lines = append(lines, Line{Price: dec("0.004"), Quantity: 1})
	assert.Equal(t, "100", Subtotal(lines).String())
}

func TestClamp(t *testing.T) {
	assert.True(t, Clamp(dec("25000"), dec("10000"), dec("50000")).Equal(dec("10000")))
	assert.True(t, Clamp(dec("-5")).IsZero())
	assert.True(t, Clamp(dec("5"), decimal.Zero).IsZero())
}

func TestShippingDiscount(t *testing.T) {
	tests := []struct {
		name   string
		coupon models.Coupon
		fee    string
		want   string
	}{
		{
			name:   "percent capped by max",
			coupon: models.Coupon{DiscountType: constants.DiscountTypePercent, Value: money("50"), MaxDiscountAmount: money("10000")},
			fee:    "50000",
			want:   "10000",
		},
		{
			name:   "percent under cap",
			coupon: models.Coupon{DiscountType: constants.DiscountTypePercent, Value: money("10"), MaxDiscountAmount: money("10000")},
			fee:    "50000",
			want:   "5000",
		},
		{
			name:   "amount capped by fee",
			coupon: models.Coupon{DiscountType: constants.DiscountTypeAmount, Value: money("40000"), MaxDiscountAmount: money("100000")},
			fee:    "20000",
			want:   "20000",
		},
		{
			name:   "zero cap yields zero",
			coupon: models.Coupon{DiscountType: constants.DiscountTypeAmount, Value: money("5000")},
			fee:    "20000",
			want:   "0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.coupon
			got := ShippingDiscount(&c, dec(tt.fee))
			assert.True(t, got.Equal(dec(tt.want)), "got %s", got)
		})
	}
}

func TestProductDiscountWithoutCategories(t *testing.T) {
	coupon := &models.Coupon{
		DiscountType:      constants.DiscountTypePercent,
		Value:             money("10"),
		MaxDiscountAmount: money("100000"),
	}
	lines := []Line{{Price: dec("100000"), Quantity: 2}}
	got := ProductDiscount(coupon, lines, dec("200000"))
	assert.True(t, got.Equal(dec("20000")))

	amount := &models.Coupon{DiscountType: constants.DiscountTypeAmount, Value: money("500000"), MaxDiscountAmount: money("900000")}
	assert.True(t, ProductDiscount(amount, lines, dec("200000")).Equal(dec("200000")))
}

func TestProductDiscountCategoryScoped(t *testing.T) {
	coupon := &models.Coupon{
		DiscountType:      constants.DiscountTypePercent,
		Value:             money("50"),
		MaxDiscountAmount: money("1000000"),
		Categories:        []models.Category{{ID: 5}},
	}
	lines := []Line{
		{Price: dec("1000"), Quantity: 2, CategoryIDs: map[uint]struct{}{5: {}}},
		{Price: dec("3000"), Quantity: 1, CategoryIDs: map[uint]struct{}{7: {}}},
	}
	got := ProductDiscount(coupon, lines, dec("5000"))
	assert.True(t, got.Equal(dec("1000")), "got %s", got)

	offCategory := []Line{{Price: dec("3000"), Quantity: 1, CategoryIDs: map[uint]struct{}{7: {}}}}
	assert.True(t, ProductDiscount(coupon, offCategory, dec("3000")).IsZero())
}

func TestLineDiscountProportionalShare(t *testing.T) {
	coupon := &models.Coupon{
		DiscountType:      constants.DiscountTypePercent,
		Value:             money("10"),
		MaxDiscountAmount: money("100000"),
	}
	lines := []Line{
		{Price: dec("30000"), Quantity: 1},
		{Price: dec("70000"), Quantity: 1},
	}
	subtotal := Subtotal(lines)
	orderDiscount := ProductDiscount(coupon, lines, subtotal)
	require.True(t, orderDiscount.Equal(dec("10000")))

	first := LineDiscount(coupon, lines[0], subtotal, orderDiscount)
	second := LineDiscount(coupon, lines[1], subtotal, orderDiscount)
	assert.True(t, first.Equal(dec("3000")))
	assert.True(t, second.Equal(dec("7000")))
	assert.True(t, first.Add(second).Equal(orderDiscount))
}

func TestLineDiscountCategoryScoped(t *testing.T) {
	scope := []models.Category{{ID: 5}}
	matching := Line{Price: dec("1000"), Quantity: 3, CategoryIDs: map[uint]struct{}{5: {}}}
	other := Line{Price: dec("1000"), Quantity: 1, CategoryIDs: map[uint]struct{}{9: {}}}
	subtotal := dec("4000")

	percent := &models.Coupon{DiscountType: constants.DiscountTypePercent, Value: money("20"), MaxDiscountAmount: money("500"), Categories: scope}
	assert.True(t, LineDiscount(percent, matching, subtotal, decimal.Zero).Equal(dec("500")), "capped by max")
	assert.True(t, LineDiscount(percent, other, subtotal, decimal.Zero).IsZero())

	amount := &models.Coupon{DiscountType: constants.DiscountTypeAmount, Value: money("2000"), MaxDiscountAmount: money("10000"), Categories: scope}
	assert.True(t, LineDiscount(amount, matching, subtotal, decimal.Zero).Equal(dec("1500")))
}

func TestLineDiscountNeverExceedsLineTotal(t *testing.T) {
	coupon := &models.Coupon{DiscountType: constants.DiscountTypeAmount, Value: money("1000"), MaxDiscountAmount: money("1000")}
	line := Line{Price: dec("100"), Quantity: 1}
	got := LineDiscount(coupon, line, dec("100"), dec("1000"))
	assert.True(t, got.Equal(dec("100")))
}

func TestPureFunctionsDoNotMutateCoupon(t *testing.T) {
	coupon := &models.Coupon{DiscountType: constants.DiscountTypePercent, Value: money("10"), MaxDiscountAmount: money("100"), UsedCount: 3}
	lines := []Line{{Price: dec("500"), Quantity: 1}}
	_ = ProductDiscount(coupon, lines, dec("500"))
	_ = ShippingDiscount(coupon, dec("500"))
	_ = LineDiscount(coupon, lines[0], dec("500"), dec("50"))
	assert.Equal(t, 3, coupon.UsedCount)
	assert.True(t, coupon.Value.Decimal.Equal(dec("10")))
}

func TestNewSummaryTotals(t *testing.T) {
	s := NewSummary(dec("200000"), dec("20000"), dec("20000"), decimal.Zero)
	assert.True(t, s.Total.Equal(dec("200000")))

	s = NewSummary(dec("99.99"), dec("10.2"), dec("0.5"), dec("0.1"))
	assert.Equal(t, "100", s.Subtotal.String())
	assert.Equal(t, "11", s.ShippingFee.String())
	assert.Equal(t, "1", s.ProductDiscountAmount.String())
	assert.Equal(t, "1", s.ShippingDiscountAmount.String())
	assert.Equal(t, "109", s.Total.String())

	sum := s.Add(s)
	assert.Equal(t, "218", sum.Total.String())
}

func TestIntersects(t *testing.T) {
	assert.False(t, Intersects(map[uint]struct{}{5: {}}, map[uint]struct{}{7: {}}))
	assert.True(t, Intersects(map[uint]struct{}{5: {}, 7: {}}, map[uint]struct{}{7: {}}))
	assert.False(t, Intersects(nil, map[uint]struct{}{7: {}}))
}

func TestFractionalCapSurvivesRounding(t *testing.T) {
	coupon := &models.Coupon{DiscountType: constants.DiscountTypePercent, Value: money("50"), MaxDiscountAmount: money("10.50")}
	lines := []Line{{Price: dec("20.6"), Quantity: 1}}
	subtotal := Subtotal(lines)

	product := ProductDiscount(coupon, lines, subtotal)
	shippingFee := ShippingDiscount(coupon, dec("30"))
	s := NewSummary(subtotal, dec("30"), product, shippingFee)

	limit := coupon.MaxDiscountAmount.Decimal
	assert.Equal(t, "10", s.ProductDiscountAmount.String())
	assert.Equal(t, "10", s.ShippingDiscountAmount.String())
	assert.True(t, s.ProductDiscountAmount.LessThanOrEqual(limit))
	assert.True(t, s.ShippingDiscountAmount.LessThanOrEqual(limit))

	line := LineDiscount(coupon, lines[0], subtotal, s.ProductDiscountAmount)
	assert.True(t, Ceil(line).LessThanOrEqual(limit), "line discount %s", line)
}
