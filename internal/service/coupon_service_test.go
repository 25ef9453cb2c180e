package service

import (
	"errors"
	"testing"
	"time"

	"github.com/bazaar-next/internal/constants"
	"github.com/bazaar-next/internal/models"

	"github.com/shopspring/decimal"
)

func TestCouponValidateOrder(t *testing.T) {
	f := setupServiceFixture(t)
	now := time.Now()
	books := f.seedCategory(t, "books")
	toys := f.seedCategory(t, "toys")

	f.seedCoupon(t, models.Coupon{Code: "OK", Type: constants.CouponTypeProduct, Value: models.NewMoneyFromInt(10), MaxUseCount: 5, IsActive: true})
	f.seedCoupon(t, models.Coupon{Code: "SHIP", Type: constants.CouponTypeShipping, Value: models.NewMoneyFromInt(10), MaxUseCount: 5, IsActive: true})
	// 同时不满足多项，只应报告最先失败的检查
	f.seedCoupon(t, models.Coupon{Code: "OFF", Type: constants.CouponTypeProduct, MaxUseCount: 0, IsActive: false, StartTime: now.Add(time.Hour), EndTime: now.Add(2 * time.Hour)})
	f.seedCoupon(t, models.Coupon{Code: "LATER", Type: constants.CouponTypeProduct, MaxUseCount: 0, IsActive: true, StartTime: now.Add(time.Hour), EndTime: now.Add(2 * time.Hour)})
	f.seedCoupon(t, models.Coupon{Code: "OLD", Type: constants.CouponTypeProduct, MaxUseCount: 0, IsActive: true, StartTime: now.Add(-2 * time.Hour), EndTime: now})
	f.seedCoupon(t, models.Coupon{Code: "USED", Type: constants.CouponTypeProduct, MaxUseCount: 3, UsedCount: 3, IsActive: true, MinOrderValue: models.NewMoneyFromInt(1000000)})
	f.seedCoupon(t, models.Coupon{Code: "MIN", Type: constants.CouponTypeProduct, MaxUseCount: 3, IsActive: true, MinOrderValue: models.NewMoneyFromInt(1000000), Categories: []models.Category{toys}})
	f.seedCoupon(t, models.Coupon{Code: "TOYS", Type: constants.CouponTypeProduct, MaxUseCount: 3, IsActive: true, Categories: []models.Category{toys}})
	f.seedCoupon(t, models.Coupon{Code: "BOOKS", Type: constants.CouponTypeProduct, MaxUseCount: 3, IsActive: true, Categories: []models.Category{books, toys}})

	svc := NewCouponService(f.couponRepo)
	cartCategories := map[uint]struct{}{books.ID: {}}
	subtotal := decimal.NewFromInt(200000)

	tests := []struct {
		name string
		code string
		want error
	}{
		{name: "empty code", code: "  ", want: ErrCouponNotFound},
		{name: "unknown code", code: "NOPE", want: ErrCouponNotFound},
		{name: "type checked first", code: "SHIP", want: ErrCouponTypeMismatch},
		{name: "inactive before window", code: "OFF", want: ErrCouponInactive},
		{name: "not started", code: "LATER", want: ErrCouponNotStarted},
		{name: "end time exclusive", code: "OLD", want: ErrCouponExpired},
		{name: "usage before min amount", code: "USED", want: ErrCouponUsageLimit},
		{name: "min amount before category", code: "MIN", want: ErrCouponMinAmount},
		{name: "category mismatch", code: "TOYS", want: ErrCouponCategoryMismatch},
		{name: "category intersects", code: "BOOKS"},
		{name: "trimmed code", code: " OK "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coupon, err := svc.Validate(tt.code, constants.CouponTypeProduct, subtotal, cartCategories, now)
			if tt.want != nil {
				if !errors.Is(err, tt.want) {
					t.Fatalf("expected %v, got %v", tt.want, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("validate failed: %v", err)
			}
			if coupon == nil {
				t.Fatalf("expected coupon")
			}
		})
	}

	if got := f.usedCount(t, "OK"); got != 0 {
		t.Fatalf("validate must not consume usage, used_count=%d", got)
	}
}

func TestCouponValidateStartTimeInclusive(t *testing.T) {
	f := setupServiceFixture(t)
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	f.seedCoupon(t, models.Coupon{Code: "EDGE", Type: constants.CouponTypeShipping, MaxUseCount: 1, IsActive: true, StartTime: start, EndTime: start.Add(time.Hour)})

	svc := NewCouponService(f.couponRepo)
	if _, err := svc.Validate("EDGE", constants.CouponTypeShipping, decimal.Zero, nil, start); err != nil {
		t.Fatalf("start time should be valid: %v", err)
	}
	if _, err := svc.Validate("EDGE", constants.CouponTypeShipping, decimal.Zero, nil, start.Add(time.Hour)); !errors.Is(err, ErrCouponExpired) {
		t.Fatalf("end time should be expired, got %v", err)
	}
}

func TestErrorCodes(t *testing.T) {
	if CodeOf(ErrWardNotFound) != 404 {
		t.Fatalf("ward not found should be 404")
	}
	if CodeOf(ErrCouponMinAmount) != 400 {
		t.Fatalf("coupon min amount should be 400")
	}
	if CodeOf(ErrShippingFeeUnavailable) != 500 {
		t.Fatalf("shipping fee unavailable should be 500")
	}
	if CodeOf(errors.New("boom")) != 500 {
		t.Fatalf("unknown error should be 500")
	}
}
