package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/bazaar-next/internal/models"
	"github.com/bazaar-next/internal/pricing"
	"github.com/bazaar-next/internal/repository"

	"github.com/shopspring/decimal"
)

// CouponService 优惠券服务
type CouponService struct {
	couponRepo repository.CouponRepository
}

// NewCouponService 创建优惠券服务
func NewCouponService(couponRepo repository.CouponRepository) *CouponService {
	return &CouponService{couponRepo: couponRepo}
}

// Validate 按顺序校验优惠券，任一检查失败立即返回；校验不修改优惠券
func (s *CouponService) Validate(code, couponType string, orderSubtotal decimal.Decimal, categoryIDs map[uint]struct{}, now time.Time) (*models.Coupon, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return nil, ErrCouponNotFound
	}
	coupon, err := s.couponRepo.GetByCode(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCouponFetchFailed, err)
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}
	if coupon.Type != couponType {
		return nil, ErrCouponTypeMismatch
	}
	if !coupon.IsActive {
		return nil, ErrCouponInactive
	}
	if now.Before(coupon.StartTime) {
		return nil, ErrCouponNotStarted
	}
	if !now.Before(coupon.EndTime) {
		return nil, ErrCouponExpired
	}
	if coupon.UsedCount >= coupon.MaxUseCount {
		return nil, ErrCouponUsageLimit
	}
	if orderSubtotal.LessThan(coupon.MinOrderValue.Decimal) {
		return nil, ErrCouponMinAmount
	}
	if len(coupon.Categories) > 0 && !pricing.Intersects(models.CategoryIDSet(coupon.Categories), categoryIDs) {
		return nil, ErrCouponCategoryMismatch
	}
	return coupon, nil
}
