package service

import (
	"strings"
	"time"

	"github.com/bazaar-next/internal/constants"
	"github.com/bazaar-next/internal/models"
	"github.com/bazaar-next/internal/repository"

	"github.com/shopspring/decimal"
)

// CouponAdminService 优惠券管理服务
type CouponAdminService struct {
	repo         repository.CouponRepository
	categoryRepo repository.CategoryRepository
}

// NewCouponAdminService 创建优惠券管理服务
func NewCouponAdminService(repo repository.CouponRepository, categoryRepo repository.CategoryRepository) *CouponAdminService {
	return &CouponAdminService{repo: repo, categoryRepo: categoryRepo}
}

// CouponInput 创建或更新优惠券的输入
type CouponInput struct {
	Code              string
	Type              string
	DiscountType      string
	Value             models.Money
	MaxDiscountAmount models.Money
	MinOrderValue     models.Money
	MaxUseCount       int
	CategoryIDs       []uint
	StartTime         time.Time
	EndTime           time.Time
	IsActive          *bool
}

// Create 创建优惠券
func (s *CouponAdminService) Create(input CouponInput) (*models.Coupon, error) {
	code := strings.TrimSpace(input.Code)
	if code == "" {
		return nil, ErrCouponInvalid
	}
	if err := validateCouponInput(input); err != nil {
		return nil, err
	}

	exist, err := s.repo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if exist != nil {
		return nil, ErrCouponCodeExists
	}

	categories, err := s.resolveCategories(input.CategoryIDs)
	if err != nil {
		return nil, err
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	coupon := &models.Coupon{
		Code:              code,
		Type:              normalizeKey(input.Type),
		DiscountType:      normalizeKey(input.DiscountType),
		Value:             input.Value,
		MaxDiscountAmount: input.MaxDiscountAmount,
		MinOrderValue:     input.MinOrderValue,
		MaxUseCount:       input.MaxUseCount,
		IsActive:          isActive,
		StartTime:         input.StartTime,
		EndTime:           input.EndTime,
		Categories:        categories,
	}
	if err := s.repo.Create(coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

// Update 更新优惠券，优惠码与已使用次数保持不变
func (s *CouponAdminService) Update(code string, input CouponInput) (*models.Coupon, error) {
	existing, err := s.repo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrCouponNotFound
	}
	if err := validateCouponInput(input); err != nil {
		return nil, err
	}
	categories, err := s.resolveCategories(input.CategoryIDs)
	if err != nil {
		return nil, err
	}

	existing.Type = normalizeKey(input.Type)
	existing.DiscountType = normalizeKey(input.DiscountType)
	existing.Value = input.Value
	existing.MaxDiscountAmount = input.MaxDiscountAmount
	existing.MinOrderValue = input.MinOrderValue
	existing.MaxUseCount = input.MaxUseCount
	existing.StartTime = input.StartTime
	existing.EndTime = input.EndTime
	existing.Categories = categories
	if input.IsActive != nil {
		existing.IsActive = *input.IsActive
	}

	if err := s.repo.Update(existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// Delete 删除优惠券
func (s *CouponAdminService) Delete(code string) error {
	existing, err := s.repo.GetByCode(code)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrCouponNotFound
	}
	return s.repo.Delete(existing.Code)
}

// List 获取优惠券列表
func (s *CouponAdminService) List(filter repository.CouponListFilter) ([]models.Coupon, int64, error) {
	return s.repo.List(filter)
}

func (s *CouponAdminService) resolveCategories(ids []uint) ([]models.Category, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return []models.Category{}, nil
	}
	categories, err := s.categoryRepo.GetByIDs(ids)
	if err != nil {
		return nil, err
	}
	if len(categories) != len(ids) {
		return nil, ErrCategoryNotFound
	}
	return categories, nil
}

func validateCouponInput(input CouponInput) error {
	couponType := normalizeKey(input.Type)
	if couponType != constants.CouponTypeProduct && couponType != constants.CouponTypeShipping {
		return ErrCouponInvalid
	}
	discountType := normalizeKey(input.DiscountType)
	if discountType != constants.DiscountTypePercent && discountType != constants.DiscountTypeAmount {
		return ErrCouponInvalid
	}
	if input.Value.Decimal.LessThanOrEqual(decimal.Zero) {
		return ErrCouponInvalid
	}
	if discountType == constants.DiscountTypePercent && input.Value.Decimal.GreaterThan(decimal.NewFromInt(100)) {
		return ErrCouponInvalid
	}
	if input.MaxDiscountAmount.Decimal.IsNegative() || input.MinOrderValue.Decimal.IsNegative() {
		return ErrCouponInvalid
	}
	if input.MaxUseCount <= 0 {
		return ErrCouponInvalid
	}
	if input.StartTime.IsZero() || input.EndTime.IsZero() || !input.EndTime.After(input.StartTime) {
		return ErrCouponInvalid
	}
	return nil
}

func normalizeKey(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	result := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
