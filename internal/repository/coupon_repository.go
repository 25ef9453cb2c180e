package repository

import (
	"errors"
	"strings"

	"github.com/bazaar-next/internal/models"

	"gorm.io/gorm"
)

// CouponRepository 优惠券数据访问接口
type CouponRepository interface {
	GetByCode(code string) (*models.Coupon, error)
	Create(coupon *models.Coupon) error
	Update(coupon *models.Coupon) error
	Delete(code string) error
	List(filter CouponListFilter) ([]models.Coupon, int64, error)
	IncrementUsage(code string) (bool, error)
	ReleaseUsage(code string) error
	WithTx(tx *gorm.DB) *GormCouponRepository
}

// GormCouponRepository GORM 实现
type GormCouponRepository struct {
	db *gorm.DB
}

// NewCouponRepository 创建优惠券仓库
func NewCouponRepository(db *gorm.DB) *GormCouponRepository {
	return &GormCouponRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCouponRepository) WithTx(tx *gorm.DB) *GormCouponRepository {
	if tx == nil {
		return r
	}
	return &GormCouponRepository{db: tx}
}

// GetByCode 根据优惠码获取优惠券（含适用分类）
func (r *GormCouponRepository) GetByCode(code string) (*models.Coupon, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	var coupon models.Coupon
	if err := r.db.Preload("Categories").Where("code = ?", code).First(&coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &coupon, nil
}

// Create 创建优惠券
// is_active 列带默认值，创建时 RETURNING 会覆盖零值 false，需按入参写回
func (r *GormCouponRepository) Create(coupon *models.Coupon) error {
	active := coupon.IsActive
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(coupon).Error; err != nil {
			return err
		}
		if !active {
			if err := tx.Model(&models.Coupon{}).Where("code = ?", coupon.Code).UpdateColumn("is_active", false).Error; err != nil {
				return err
			}
		}
		coupon.IsActive = active
		return nil
	})
}

// Update 更新优惠券并替换适用分类
func (r *GormCouponRepository) Update(coupon *models.Coupon) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Categories").Save(coupon).Error; err != nil {
			return err
		}
		return tx.Model(coupon).Association("Categories").Replace(coupon.Categories)
	})
}

// Delete 删除优惠券及其分类关联
func (r *GormCouponRepository) Delete(code string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		coupon := &models.Coupon{Code: code}
		if err := tx.Model(coupon).Association("Categories").Clear(); err != nil {
			return err
		}
		return tx.Delete(coupon).Error
	})
}

// List 优惠券列表
func (r *GormCouponRepository) List(filter CouponListFilter) ([]models.Coupon, int64, error) {
	query := r.db.Model(&models.Coupon{})
	query = applyKeyword(query, filter.Code, "code")
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	return listPage[models.Coupon](query, filter.Page, filter.PageSize, "created_at DESC, code ASC", "Categories")
}

// IncrementUsage 在未达上限时增加一次使用次数，返回是否成功占用
func (r *GormCouponRepository) IncrementUsage(code string) (bool, error) {
	result := r.db.Model(&models.Coupon{}).
		Where("code = ? AND used_count < max_use_count", code).
		UpdateColumn("used_count", gorm.Expr("used_count + ?", 1))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ReleaseUsage 归还一次使用次数，不会减到负数
func (r *GormCouponRepository) ReleaseUsage(code string) error {
	return r.db.Model(&models.Coupon{}).
		Where("code = ? AND used_count > 0", code).
		UpdateColumn("used_count", gorm.Expr("used_count - ?", 1)).Error
}
