package repository

import (
	"github.com/bazaar-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartRepository 购物车数据访问接口
type CartRepository interface {
	ListByUser(userID uint) ([]models.CartItem, error)
	ListByUserForCheckout(userID uint) ([]models.CartItem, error)
	Upsert(item *models.CartItem) error
	DeleteByUserAndProduct(userID, productID uint) error
	DeleteByUserAndProducts(userID uint, productIDs []uint) (int64, error)
	ClearByUser(userID uint) error
	WithTx(tx *gorm.DB) *GormCartRepository
}

// GormCartRepository GORM 实现
type GormCartRepository struct {
	db *gorm.DB
}

// NewCartRepository 创建购物车仓库
func NewCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCartRepository) WithTx(tx *gorm.DB) *GormCartRepository {
	if tx == nil {
		return r
	}
	return &GormCartRepository{db: tx}
}

// ListByUser 获取用户购物车（含商品与折扣）
func (r *GormCartRepository) ListByUser(userID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.db.Preload("Product").
		Preload("Product.Discounts").
		Where("user_id = ?", userID).
		Order("product_id asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ListByUserForCheckout 获取结算所需的完整购物车，带出店铺发货地址层级
func (r *GormCartRepository) ListByUserForCheckout(userID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.db.Preload("Product").
		Preload("Product.Discounts").
		Preload("Product.Categories").
		Preload("Product.Shop").
		Preload("Product.Shop.Ward").
		Preload("Product.Shop.Ward.District").
		Preload("Product.Shop.Ward.District.Province").
		Where("user_id = ?", userID).
		Order("product_id asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Upsert 新增或更新购物车项（按 user_id + product_id 唯一）
func (r *GormCartRepository) Upsert(item *models.CartItem) error {
	if item == nil {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
	}).Create(item).Error
}

// DeleteByUserAndProduct 删除指定购物车项
func (r *GormCartRepository) DeleteByUserAndProduct(userID, productID uint) error {
	return r.db.Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.CartItem{}).Error
}

// DeleteByUserAndProducts 删除已结算的购物车项，返回删除行数
func (r *GormCartRepository) DeleteByUserAndProducts(userID uint, productIDs []uint) (int64, error) {
	if len(productIDs) == 0 {
		return 0, nil
	}
	result := r.db.Where("user_id = ? AND product_id IN ?", userID, productIDs).
		Delete(&models.CartItem{})
	return result.RowsAffected, result.Error
}

// ClearByUser 清空用户购物车
func (r *GormCartRepository) ClearByUser(userID uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
}
