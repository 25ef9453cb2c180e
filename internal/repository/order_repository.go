package repository

import (
	"errors"

	"github.com/bazaar-next/internal/constants"
	"github.com/bazaar-next/internal/models"

	"gorm.io/gorm"
)

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	Create(order *models.SalesOrder) error
	GetByID(id uint) (*models.SalesOrder, error)
	GetByIDAndUser(id uint, userID uint) (*models.SalesOrder, error)
	ListByIDs(ids []uint) ([]models.SalesOrder, error)
	ListByUser(filter OrderListFilter) ([]models.SalesOrder, int64, error)
	ListAdmin(filter OrderListFilter) ([]models.SalesOrder, int64, error)
	ListTracking(limit int) ([]models.SalesOrder, error)
	UpdateStatus(id uint, from []string, to string, updates map[string]interface{}) (bool, error)
	WithTx(tx *gorm.DB) *GormOrderRepository
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) *GormOrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

func (r *GormOrderRepository) withDetail(query *gorm.DB) *gorm.DB {
	return query.Preload("Products").Preload("Coupons").Preload("Shop")
}

// Create 创建订单、订单商品快照与优惠券关联；优惠券本身不会被写回
func (r *GormOrderRepository) Create(order *models.SalesOrder) error {
	return r.db.Omit("Coupons.*").Create(order).Error
}

// GetByID 根据 ID 获取订单
func (r *GormOrderRepository) GetByID(id uint) (*models.SalesOrder, error) {
	var order models.SalesOrder
	if err := r.withDetail(r.db).First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByIDAndUser 获取用户订单详情
func (r *GormOrderRepository) GetByIDAndUser(id uint, userID uint) (*models.SalesOrder, error) {
	var order models.SalesOrder
	if err := r.withDetail(r.db).Where("id = ? AND user_id = ?", id, userID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// ListByIDs 批量获取订单
func (r *GormOrderRepository) ListByIDs(ids []uint) ([]models.SalesOrder, error) {
	if len(ids) == 0 {
		return []models.SalesOrder{}, nil
	}
	var orders []models.SalesOrder
	if err := r.db.Preload("Coupons").Where("id IN ?", ids).Order("id asc").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// ListByUser 用户订单列表
func (r *GormOrderRepository) ListByUser(filter OrderListFilter) ([]models.SalesOrder, int64, error) {
	if filter.UserID == 0 {
		return []models.SalesOrder{}, 0, nil
	}
	return r.list(filter)
}

// ListAdmin 管理端订单列表
func (r *GormOrderRepository) ListAdmin(filter OrderListFilter) ([]models.SalesOrder, int64, error) {
	return r.list(filter)
}

func (r *GormOrderRepository) list(filter OrderListFilter) ([]models.SalesOrder, int64, error) {
	query := r.db.Model(&models.SalesOrder{})

	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.ShopID != 0 {
		query = query.Where("shop_id = ?", filter.ShopID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CheckoutNo != "" {
		query = query.Where("checkout_no = ?", filter.CheckoutNo)
	}
	if filter.OrderNo != "" {
		query = query.Where("order_no = ?", filter.OrderNo)
	}
	query = applyKeyword(query, filter.Keyword, "order_no", "shipping_order_code", "shipping_phone", "shipping_name")

	return listPage[models.SalesOrder](query, filter.Page, filter.PageSize, "id desc", "Products")
}

// ListTracking 获取运输中且已有运单号的订单
func (r *GormOrderRepository) ListTracking(limit int) ([]models.SalesOrder, error) {
	var orders []models.SalesOrder
	query := r.db.Where("status = ? AND shipping_order_code <> ''", constants.OrderStatusTracking).Order("id asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatus 仅当订单处于 from 中的状态时才更新，返回是否命中
func (r *GormOrderRepository) UpdateStatus(id uint, from []string, to string, updates map[string]interface{}) (bool, error) {
	values := map[string]interface{}{"status": to}
	for k, v := range updates {
		values[k] = v
	}
	query := r.db.Model(&models.SalesOrder{}).Where("id = ?", id)
	if len(from) > 0 {
		query = query.Where("status IN ?", from)
	}
	result := query.Updates(values)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
