package models

import (
	"time"
)

// CartItem 购物车项，主键为 (user_id, product_id)
type CartItem struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`    // 用户ID
	ProductID uint      `gorm:"primaryKey;autoIncrement:false" json:"product_id"` // 商品ID
	Quantity  int       `gorm:"not null" json:"quantity"`                         // 数量
	CreatedAt time.Time `gorm:"index" json:"created_at"`                          // 创建时间
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`                          // 更新时间

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"` // 关联商品
}

// TableName 指定表名
func (CartItem) TableName() string {
	return "cart_items"
}
