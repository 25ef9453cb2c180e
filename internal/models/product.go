package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 商品表
type Product struct {
	ID           uint           `gorm:"primarykey" json:"id"`                                       // 主键
	ShopID       uint           `gorm:"not null;index" json:"shop_id"`                              // 店铺ID
	Name         string         `gorm:"not null" json:"name"`                                       // 名称
	RegularPrice Money          `gorm:"type:decimal(20,2);not null;default:0" json:"regular_price"` // 原价
	Quantity     int            `gorm:"not null;default:0" json:"quantity"`                         // 库存
	Length       int            `gorm:"not null;default:0" json:"length"`                           // 长（cm）
	Width        int            `gorm:"not null;default:0" json:"width"`                            // 宽（cm）
	Height       int            `gorm:"not null;default:0" json:"height"`                           // 高（cm）
	Weight       int            `gorm:"not null;default:0" json:"weight"`                           // 重量（g）
	IsActive     bool           `gorm:"default:true;index" json:"is_active"`                        // 是否上架
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`                                    // 创建时间
	UpdatedAt    time.Time      `json:"updated_at"`                                                 // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                                             // 软删除时间

	// 关联
	Shop       *Shop             `gorm:"foreignKey:ShopID" json:"shop,omitempty"`                  // 店铺
	Discounts  []ProductDiscount `gorm:"foreignKey:ProductID" json:"discounts,omitempty"`          // 限时折扣
	Categories []Category        `gorm:"many2many:product_categories;" json:"categories,omitempty"` // 所属分类
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}

// ProductDiscount 商品限时折扣，生效区间 [StartTime, EndTime)
type ProductDiscount struct {
	ID            uint      `gorm:"primarykey" json:"id"`                                 // 主键
	ProductID     uint      `gorm:"not null;index" json:"product_id"`                     // 商品ID
	DiscountPrice Money     `gorm:"type:decimal(20,2);not null" json:"discount_price"`    // 折扣价
	StartTime     time.Time `gorm:"not null;index" json:"start_time"`                     // 开始时间
	EndTime       time.Time `gorm:"not null;index" json:"end_time"`                       // 结束时间
	CreatedAt     time.Time `json:"created_at"`                                           // 创建时间
}

// TableName 指定表名
func (ProductDiscount) TableName() string {
	return "product_discounts"
}
