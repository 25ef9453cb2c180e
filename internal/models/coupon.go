package models

import (
	"time"
)

// Coupon 优惠券，以优惠码为主键
type Coupon struct {
	Code              string     `gorm:"primaryKey;size:64" json:"code"`                                   // 优惠码
	Type              string     `gorm:"type:varchar(20);not null" json:"type"`                            // 类型（product/shipping）
	DiscountType      string     `gorm:"type:varchar(20);not null" json:"discount_type"`                   // 优惠方式（percent/amount）
	Value             Money      `gorm:"type:decimal(20,2);not null" json:"value"`                         // 数值（百分比或固定金额）
	MaxDiscountAmount Money      `gorm:"type:decimal(20,2);not null;default:0" json:"max_discount_amount"` // 最大优惠金额
	MinOrderValue     Money      `gorm:"type:decimal(20,2);not null;default:0" json:"min_order_value"`     // 使用门槛
	MaxUseCount       int        `gorm:"not null;default:0" json:"max_use_count"`                          // 总使用上限
	UsedCount         int        `gorm:"not null;default:0" json:"used_count"`                             // 已使用次数
	IsActive          bool       `gorm:"not null;default:true" json:"is_active"`                           // 是否启用
	StartTime         time.Time  `gorm:"not null;index" json:"start_time"`                                 // 生效时间
	EndTime           time.Time  `gorm:"not null;index" json:"end_time"`                                   // 失效时间
	Categories        []Category `gorm:"many2many:coupon_categories;" json:"categories,omitempty"`         // 适用分类（为空表示全部）
	CreatedAt         time.Time  `gorm:"index" json:"created_at"`                                          // 创建时间
	UpdatedAt         time.Time  `gorm:"index" json:"updated_at"`                                          // 更新时间
}

// TableName 指定表名
func (Coupon) TableName() string {
	return "coupons"
}
