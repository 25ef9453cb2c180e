package models

import (
	"time"

	"gorm.io/gorm"
)

// Shop 店铺（卖家）
type Shop struct {
	ID        uint           `gorm:"primarykey" json:"id"`                  // 主键
	OwnerID   uint           `gorm:"index" json:"owner_id"`                 // 店主用户ID
	Name      string         `gorm:"not null" json:"name"`                  // 店铺名称
	Phone     string         `gorm:"not null" json:"phone"`                 // 联系电话
	Address   string         `gorm:"not null" json:"address"`               // 街道地址
	WardID    uint           `gorm:"index;not null" json:"ward_id"`         // 发货坊
	Ward      *Ward          `gorm:"foreignKey:WardID" json:"ward,omitempty"` // 坊
	CreatedAt time.Time      `gorm:"index" json:"created_at"`               // 创建时间
	UpdatedAt time.Time      `gorm:"index" json:"updated_at"`               // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                        // 软删除时间
}

// TableName 指定表名
func (Shop) TableName() string {
	return "shops"
}
