package models

import (
	"time"
)

// Category 商品分类（优惠券按分类匹配时使用）
type Category struct {
	ID        uint      `gorm:"primarykey" json:"id"`             // 主键
	Slug      string    `gorm:"uniqueIndex;not null" json:"slug"` // 唯一标识
	Name      string    `gorm:"not null" json:"name"`             // 名称
	ParentID  *uint     `gorm:"index" json:"parent_id"`           // 上级分类（子分类时非空）
	CreatedAt time.Time `gorm:"index" json:"created_at"`          // 创建时间
}

// TableName 指定表名
func (Category) TableName() string {
	return "categories"
}

// CategoryIDSet 将分类列表转换为 ID 集合
func CategoryIDSet(categories []Category) map[uint]struct{} {
	set := make(map[uint]struct{}, len(categories))
	for _, c := range categories {
		set[c.ID] = struct{}{}
	}
	return set
}
