package models

// Province 省份
type Province struct {
	ID   uint   `gorm:"primarykey" json:"id"`      // 主键
	Name string `gorm:"not null" json:"name"`      // 名称
	Code int    `gorm:"index" json:"code"`         // 承运商编码
}

// TableName 指定表名
func (Province) TableName() string {
	return "provinces"
}

// District 区县，ID 与承运商区县编码一致
type District struct {
	ID         uint      `gorm:"primarykey;autoIncrement:false" json:"id"`   // 主键（承运商区县 ID）
	Name       string    `gorm:"not null" json:"name"`                       // 名称
	ProvinceID uint      `gorm:"index;not null" json:"province_id"`          // 所属省份
	Province   *Province `gorm:"foreignKey:ProvinceID" json:"province,omitempty"` // 省份
}

// TableName 指定表名
func (District) TableName() string {
	return "districts"
}

// Ward 街道/坊
type Ward struct {
	ID         uint      `gorm:"primarykey" json:"id"`                           // 主键
	Code       string    `gorm:"index;not null" json:"code"`                     // 承运商坊编码
	Name       string    `gorm:"not null" json:"name"`                           // 名称
	DistrictID uint      `gorm:"index;not null" json:"district_id"`              // 所属区县
	District   *District `gorm:"foreignKey:DistrictID" json:"district,omitempty"` // 区县
}

// TableName 指定表名
func (Ward) TableName() string {
	return "wards"
}

// FullAddress 拼接完整地址
func (w *Ward) FullAddress(street string) string {
	if w == nil {
		return street
	}
	parts := make([]string, 0, 4)
	if street != "" {
		parts = append(parts, street)
	}
	parts = append(parts, w.Name)
	if w.District != nil {
		parts = append(parts, w.District.Name)
		if w.District.Province != nil {
			parts = append(parts, w.District.Province.Name)
		}
	}
	out := parts[0]
	for _, p := range parts[1:] {
		if p == "" {
			continue
		}
		out += ", " + p
	}
	return out
}
