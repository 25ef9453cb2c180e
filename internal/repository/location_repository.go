package repository

import (
	"errors"

	"github.com/bazaar-next/internal/models"

	"gorm.io/gorm"
)

// LocationRepository 地址层级数据访问接口
type LocationRepository interface {
	GetWard(id uint) (*models.Ward, error)
	ListProvinces() ([]models.Province, error)
	ListDistricts(provinceID uint) ([]models.District, error)
	ListWards(districtID uint) ([]models.Ward, error)
}

// GormLocationRepository GORM 实现
type GormLocationRepository struct {
	db *gorm.DB
}

// NewLocationRepository 创建地址仓库
func NewLocationRepository(db *gorm.DB) *GormLocationRepository {
	return &GormLocationRepository{db: db}
}

// GetWard 获取坊及其区县、省份
func (r *GormLocationRepository) GetWard(id uint) (*models.Ward, error) {
	var ward models.Ward
	if err := r.db.Preload("District").Preload("District.Province").First(&ward, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ward, nil
}

// ListProvinces 省份列表
func (r *GormLocationRepository) ListProvinces() ([]models.Province, error) {
	var provinces []models.Province
	if err := r.db.Order("id asc").Find(&provinces).Error; err != nil {
		return nil, err
	}
	return provinces, nil
}

// ListDistricts 区县列表
func (r *GormLocationRepository) ListDistricts(provinceID uint) ([]models.District, error) {
	var districts []models.District
	if err := r.db.Where("province_id = ?", provinceID).Order("id asc").Find(&districts).Error; err != nil {
		return nil, err
	}
	return districts, nil
}

// ListWards 坊列表
func (r *GormLocationRepository) ListWards(districtID uint) ([]models.Ward, error) {
	var wards []models.Ward
	if err := r.db.Where("district_id = ?", districtID).Order("id asc").Find(&wards).Error; err != nil {
		return nil, err
	}
	return wards, nil
}
