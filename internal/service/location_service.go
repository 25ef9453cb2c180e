package service

import (
	"context"
	"time"

	"github.com/bazaar-next/internal/cache"
	"github.com/bazaar-next/internal/logger"
	"github.com/bazaar-next/internal/models"
	"github.com/bazaar-next/internal/repository"
)

// LocationService 地址层级服务（坊信息带缓存）
type LocationService struct {
	locationRepo repository.LocationRepository
	cacheTTL     time.Duration
}

// NewLocationService 创建地址服务
func NewLocationService(locationRepo repository.LocationRepository, cacheTTL time.Duration) *LocationService {
	return &LocationService{locationRepo: locationRepo, cacheTTL: cacheTTL}
}

// GetWard 获取坊及其区县、省份，不存在返回 ErrWardNotFound
func (s *LocationService) GetWard(ctx context.Context, wardID uint) (*models.Ward, error) {
	if wardID == 0 {
		return nil, ErrWardNotFound
	}
	if cached, ok, err := cache.GetWard(ctx, wardID); err != nil {
		logger.Warnw("location_ward_cache_get_failed", "ward_id", wardID, "error", err)
	} else if ok && cached.District != nil && cached.District.Province != nil {
		return cached, nil
	}

	ward, err := s.locationRepo.GetWard(wardID)
	if err != nil {
		return nil, err
	}
	if ward == nil {
		return nil, ErrWardNotFound
	}
	if err := cache.SetWard(ctx, ward, s.cacheTTL); err != nil {
		logger.Warnw("location_ward_cache_set_failed", "ward_id", wardID, "error", err)
	}
	return ward, nil
}

// ListProvinces 省份列表
func (s *LocationService) ListProvinces() ([]models.Province, error) {
	return s.locationRepo.ListProvinces()
}

// ListDistricts 区县列表
func (s *LocationService) ListDistricts(provinceID uint) ([]models.District, error) {
	return s.locationRepo.ListDistricts(provinceID)
}

// ListWards 坊列表
func (s *LocationService) ListWards(districtID uint) ([]models.Ward, error) {
	return s.locationRepo.ListWards(districtID)
}
