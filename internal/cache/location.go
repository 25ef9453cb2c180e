package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/bazaar-next/internal/models"
)

const defaultWardCacheTTL = time.Hour

func wardKey(wardID uint) string {
	return fmt.Sprintf("location:ward:%d", wardID)
}

// GetWard 读取坊（含区县、省份）缓存
func GetWard(ctx context.Context, wardID uint) (*models.Ward, bool, error) {
	var ward models.Ward
	hit, err := GetJSON(ctx, wardKey(wardID), &ward)
	if err != nil || !hit {
		return nil, false, err
	}
	return &ward, true, nil
}

// SetWard 写入坊缓存
func SetWard(ctx context.Context, ward *models.Ward, ttl time.Duration) error {
	if ward == nil || ward.ID == 0 {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultWardCacheTTL
	}
	return SetJSON(ctx, wardKey(ward.ID), ward, ttl)
}

// DelWard 删除坊缓存
func DelWard(ctx context.Context, wardID uint) error {
	return Del(ctx, wardKey(wardID))
}
