package repository

import "gorm.io/gorm"

// listPage 统计总数后按页取数；pageSize<=0 时不分页（导出场景）
func listPage[T any](query *gorm.DB, page, pageSize int, order string, preloads ...string) ([]T, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	rows := make([]T, 0)
	if total == 0 {
		return rows, 0, nil
	}
	if pageSize > 0 {
		if page < 1 {
			page = 1
		}
		query = query.Limit(pageSize).Offset((page - 1) * pageSize)
	}
	for _, rel := range preloads {
		query = query.Preload(rel)
	}
	if err := query.Order(order).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
