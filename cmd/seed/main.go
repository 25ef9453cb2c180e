package main

import (
	"time"

	"github.com/bazaar-next/internal/config"
	"github.com/bazaar-next/internal/constants"
	"github.com/bazaar-next/internal/logger"
	"github.com/bazaar-next/internal/models"

	"gorm.io/gorm"
)

type seedWard struct {
	Code string
	Name string
}

type seedDistrict struct {
	ID    uint
	Name  string
	Wards []seedWard
}

type seedProvince struct {
	Name      string
	Code      int
	Districts []seedDistrict
}

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}, cfg.Database.Debug); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	err := models.DB.Transaction(func(tx *gorm.DB) error {
		wards, err := seedLocations(tx)
		if err != nil {
			return err
		}
		categories, err := seedCategories(tx)
		if err != nil {
			return err
		}
		shops, err := seedShops(tx, wards)
		if err != nil {
			return err
		}
		if err := seedProducts(tx, shops, categories); err != nil {
			return err
		}
		return seedCoupons(tx, categories)
	})
	if err != nil {
		stdLog.Fatalf("Seed failed: %v", err)
	}
	stdLog.Printf("Seed completed")
}

func seedLocations(tx *gorm.DB) (map[string]models.Ward, error) {
	provinces := []seedProvince{
		{
			Name: "Hồ Chí Minh",
			Code: 202,
			Districts: []seedDistrict{
				{ID: 1442, Name: "Quận 1", Wards: []seedWard{{Code: "20101", Name: "Phường Bến Nghé"}, {Code: "20107", Name: "Phường Đa Kao"}}},
				{ID: 1444, Name: "Quận 3", Wards: []seedWard{{Code: "20301", Name: "Phường 1"}, {Code: "20314", Name: "Phường Võ Thị Sáu"}}},
			},
		},
		{
			Name: "Hà Nội",
			Code: 201,
			Districts: []seedDistrict{
				{ID: 1488, Name: "Quận Ba Đình", Wards: []seedWard{{Code: "1A0101", Name: "Phường Phúc Xá"}}},
				{ID: 1489, Name: "Quận Hoàn Kiếm", Wards: []seedWard{{Code: "1A0201", Name: "Phường Hàng Bạc"}}},
			},
		},
	}

	wards := make(map[string]models.Ward)
	for _, p := range provinces {
		province := models.Province{Name: p.Name, Code: p.Code}
		if err := tx.Where(models.Province{Code: p.Code}).FirstOrCreate(&province).Error; err != nil {
			return nil, err
		}
		for _, d := range p.Districts {
			district := models.District{ID: d.ID, Name: d.Name, ProvinceID: province.ID}
			if err := tx.Where(models.District{ID: d.ID}).FirstOrCreate(&district).Error; err != nil {
				return nil, err
			}
			for _, w := range d.Wards {
				ward := models.Ward{Code: w.Code, Name: w.Name, DistrictID: district.ID}
				if err := tx.Where(models.Ward{Code: w.Code, DistrictID: district.ID}).FirstOrCreate(&ward).Error; err != nil {
					return nil, err
				}
				wards[w.Code] = ward
			}
		}
		logger.Infow("seed_province_ready", "province", p.Name, "districts", len(p.Districts))
	}
	return wards, nil
}

func seedCategories(tx *gorm.DB) (map[string]models.Category, error) {
	items := []models.Category{
		{Slug: "electronics", Name: "Electronics"},
		{Slug: "books", Name: "Books"},
		{Slug: "fashion", Name: "Fashion"},
	}
	result := make(map[string]models.Category, len(items)+1)
	for _, item := range items {
		category := item
		if err := tx.Where(models.Category{Slug: item.Slug}).FirstOrCreate(&category).Error; err != nil {
			return nil, err
		}
		result[category.Slug] = category
	}

	// 子分类
	parentID := result["electronics"].ID
	phones := models.Category{Slug: "phones", Name: "Phones", ParentID: &parentID}
	if err := tx.Where(models.Category{Slug: phones.Slug}).FirstOrCreate(&phones).Error; err != nil {
		return nil, err
	}
	result[phones.Slug] = phones
	return result, nil
}

func seedShops(tx *gorm.DB, wards map[string]models.Ward) ([]models.Shop, error) {
	items := []models.Shop{
		{OwnerID: 1001, Name: "Saigon Gadgets", Phone: "0901000001", Address: "12 Nguyễn Huệ", WardID: wards["20101"].ID},
		{OwnerID: 1002, Name: "Hanoi Books", Phone: "0901000002", Address: "5 Hàng Bạc", WardID: wards["1A0201"].ID},
	}
	shops := make([]models.Shop, 0, len(items))
	for _, item := range items {
		shop := item
		if err := tx.Where(models.Shop{Name: item.Name}).FirstOrCreate(&shop).Error; err != nil {
			return nil, err
		}
		shops = append(shops, shop)
	}
	return shops, nil
}

func seedProducts(tx *gorm.DB, shops []models.Shop, categories map[string]models.Category) error {
	if len(shops) < 2 {
		return nil
	}
	now := time.Now()
	items := []struct {
		product    models.Product
		categories []string
		discount   *models.ProductDiscount
	}{
		{
			product:    models.Product{ShopID: shops[0].ID, Name: "Wireless Earbuds", RegularPrice: models.NewMoneyFromInt(890000), Quantity: 50, Length: 10, Width: 8, Height: 4, Weight: 200},
			categories: []string{"electronics"},
			discount:   &models.ProductDiscount{DiscountPrice: models.NewMoneyFromInt(690000), StartTime: now.Add(-24 * time.Hour), EndTime: now.Add(7 * 24 * time.Hour)},
		},
		{
			product:    models.Product{ShopID: shops[0].ID, Name: "Smartphone X", RegularPrice: models.NewMoneyFromInt(7990000), Quantity: 10, Length: 18, Width: 10, Height: 6, Weight: 450},
			categories: []string{"phones"},
		},
		{
			product:    models.Product{ShopID: shops[1].ID, Name: "Go in Practice", RegularPrice: models.NewMoneyFromInt(320000), Quantity: 100, Length: 24, Width: 17, Height: 3, Weight: 600},
			categories: []string{"books"},
		},
	}

	for _, item := range items {
		product := item.product
		if err := tx.Where(models.Product{ShopID: product.ShopID, Name: product.Name}).FirstOrCreate(&product).Error; err != nil {
			return err
		}
		linked := make([]models.Category, 0, len(item.categories))
		for _, slug := range item.categories {
			if category, ok := categories[slug]; ok {
				linked = append(linked, category)
			}
		}
		if err := tx.Model(&product).Association("Categories").Replace(linked); err != nil {
			return err
		}
		if item.discount == nil {
			continue
		}
		var count int64
		if err := tx.Model(&models.ProductDiscount{}).Where("product_id = ?", product.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			discount := *item.discount
			discount.ProductID = product.ID
			if err := tx.Create(&discount).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func seedCoupons(tx *gorm.DB, categories map[string]models.Category) error {
	now := time.Now()
	items := []struct {
		coupon     models.Coupon
		categories []string
	}{
		{
			coupon: models.Coupon{
				Code:              "WELCOME10",
				Type:              constants.CouponTypeProduct,
				DiscountType:      constants.DiscountTypePercent,
				Value:             models.NewMoneyFromInt(10),
				MaxDiscountAmount: models.NewMoneyFromInt(100000),
				MinOrderValue:     models.NewMoneyFromInt(200000),
				MaxUseCount:       1000,
				IsActive:          true,
				StartTime:         now.Add(-time.Hour),
				EndTime:           now.AddDate(0, 3, 0),
			},
		},
		{
			coupon: models.Coupon{
				Code:              "GADGET50K",
				Type:              constants.CouponTypeProduct,
				DiscountType:      constants.DiscountTypeAmount,
				Value:             models.NewMoneyFromInt(50000),
				MaxDiscountAmount: models.NewMoneyFromInt(50000),
				MinOrderValue:     models.NewMoneyFromInt(500000),
				MaxUseCount:       200,
				IsActive:          true,
				StartTime:         now.Add(-time.Hour),
				EndTime:           now.AddDate(0, 1, 0),
			},
			categories: []string{"electronics"},
		},
		{
			coupon: models.Coupon{
				Code:              "FREESHIP",
				Type:              constants.CouponTypeShipping,
				DiscountType:      constants.DiscountTypePercent,
				Value:             models.NewMoneyFromInt(100),
				MaxDiscountAmount: models.NewMoneyFromInt(30000),
				MinOrderValue:     models.NewMoneyFromInt(0),
				MaxUseCount:       500,
				IsActive:          true,
				StartTime:         now.Add(-time.Hour),
				EndTime:           now.AddDate(0, 1, 0),
			},
		},
	}

	for _, item := range items {
		coupon := item.coupon
		if err := tx.Where(models.Coupon{Code: coupon.Code}).FirstOrCreate(&coupon).Error; err != nil {
			return err
		}
		if len(item.categories) == 0 {
			continue
		}
		linked := make([]models.Category, 0, len(item.categories))
		for _, slug := range item.categories {
			if category, ok := categories[slug]; ok {
				linked = append(linked, category)
			}
		}
		if err := tx.Model(&coupon).Association("Categories").Replace(linked); err != nil {
			return err
		}
	}
	logger.Infow("seed_coupons_ready", "count", len(items))
	return nil
}
