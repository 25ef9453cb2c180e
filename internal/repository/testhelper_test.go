package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/bazaar-next/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupRepositoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func seedWard(t *testing.T, db *gorm.DB) *models.Ward {
	t.Helper()
	province := models.Province{Name: "Hồ Chí Minh", Code: 202}
	if err := db.Create(&province).Error; err != nil {
		t.Fatalf("create province failed: %v", err)
	}
	district := models.District{ID: 1442, Name: "Quận 1", ProvinceID: province.ID}
	if err := db.Create(&district).Error; err != nil {
		t.Fatalf("create district failed: %v", err)
	}
	ward := models.Ward{Code: "20109", Name: "Phường Bến Nghé", DistrictID: district.ID}
	if err := db.Create(&ward).Error; err != nil {
		t.Fatalf("create ward failed: %v", err)
	}
	return &ward
}

func seedShopProduct(t *testing.T, db *gorm.DB, wardID uint, name string, price int64) (*models.Shop, *models.Product) {
	t.Helper()
	shop := models.Shop{OwnerID: 99, Name: name + " shop", Phone: "0900000000", Address: "1 Lê Lợi", WardID: wardID}
	if err := db.Create(&shop).Error; err != nil {
		t.Fatalf("create shop failed: %v", err)
	}
	product := models.Product{
		ShopID:       shop.ID,
		Name:         name,
		RegularPrice: models.NewMoneyFromInt(price),
		Quantity:     10,
		Length:       10,
		Width:        10,
		Height:       10,
		Weight:       200,
		IsActive:     true,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return &shop, &product
}
