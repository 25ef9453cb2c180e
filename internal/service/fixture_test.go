package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bazaar-next/internal/cache"
	"github.com/bazaar-next/internal/config"
	"github.com/bazaar-next/internal/constants"
	"github.com/bazaar-next/internal/models"
	"github.com/bazaar-next/internal/payment"
	"github.com/bazaar-next/internal/queue"
	"github.com/bazaar-next/internal/repository"
	"github.com/bazaar-next/internal/shipping"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type fakeShipper struct {
	mu        sync.Mutex
	fee       decimal.Decimal
	createFee decimal.Decimal
	failFor   map[string]error
	statuses  map[string]string
	statusErr map[string]error
	previews  int
	created   []shipping.Request
	cancelled []string
}

func newFakeShipper(fee int64) *fakeShipper {
	return &fakeShipper{
		fee:       decimal.NewFromInt(fee),
		failFor:   map[string]error{},
		statuses:  map[string]string{},
		statusErr: map[string]error{},
	}
}

func (f *fakeShipper) PreviewFee(_ context.Context, req shipping.Request) (*shipping.Fee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.previews++
	if err := f.failFor[req.From.Name]; err != nil {
		return nil, err
	}
	return &shipping.Fee{Total: f.fee}, nil
}

func (f *fakeShipper) CreateShipment(_ context.Context, req shipping.Request) (*shipping.Shipment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failFor[req.From.Name]; err != nil {
		return nil, err
	}
	f.created = append(f.created, req)
	fee := f.fee
	if f.createFee.IsPositive() {
		fee = f.createFee
	}
	return &shipping.Shipment{OrderCode: fmt.Sprintf("FAKE%03d", len(f.created)), TotalFee: fee}, nil
}

func (f *fakeShipper) ShipmentStatus(_ context.Context, orderCode string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.statusErr[orderCode]; err != nil {
		return "", err
	}
	return f.statuses[orderCode], nil
}

func (f *fakeShipper) CancelShipment(_ context.Context, orderCode string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, orderCode)
	return nil
}

type fakeGateway struct {
	name     string
	url      string
	err      error
	requests []payment.URLRequest
}

func (g *fakeGateway) Name() string { return g.name }

func (g *fakeGateway) CreatePaymentURL(_ context.Context, req payment.URLRequest) (string, error) {
	g.requests = append(g.requests, req)
	return g.url, g.err
}

type serviceFixture struct {
	db         *gorm.DB
	ward       *models.Ward
	shipper    *fakeShipper
	gateway    *fakeGateway
	couponRepo *repository.GormCouponRepository
	checkout   *CheckoutService
	orders     *OrderService
	carts      *CartService
}

func setupServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	cache.SetClient(nil, "")

	queueClient, err := queue.NewClient(&config.QueueConfig{Enabled: false})
	if err != nil {
		t.Fatalf("queue client failed: %v", err)
	}

	cartRepo := repository.NewCartRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	couponRepo := repository.NewCouponRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	productRepo := repository.NewProductRepository(db)
	locationService := NewLocationService(repository.NewLocationRepository(db), time.Minute)

	f := &serviceFixture{
		db:         db,
		shipper:    newFakeShipper(20000),
		gateway:    &fakeGateway{name: constants.PaymentGatewayVNPay, url: "https://pay.example/checkout"},
		couponRepo: couponRepo,
	}
	f.ward = seedWard(t, db, "20109", 1442)
	f.checkout = NewCheckoutService(
		cartRepo, orderRepo, couponRepo, paymentRepo,
		NewCouponService(couponRepo),
		locationService,
		f.shipper,
		payment.NewRegistry(f.gateway),
		queueClient,
		&cache.Locker{},
		CheckoutOptions{PaymentExpire: 15 * time.Minute},
	)
	f.orders = NewOrderService(orderRepo, couponRepo, f.shipper, queueClient, 1)
	f.carts = NewCartService(cartRepo, productRepo)
	return f
}

func seedWard(t *testing.T, db *gorm.DB, code string, districtID uint) *models.Ward {
	t.Helper()
	province := models.Province{Name: "Hồ Chí Minh", Code: 202}
	if err := db.Create(&province).Error; err != nil {
		t.Fatalf("create province failed: %v", err)
	}
	district := models.District{ID: districtID, Name: "Quận 1", ProvinceID: province.ID}
	if err := db.Create(&district).Error; err != nil {
		t.Fatalf("create district failed: %v", err)
	}
	ward := models.Ward{Code: code, Name: "Phường Bến Nghé", DistrictID: district.ID}
	if err := db.Create(&ward).Error; err != nil {
		t.Fatalf("create ward failed: %v", err)
	}
	return &ward
}

func (f *serviceFixture) seedShop(t *testing.T, name string) *models.Shop {
	t.Helper()
	shop := models.Shop{OwnerID: 500, Name: name, Phone: "0281234567", Address: "10 Nguyễn Huệ", WardID: f.ward.ID}
	if err := f.db.Create(&shop).Error; err != nil {
		t.Fatalf("create shop failed: %v", err)
	}
	return &shop
}

func (f *serviceFixture) seedProduct(t *testing.T, shop *models.Shop, name string, price int64, categories ...models.Category) *models.Product {
	t.Helper()
	product := models.Product{
		ShopID:       shop.ID,
		Name:         name,
		RegularPrice: models.NewMoneyFromInt(price),
		Quantity:     100,
		Length:       20,
		Width:        15,
		Height:       10,
		Weight:       300,
		IsActive:     true,
		Categories:   categories,
	}
	if err := f.db.Create(&product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return &product
}

func (f *serviceFixture) seedCategory(t *testing.T, slug string) models.Category {
	t.Helper()
	category := models.Category{Slug: slug, Name: slug}
	if err := f.db.Create(&category).Error; err != nil {
		t.Fatalf("create category failed: %v", err)
	}
	return category
}

func (f *serviceFixture) addToCart(t *testing.T, userID uint, product *models.Product, quantity int) {
	t.Helper()
	item := models.CartItem{UserID: userID, ProductID: product.ID, Quantity: quantity}
	if err := f.db.Create(&item).Error; err != nil {
		t.Fatalf("add to cart failed: %v", err)
	}
}

func (f *serviceFixture) seedCoupon(t *testing.T, coupon models.Coupon) *models.Coupon {
	t.Helper()
	now := time.Now()
	if coupon.StartTime.IsZero() {
		coupon.StartTime = now.Add(-time.Hour)
	}
	if coupon.EndTime.IsZero() {
		coupon.EndTime = now.Add(24 * time.Hour)
	}
	if coupon.DiscountType == "" {
		coupon.DiscountType = constants.DiscountTypePercent
	}
	if err := f.couponRepo.Create(&coupon); err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}
	return &coupon
}

func (f *serviceFixture) countOrders(t *testing.T) int64 {
	t.Helper()
	var n int64
	if err := f.db.Model(&models.SalesOrder{}).Count(&n).Error; err != nil {
		t.Fatalf("count orders failed: %v", err)
	}
	return n
}

func (f *serviceFixture) countCart(t *testing.T, userID uint) int64 {
	t.Helper()
	var n int64
	if err := f.db.Model(&models.CartItem{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		t.Fatalf("count cart failed: %v", err)
	}
	return n
}

func (f *serviceFixture) usedCount(t *testing.T, code string) int {
	t.Helper()
	coupon, err := f.couponRepo.GetByCode(code)
	if err != nil || coupon == nil {
		t.Fatalf("get coupon %s failed: %v", code, err)
	}
	return coupon.UsedCount
}

func codInput(userID, wardID uint) CheckoutInput {
	return CheckoutInput{
		UserID:          userID,
		WardID:          wardID,
		ShippingName:    "Trần Thị B",
		ShippingPhone:   "0909123456",
		ShippingAddress: "45 Lý Tự Trọng",
		PaymentMethod:   payment.Cod{},
	}
}

func mustDecimal(t *testing.T, got decimal.Decimal, want int64, field string) {
	t.Helper()
	if !got.Equal(decimal.NewFromInt(want)) {
		t.Fatalf("%s: expected %d, got %s", field, want, got.String())
	}
}

var errCarrierDown = errors.New("carrier down")
