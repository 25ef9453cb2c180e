package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bazaar-next/internal/cache"
	"github.com/bazaar-next/internal/constants"
	"github.com/bazaar-next/internal/models"
	"github.com/bazaar-next/internal/payment"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

func TestCheckoutCodSingleShop(t *testing.T) {
	f := setupServiceFixture(t)
	shop := f.seedShop(t, "Shop A")
	product := f.seedProduct(t, shop, "Áo thun", 100000)
	f.addToCart(t, 7, product, 2)

	result, err := f.checkout.Checkout(context.Background(), codInput(7, f.ward.ID))
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if result.PaymentURL != "" {
		t.Fatalf("cod checkout should not return payment url")
	}
	if len(result.Orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(result.Orders))
	}
	order := result.Orders[0]
	mustDecimal(t, order.Subtotal.Decimal, 200000, "subtotal")
	mustDecimal(t, order.ShippingFee.Decimal, 20000, "shipping_fee")
	mustDecimal(t, order.Total.Decimal, 220000, "total")
	if order.Status != constants.OrderStatusPendingConfirmation {
		t.Fatalf("unexpected status: %s", order.Status)
	}
	if order.PaymentMethod != constants.PaymentMethodCod || order.ExpiresAt != nil {
		t.Fatalf("unexpected payment fields: %s %v", order.PaymentMethod, order.ExpiresAt)
	}
	if order.ShippingOrderCode != "FAKE001" {
		t.Fatalf("unexpected shipping order code: %s", order.ShippingOrderCode)
	}
	if order.OrderNo != result.CheckoutNo+"-01" || !strings.HasPrefix(result.CheckoutNo, "BZ") {
		t.Fatalf("unexpected order no %s for checkout %s", order.OrderNo, result.CheckoutNo)
	}
	if !strings.Contains(order.ShippingAddress, "45 Lý Tự Trọng") || !strings.Contains(order.ShippingAddress, "Quận 1") {
		t.Fatalf("unexpected shipping address: %s", order.ShippingAddress)
	}

	if len(f.shipper.created) != 1 {
		t.Fatalf("expected 1 shipment, got %d", len(f.shipper.created))
	}
	req := f.shipper.created[0]
	mustDecimal(t, req.CODAmount, 220000, "cod_amount")
	if req.ClientRef != order.OrderNo || req.To.WardCode != "20109" || req.From.Name != "Shop A" {
		t.Fatalf("unexpected shipment request: %+v", req)
	}

	if n := f.countCart(t, 7); n != 0 {
		t.Fatalf("cart should be cleared, left %d", n)
	}
	stored, err := f.orders.GetOrderByUser(order.ID, 7)
	if err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if len(stored.Products) != 1 || stored.Products[0].Quantity != 2 {
		t.Fatalf("unexpected order products: %+v", stored.Products)
	}
	mustDecimal(t, stored.Products[0].Subtotal.Decimal, 200000, "line subtotal")
}

func TestCheckoutPercentCouponCountsUsage(t *testing.T) {
	f := setupServiceFixture(t)
	shop := f.seedShop(t, "Shop A")
	product := f.seedProduct(t, shop, "Áo thun", 100000)
	f.addToCart(t, 7, product, 2)
	f.seedCoupon(t, models.Coupon{
		Code:              "SALE10",
		Type:              constants.CouponTypeProduct,
		DiscountType:      constants.DiscountTypePercent,
		Value:             models.NewMoneyFromInt(10),
		MaxDiscountAmount: models.NewMoneyFromInt(100000),
		MaxUseCount:       10,
		IsActive:          true,
	})

	input := codInput(7, f.ward.ID)
	input.ProductCouponCode = "SALE10"
	result, err := f.checkout.Checkout(context.Background(), input)
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	order := result.Orders[0]
	mustDecimal(t, order.ProductDiscountAmount.Decimal, 20000, "product_discount")
	mustDecimal(t, order.Total.Decimal, 200000, "total")
	mustDecimal(t, f.shipper.created[0].CODAmount, 200000, "cod_amount")
	if got := f.usedCount(t, "SALE10"); got != 1 {
		t.Fatalf("expected used_count 1, got %d", got)
	}

	stored, err := f.orders.GetOrderAdmin(order.ID)
	if err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if codes := stored.CouponCodes(); len(codes) != 1 || codes[0] != "SALE10" {
		t.Fatalf("unexpected coupon link: %v", codes)
	}
	mustDecimal(t, stored.Products[0].DiscountAmount.Decimal, 20000, "line discount")
}

func TestCheckoutRoundsDiscountUp(t *testing.T) {
	f := setupServiceFixture(t)
	shop := f.seedShop(t, "Shop A")
	product := f.seedProduct(t, shop, "Sách", 33333)
	f.addToCart(t, 7, product, 1)
	f.seedCoupon(t, models.Coupon{
		Code:              "SALE15",
		Type:              constants.CouponTypeProduct,
		DiscountType:      constants.DiscountTypePercent,
		Value:             models.NewMoneyFromInt(15),
		MaxDiscountAmount: models.NewMoneyFromInt(100000),
		MaxUseCount:       10,
		IsActive:          true,
	})

	input := codInput(7, f.ward.ID)
	input.ProductCouponCode = "SALE15"
	result, err := f.checkout.Checkout(context.Background(), input)
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	order := result.Orders[0]
	mustDecimal(t, order.ProductDiscountAmount.Decimal, 5000, "product_discount")
	mustDecimal(t, order.Total.Decimal, 48333, "total")
}

func TestCheckoutCategoryScopedCoupon(t *testing.T) {
	f := setupServiceFixture(t)
	books := f.seedCategory(t, "books")
	toys := f.seedCategory(t, "toys")
	shop := f.seedShop(t, "Shop A")
	book := f.seedProduct(t, shop, "Sách", 100000, books)
	toy := f.seedProduct(t, shop, "Đồ chơi", 50000, toys)
	f.addToCart(t, 7, book, 1)
	f.addToCart(t, 7, toy, 1)
	f.seedCoupon(t, models.Coupon{
		Code:              "BOOK10",
		Type:              constants.CouponTypeProduct,
		DiscountType:      constants.DiscountTypePercent,
		Value:             models.NewMoneyFromInt(10),
		MaxDiscountAmount: models.NewMoneyFromInt(100000),
		MaxUseCount:       10,
		IsActive:          true,
		Categories:        []models.Category{books},
	})

	input := codInput(7, f.ward.ID)
	input.ProductCouponCode = "BOOK10"
	result, err := f.checkout.Checkout(context.Background(), input)
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	order := result.Orders[0]
	mustDecimal(t, order.ProductDiscountAmount.Decimal, 10000, "product_discount")
	mustDecimal(t, order.Total.Decimal, 160000, "total")
	for _, p := range order.Products {
		switch p.ProductID {
		case book.ID:
			mustDecimal(t, p.DiscountAmount.Decimal, 10000, "book discount")
		case toy.ID:
			mustDecimal(t, p.DiscountAmount.Decimal, 0, "toy discount")
		}
	}
}

func TestCheckoutSplitsByShop(t *testing.T) {
	f := setupServiceFixture(t)
	shopA := f.seedShop(t, "Shop A")
	shopB := f.seedShop(t, "Shop B")
	productB := f.seedProduct(t, shopB, "Giày", 50000)
	productA := f.seedProduct(t, shopA, "Áo thun", 100000)
	f.addToCart(t, 7, productB, 2)
	f.addToCart(t, 7, productA, 1)
	f.seedCoupon(t, models.Coupon{
		Code:              "FREESHIP",
		Type:              constants.CouponTypeShipping,
		DiscountType:      constants.DiscountTypeAmount,
		Value:             models.NewMoneyFromInt(30000),
		MaxDiscountAmount: models.NewMoneyFromInt(15000),
		MaxUseCount:       10,
		IsActive:          true,
	})

	input := codInput(7, f.ward.ID)
	input.ShippingCouponCode = "FREESHIP"
	result, err := f.checkout.Checkout(context.Background(), input)
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if len(result.Orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(result.Orders))
	}
	if result.Orders[0].ShopID != shopA.ID || result.Orders[1].ShopID != shopB.ID {
		t.Fatalf("orders should follow shop id order")
	}
	for i, order := range result.Orders {
		if order.CheckoutNo != result.CheckoutNo {
			t.Fatalf("order %d has checkout no %s", i, order.CheckoutNo)
		}
		mustDecimal(t, order.ShippingDiscountAmount.Decimal, 15000, "shipping_discount")
		mustDecimal(t, order.Total.Decimal, 105000, "total")
	}
	if result.Orders[1].OrderNo != result.CheckoutNo+"-02" {
		t.Fatalf("unexpected second order no: %s", result.Orders[1].OrderNo)
	}
	// 每笔店铺订单各计一次
	if got := f.usedCount(t, "FREESHIP"); got != 2 {
		t.Fatalf("expected used_count 2, got %d", got)
	}
	if len(f.shipper.created) != 2 {
		t.Fatalf("expected 2 shipments, got %d", len(f.shipper.created))
	}
	for i, req := range f.shipper.created {
		mustDecimal(t, req.CODAmount, 105000, fmt.Sprintf("cod_amount %d", i))
	}
}

func TestCheckoutCodKeepsQuotedFeeWhenCarrierDiffers(t *testing.T) {
	f := setupServiceFixture(t)
	shop := f.seedShop(t, "Shop A")
	f.addToCart(t, 7, f.seedProduct(t, shop, "Áo thun", 100000), 1)
	f.shipper.createFee = decimal.NewFromInt(25000)

	result, err := f.checkout.Checkout(context.Background(), codInput(7, f.ward.ID))
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	order := result.Orders[0]
	mustDecimal(t, order.ShippingFee.Decimal, 20000, "shipping_fee")
	mustDecimal(t, order.Total.Decimal, 120000, "total")
	mustDecimal(t, f.shipper.created[0].CODAmount, 120000, "cod_amount")
}

func TestCheckoutScopedCouponCountsOnlyDiscountedShops(t *testing.T) {
	f := setupServiceFixture(t)
	books := f.seedCategory(t, "books")
	toys := f.seedCategory(t, "toys")
	shopA := f.seedShop(t, "Shop A")
	shopB := f.seedShop(t, "Shop B")
	f.addToCart(t, 7, f.seedProduct(t, shopA, "Sách", 100000, books), 1)
	f.addToCart(t, 7, f.seedProduct(t, shopB, "Đồ chơi", 50000, toys), 1)
	f.seedCoupon(t, models.Coupon{
		Code:              "BOOKONCE",
		Type:              constants.CouponTypeProduct,
		DiscountType:      constants.DiscountTypePercent,
		Value:             models.NewMoneyFromInt(10),
		MaxDiscountAmount: models.NewMoneyFromInt(100000),
		MaxUseCount:       1,
		IsActive:          true,
		Categories:        []models.Category{books},
	})

	input := codInput(7, f.ward.ID)
	input.ProductCouponCode = "BOOKONCE"
	result, err := f.checkout.Checkout(context.Background(), input)
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if len(result.Orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(result.Orders))
	}
	if got := f.usedCount(t, "BOOKONCE"); got != 1 {
		t.Fatalf("expected used_count 1, got %d", got)
	}

	for _, order := range result.Orders {
		stored, err := f.orders.GetOrderAdmin(order.ID)
		if err != nil {
			t.Fatalf("load order failed: %v", err)
		}
		codes := stored.CouponCodes()
		switch order.ShopID {
		case shopA.ID:
			mustDecimal(t, order.ProductDiscountAmount.Decimal, 10000, "shop A discount")
			if len(codes) != 1 || codes[0] != "BOOKONCE" {
				t.Fatalf("shop A order should link the coupon, got %v", codes)
			}
		case shopB.ID:
			mustDecimal(t, order.ProductDiscountAmount.Decimal, 0, "shop B discount")
			if len(codes) != 0 {
				t.Fatalf("shop B order should not link the coupon, got %v", codes)
			}
		}
	}
}

func TestCheckoutRejections(t *testing.T) {
	f := setupServiceFixture(t)
	shop := f.seedShop(t, "Shop A")
	product := f.seedProduct(t, shop, "Áo thun", 100000)

	if _, err := f.checkout.Checkout(context.Background(), codInput(7, f.ward.ID)); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected empty cart, got %v", err)
	}
	f.addToCart(t, 7, product, 1)

	_, err := f.checkout.Checkout(context.Background(), codInput(7, 9999))
	if !errors.Is(err, ErrWardNotFound) || CodeOf(err) != 404 {
		t.Fatalf("expected ward not found, got %v", err)
	}

	input := codInput(7, f.ward.ID)
	input.ShippingPhone = " "
	if _, err := f.checkout.Checkout(context.Background(), input); !errors.Is(err, ErrShippingInfoInvalid) {
		t.Fatalf("expected shipping info invalid, got %v", err)
	}

	input = codInput(7, f.ward.ID)
	input.PaymentMethod = payment.Online{Gateway: "stripe"}
	if _, err := f.checkout.Checkout(context.Background(), input); !errors.Is(err, ErrPaymentMethodInvalid) {
		t.Fatalf("expected payment method invalid, got %v", err)
	}

	input = codInput(7, f.ward.ID)
	input.ProductCouponCode = "MISSING"
	if _, err := f.checkout.Checkout(context.Background(), input); !errors.Is(err, ErrCouponNotFound) {
		t.Fatalf("expected coupon not found, got %v", err)
	}

	if err := f.db.Model(&models.Product{}).Where("id = ?", product.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate product failed: %v", err)
	}
	if _, err := f.checkout.Checkout(context.Background(), codInput(7, f.ward.ID)); !errors.Is(err, ErrProductNotAvailable) {
		t.Fatalf("expected product not available, got %v", err)
	}

	if len(f.shipper.created) != 0 || f.countOrders(t) != 0 {
		t.Fatalf("rejected checkout must not create shipments or orders")
	}
}

func TestCheckoutShippingFailureRollsBack(t *testing.T) {
	f := setupServiceFixture(t)
	shopA := f.seedShop(t, "Shop A")
	shopB := f.seedShop(t, "Shop B")
	f.addToCart(t, 7, f.seedProduct(t, shopA, "Áo thun", 100000), 1)
	f.addToCart(t, 7, f.seedProduct(t, shopB, "Giày", 50000), 1)
	f.shipper.failFor["Shop B"] = errCarrierDown

	_, err := f.checkout.Checkout(context.Background(), codInput(7, f.ward.ID))
	if !errors.Is(err, ErrShippingFeeUnavailable) || CodeOf(err) != 500 {
		t.Fatalf("expected shipping fee unavailable, got %v", err)
	}
	if n := f.countOrders(t); n != 0 {
		t.Fatalf("expected no orders, got %d", n)
	}
	if n := f.countCart(t, 7); n != 2 {
		t.Fatalf("cart should be kept, got %d items", n)
	}
	if len(f.shipper.cancelled) != 1 || f.shipper.cancelled[0] != "FAKE001" {
		t.Fatalf("created shipment should be cancelled, got %v", f.shipper.cancelled)
	}
}

func TestCheckoutCouponLimitRollsBack(t *testing.T) {
	f := setupServiceFixture(t)
	shopA := f.seedShop(t, "Shop A")
	shopB := f.seedShop(t, "Shop B")
	f.addToCart(t, 7, f.seedProduct(t, shopA, "Áo thun", 100000), 1)
	f.addToCart(t, 7, f.seedProduct(t, shopB, "Giày", 50000), 1)
	f.seedCoupon(t, models.Coupon{
		Code:              "ONCE",
		Type:              constants.CouponTypeProduct,
		DiscountType:      constants.DiscountTypeAmount,
		Value:             models.NewMoneyFromInt(10000),
		MaxDiscountAmount: models.NewMoneyFromInt(10000),
		MaxUseCount:       1,
		IsActive:          true,
	})

	input := codInput(7, f.ward.ID)
	input.ProductCouponCode = "ONCE"
	_, err := f.checkout.Checkout(context.Background(), input)
	if !errors.Is(err, ErrCouponUsageLimit) {
		t.Fatalf("expected usage limit, got %v", err)
	}
	if got := f.usedCount(t, "ONCE"); got != 0 {
		t.Fatalf("usage increment should roll back, got %d", got)
	}
	if n := f.countOrders(t); n != 0 {
		t.Fatalf("expected no orders, got %d", n)
	}
	if n := f.countCart(t, 7); n != 2 {
		t.Fatalf("cart should be kept, got %d items", n)
	}
	if len(f.shipper.cancelled) != 2 {
		t.Fatalf("both shipments should be cancelled, got %v", f.shipper.cancelled)
	}
}

func TestCheckoutOnlinePayment(t *testing.T) {
	f := setupServiceFixture(t)
	shop := f.seedShop(t, "Shop A")
	f.addToCart(t, 7, f.seedProduct(t, shop, "Áo thun", 100000), 2)

	input := codInput(7, f.ward.ID)
	input.PaymentMethod = payment.Online{Gateway: constants.PaymentGatewayVNPay}
	input.ClientIP = "10.0.0.8"
	result, err := f.checkout.Checkout(context.Background(), input)
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if result.PaymentURL != f.gateway.url {
		t.Fatalf("unexpected payment url: %s", result.PaymentURL)
	}
	order := result.Orders[0]
	if order.Status != constants.OrderStatusPendingPayment || order.ExpiresAt == nil {
		t.Fatalf("online order should wait for payment: %s %v", order.Status, order.ExpiresAt)
	}
	if order.PaymentGateway != constants.PaymentGatewayVNPay {
		t.Fatalf("unexpected gateway: %s", order.PaymentGateway)
	}
	mustDecimal(t, f.shipper.created[0].CODAmount, 0, "cod_amount")

	if len(f.gateway.requests) != 1 {
		t.Fatalf("expected 1 payment url request, got %d", len(f.gateway.requests))
	}
	req := f.gateway.requests[0]
	if req.TxnRef != result.CheckoutNo || req.ClientIP != "10.0.0.8" {
		t.Fatalf("unexpected url request: %+v", req)
	}
	mustDecimal(t, req.Amount, 220000, "payment amount")

	var record models.Payment
	if err := f.db.Where("txn_ref = ?", result.CheckoutNo).First(&record).Error; err != nil {
		t.Fatalf("payment record missing: %v", err)
	}
	if record.Status != constants.PaymentStatusInitiated || record.PayURL != f.gateway.url {
		t.Fatalf("unexpected payment record: %+v", record)
	}
	if ids := record.ParseOrderIDs(); len(ids) != 1 || ids[0] != order.ID {
		t.Fatalf("unexpected payment order ids: %v", ids)
	}
}

func TestCheckoutPaymentURLFailureRollsBack(t *testing.T) {
	f := setupServiceFixture(t)
	shop := f.seedShop(t, "Shop A")
	f.addToCart(t, 7, f.seedProduct(t, shop, "Áo thun", 100000), 1)
	f.gateway.err = errors.New("gateway timeout")

	input := codInput(7, f.ward.ID)
	input.PaymentMethod = payment.Online{Gateway: constants.PaymentGatewayVNPay}
	_, err := f.checkout.Checkout(context.Background(), input)
	if !errors.Is(err, ErrPaymentURLUnavailable) {
		t.Fatalf("expected payment url unavailable, got %v", err)
	}
	if n := f.countOrders(t); n != 0 {
		t.Fatalf("expected no orders, got %d", n)
	}
	var payments int64
	f.db.Model(&models.Payment{}).Count(&payments)
	if payments != 0 {
		t.Fatalf("expected no payment records, got %d", payments)
	}
	if n := f.countCart(t, 7); n != 1 {
		t.Fatalf("cart should be kept, got %d items", n)
	}
	if len(f.shipper.cancelled) != 1 {
		t.Fatalf("shipment should be cancelled, got %v", f.shipper.cancelled)
	}
}

func TestCheckoutRejectsConcurrentCheckout(t *testing.T) {
	f := setupServiceFixture(t)
	shop := f.seedShop(t, "Shop A")
	f.addToCart(t, 7, f.seedProduct(t, shop, "Áo thun", 100000), 1)

	mr := miniredis.RunT(t)
	f.checkout.locker = &cache.Locker{R: redis.NewClient(&redis.Options{Addr: mr.Addr()})}

	err := f.checkout.locker.TryWithLock(context.Background(), "checkout:7", time.Minute, func(ctx context.Context) error {
		_, err := f.checkout.Checkout(ctx, codInput(7, f.ward.ID))
		return err
	})
	if !errors.Is(err, ErrCheckoutInProgress) {
		t.Fatalf("expected checkout in progress, got %v", err)
	}
	if _, err := f.checkout.Checkout(context.Background(), codInput(7, f.ward.ID)); err != nil {
		t.Fatalf("checkout after lock release failed: %v", err)
	}
}

func TestPreviewDoesNotPersist(t *testing.T) {
	f := setupServiceFixture(t)
	shopA := f.seedShop(t, "Shop A")
	shopB := f.seedShop(t, "Shop B")
	f.addToCart(t, 7, f.seedProduct(t, shopA, "Áo thun", 100000), 2)
	f.addToCart(t, 7, f.seedProduct(t, shopB, "Giày", 50000), 1)
	f.seedCoupon(t, models.Coupon{
		Code:              "SALE10",
		Type:              constants.CouponTypeProduct,
		DiscountType:      constants.DiscountTypePercent,
		Value:             models.NewMoneyFromInt(10),
		MaxDiscountAmount: models.NewMoneyFromInt(100000),
		MaxUseCount:       10,
		IsActive:          true,
	})

	input := PreviewInput{UserID: 7, WardID: f.ward.ID, ProductCouponCode: "SALE10"}
	first, err := f.checkout.Preview(context.Background(), input)
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	second, err := f.checkout.Preview(context.Background(), input)
	if err != nil {
		t.Fatalf("second preview failed: %v", err)
	}

	if len(first.Shops) != 2 || first.Shops[0].ShopID != shopA.ID {
		t.Fatalf("unexpected shop quotes: %+v", first.Shops)
	}
	mustDecimal(t, first.Subtotal, 250000, "subtotal")
	mustDecimal(t, first.ShippingFee, 40000, "shipping_fee")
	mustDecimal(t, first.ProductDiscountAmount, 25000, "product_discount")
	mustDecimal(t, first.Total, 265000, "total")
	if !first.Total.Equal(second.Total) || len(first.Shops) != len(second.Shops) {
		t.Fatalf("preview should be repeatable")
	}

	if f.shipper.previews != 4 || len(f.shipper.created) != 0 {
		t.Fatalf("preview should only estimate fees: previews=%d created=%d", f.shipper.previews, len(f.shipper.created))
	}
	if n := f.countOrders(t); n != 0 {
		t.Fatalf("preview must not create orders, got %d", n)
	}
	if n := f.countCart(t, 7); n != 2 {
		t.Fatalf("preview must not touch cart, got %d", n)
	}
	if got := f.usedCount(t, "SALE10"); got != 0 {
		t.Fatalf("preview must not consume coupon, got %d", got)
	}
}

func TestPreviewShippingFeeUnavailable(t *testing.T) {
	f := setupServiceFixture(t)
	shop := f.seedShop(t, "Shop A")
	f.addToCart(t, 7, f.seedProduct(t, shop, "Áo thun", 100000), 1)
	f.shipper.failFor["Shop A"] = errCarrierDown

	_, err := f.checkout.Preview(context.Background(), PreviewInput{UserID: 7, WardID: f.ward.ID})
	if !errors.Is(err, ErrShippingFeeUnavailable) {
		t.Fatalf("expected shipping fee unavailable, got %v", err)
	}
}
