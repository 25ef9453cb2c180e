package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bazaar-next/internal/cache"
	"github.com/bazaar-next/internal/constants"
	"github.com/bazaar-next/internal/logger"
	"github.com/bazaar-next/internal/metrics"
	"github.com/bazaar-next/internal/models"
	"github.com/bazaar-next/internal/payment"
	"github.com/bazaar-next/internal/pricing"
	"github.com/bazaar-next/internal/queue"
	"github.com/bazaar-next/internal/repository"
	"github.com/bazaar-next/internal/shipping"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	defaultPreviewConcurrency = 4
	defaultCheckoutLockTTL    = 30 * time.Second
	defaultPaymentTimeout     = 10 * time.Second
	shipmentCancelTimeout     = 10 * time.Second
)

// CheckoutOptions 结算参数
type CheckoutOptions struct {
	PaymentExpire      time.Duration
	PaymentTimeout     time.Duration
	LockTTL            time.Duration
	PreviewConcurrency int
}

// CheckoutInput 结算输入
type CheckoutInput struct {
	UserID             uint
	WardID             uint
	ShippingName       string
	ShippingPhone      string
	ShippingAddress    string
	PaymentMethod      payment.Method
	ProductCouponCode  string
	ShippingCouponCode string
	ClientIP           string
}

// PreviewInput 结算预览输入
type PreviewInput struct {
	UserID             uint
	WardID             uint
	ProductCouponCode  string
	ShippingCouponCode string
}

// CheckoutResult 结算结果
type CheckoutResult struct {
	CheckoutNo string              `json:"checkout_no"`
	Orders     []models.SalesOrder `json:"orders"`
	PaymentURL string              `json:"payment_url,omitempty"`
}

// QuoteLine 店铺订单行报价
type QuoteLine struct {
	ProductID      uint            `json:"product_id"`
	Name           string          `json:"name"`
	Price          decimal.Decimal `json:"price"`
	Quantity       int             `json:"quantity"`
	LineTotal      decimal.Decimal `json:"line_total"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

// ShopQuote 单个店铺的报价
type ShopQuote struct {
	ShopID   uint            `json:"shop_id"`
	ShopName string          `json:"shop_name"`
	Summary  pricing.Summary `json:"summary"`
	Lines    []QuoteLine     `json:"lines"`
}

// CheckoutPreview 结算预览，店铺按 ID 升序
type CheckoutPreview struct {
	pricing.Summary
	Shops []ShopQuote `json:"shops"`
}

// CheckoutService 结算服务
type CheckoutService struct {
	cartRepo        repository.CartRepository
	orderRepo       repository.OrderRepository
	couponRepo      repository.CouponRepository
	paymentRepo     repository.PaymentRepository
	couponService   *CouponService
	locationService *LocationService
	shipper         shipping.Resolver
	gateways        *payment.Registry
	queueClient     *queue.Client
	locker          *cache.Locker
	opts            CheckoutOptions
	clock           func() time.Time
}

// NewCheckoutService 创建结算服务
func NewCheckoutService(
	cartRepo repository.CartRepository,
	orderRepo repository.OrderRepository,
	couponRepo repository.CouponRepository,
	paymentRepo repository.PaymentRepository,
	couponService *CouponService,
	locationService *LocationService,
	shipper shipping.Resolver,
	gateways *payment.Registry,
	queueClient *queue.Client,
	locker *cache.Locker,
	opts CheckoutOptions,
) *CheckoutService {
	if opts.PreviewConcurrency <= 0 {
		opts.PreviewConcurrency = defaultPreviewConcurrency
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = defaultCheckoutLockTTL
	}
	if opts.PaymentTimeout <= 0 {
		opts.PaymentTimeout = defaultPaymentTimeout
	}
	return &CheckoutService{
		cartRepo:        cartRepo,
		orderRepo:       orderRepo,
		couponRepo:      couponRepo,
		paymentRepo:     paymentRepo,
		couponService:   couponService,
		locationService: locationService,
		shipper:         shipper,
		gateways:        gateways,
		queueClient:     queueClient,
		locker:          locker,
		opts:            opts,
		clock:           time.Now,
	}
}

// shopGroup 购物车中属于同一店铺的行
type shopGroup struct {
	shop     *models.Shop
	items    []models.CartItem
	lines    []pricing.Line
	subtotal decimal.Decimal
}

// checkoutContext 一次结算或预览加载的全部数据，now 在整个请求内保持不变
type checkoutContext struct {
	now            time.Time
	ward           *models.Ward
	subtotal       decimal.Decimal
	productIDs     []uint
	groups         []*shopGroup
	productCoupon  *models.Coupon
	shippingCoupon *models.Coupon
}

// Checkout 下单：按店铺拆单、创建运单、单事务落库、清空购物车，在线支付时返回支付链接
func (s *CheckoutService) Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	start := time.Now()
	var result *CheckoutResult
	lockKey := fmt.Sprintf("checkout:%d", input.UserID)
	err := s.locker.TryWithLock(ctx, lockKey, s.opts.LockTTL, func(ctx context.Context) error {
		r, err := s.checkout(ctx, input)
		result = r
		return err
	})
	if errors.Is(err, cache.ErrLockHeld) {
		err = ErrCheckoutInProgress
	}
	metrics.ObserveCheckout("checkout", checkoutResultLabel(err), time.Since(start))
	if err != nil {
		logCheckoutFailure("checkout_failed", input.UserID, err)
		return nil, err
	}
	return result, nil
}

// Preview 结算预览：与下单相同的计价流程，只预估运费，不落库
func (s *CheckoutService) Preview(ctx context.Context, input PreviewInput) (*CheckoutPreview, error) {
	start := time.Now()
	preview, err := s.preview(ctx, input)
	metrics.ObserveCheckout("preview", checkoutResultLabel(err), time.Since(start))
	if err != nil {
		logCheckoutFailure("checkout_preview_failed", input.UserID, err)
		return nil, err
	}
	return preview, nil
}

func (s *CheckoutService) preview(ctx context.Context, input PreviewInput) (*CheckoutPreview, error) {
	cc, err := s.load(ctx, input.UserID, input.WardID, input.ProductCouponCode, input.ShippingCouponCode)
	if err != nil {
		return nil, err
	}
	to := destinationAddress(cc.ward, "", "", "")

	fees := make([]decimal.Decimal, len(cc.groups))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.opts.PreviewConcurrency)
	for i, g := range cc.groups {
		eg.Go(func() error {
			req := buildShippingRequest(g, to, shipping.PreviewParcel(g.parcelItems()), decimal.Zero, "")
			fee, err := s.shipper.PreviewFee(egCtx, req)
			if err != nil {
				return fmt.Errorf("%w: shop %d: %v", ErrShippingFeeUnavailable, g.shop.ID, err)
			}
			if fee == nil || !fee.Total.IsPositive() {
				return fmt.Errorf("%w: shop %d: %v", ErrShippingFeeUnavailable, g.shop.ID, shipping.ErrNoFee)
			}
			fees[i] = fee.Total
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	out := &CheckoutPreview{Shops: make([]ShopQuote, 0, len(cc.groups))}
	out.Summary = pricing.NewSummary(decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero)
	for i, g := range cc.groups {
		q := cc.quote(g, fees[i])
		out.Summary = out.Summary.Add(q.Summary)
		out.Shops = append(out.Shops, q)
	}
	return out, nil
}

func (s *CheckoutService) checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	if strings.TrimSpace(input.ShippingName) == "" || strings.TrimSpace(input.ShippingPhone) == "" || strings.TrimSpace(input.ShippingAddress) == "" {
		return nil, ErrShippingInfoInvalid
	}
	status, err := initialOrderStatus(input.PaymentMethod)
	if err != nil {
		return nil, err
	}
	if gateway := payment.GatewayOf(input.PaymentMethod); gateway != "" {
		if _, err := s.gateways.Get(gateway); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPaymentMethodInvalid, err)
		}
	}

	cc, err := s.load(ctx, input.UserID, input.WardID, input.ProductCouponCode, input.ShippingCouponCode)
	if err != nil {
		return nil, err
	}
	now := cc.now
	checkoutNo := generateCheckoutNo(now)
	to := destinationAddress(cc.ward, input.ShippingName, input.ShippingPhone, input.ShippingAddress)

	var expiresAt *time.Time
	if status == constants.OrderStatusPendingPayment && s.opts.PaymentExpire > 0 {
		t := now.Add(s.opts.PaymentExpire)
		expiresAt = &t
	}

	// 已在承运商侧创建的运单，未提交成功时需要取消
	shipmentCodes := make([]string, 0, len(cc.groups))
	committed := false
	defer func() {
		if !committed {
			s.releaseShipments(shipmentCodes, "checkout_aborted")
		}
	}()

	orders := make([]*models.SalesOrder, 0, len(cc.groups))
	for i, g := range cc.groups {
		orderNo := buildShopOrderNo(checkoutNo, i+1)
		req := buildShippingRequest(g, to, shipping.ShipmentParcel(g.parcelItems()), decimal.Zero, orderNo)
		cod := status == constants.OrderStatusPendingConfirmation
		var q ShopQuote
		if cod {
			// 货到付款代收订单应付总额（含运费），运费需在建单前确定
			fee, err := s.shipper.PreviewFee(ctx, req)
			if err != nil {
				return nil, fmt.Errorf("%w: shop %d: %v", ErrShippingFeeUnavailable, g.shop.ID, err)
			}
			if fee == nil || !fee.Total.IsPositive() {
				return nil, fmt.Errorf("%w: shop %d: %v", ErrShippingFeeUnavailable, g.shop.ID, shipping.ErrNoFee)
			}
			q = cc.quote(g, fee.Total)
			req.CODAmount = q.Summary.Total
		}
		shipment, err := s.shipper.CreateShipment(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("%w: shop %d: %v", ErrShippingFeeUnavailable, g.shop.ID, err)
		}
		if shipment != nil && shipment.OrderCode != "" {
			shipmentCodes = append(shipmentCodes, shipment.OrderCode)
		}
		if shipment == nil || !shipment.TotalFee.IsPositive() {
			return nil, fmt.Errorf("%w: shop %d: %v", ErrShippingFeeUnavailable, g.shop.ID, shipping.ErrNoFee)
		}

		if !cod {
			q = cc.quote(g, shipment.TotalFee)
		} else if fee := pricing.Ceil(shipment.TotalFee); !fee.Equal(q.Summary.ShippingFee) {
			// 代收金额已随运单提交，订单保留报价运费
			logger.Warnw("checkout_cod_fee_mismatch",
				"order_no", orderNo,
				"quoted_fee", q.Summary.ShippingFee.String(),
				"carrier_fee", fee.String(),
			)
		}
		order := &models.SalesOrder{
			OrderNo:                orderNo,
			CheckoutNo:             checkoutNo,
			UserID:                 input.UserID,
			ShopID:                 g.shop.ID,
			Subtotal:               models.NewMoneyFromDecimal(q.Summary.Subtotal),
			ShippingFee:            models.NewMoneyFromDecimal(q.Summary.ShippingFee),
			ProductDiscountAmount:  models.NewMoneyFromDecimal(q.Summary.ProductDiscountAmount),
			ShippingDiscountAmount: models.NewMoneyFromDecimal(q.Summary.ShippingDiscountAmount),
			Total:                  models.NewMoneyFromDecimal(q.Summary.Total),
			ShippingName:           strings.TrimSpace(input.ShippingName),
			ShippingPhone:          strings.TrimSpace(input.ShippingPhone),
			ShippingAddress:        cc.ward.FullAddress(strings.TrimSpace(input.ShippingAddress)),
			ShippingWardID:         cc.ward.ID,
			ShippingOrderCode:      shipment.OrderCode,
			PaymentMethod:          input.PaymentMethod.Kind(),
			PaymentGateway:         payment.GatewayOf(input.PaymentMethod),
			Status:                 status,
			ExpiresAt:              expiresAt,
			CreatedAt:              now,
			UpdatedAt:              now,
			Products:               buildOrderProducts(q.Lines, now),
			Coupons:                cc.appliedCoupons(q.Summary),
		}
		orders = append(orders, order)
	}

	var paymentURL string
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		couponRepo := s.couponRepo.WithTx(tx)
		for _, order := range orders {
			if err := orderRepo.Create(order); err != nil {
				return err
			}
			for _, code := range order.CouponCodes() {
				ok, err := couponRepo.IncrementUsage(code)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("%w: %s", ErrCouponUsageLimit, code)
				}
			}
		}
		if _, err := s.cartRepo.WithTx(tx).DeleteByUserAndProducts(input.UserID, cc.productIDs); err != nil {
			return err
		}

		switch method := input.PaymentMethod.(type) {
		case payment.Online:
			url, err := s.initiatePayment(ctx, s.paymentRepo.WithTx(tx), method, checkoutNo, input, orders, expiresAt)
			if err != nil {
				return err
			}
			paymentURL = url
		case payment.Cod:
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	committed = true

	result := &CheckoutResult{
		CheckoutNo: checkoutNo,
		Orders:     make([]models.SalesOrder, 0, len(orders)),
		PaymentURL: paymentURL,
	}
	for _, order := range orders {
		result.Orders = append(result.Orders, *order)
	}
	metrics.AddOrdersCreated(input.PaymentMethod.Kind(), len(orders))
	s.scheduleTimeoutCancel(orders)

	logger.Infow("checkout_completed",
		"checkout_no", checkoutNo,
		"user_id", input.UserID,
		"orders", len(orders),
		"payment_method", input.PaymentMethod.Kind(),
	)
	return result, nil
}

// load 加载地址、购物车并校验优惠券
func (s *CheckoutService) load(ctx context.Context, userID, wardID uint, productCode, shippingCode string) (*checkoutContext, error) {
	cc := &checkoutContext{now: s.clock()}

	ward, err := s.locationService.GetWard(ctx, wardID)
	if err != nil {
		return nil, err
	}
	cc.ward = ward

	items, err := s.cartRepo.ListByUserForCheckout(userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	lines := make([]pricing.Line, 0, len(items))
	groups := make(map[uint]*shopGroup)
	for _, item := range items {
		product := item.Product
		if product == nil || !product.IsActive || item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: product %d", ErrProductNotAvailable, item.ProductID)
		}
		line := pricing.NewLine(product, item.Quantity, cc.now)
		lines = append(lines, line)
		cc.productIDs = append(cc.productIDs, item.ProductID)

		g, ok := groups[product.ShopID]
		if !ok {
			shop := product.Shop
			if shop == nil {
				shop = &models.Shop{ID: product.ShopID}
			}
			g = &shopGroup{shop: shop}
			groups[product.ShopID] = g
		}
		g.items = append(g.items, item)
		g.lines = append(g.lines, line)
	}

	cc.subtotal = pricing.Subtotal(lines)
	categories := pricing.CategoryUnion(lines)
	if code := strings.TrimSpace(productCode); code != "" {
		coupon, err := s.couponService.Validate(code, constants.CouponTypeProduct, cc.subtotal, categories, cc.now)
		if err != nil {
			return nil, err
		}
		cc.productCoupon = coupon
	}
	if code := strings.TrimSpace(shippingCode); code != "" {
		coupon, err := s.couponService.Validate(code, constants.CouponTypeShipping, cc.subtotal, categories, cc.now)
		if err != nil {
			return nil, err
		}
		cc.shippingCoupon = coupon
	}

	shopIDs := make([]uint, 0, len(groups))
	for id := range groups {
		shopIDs = append(shopIDs, id)
	}
	sort.Slice(shopIDs, func(i, j int) bool { return shopIDs[i] < shopIDs[j] })
	for _, id := range shopIDs {
		g := groups[id]
		g.subtotal = pricing.Subtotal(g.lines)
		cc.groups = append(cc.groups, g)
	}
	return cc, nil
}

// quote 计算店铺订单金额与行优惠
func (cc *checkoutContext) quote(g *shopGroup, fee decimal.Decimal) ShopQuote {
	productDiscount := pricing.ProductDiscount(cc.productCoupon, g.lines, g.subtotal)
	shippingDiscount := pricing.ShippingDiscount(cc.shippingCoupon, fee)
	summary := pricing.NewSummary(g.subtotal, fee, productDiscount, shippingDiscount)

	lines := make([]QuoteLine, 0, len(g.lines))
	for _, l := range g.lines {
		total := pricing.Ceil(l.Total())
		discount := pricing.Clamp(pricing.Ceil(pricing.LineDiscount(cc.productCoupon, l, g.subtotal, summary.ProductDiscountAmount)), total)
		lines = append(lines, QuoteLine{
			ProductID:      l.ProductID,
			Name:           l.Name,
			Price:          l.Price,
			Quantity:       l.Quantity,
			LineTotal:      total,
			DiscountAmount: discount,
			Subtotal:       total.Sub(discount),
		})
	}
	return ShopQuote{
		ShopID:   g.shop.ID,
		ShopName: g.shop.Name,
		Summary:  summary,
		Lines:    lines,
	}
}

// appliedCoupons 店铺订单实际获得优惠的优惠券，只有这些会被关联并计入使用次数
func (cc *checkoutContext) appliedCoupons(summary pricing.Summary) []models.Coupon {
	coupons := make([]models.Coupon, 0, 2)
	if cc.productCoupon != nil && summary.ProductDiscountAmount.IsPositive() {
		coupons = append(coupons, models.Coupon{Code: cc.productCoupon.Code})
	}
	if cc.shippingCoupon != nil && summary.ShippingDiscountAmount.IsPositive() {
		coupons = append(coupons, models.Coupon{Code: cc.shippingCoupon.Code})
	}
	return coupons
}

func (g *shopGroup) parcelItems() []shipping.ParcelItem {
	items := make([]shipping.ParcelItem, 0, len(g.items))
	for _, item := range g.items {
		p := item.Product
		items = append(items, shipping.ParcelItem{
			Length:   p.Length,
			Width:    p.Width,
			Height:   p.Height,
			Weight:   p.Weight,
			Quantity: item.Quantity,
		})
	}
	return items
}

func buildShippingRequest(g *shopGroup, to shipping.Address, parcel shipping.Parcel, cod decimal.Decimal, clientRef string) shipping.Request {
	items := make([]shipping.Item, 0, len(g.lines))
	for i, l := range g.lines {
		items = append(items, shipping.Item{
			Name:     l.Name,
			Quantity: l.Quantity,
			Price:    l.Price,
			Weight:   g.items[i].Product.Weight,
		})
	}
	return shipping.Request{
		From:      originAddress(g.shop),
		To:        to,
		Parcel:    parcel,
		CODAmount: cod,
		Items:     items,
		ClientRef: clientRef,
	}
}

func originAddress(shop *models.Shop) shipping.Address {
	addr := shipping.Address{Name: shop.Name, Phone: shop.Phone, Street: shop.Address}
	fillWardAddress(&addr, shop.Ward)
	return addr
}

func destinationAddress(ward *models.Ward, name, phone, street string) shipping.Address {
	addr := shipping.Address{
		Name:   strings.TrimSpace(name),
		Phone:  strings.TrimSpace(phone),
		Street: strings.TrimSpace(street),
	}
	fillWardAddress(&addr, ward)
	return addr
}

func fillWardAddress(addr *shipping.Address, ward *models.Ward) {
	if ward == nil {
		return
	}
	addr.WardCode = ward.Code
	addr.WardName = ward.Name
	addr.DistrictID = int(ward.DistrictID)
	if ward.District != nil {
		addr.District = ward.District.Name
		if ward.District.Province != nil {
			addr.Province = ward.District.Province.Name
		}
	}
}

func buildOrderProducts(lines []QuoteLine, now time.Time) []models.OrderProduct {
	products := make([]models.OrderProduct, 0, len(lines))
	for _, l := range lines {
		products = append(products, models.OrderProduct{
			ProductID:      l.ProductID,
			Name:           l.Name,
			Price:          models.NewMoneyFromDecimal(l.Price),
			Quantity:       l.Quantity,
			DiscountAmount: models.NewMoneyFromDecimal(l.DiscountAmount),
			Subtotal:       models.NewMoneyFromDecimal(l.Subtotal),
			CreatedAt:      now,
		})
	}
	return products
}

// initialOrderStatus 货到付款直接待确认，在线支付待付款
func initialOrderStatus(method payment.Method) (string, error) {
	switch method.(type) {
	case payment.Cod:
		return constants.OrderStatusPendingConfirmation, nil
	case payment.Online:
		return constants.OrderStatusPendingPayment, nil
	default:
		return "", ErrPaymentMethodInvalid
	}
}

// initiatePayment 在事务内创建支付链接与支付记录，失败则整单回滚
func (s *CheckoutService) initiatePayment(ctx context.Context, paymentRepo repository.PaymentRepository, method payment.Online, checkoutNo string, input CheckoutInput, orders []*models.SalesOrder, expiresAt *time.Time) (string, error) {
	ids := make([]uint, 0, len(orders))
	amount := decimal.Zero
	for _, order := range orders {
		ids = append(ids, order.ID)
		amount = amount.Add(order.Total.Decimal)
	}
	req := payment.URLRequest{
		TxnRef:   checkoutNo,
		Amount:   amount,
		ClientIP: input.ClientIP,
		OrderIDs: ids,
	}
	if expiresAt != nil {
		req.ExpiresAt = *expiresAt
	}

	callCtx, cancel := context.WithTimeout(ctx, s.opts.PaymentTimeout)
	defer cancel()
	url, err := s.gateways.CreateURL(callCtx, method.Gateway, req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPaymentURLUnavailable, err)
	}

	record := &models.Payment{
		TxnRef:   checkoutNo,
		UserID:   input.UserID,
		Gateway:  method.Gateway,
		Amount:   models.NewMoneyFromDecimal(amount),
		OrderIDs: models.JoinOrderIDs(ids),
		PayURL:   url,
		Status:   constants.PaymentStatusInitiated,
	}
	if err := paymentRepo.Create(record); err != nil {
		return "", err
	}
	return url, nil
}

// scheduleTimeoutCancel 为待付款订单投递超时取消任务
func (s *CheckoutService) scheduleTimeoutCancel(orders []*models.SalesOrder) {
	if !s.queueClient.Enabled() || s.opts.PaymentExpire <= 0 {
		return
	}
	for _, order := range orders {
		if order.Status != constants.OrderStatusPendingPayment {
			continue
		}
		payload := queue.OrderTimeoutCancelPayload{OrderID: order.ID}
		if err := s.queueClient.EnqueueOrderTimeoutCancel(payload, s.opts.PaymentExpire); err != nil {
			logger.Errorw("checkout_enqueue_timeout_cancel_failed",
				"order_id", order.ID,
				"error", err,
			)
		}
	}
}

// releaseShipments 取消未落库订单的运单：优先投递队列，队列不可用时直接调用承运商
func (s *CheckoutService) releaseShipments(codes []string, reason string) {
	for _, code := range codes {
		cancelShipment(s.queueClient, s.shipper, queue.ShippingCancelPayload{OrderCode: code, Reason: reason})
	}
}

func cancelShipment(queueClient *queue.Client, shipper shipping.Resolver, payload queue.ShippingCancelPayload) {
	if strings.TrimSpace(payload.OrderCode) == "" {
		return
	}
	if queueClient.Enabled() {
		err := queueClient.EnqueueShippingCancel(payload)
		if err == nil {
			return
		}
		logger.Warnw("shipping_cancel_enqueue_failed",
			"order_code", payload.OrderCode,
			"reason", payload.Reason,
			"error", err,
		)
	}
	ctx, cancel := context.WithTimeout(context.Background(), shipmentCancelTimeout)
	defer cancel()
	if err := shipper.CancelShipment(ctx, payload.OrderCode); err != nil {
		logger.Errorw("shipping_cancel_failed",
			"order_code", payload.OrderCode,
			"reason", payload.Reason,
			"error", err,
		)
	}
}

func checkoutResultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case CodeOf(err) < 500:
		return "rejected"
	default:
		return "error"
	}
}

func logCheckoutFailure(event string, userID uint, err error) {
	if CodeOf(err) < 500 {
		logger.Debugw(event, "user_id", userID, "error", err)
		return
	}
	logger.Errorw(event, "user_id", userID, "error", err)
}
