package provider

import (
	"strings"
	"time"

	"github.com/bazaar-next/internal/authz"
	"github.com/bazaar-next/internal/cache"
	"github.com/bazaar-next/internal/config"
	"github.com/bazaar-next/internal/logger"
	"github.com/bazaar-next/internal/models"
	"github.com/bazaar-next/internal/payment"
	"github.com/bazaar-next/internal/payment/vnpay"
	"github.com/bazaar-next/internal/payment/wechatpay"
	"github.com/bazaar-next/internal/queue"
	"github.com/bazaar-next/internal/repository"
	"github.com/bazaar-next/internal/resilience"
	"github.com/bazaar-next/internal/service"
	"github.com/bazaar-next/internal/shipping"

	"github.com/shopspring/decimal"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Locker      *cache.Locker

	// 外部依赖
	Shipper  shipping.Resolver
	Gateways *payment.Registry
	VNPay    *vnpay.Gateway
	Wechat   *wechatpay.Gateway

	// Repositories
	CartRepo     repository.CartRepository
	ProductRepo  repository.ProductRepository
	CategoryRepo repository.CategoryRepository
	CouponRepo   repository.CouponRepository
	LocationRepo repository.LocationRepository
	OrderRepo    repository.OrderRepository
	PaymentRepo  repository.PaymentRepository

	// Services
	AuthzService       *authz.Service
	LocationService    *service.LocationService
	CartService        *service.CartService
	CouponService      *service.CouponService
	CouponAdminService *service.CouponAdminService
	CheckoutService    *service.CheckoutService
	OrderService       *service.OrderService
	PaymentService     *service.PaymentService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端，未启用时为空实现
	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
		queueClient, _ = queue.NewClient(nil)
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		Locker:      cache.NewLocker(),
	}

	// 1. 初始化外部依赖
	c.initShipper()
	c.initGateways()

	// 2. 初始化 Repositories
	c.initRepositories()

	// 3. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initShipper() {
	cfg := c.Config.Shipping
	if strings.EqualFold(strings.TrimSpace(cfg.Provider), "ghn") {
		breaker := resilience.NewBreaker("ghn", cfg.Breaker.MinRequests, cfg.Breaker.FailureRatio,
			time.Duration(cfg.Breaker.OpenSeconds)*time.Second,
			resilience.WithFailurePredicate(shipping.IsCarrierUnavailable))
		c.Shipper = shipping.NewGHNClient(shipping.GHNConfig{
			BaseURL:       cfg.BaseURL,
			Token:         cfg.Token,
			ShopID:        cfg.ShopID,
			ServiceTypeID: cfg.ServiceTypeID,
			Timeout:       time.Duration(cfg.TimeoutMS) * time.Millisecond,
			MaxAttempts:   cfg.MaxAttempts,
			Backoff:       time.Duration(cfg.BackoffMS) * time.Millisecond,
		}, breaker)
		logger.Infow("provider_shipper_ready", "provider", "ghn")
		return
	}
	c.Shipper = shipping.NewStaticResolver(decimal.NewFromInt(cfg.StaticFee))
	logger.Warnw("provider_shipper_static", "fee", cfg.StaticFee)
}

func (c *Container) initGateways() {
	c.Gateways = payment.NewRegistry()
	pc := c.Config.Payment
	if pc.VNPay.Enabled {
		g, err := vnpay.New(vnpay.Config{
			TmnCode:    pc.VNPay.TmnCode,
			HashSecret: pc.VNPay.HashSecret,
			PayURL:     pc.VNPay.PayURL,
			ReturnURL:  pc.VNPay.ReturnURL,
			Locale:     pc.VNPay.Locale,
		})
		if err != nil {
			logger.Errorw("provider_init_vnpay_failed", "error", err)
		} else {
			c.VNPay = g
			c.Gateways.Register(g)
		}
	}
	if pc.Wechat.Enabled {
		g, err := wechatpay.New(wechatpay.Config{
			AppID:              pc.Wechat.AppID,
			MerchantID:         pc.Wechat.MerchantID,
			MerchantSerialNo:   pc.Wechat.MerchantSerialNo,
			MerchantPrivateKey: pc.Wechat.MerchantPrivateKey,
			APIV3Key:           pc.Wechat.APIV3Key,
			NotifyURL:          pc.Wechat.NotifyURL,
			BaseURL:            pc.Wechat.BaseURL,
		})
		if err != nil {
			logger.Errorw("provider_init_wechatpay_failed", "error", err)
		} else {
			c.Wechat = g
			c.Gateways.Register(g)
		}
	}
	logger.Infow("provider_payment_gateways_ready", "gateways", c.Gateways.Names())
}

func (c *Container) initRepositories() {
	db := models.DB
	c.CartRepo = repository.NewCartRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.CategoryRepo = repository.NewCategoryRepository(db)
	c.CouponRepo = repository.NewCouponRepository(db)
	c.LocationRepo = repository.NewLocationRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.PaymentRepo = repository.NewPaymentRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}
	if err := c.AuthzService.GrantSuperAdmins(c.Config.Authz.AdminUserIDs); err != nil {
		logger.Warnw("provider_grant_super_admins_failed", "error", err)
	}

	wardTTL := time.Duration(c.Config.Redis.WardCacheTTLSeconds) * time.Second
	c.LocationService = service.NewLocationService(c.LocationRepo, wardTTL)
	c.CartService = service.NewCartService(c.CartRepo, c.ProductRepo)
	c.CouponService = service.NewCouponService(c.CouponRepo)
	c.CouponAdminService = service.NewCouponAdminService(c.CouponRepo, c.CategoryRepo)
	c.CheckoutService = service.NewCheckoutService(
		c.CartRepo,
		c.OrderRepo,
		c.CouponRepo,
		c.PaymentRepo,
		c.CouponService,
		c.LocationService,
		c.Shipper,
		c.Gateways,
		c.QueueClient,
		c.Locker,
		service.CheckoutOptions{
			PaymentExpire:      time.Duration(c.Config.Order.PaymentExpireMinutes) * time.Minute,
			PaymentTimeout:     time.Duration(c.Config.Payment.TimeoutMS) * time.Millisecond,
			LockTTL:            time.Duration(c.Config.Checkout.LockTTLSeconds) * time.Second,
			PreviewConcurrency: c.Config.Checkout.PreviewConcurrency,
		},
	)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.CouponRepo, c.Shipper, c.QueueClient, c.Config.Order.TrackingSyncConcurrency)
	c.PaymentService = service.NewPaymentService(c.PaymentRepo, c.OrderRepo, c.VNPay, c.Wechat)
}
