package constants

// 订单状态常量
const (
	OrderStatusPendingPayment      = "pending_payment"
	OrderStatusPendingConfirmation = "pending_confirmation"
	OrderStatusTracking            = "tracking"
	OrderStatusDelivered           = "delivered"
	OrderStatusCancelled           = "cancelled"
)

// 支付方式常量
const (
	PaymentMethodCod    = "cod"
	PaymentMethodOnline = "online"
)

// 支付网关常量
const (
	PaymentGatewayVNPay  = "vnpay"
	PaymentGatewayWechat = "wechat"
)

// 支付状态常量
const (
	PaymentStatusInitiated = "initiated"
	PaymentStatusSuccess   = "success"
	PaymentStatusFailed    = "failed"
)

// 优惠券类型常量
const (
	CouponTypeProduct  = "product"
	CouponTypeShipping = "shipping"
)

// 优惠方式常量
const (
	DiscountTypePercent = "percent"
	DiscountTypeAmount  = "amount"
)

// 物流服务商常量
const (
	ShippingProviderGHN    = "ghn"
	ShippingProviderStatic = "static"
)

// 队列名称常量
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)

// 异步任务类型常量
const (
	TaskOrderTimeoutCancel = "order:timeout_cancel"
	TaskOrderTrackingSync  = "order:tracking_sync"
	TaskShippingCancel     = "shipping:cancel"
)

// 角色常量
const (
	RoleAdmin     = "admin"
	RoleShopOwner = "shop_owner"
)
