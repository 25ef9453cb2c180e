package models

import (
	"time"
)

// SalesOrder 销售订单，一次结算按店铺拆分为多笔
type SalesOrder struct {
	ID                     uint       `gorm:"primarykey" json:"id"`                                                   // 主键
	OrderNo                string     `gorm:"uniqueIndex;not null" json:"order_no"`                                   // 订单号
	CheckoutNo             string     `gorm:"index;not null" json:"checkout_no"`                                      // 结算批次号
	UserID                 uint       `gorm:"index;not null" json:"user_id"`                                          // 用户ID
	ShopID                 uint       `gorm:"index;not null" json:"shop_id"`                                          // 店铺ID
	Subtotal               Money      `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`                  // 商品小计
	ShippingFee            Money      `gorm:"type:decimal(20,2);not null;default:0" json:"shipping_fee"`              // 运费
	ProductDiscountAmount  Money      `gorm:"type:decimal(20,2);not null;default:0" json:"product_discount_amount"`   // 商品优惠
	ShippingDiscountAmount Money      `gorm:"type:decimal(20,2);not null;default:0" json:"shipping_discount_amount"`  // 运费优惠
	Total                  Money      `gorm:"type:decimal(20,2);not null;default:0" json:"total"`                     // 应付金额
	ShippingName           string     `gorm:"not null" json:"shipping_name"`                                          // 收件人
	ShippingPhone          string     `gorm:"not null" json:"shipping_phone"`                                         // 收件电话
	ShippingAddress        string     `gorm:"not null" json:"shipping_address"`                                       // 收件地址
	ShippingWardID         uint       `gorm:"index;not null" json:"shipping_ward_id"`                                 // 收件坊
	ShippingOrderCode      string     `gorm:"index" json:"shipping_order_code"`                                       // 承运商运单号
	PaymentMethod          string     `gorm:"type:varchar(20);not null" json:"payment_method"`                        // 支付方式（cod/online）
	PaymentGateway         string     `gorm:"type:varchar(20)" json:"payment_gateway"`                                // 支付网关
	Status                 string     `gorm:"type:varchar(32);index;not null" json:"status"`                          // 订单状态
	ExpiresAt              *time.Time `gorm:"index" json:"expires_at"`                                                // 支付过期时间
	CancelledAt            *time.Time `json:"cancelled_at"`                                                           // 取消时间
	DeliveredAt            *time.Time `json:"delivered_at"`                                                           // 送达时间
	CreatedAt              time.Time  `gorm:"index" json:"created_at"`                                                // 创建时间
	UpdatedAt              time.Time  `gorm:"index" json:"updated_at"`                                                // 更新时间

	Shop     *Shop          `gorm:"foreignKey:ShopID" json:"shop,omitempty"`             // 店铺
	Products []OrderProduct `gorm:"foreignKey:OrderID" json:"products,omitempty"`        // 订单商品快照
	Coupons  []Coupon       `gorm:"many2many:sales_order_coupons;" json:"coupons,omitempty"` // 使用的优惠券
}

// TableName 指定表名
func (SalesOrder) TableName() string {
	return "sales_orders"
}

// CouponCodes 返回订单关联的优惠码
func (o *SalesOrder) CouponCodes() []string {
	if o == nil {
		return nil
	}
	codes := make([]string, 0, len(o.Coupons))
	for _, c := range o.Coupons {
		codes = append(codes, c.Code)
	}
	return codes
}

// OrderProduct 订单商品快照，创建后不再修改
type OrderProduct struct {
	ID             uint      `gorm:"primarykey" json:"id"`                                         // 主键
	OrderID        uint      `gorm:"index;not null" json:"order_id"`                               // 订单ID
	ProductID      uint      `gorm:"index;not null" json:"product_id"`                             // 商品ID
	Name           string    `gorm:"not null" json:"name"`                                         // 商品名称快照
	Price          Money     `gorm:"type:decimal(20,2);not null" json:"price"`                     // 成交单价
	Quantity       int       `gorm:"not null" json:"quantity"`                                     // 数量
	DiscountAmount Money     `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"` // 行优惠
	Subtotal       Money     `gorm:"type:decimal(20,2);not null" json:"subtotal"`                  // 优惠后小计
	CreatedAt      time.Time `json:"created_at"`                                                   // 创建时间
}

// TableName 指定表名
func (OrderProduct) TableName() string {
	return "order_products"
}
