package shipping

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrCarrierUnavailable 承运商不可达（网络错误、5xx、熔断）
	ErrCarrierUnavailable = errors.New("shipping: carrier unavailable")
	// ErrCarrierRejected 承运商拒绝请求（业务码非 200）
	ErrCarrierRejected = errors.New("shipping: carrier rejected request")
	// ErrNoFee 承运商未返回运费
	ErrNoFee = errors.New("shipping: carrier returned no fee")
)

// IsCarrierUnavailable 判断错误是否为可重试、计入熔断的承运商故障
func IsCarrierUnavailable(err error) bool {
	return errors.Is(err, ErrCarrierUnavailable)
}

// Address 收发件地址
type Address struct {
	Name       string
	Phone      string
	Street     string
	WardCode   string
	WardName   string
	DistrictID int
	District   string
	Province   string
}

// Item 运单商品明细
type Item struct {
	Name     string
	Quantity int
	Price    decimal.Decimal
	Weight   int
}

// Request 运费预估或下单请求
type Request struct {
	From      Address
	To        Address
	Parcel    Parcel
	CODAmount decimal.Decimal
	Items     []Item
	ClientRef string
}

// Fee 运费预估结果
type Fee struct {
	Total decimal.Decimal
}

// Shipment 承运商运单
type Shipment struct {
	OrderCode string
	TotalFee  decimal.Decimal
}

// Resolver 承运商能力
type Resolver interface {
	PreviewFee(ctx context.Context, req Request) (*Fee, error)
	CreateShipment(ctx context.Context, req Request) (*Shipment, error)
	ShipmentStatus(ctx context.Context, orderCode string) (string, error)
	CancelShipment(ctx context.Context, orderCode string) error
}
