package shipping

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/shopspring/decimal"
)

// StaticResolver 固定运费的本地实现，用于开发环境
type StaticResolver struct {
	Fee    decimal.Decimal
	seq    atomic.Uint64
	status atomic.Value // string
}

// NewStaticResolver 创建固定运费承运商
func NewStaticResolver(fee decimal.Decimal) *StaticResolver {
	return &StaticResolver{Fee: fee}
}

// PreviewFee 返回固定运费
func (r *StaticResolver) PreviewFee(_ context.Context, _ Request) (*Fee, error) {
	if !r.Fee.IsPositive() {
		return nil, ErrNoFee
	}
	return &Fee{Total: r.Fee}, nil
}

// CreateShipment 生成递增运单号
func (r *StaticResolver) CreateShipment(_ context.Context, req Request) (*Shipment, error) {
	if !r.Fee.IsPositive() {
		return nil, ErrNoFee
	}
	n := r.seq.Add(1)
	ref := strings.TrimSpace(req.ClientRef)
	if ref == "" {
		ref = "LOCAL"
	}
	return &Shipment{OrderCode: fmt.Sprintf("%s-%06d", ref, n), TotalFee: r.Fee}, nil
}

// SetStatus 设置 ShipmentStatus 返回的状态
func (r *StaticResolver) SetStatus(status string) {
	r.status.Store(status)
}

// ShipmentStatus 返回预设状态，默认 delivering
func (r *StaticResolver) ShipmentStatus(_ context.Context, _ string) (string, error) {
	if v, ok := r.status.Load().(string); ok && v != "" {
		return v, nil
	}
	return "delivering", nil
}

// CancelShipment 本地实现无需取消
func (r *StaticResolver) CancelShipment(_ context.Context, _ string) error {
	return nil
}
