package payment

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrGatewayNotFound 网关未注册或未启用
	ErrGatewayNotFound = errors.New("payment: gateway not found")
	// ErrEmptyURL 网关未返回支付链接
	ErrEmptyURL = errors.New("payment: gateway returned empty url")
)

// URLRequest 创建支付链接的输入
type URLRequest struct {
	TxnRef      string
	Amount      decimal.Decimal
	Description string
	ClientIP    string
	OrderIDs    []uint
	ExpiresAt   time.Time
}

// Gateway 在线支付网关
type Gateway interface {
	Name() string
	CreatePaymentURL(ctx context.Context, req URLRequest) (string, error)
}

// Registry 按名称管理网关
type Registry struct {
	mu       sync.RWMutex
	gateways map[string]Gateway
}

// NewRegistry 创建网关注册表
func NewRegistry(gateways ...Gateway) *Registry {
	r := &Registry{gateways: make(map[string]Gateway)}
	for _, g := range gateways {
		r.Register(g)
	}
	return r
}

// Register 注册网关，同名覆盖
func (r *Registry) Register(g Gateway) {
	if g == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gateways[strings.ToLower(g.Name())] = g
}

// Get 获取网关
func (r *Registry) Get(name string) (Gateway, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: %s", ErrGatewayNotFound, name)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.gateways[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGatewayNotFound, name)
	}
	return g, nil
}

// Names 返回已注册网关名（排序）
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.gateways))
	for name := range r.gateways {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CreateURL 通过指定网关创建支付链接，并把空链接视为失败
func (r *Registry) CreateURL(ctx context.Context, gateway string, req URLRequest) (string, error) {
	g, err := r.Get(gateway)
	if err != nil {
		return "", err
	}
	url, err := g.CreatePaymentURL(ctx, req)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(url) == "" {
		return "", ErrEmptyURL
	}
	return url, nil
}
