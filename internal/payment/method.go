package payment

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bazaar-next/internal/constants"
)

// ErrMethodInvalid 无法识别的支付方式
var ErrMethodInvalid = errors.New("payment: method invalid")

// Method 支付方式：货到付款 Cod 或在线支付 Online
type Method interface {
	// Kind 返回持久化到订单上的支付方式
	Kind() string
	isMethod()
}

// Cod 货到付款
type Cod struct{}

// Kind 实现 Method
func (Cod) Kind() string { return constants.PaymentMethodCod }

func (Cod) isMethod() {}

// Online 在线支付，Gateway 为网关名称
type Online struct {
	Gateway string
}

// Kind 实现 Method
func (Online) Kind() string { return constants.PaymentMethodOnline }

func (Online) isMethod() {}

// ParseMethod 解析支付方式：cod / vnpay / wechat
func ParseMethod(raw string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case constants.PaymentMethodCod:
		return Cod{}, nil
	case constants.PaymentGatewayVNPay:
		return Online{Gateway: constants.PaymentGatewayVNPay}, nil
	case constants.PaymentGatewayWechat:
		return Online{Gateway: constants.PaymentGatewayWechat}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrMethodInvalid, raw)
	}
}

// GatewayOf 返回在线支付的网关名，货到付款返回空
func GatewayOf(m Method) string {
	if online, ok := m.(Online); ok {
		return online.Gateway
	}
	return ""
}
