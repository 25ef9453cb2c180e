package vnpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/bazaar-next/internal/constants"
	"github.com/bazaar-next/internal/payment"

	"github.com/shopspring/decimal"
)

var (
	ErrConfigInvalid    = errors.New("vnpay config invalid")
	ErrSignatureInvalid = errors.New("vnpay signature invalid")
	ErrResponseInvalid  = errors.New("vnpay response invalid")
)

const (
	version        = "2.1.0"
	commandPay     = "pay"
	currencyVND    = "VND"
	orderTypeOther = "other"
	timeLayout     = "20060102150405"

	defaultExpire = 15 * time.Minute
)

// 网关时间统一使用 GMT+7
var gatewayZone = time.FixedZone("ICT", 7*3600)

// Config VNPay 商户配置
type Config struct {
	TmnCode    string
	HashSecret string
	PayURL     string
	ReturnURL  string
	Locale     string
}

// ReturnResult 回跳或 IPN 验签后的结果
type ReturnResult struct {
	TxnRef            string
	Amount            decimal.Decimal
	ResponseCode      string
	TransactionStatus string
	TransactionNo     string
	BankCode          string
	PaidAt            *time.Time
}

// Success 支付是否成功
func (r *ReturnResult) Success() bool {
	if r == nil {
		return false
	}
	return r.ResponseCode == "00" && (r.TransactionStatus == "" || r.TransactionStatus == "00")
}

// Gateway VNPay 网关
type Gateway struct {
	cfg Config
	now func() time.Time
}

// New 创建网关
func New(cfg Config) (*Gateway, error) {
	cfg.TmnCode = strings.TrimSpace(cfg.TmnCode)
	cfg.HashSecret = strings.TrimSpace(cfg.HashSecret)
	cfg.PayURL = strings.TrimSpace(cfg.PayURL)
	cfg.ReturnURL = strings.TrimSpace(cfg.ReturnURL)
	cfg.Locale = strings.TrimSpace(cfg.Locale)
	if cfg.Locale == "" {
		cfg.Locale = "vn"
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return &Gateway{cfg: cfg, now: time.Now}, nil
}

func validateConfig(cfg Config) error {
	if cfg.TmnCode == "" {
		return fmt.Errorf("%w: tmn_code is required", ErrConfigInvalid)
	}
	if cfg.HashSecret == "" {
		return fmt.Errorf("%w: hash_secret is required", ErrConfigInvalid)
	}
	if _, err := url.ParseRequestURI(cfg.PayURL); err != nil {
		return fmt.Errorf("%w: pay_url is invalid", ErrConfigInvalid)
	}
	if _, err := url.ParseRequestURI(cfg.ReturnURL); err != nil {
		return fmt.Errorf("%w: return_url is invalid", ErrConfigInvalid)
	}
	return nil
}

// Name 实现 payment.Gateway
func (g *Gateway) Name() string {
	return constants.PaymentGatewayVNPay
}

// CreatePaymentURL 生成带签名的支付跳转链接
func (g *Gateway) CreatePaymentURL(_ context.Context, req payment.URLRequest) (string, error) {
	if strings.TrimSpace(req.TxnRef) == "" {
		return "", fmt.Errorf("%w: txn_ref is required", ErrConfigInvalid)
	}
	if !req.Amount.IsPositive() {
		return "", fmt.Errorf("%w: amount must be greater than zero", ErrConfigInvalid)
	}
	now := g.now().In(gatewayZone)
	expireAt := req.ExpiresAt
	if expireAt.IsZero() || !expireAt.After(now) {
		expireAt = now.Add(defaultExpire)
	}
	orderInfo := strings.TrimSpace(req.Description)
	if orderInfo == "" {
		orderInfo = "Thanh toan don hang " + joinOrderIDs(req.OrderIDs)
	}

	params := map[string]string{
		"vnp_Version":    version,
		"vnp_Command":    commandPay,
		"vnp_TmnCode":    g.cfg.TmnCode,
		"vnp_Amount":     req.Amount.Ceil().Mul(decimal.NewFromInt(100)).String(),
		"vnp_CurrCode":   currencyVND,
		"vnp_TxnRef":     req.TxnRef,
		"vnp_OrderInfo":  orderInfo,
		"vnp_OrderType":  orderTypeOther,
		"vnp_Locale":     g.cfg.Locale,
		"vnp_ReturnUrl":  g.cfg.ReturnURL,
		"vnp_IpAddr":     normalizeIP(req.ClientIP),
		"vnp_CreateDate": now.Format(timeLayout),
		"vnp_ExpireDate": expireAt.In(gatewayZone).Format(timeLayout),
	}
	content := buildSignContent(params)
	return g.cfg.PayURL + "?" + content + "&vnp_SecureHash=" + sign(content, g.cfg.HashSecret), nil
}

// VerifyReturn 校验回跳/IPN 参数签名并解析结果
func (g *Gateway) VerifyReturn(query url.Values) (*ReturnResult, error) {
	hash := strings.TrimSpace(query.Get("vnp_SecureHash"))
	if hash == "" {
		return nil, ErrSignatureInvalid
	}
	params := make(map[string]string, len(query))
	for key, values := range query {
		if !strings.HasPrefix(key, "vnp_") || len(values) == 0 {
			continue
		}
		params[key] = values[0]
	}
	expected := sign(buildSignContent(params), g.cfg.HashSecret)
	if !hmac.Equal([]byte(strings.ToLower(hash)), []byte(expected)) {
		return nil, ErrSignatureInvalid
	}

	rawAmount, err := decimal.NewFromString(strings.TrimSpace(params["vnp_Amount"]))
	if err != nil {
		return nil, fmt.Errorf("%w: vnp_Amount is invalid", ErrResponseInvalid)
	}
	result := &ReturnResult{
		TxnRef:            strings.TrimSpace(params["vnp_TxnRef"]),
		Amount:            rawAmount.Div(decimal.NewFromInt(100)),
		ResponseCode:      strings.TrimSpace(params["vnp_ResponseCode"]),
		TransactionStatus: strings.TrimSpace(params["vnp_TransactionStatus"]),
		TransactionNo:     strings.TrimSpace(params["vnp_TransactionNo"]),
		BankCode:          strings.TrimSpace(params["vnp_BankCode"]),
	}
	if result.TxnRef == "" {
		return nil, fmt.Errorf("%w: vnp_TxnRef is missing", ErrResponseInvalid)
	}
	if payDate := strings.TrimSpace(params["vnp_PayDate"]); payDate != "" {
		if parsed, err := time.ParseInLocation(timeLayout, payDate, gatewayZone); err == nil {
			result.PaidAt = &parsed
		}
	}
	return result, nil
}

// buildSignContent 按键名排序并做表单编码，vnp_SecureHash 与空值不参与签名
func buildSignContent(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v == "" || k == "vnp_SecureHash" || k == "vnp_SecureHashType" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, url.QueryEscape(k)+"="+url.QueryEscape(params[k]))
	}
	return strings.Join(pairs, "&")
}

func sign(content, secret string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(content))
	return hex.EncodeToString(mac.Sum(nil))
}

func normalizeIP(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "127.0.0.1"
	}
	return raw
}

func joinOrderIDs(ids []uint) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%d", id))
	}
	return strings.Join(parts, ",")
}
