package shipping

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bazaar-next/internal/logger"
	"github.com/bazaar-next/internal/metrics"
	"github.com/bazaar-next/internal/resilience"

	"github.com/shopspring/decimal"
)

const (
	ghnPathFee    = "/v2/shipping-order/fee"
	ghnPathCreate = "/v2/shipping-order/create"
	ghnPathDetail = "/v2/shipping-order/detail"
	ghnPathCancel = "/v2/switch-status/cancel"

	ghnPaymentTypeSeller = 1
	ghnRequiredNote      = "KHONGCHOXEMHANG"
)

// GHNConfig GHN 接入配置
type GHNConfig struct {
	BaseURL       string
	Token         string
	ShopID        int
	ServiceTypeID int
	Timeout       time.Duration
	MaxAttempts   int
	Backoff       time.Duration
}

// GHNClient 基于 GHN REST API 的承运商实现
type GHNClient struct {
	cfg     GHNConfig
	http    *http.Client
	breaker *resilience.Breaker
}

// NewGHNClient 创建 GHN 客户端，breaker 可为 nil
func NewGHNClient(cfg GHNConfig, breaker *resilience.Breaker) *GHNClient {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.ServiceTypeID <= 0 {
		cfg.ServiceTypeID = 2
	}
	return &GHNClient{
		cfg:     cfg,
		http:    &http.Client{},
		breaker: breaker,
	}
}

type ghnEnvelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type ghnItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    int64  `json:"price"`
	Weight   int    `json:"weight,omitempty"`
}

type ghnFeeRequest struct {
	ServiceTypeID  int    `json:"service_type_id"`
	FromDistrictID int    `json:"from_district_id"`
	FromWardCode   string `json:"from_ward_code"`
	ToDistrictID   int    `json:"to_district_id"`
	ToWardCode     string `json:"to_ward_code"`
	Length         int    `json:"length"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	Weight         int    `json:"weight"`
	InsuranceValue int64  `json:"insurance_value"`
	CODValue       int64  `json:"cod_value"`
}

type ghnFeeData struct {
	Total int64 `json:"total"`
}

type ghnCreateRequest struct {
	PaymentTypeID  int       `json:"payment_type_id"`
	RequiredNote   string    `json:"required_note"`
	ClientOrderID  string    `json:"client_order_code,omitempty"`
	FromName       string    `json:"from_name"`
	FromPhone      string    `json:"from_phone"`
	FromAddress    string    `json:"from_address"`
	FromWardName   string    `json:"from_ward_name"`
	FromDistrict   string    `json:"from_district_name"`
	FromProvince   string    `json:"from_province_name"`
	ToName         string    `json:"to_name"`
	ToPhone        string    `json:"to_phone"`
	ToAddress      string    `json:"to_address"`
	ToWardCode     string    `json:"to_ward_code"`
	ToDistrictID   int       `json:"to_district_id"`
	CODAmount      int64     `json:"cod_amount"`
	Length         int       `json:"length"`
	Width          int       `json:"width"`
	Height         int       `json:"height"`
	Weight         int       `json:"weight"`
	ServiceTypeID  int       `json:"service_type_id"`
	InsuranceValue int64     `json:"insurance_value"`
	Items          []ghnItem `json:"items"`
}

type ghnCreateData struct {
	OrderCode string `json:"order_code"`
	TotalFee  int64  `json:"total_fee"`
}

type ghnDetailData struct {
	OrderCode string `json:"order_code"`
	Status    string `json:"status"`
}

// PreviewFee 预估运费
func (c *GHNClient) PreviewFee(ctx context.Context, req Request) (*Fee, error) {
	body := ghnFeeRequest{
		ServiceTypeID:  c.cfg.ServiceTypeID,
		FromDistrictID: req.From.DistrictID,
		FromWardCode:   req.From.WardCode,
		ToDistrictID:   req.To.DistrictID,
		ToWardCode:     req.To.WardCode,
		Length:         req.Parcel.Length,
		Width:          req.Parcel.Width,
		Height:         req.Parcel.Height,
		Weight:         req.Parcel.Weight,
		InsuranceValue: itemsValue(req.Items),
		CODValue:       req.CODAmount.Ceil().IntPart(),
	}
	var data ghnFeeData
	if err := c.call(ctx, "preview_fee", ghnPathFee, body, &data); err != nil {
		return nil, err
	}
	if data.Total <= 0 {
		return nil, ErrNoFee
	}
	return &Fee{Total: decimal.NewFromInt(data.Total)}, nil
}

// CreateShipment 创建运单
func (c *GHNClient) CreateShipment(ctx context.Context, req Request) (*Shipment, error) {
	items := make([]ghnItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, ghnItem{
			Name:     it.Name,
			Quantity: it.Quantity,
			Price:    it.Price.Ceil().IntPart(),
			Weight:   it.Weight,
		})
	}
	body := ghnCreateRequest{
		PaymentTypeID:  ghnPaymentTypeSeller,
		RequiredNote:   ghnRequiredNote,
		ClientOrderID:  req.ClientRef,
		FromName:       req.From.Name,
		FromPhone:      req.From.Phone,
		FromAddress:    req.From.Street,
		FromWardName:   req.From.WardName,
		FromDistrict:   req.From.District,
		FromProvince:   req.From.Province,
		ToName:         req.To.Name,
		ToPhone:        req.To.Phone,
		ToAddress:      req.To.Street,
		ToWardCode:     req.To.WardCode,
		ToDistrictID:   req.To.DistrictID,
		CODAmount:      req.CODAmount.Ceil().IntPart(),
		Length:         req.Parcel.Length,
		Width:          req.Parcel.Width,
		Height:         req.Parcel.Height,
		Weight:         req.Parcel.Weight,
		ServiceTypeID:  c.cfg.ServiceTypeID,
		InsuranceValue: itemsValue(req.Items),
		Items:          items,
	}
	var data ghnCreateData
	if err := c.call(ctx, "create_shipment", ghnPathCreate, body, &data); err != nil {
		return nil, err
	}
	if strings.TrimSpace(data.OrderCode) == "" {
		return nil, fmt.Errorf("%w: missing order_code", ErrCarrierRejected)
	}
	if data.TotalFee <= 0 {
		return nil, ErrNoFee
	}
	return &Shipment{OrderCode: data.OrderCode, TotalFee: decimal.NewFromInt(data.TotalFee)}, nil
}

// ShipmentStatus 查询运单状态
func (c *GHNClient) ShipmentStatus(ctx context.Context, orderCode string) (string, error) {
	var data ghnDetailData
	body := map[string]string{"order_code": strings.TrimSpace(orderCode)}
	if err := c.call(ctx, "shipment_status", ghnPathDetail, body, &data); err != nil {
		return "", err
	}
	return strings.TrimSpace(data.Status), nil
}

// CancelShipment 取消运单
func (c *GHNClient) CancelShipment(ctx context.Context, orderCode string) error {
	body := map[string][]string{"order_codes": {strings.TrimSpace(orderCode)}}
	return c.call(ctx, "cancel_shipment", ghnPathCancel, body, nil)
}

func (c *GHNClient) call(ctx context.Context, op, path string, body interface{}, out interface{}) error {
	started := time.Now()
	err := c.callWithRetry(ctx, op, path, body, out)
	metrics.ObserveShipping(op, err, time.Since(started))
	return err
}

func (c *GHNClient) callWithRetry(ctx context.Context, op, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("shipping: encode %s request: %w", op, err)
	}

	policy := resilience.RetryPolicy{
		MaxAttempts:     c.cfg.MaxAttempts,
		InitialInterval: c.cfg.Backoff,
		Jitter:          0.2,
	}
	err = resilience.Retry(ctx, policy, IsCarrierUnavailable, func() error {
		if c.breaker == nil {
			return c.doOnce(ctx, path, payload, out)
		}
		return c.breaker.Execute(func() error {
			return c.doOnce(ctx, path, payload, out)
		})
	}, func(err error, wait time.Duration) {
		logger.Warnw("shipping_request_retry",
			"operation", op,
			"wait", wait,
			"error", err,
		)
	})
	if err == nil || IsCarrierUnavailable(err) || errors.Is(err, ErrCarrierRejected) {
		return err
	}
	if errors.Is(err, resilience.ErrOpenCircuit) || ctx.Err() != nil {
		return fmt.Errorf("%w: %v", ErrCarrierUnavailable, err)
	}
	return err
}

func (c *GHNClient) doOnce(ctx context.Context, path string, payload []byte, out interface{}) error {
	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("shipping: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Token", c.cfg.Token)
	if c.cfg.ShopID > 0 {
		req.Header.Set("ShopId", strconv.Itoa(c.cfg.ShopID))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCarrierUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrCarrierUnavailable, err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: status %d", ErrCarrierUnavailable, resp.StatusCode)
	}

	var env ghnEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%w: decode envelope: %v", ErrCarrierRejected, err)
	}
	if env.Code != http.StatusOK {
		return fmt.Errorf("%w: code %d %s", ErrCarrierRejected, env.Code, strings.TrimSpace(env.Message))
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: decode data: %v", ErrCarrierRejected, err)
	}
	return nil
}

func itemsValue(items []Item) int64 {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return sum.Ceil().IntPart()
}
