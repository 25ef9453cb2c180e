package service

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/bazaar-next/internal/constants"
	"github.com/bazaar-next/internal/logger"
	"github.com/bazaar-next/internal/metrics"
	"github.com/bazaar-next/internal/models"
	"github.com/bazaar-next/internal/payment/vnpay"
	"github.com/bazaar-next/internal/payment/wechatpay"
	"github.com/bazaar-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentService 支付结果处理服务
type PaymentService struct {
	paymentRepo repository.PaymentRepository
	orderRepo   repository.OrderRepository
	vnpay       *vnpay.Gateway
	wechat      *wechatpay.Gateway
	clock       func() time.Time
}

// NewPaymentService 创建支付服务，未启用的网关传 nil
func NewPaymentService(paymentRepo repository.PaymentRepository, orderRepo repository.OrderRepository, vnpayGateway *vnpay.Gateway, wechatGateway *wechatpay.Gateway) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		orderRepo:   orderRepo,
		vnpay:       vnpayGateway,
		wechat:      wechatGateway,
		clock:       time.Now,
	}
}

// gatewayResult 网关回调归一化后的结果
type gatewayResult struct {
	Gateway   string
	TxnRef    string
	Amount    decimal.Decimal
	Status    string
	GatewayTx string
	PaidAt    *time.Time
}

// HandleVNPayReturn 处理 VNPay 回跳或 IPN
func (s *PaymentService) HandleVNPayReturn(query url.Values) (*models.Payment, error) {
	if s.vnpay == nil {
		return nil, fmt.Errorf("%w: %s", ErrPaymentGatewayUnavailable, constants.PaymentGatewayVNPay)
	}
	res, err := s.vnpay.VerifyReturn(query)
	if err != nil {
		metrics.IncPaymentCallback(constants.PaymentGatewayVNPay, err)
		return nil, fmt.Errorf("%w: %v", ErrPaymentSignatureInvalid, err)
	}
	status := constants.PaymentStatusFailed
	if res.Success() {
		status = constants.PaymentStatusSuccess
	}
	return s.apply(gatewayResult{
		Gateway:   constants.PaymentGatewayVNPay,
		TxnRef:    res.TxnRef,
		Amount:    res.Amount,
		Status:    status,
		GatewayTx: res.TransactionNo,
		PaidAt:    res.PaidAt,
	})
}

// HandleWechatNotify 处理微信支付异步通知
func (s *PaymentService) HandleWechatNotify(ctx context.Context, headers map[string]string, body []byte) (*models.Payment, error) {
	if s.wechat == nil {
		return nil, fmt.Errorf("%w: %s", ErrPaymentGatewayUnavailable, constants.PaymentGatewayWechat)
	}
	n, err := s.wechat.VerifyAndDecodeWebhook(ctx, headers, body)
	if err != nil {
		metrics.IncPaymentCallback(constants.PaymentGatewayWechat, err)
		return nil, fmt.Errorf("%w: %v", ErrPaymentSignatureInvalid, err)
	}
	return s.apply(gatewayResult{
		Gateway:   constants.PaymentGatewayWechat,
		TxnRef:    n.TxnRef,
		Amount:    n.Amount,
		Status:    n.Status,
		GatewayTx: n.TransactionID,
		PaidAt:    n.PaidAt,
	})
}

// apply 回写支付结果；重复回调幂等，已成功的支付不会被覆盖
func (s *PaymentService) apply(result gatewayResult) (*models.Payment, error) {
	var out *models.Payment
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		paymentRepo := s.paymentRepo.WithTx(tx)
		record, err := paymentRepo.GetByTxnRef(result.TxnRef)
		if err != nil {
			return err
		}
		if record == nil || record.Gateway != result.Gateway {
			return ErrPaymentNotFound
		}
		if !record.Amount.Decimal.Equal(result.Amount.Round(2)) {
			return fmt.Errorf("%w: expected %s got %s", ErrPaymentAmountMismatch, record.Amount.String(), result.Amount.String())
		}
		out = record
		if record.Status == constants.PaymentStatusSuccess || result.Status == constants.PaymentStatusInitiated || record.Status == result.Status {
			return nil
		}

		now := s.clock()
		record.Status = result.Status
		record.GatewayTx = result.GatewayTx
		record.UpdatedAt = now
		if result.Status == constants.PaymentStatusSuccess {
			paidAt := now
			if result.PaidAt != nil {
				paidAt = *result.PaidAt
			}
			record.PaidAt = &paidAt
		}
		if err := paymentRepo.Update(record); err != nil {
			return err
		}
		if result.Status != constants.PaymentStatusSuccess {
			return nil
		}

		orderRepo := s.orderRepo.WithTx(tx)
		for _, orderID := range record.ParseOrderIDs() {
			ok, err := orderRepo.UpdateStatus(orderID, []string{constants.OrderStatusPendingPayment}, constants.OrderStatusPendingConfirmation, map[string]interface{}{
				"updated_at": now,
			})
			if err != nil {
				return err
			}
			if !ok {
				logger.Warnw("payment_success_order_not_pending",
					"txn_ref", record.TxnRef,
					"order_id", orderID,
				)
			}
		}
		return nil
	})
	metrics.IncPaymentCallback(result.Gateway, err)
	if err != nil {
		logger.Warnw("payment_callback_rejected",
			"gateway", result.Gateway,
			"txn_ref", result.TxnRef,
			"error", err,
		)
		return nil, err
	}
	logger.Infow("payment_callback_applied",
		"gateway", result.Gateway,
		"txn_ref", result.TxnRef,
		"status", out.Status,
	)
	return out, nil
}

// ListPaymentsAdmin 管理端支付记录列表
func (s *PaymentService) ListPaymentsAdmin(filter repository.PaymentListFilter) ([]models.Payment, int64, error) {
	return s.paymentRepo.ListAdmin(filter)
}
