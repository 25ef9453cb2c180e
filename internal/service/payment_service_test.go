package service

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"net/url"
	"sort"
	"strings"
	"testing"

	"github.com/bazaar-next/internal/constants"
	"github.com/bazaar-next/internal/models"
	"github.com/bazaar-next/internal/payment/vnpay"
	"github.com/bazaar-next/internal/repository"
)

const testVNPaySecret = "SECRETKEY123"

func signedVNPayQuery(params map[string]string) url.Values {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	query := url.Values{}
	for _, k := range keys {
		pairs = append(pairs, url.QueryEscape(k)+"="+url.QueryEscape(params[k]))
		query.Set(k, params[k])
	}
	mac := hmac.New(sha512.New, []byte(testVNPaySecret))
	mac.Write([]byte(strings.Join(pairs, "&")))
	query.Set("vnp_SecureHash", hex.EncodeToString(mac.Sum(nil)))
	return query
}

func newPaymentServiceFixture(t *testing.T) (*serviceFixture, *PaymentService) {
	t.Helper()
	f := setupServiceFixture(t)
	gateway, err := vnpay.New(vnpay.Config{
		TmnCode:    "DEMO0001",
		HashSecret: testVNPaySecret,
		PayURL:     "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
		ReturnURL:  "https://bazaar.example/payments/vnpay/return",
	})
	if err != nil {
		t.Fatalf("create vnpay gateway failed: %v", err)
	}
	svc := NewPaymentService(repository.NewPaymentRepository(f.db), repository.NewOrderRepository(f.db), gateway, nil)
	return f, svc
}

func (f *serviceFixture) seedPayment(t *testing.T, txnRef string, amount int64, orders ...*models.SalesOrder) *models.Payment {
	t.Helper()
	ids := make([]uint, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	record := &models.Payment{
		TxnRef:   txnRef,
		UserID:   7,
		Gateway:  constants.PaymentGatewayVNPay,
		Amount:   models.NewMoneyFromInt(amount),
		OrderIDs: models.JoinOrderIDs(ids),
		Status:   constants.PaymentStatusInitiated,
	}
	if err := f.db.Create(record).Error; err != nil {
		t.Fatalf("create payment failed: %v", err)
	}
	return record
}

func vnpayParams(txnRef, amount, responseCode string) map[string]string {
	return map[string]string{
		"vnp_Amount":            amount,
		"vnp_PayDate":           "20260501101010",
		"vnp_ResponseCode":      responseCode,
		"vnp_TmnCode":           "DEMO0001",
		"vnp_TransactionNo":     "14012345",
		"vnp_TransactionStatus": responseCode,
		"vnp_TxnRef":            txnRef,
	}
}

func TestHandleVNPayReturnSuccess(t *testing.T) {
	f, svc := newPaymentServiceFixture(t)
	shop := f.seedShop(t, "Shop A")
	first := f.seedOrder(t, shop, 7, constants.OrderStatusPendingPayment, "GHN1", nil)
	second := f.seedOrder(t, shop, 7, constants.OrderStatusPendingPayment, "GHN2", nil)
	f.seedPayment(t, "BZ1", 240000, first, second)

	query := signedVNPayQuery(vnpayParams("BZ1", "24000000", "00"))
	record, err := svc.HandleVNPayReturn(query)
	if err != nil {
		t.Fatalf("handle return failed: %v", err)
	}
	if record.Status != constants.PaymentStatusSuccess || record.GatewayTx != "14012345" || record.PaidAt == nil {
		t.Fatalf("unexpected payment: %+v", record)
	}
	for _, id := range []uint{first.ID, second.ID} {
		if got := f.orderStatus(t, id); got != constants.OrderStatusPendingConfirmation {
			t.Fatalf("order %d should await confirmation, got %s", id, got)
		}
	}

	// 重复回调幂等
	again, err := svc.HandleVNPayReturn(query)
	if err != nil {
		t.Fatalf("duplicate return failed: %v", err)
	}
	if again.Status != constants.PaymentStatusSuccess {
		t.Fatalf("duplicate return changed status: %s", again.Status)
	}

	// 成功后的失败回调不覆盖结果
	failed := signedVNPayQuery(vnpayParams("BZ1", "24000000", "24"))
	if _, err := svc.HandleVNPayReturn(failed); err != nil {
		t.Fatalf("late failure callback failed: %v", err)
	}
	var stored models.Payment
	if err := f.db.Where("txn_ref = ?", "BZ1").First(&stored).Error; err != nil {
		t.Fatalf("load payment failed: %v", err)
	}
	if stored.Status != constants.PaymentStatusSuccess {
		t.Fatalf("success must not be overwritten, got %s", stored.Status)
	}
}

func TestHandleVNPayReturnFailure(t *testing.T) {
	f, svc := newPaymentServiceFixture(t)
	shop := f.seedShop(t, "Shop A")
	order := f.seedOrder(t, shop, 7, constants.OrderStatusPendingPayment, "GHN1", nil)
	f.seedPayment(t, "BZ2", 120000, order)

	record, err := svc.HandleVNPayReturn(signedVNPayQuery(vnpayParams("BZ2", "12000000", "24")))
	if err != nil {
		t.Fatalf("handle return failed: %v", err)
	}
	if record.Status != constants.PaymentStatusFailed {
		t.Fatalf("expected failed payment, got %s", record.Status)
	}
	if got := f.orderStatus(t, order.ID); got != constants.OrderStatusPendingPayment {
		t.Fatalf("order should keep waiting for payment, got %s", got)
	}
}

func TestHandleVNPayReturnRejects(t *testing.T) {
	f, svc := newPaymentServiceFixture(t)
	shop := f.seedShop(t, "Shop A")
	order := f.seedOrder(t, shop, 7, constants.OrderStatusPendingPayment, "GHN1", nil)
	f.seedPayment(t, "BZ3", 120000, order)

	tampered := signedVNPayQuery(vnpayParams("BZ3", "12000000", "00"))
	tampered.Set("vnp_Amount", "100")
	if _, err := svc.HandleVNPayReturn(tampered); !errors.Is(err, ErrPaymentSignatureInvalid) {
		t.Fatalf("expected signature invalid, got %v", err)
	}

	if _, err := svc.HandleVNPayReturn(signedVNPayQuery(vnpayParams("BZ3", "100", "00"))); !errors.Is(err, ErrPaymentAmountMismatch) {
		t.Fatalf("expected amount mismatch, got %v", err)
	}

	if _, err := svc.HandleVNPayReturn(signedVNPayQuery(vnpayParams("NOPE", "12000000", "00"))); !errors.Is(err, ErrPaymentNotFound) {
		t.Fatalf("expected payment not found, got %v", err)
	}

	if got := f.orderStatus(t, order.ID); got != constants.OrderStatusPendingPayment {
		t.Fatalf("rejected callbacks must not move order, got %s", got)
	}

	if _, err := svc.HandleWechatNotify(t.Context(), nil, nil); !errors.Is(err, ErrPaymentGatewayUnavailable) {
		t.Fatalf("expected wechat unavailable, got %v", err)
	}
}
