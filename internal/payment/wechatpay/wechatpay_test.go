package wechatpay

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bazaar-next/internal/constants"
	"github.com/bazaar-next/internal/payment"

	"github.com/shopspring/decimal"
	"github.com/wechatpay-apiv3/wechatpay-go/core/notify"
	"github.com/wechatpay-apiv3/wechatpay-go/services/payments"
)

func testConfig(baseURL string) Config {
	return Config{
		AppID:              "wx1234567890",
		MerchantID:         "1900000109",
		MerchantSerialNo:   "ABC123456789",
		MerchantPrivateKey: buildTestPrivateKey(),
		APIV3Key:           "12345678901234567890123456789012",
		NotifyURL:          "https://example.com/api/v1/payments/wechat/notify",
		BaseURL:            baseURL,
	}
}

func TestNewDefaultsBaseURL(t *testing.T) {
	g, err := New(testConfig(""))
	if err != nil {
		t.Fatalf("new gateway failed: %v", err)
	}
	if g.cfg.BaseURL != defaultBaseURL {
		t.Fatalf("base url should fallback to default, got: %s", g.cfg.BaseURL)
	}
	if g.Name() != constants.PaymentGatewayWechat {
		t.Fatalf("unexpected gateway name: %s", g.Name())
	}
}

func TestNewRejectsInvalidAPIV3Key(t *testing.T) {
	cfg := testConfig("")
	cfg.APIV3Key = "short-key"
	if _, err := New(cfg); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid, got %v", err)
	}
}

func TestCreatePaymentURLNative(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != nativeEndpoint {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body failed: %v", err)
		}
		if body["out_trade_no"] != "CK1001" {
			t.Fatalf("unexpected out_trade_no: %v", body["out_trade_no"])
		}
		amount, _ := body["amount"].(map[string]interface{})
		if amount["total"] != float64(1050) {
			t.Fatalf("unexpected amount total: %v", amount["total"])
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code_url":"weixin://wxpay/bizpayurl?pr=mocked"}`))
	}))
	defer server.Close()

	g, err := New(testConfig(server.URL))
	if err != nil {
		t.Fatalf("new gateway failed: %v", err)
	}
	url, err := g.CreatePaymentURL(context.Background(), payment.URLRequest{
		TxnRef:   "CK1001",
		Amount:   decimal.RequireFromString("10.50"),
		ClientIP: "127.0.0.1:5123",
	})
	if err != nil {
		t.Fatalf("create payment url failed: %v", err)
	}
	if url != "weixin://wxpay/bizpayurl?pr=mocked" {
		t.Fatalf("unexpected url: %s", url)
	}
}

func TestCreatePaymentURLResponseInvalid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"INVALID_REQUEST","message":"bad"}`))
	}))
	defer server.Close()

	g, err := New(testConfig(server.URL))
	if err != nil {
		t.Fatalf("new gateway failed: %v", err)
	}
	_, err = g.CreatePaymentURL(context.Background(), payment.URLRequest{TxnRef: "CK1002", Amount: decimal.NewFromInt(2)})
	if !errors.Is(err, ErrResponseInvalid) {
		t.Fatalf("expected ErrResponseInvalid, got: %v", err)
	}
}

func TestConvertAmountToFen(t *testing.T) {
	if fen, err := convertAmountToFen(decimal.RequireFromString("12.34")); err != nil || fen != 1234 {
		t.Fatalf("unexpected fen: %d %v", fen, err)
	}
	if _, err := convertAmountToFen(decimal.RequireFromString("0.001")); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected precision error, got %v", err)
	}
	if _, err := convertAmountToFen(decimal.Zero); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected non-positive error, got %v", err)
	}
}

func TestToNotification(t *testing.T) {
	state := "SUCCESS"
	tradeNo := "CK2001"
	txID := "4200002001"
	success := "2026-02-10T10:00:00+08:00"
	total := int64(1234)
	n, err := toNotification(&notify.Request{EventType: "TRANSACTION.SUCCESS"}, &payments.Transaction{
		TradeState:    &state,
		OutTradeNo:    &tradeNo,
		TransactionId: &txID,
		SuccessTime:   &success,
		Amount:        &payments.TransactionAmount{Total: &total},
	})
	if err != nil {
		t.Fatalf("to notification failed: %v", err)
	}
	if n.Status != constants.PaymentStatusSuccess || n.TxnRef != "CK2001" {
		t.Fatalf("unexpected notification: %+v", n)
	}
	if !n.Amount.Equal(decimal.RequireFromString("12.34")) {
		t.Fatalf("unexpected amount: %s", n.Amount)
	}
	if n.PaidAt == nil || !n.PaidAt.Equal(time.Date(2026, 2, 10, 2, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected paid at: %v", n.PaidAt)
	}
}

func TestToPaymentStatus(t *testing.T) {
	if status, ok := ToPaymentStatus("SUCCESS"); !ok || status != constants.PaymentStatusSuccess {
		t.Fatalf("unexpected status mapping: %s %v", status, ok)
	}
	if status, ok := ToPaymentStatus("NOTPAY"); !ok || status != constants.PaymentStatusInitiated {
		t.Fatalf("unexpected status mapping: %s %v", status, ok)
	}
	if status, ok := ToPaymentStatus("PAYERROR"); !ok || status != constants.PaymentStatusFailed {
		t.Fatalf("unexpected status mapping: %s %v", status, ok)
	}
	if _, ok := ToPaymentStatus("UNKNOWN"); ok {
		t.Fatalf("expected unknown state to be unsupported")
	}
}

func buildTestPrivateKey() string {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		panic(err)
	}
	privateKeyDER, err := x509.MarshalPKCS8PrivateKey(privateKey)
	if err != nil {
		panic(err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privateKeyDER}))
}
