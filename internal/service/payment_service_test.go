package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"

	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/constants"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/payment/paystack"
)

const testPaystackSecret = "sk_test_secret"

func signPaystack(body []byte) string {
	mac := hmac.New(sha512.New, []byte(testPaystackSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestPaystackWebhookMarksOrderPaid(t *testing.T) {
	f := setupServiceTest(t)
	order := f.seedOrder(t, constants.OrderStatusPendingPayment)
	gateway := paystack.NewGateway(paystack.Config{SecretKey: testPaystackSecret})
	svc := NewPaymentService(gateway, f.orders, 24)

	body := []byte(fmt.Sprintf(`{"event":"charge.success","data":{"id":1001,"reference":%q,"status":"success","amount":9000,"currency":"GHS","paid_at":"2026-03-01T10:00:00.000Z"}}`, order.TrackingCode))
	result, err := svc.HandlePaystackWebhook(context.Background(), body, signPaystack(body))
	if err != nil {
		t.Fatalf("webhook failed: %v", err)
	}
	if !result.Handled || result.TrackingCode != order.TrackingCode {
		t.Fatalf("unexpected result: %+v", result)
	}
	got := f.reload(t, order.ID)
	if got.Status != constants.OrderStatusReceived || got.PaidAt == nil {
		t.Fatalf("expected order paid, got status=%s paid_at=%v", got.Status, got.PaidAt)
	}
}

func TestPaystackWebhookRejectsBadSignature(t *testing.T) {
	f := setupServiceTest(t)
	order := f.seedOrder(t, constants.OrderStatusPendingPayment)
	svc := NewPaymentService(paystack.NewGateway(paystack.Config{SecretKey: testPaystackSecret}), f.orders, 24)

	body := []byte(fmt.Sprintf(`{"event":"charge.success","data":{"reference":%q,"status":"success"}}`, order.TrackingCode))
	if _, err := svc.HandlePaystackWebhook(context.Background(), body, "deadbeef"); !errors.Is(err, ErrWebhookSignature) {
		t.Fatalf("expected signature error, got %v", err)
	}
	if got := f.reload(t, order.ID); got.Status != constants.OrderStatusPendingPayment {
		t.Fatalf("order must stay pending, got %s", got.Status)
	}
}

func TestPaystackWebhookIgnoresOtherEvents(t *testing.T) {
	f := setupServiceTest(t)
	order := f.seedOrder(t, constants.OrderStatusPendingPayment)
	svc := NewPaymentService(paystack.NewGateway(paystack.Config{SecretKey: testPaystackSecret}), f.orders, 24)

	body := []byte(fmt.Sprintf(`{"event":"charge.failed","data":{"reference":%q,"status":"failed"}}`, order.TrackingCode))
	result, err := svc.HandlePaystackWebhook(context.Background(), body, signPaystack(body))
	if err != nil {
		t.Fatalf("webhook failed: %v", err)
	}
	if result.Handled {
		t.Fatalf("non-success event must not be handled")
	}
	if got := f.reload(t, order.ID); got.Status != constants.OrderStatusPendingPayment {
		t.Fatalf("order must stay pending, got %s", got.Status)
	}
}

func TestPaystackWebhookRejectsAmountOrCurrencyMismatch(t *testing.T) {
	f := setupServiceTest(t)
	order := f.seedOrder(t, constants.OrderStatusPendingPayment)
	svc := NewPaymentService(paystack.NewGateway(paystack.Config{SecretKey: testPaystackSecret}), f.orders, 24)

	cases := []struct {
		name     string
		amount   int64
		currency string
	}{
		{name: "amount and currency", amount: 1, currency: "USD"},
		{name: "amount only", amount: 8999, currency: "GHS"},
		{name: "currency only", amount: 9000, currency: "NGN"},
		{name: "missing fields", amount: 0, currency: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body := []byte(fmt.Sprintf(`{"event":"charge.success","data":{"id":2002,"reference":%q,"status":"success","amount":%d,"currency":%q}}`, order.TrackingCode, tc.amount, tc.currency))
			result, err := svc.HandlePaystackWebhook(context.Background(), body, signPaystack(body))
			if !errors.Is(err, ErrPaymentAmountMismatch) {
				t.Fatalf("expected amount mismatch, got %v", err)
			}
			if result == nil || result.Handled {
				t.Fatalf("mismatched webhook must not be handled: %+v", result)
			}
			got := f.reload(t, order.ID)
			if got.Status != constants.OrderStatusPendingPayment || got.PaidAt != nil {
				t.Fatalf("order must stay unpaid, got status=%s paid_at=%v", got.Status, got.PaidAt)
			}
		})
	}

	// 同一事件携带正确金额重投仍可处理
	body := []byte(fmt.Sprintf(`{"event":"charge.success","data":{"id":2002,"reference":%q,"status":"success","amount":9000,"currency":"ghs"}}`, order.TrackingCode))
	result, err := svc.HandlePaystackWebhook(context.Background(), body, signPaystack(body))
	if err != nil || !result.Handled {
		t.Fatalf("matching redelivery should be handled, result=%+v err=%v", result, err)
	}
	if got := f.reload(t, order.ID); got.Status != constants.OrderStatusReceived {
		t.Fatalf("expected received after matching webhook, got %s", got.Status)
	}
}
