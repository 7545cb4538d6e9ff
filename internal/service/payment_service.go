package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/cache"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/constants"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/logger"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/payment/paystack"
)

const paystackProvider = "paystack"

// WebhookVerifier 校验网关回调签名
type WebhookVerifier interface {
	VerifySignature(body []byte, signature string) error
}

// PaymentService 支付回调处理
type PaymentService struct {
	verifier  WebhookVerifier
	orders    *OrderService
	dedupeTTL time.Duration
}

// NewPaymentService 创建支付回调服务
func NewPaymentService(verifier WebhookVerifier, orders *OrderService, dedupeHours int) *PaymentService {
	return &PaymentService{
		verifier:  verifier,
		orders:    orders,
		dedupeTTL: time.Duration(positiveOr(dedupeHours, 24)) * time.Hour,
	}
}

// WebhookResult Webhook 处理结果
type WebhookResult struct {
	Event        string
	TrackingCode string
	Handled      bool
}

// HandlePaystackWebhook 校验签名并处理 charge.success，同一事件只处理一次
func (s *PaymentService) HandlePaystackWebhook(ctx context.Context, body []byte, signature string) (*WebhookResult, error) {
	if s.verifier == nil {
		return nil, ErrWebhookSignature
	}
	if err := s.verifier.VerifySignature(body, signature); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWebhookSignature, err)
	}
	event, err := paystack.ParseWebhookEvent(body)
	if err != nil {
		return nil, err
	}
	result := &WebhookResult{Event: event.Event, TrackingCode: NormalizeTrackingCode(event.Data.Reference)}
	if event.Event != constants.PaystackEventChargeSuccess || !strings.EqualFold(event.Data.Status, "success") {
		logger.Debugw("paystack_webhook_ignored", "event", event.Event, "reference", event.Data.Reference)
		return result, nil
	}

	dedupeKey := webhookDedupeKey(event)
	claimed, err := cache.ClaimWebhook(ctx, paystackProvider, dedupeKey, s.dedupeTTL)
	if err != nil {
		logger.Warnw("paystack_webhook_dedupe_failed", "reference", event.Data.Reference, "error", err)
		claimed = true
	}
	if !claimed {
		return result, ErrWebhookDuplicate
	}

	if err := s.markPaid(event); err != nil {
		if releaseErr := cache.ReleaseWebhook(ctx, paystackProvider, dedupeKey); releaseErr != nil {
			logger.Warnw("paystack_webhook_release_failed", "reference", event.Data.Reference, "error", releaseErr)
		}
		if errors.Is(err, ErrOrderNotFound) {
			logger.Warnw("paystack_webhook_order_not_found", "reference", event.Data.Reference)
		}
		return result, err
	}
	result.Handled = true
	return result, nil
}

// markPaid 金额与币种需与订单一致
func (s *PaymentService) markPaid(event *paystack.WebhookEvent) error {
	order, err := s.orders.GetByTrackingCode(event.Data.Reference)
	if err != nil {
		return err
	}
	expectedCurrency := strings.ToUpper(strings.TrimSpace(s.orders.Currency()))
	callbackCurrency := strings.ToUpper(strings.TrimSpace(event.Data.Currency))
	if event.Data.Amount != order.Total.MinorUnits() || callbackCurrency != expectedCurrency {
		logger.ForOrder(order.ID, order.TrackingCode).Warnw("paystack_webhook_amount_mismatch",
			"stored_amount", order.Total.MinorUnits(),
			"callback_amount", event.Data.Amount,
			"stored_currency", expectedCurrency,
			"callback_currency", callbackCurrency,
		)
		return ErrPaymentAmountMismatch
	}

	paidAt := time.Now()
	if t := event.Data.PaidAtTime(); t != nil {
		paidAt = *t
	}
	_, err = s.orders.MarkPaid(event.Data.Reference, paidAt)
	return err
}

func webhookDedupeKey(event *paystack.WebhookEvent) string {
	if event.Data.ID != 0 {
		return fmt.Sprintf("%s:%d", event.Event, event.Data.ID)
	}
	return event.Event + ":" + strings.TrimSpace(event.Data.Reference)
}
