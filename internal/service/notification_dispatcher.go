package service

import (
	"context"
	"time"

	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/logger"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/queue"
)

const backgroundNotifyTimeout = 30 * time.Second

// TaskDispatcher 优先投递到队列，队列未启用或投递失败时在独立 goroutine 中执行
type TaskDispatcher struct {
	queueClient *queue.Client
	notifier    *NotificationService
	timeout     time.Duration
}

// NewTaskDispatcher 创建后台通知派发器
func NewTaskDispatcher(queueClient *queue.Client, notifier *NotificationService) *TaskDispatcher {
	return &TaskDispatcher{
		queueClient: queueClient,
		notifier:    notifier,
		timeout:     backgroundNotifyTimeout,
	}
}

// DispatchPharmacyNotification 派发药房通知
func (d *TaskDispatcher) DispatchPharmacyNotification(payload queue.PharmacyNotificationPayload) {
	if d.queueClient.Enabled() {
		err := d.queueClient.EnqueuePharmacyNotification(payload)
		if err == nil {
			return
		}
		logger.Warnw("dispatch_pharmacy_notification_enqueue_failed",
			"order_id", payload.OrderID,
			"pharmacy_id", payload.PharmacyID,
			"error", err,
		)
	}
	d.runDetached("pharmacy_notification", payload.OrderID, func(ctx context.Context) error {
		return d.notifier.HandlePharmacyNotification(ctx, payload)
	})
}

// DispatchCustomerSMS 派发顾客短信
func (d *TaskDispatcher) DispatchCustomerSMS(payload queue.CustomerSMSPayload) {
	if d.queueClient.Enabled() {
		err := d.queueClient.EnqueueCustomerSMS(payload)
		if err == nil {
			return
		}
		logger.Warnw("dispatch_customer_sms_enqueue_failed", "order_id", payload.OrderID, "error", err)
	}
	d.runDetached("customer_sms", payload.OrderID, func(ctx context.Context) error {
		return d.notifier.SendCustomerSMS(ctx, payload)
	})
}

// 与请求上下文无关，调用方返回后继续执行
func (d *TaskDispatcher) runDetached(kind string, orderID uint, fn func(ctx context.Context) error) {
	if d.notifier == nil {
		logger.Warnw("dispatch_skip_notifier_nil", "kind", kind, "order_id", orderID)
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorw("dispatch_panic", "kind", kind, "order_id", orderID, "panic", r)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			logger.Warnw("dispatch_background_failed", "kind", kind, "order_id", orderID, "error", err)
		}
	}()
}
