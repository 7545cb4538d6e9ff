package worker

import (
	"context"
	"encoding/json"

	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/logger"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/queue"

	"github.com/hibiken/asynq"
)

// Notifier 通知任务处理方
type Notifier interface {
	HandlePharmacyNotification(ctx context.Context, payload queue.PharmacyNotificationPayload) error
	SendCustomerSMS(ctx context.Context, payload queue.CustomerSMSPayload) error
}

// Consumer 异步任务消费者
type Consumer struct {
	notifier Notifier
}

// NewConsumer 创建消费者
func NewConsumer(notifier Notifier) *Consumer {
	return &Consumer{notifier: notifier}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskPharmacyNotification, c.handlePharmacyNotification)
	mux.HandleFunc(queue.TaskCustomerSMS, c.handleCustomerSMS)
}

// 渠道失败已写入审计记录，这里不再向 asynq 返回错误
func (c *Consumer) handlePharmacyNotification(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil || c.notifier == nil {
		logger.Debugw("worker_pharmacy_notification_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.PharmacyNotificationPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_pharmacy_notification_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 || payload.PharmacyID == 0 {
		logger.Debugw("worker_pharmacy_notification_skip_invalid_payload",
			"order_id", payload.OrderID,
			"pharmacy_id", payload.PharmacyID,
		)
		return nil
	}
	if err := c.notifier.HandlePharmacyNotification(ctx, payload); err != nil {
		logger.Warnw("worker_pharmacy_notification_failed",
			"order_id", payload.OrderID,
			"pharmacy_id", payload.PharmacyID,
			"kind", payload.Kind,
			"error", err,
		)
	}
	return nil
}

func (c *Consumer) handleCustomerSMS(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil || c.notifier == nil {
		logger.Debugw("worker_customer_sms_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.CustomerSMSPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_customer_sms_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_customer_sms_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	if err := c.notifier.SendCustomerSMS(ctx, payload); err != nil {
		logger.Warnw("worker_customer_sms_failed", "order_id", payload.OrderID, "status", payload.Status, "error", err)
	}
	return nil
}
