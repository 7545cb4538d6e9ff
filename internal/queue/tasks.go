package queue

import (
	"encoding/json"

	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskCustomerSMS 顾客短信任务（追踪链接、状态变更）
	TaskCustomerSMS = constants.TaskCustomerSMS
	// TaskPharmacyNotification 药房通知任务（短信 + 邮件）
	TaskPharmacyNotification = constants.TaskPharmacyNotification
)

// CustomerSMSPayload 顾客短信任务载荷
type CustomerSMSPayload struct {
	OrderID uint   `json:"order_id"`
	Status  string `json:"status"`
}

// PharmacyNotificationPayload 药房通知任务载荷
type PharmacyNotificationPayload struct {
	Kind       string `json:"kind"` // assignment / status_change
	OrderID    uint   `json:"order_id"`
	PharmacyID uint   `json:"pharmacy_id"`
	Status     string `json:"status,omitempty"`
}

// NewCustomerSMSTask 创建顾客短信任务
func NewCustomerSMSTask(payload CustomerSMSPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCustomerSMS, body), nil
}

// NewPharmacyNotificationTask 创建药房通知任务
func NewPharmacyNotificationTask(payload PharmacyNotificationPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPharmacyNotification, body), nil
}
