package service

import (
	"context"

	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/payment/paystack"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/queue"
)

// PaymentGateway 托管支付网关
type PaymentGateway interface {
	Initialize(ctx context.Context, input paystack.InitializeInput) (*paystack.InitializeResult, error)
}

// SMSSender 短信通道
type SMSSender interface {
	Send(ctx context.Context, recipient, message string) error
}

// EmailSender 邮件通道，返回服务商消息 ID
type EmailSender interface {
	Send(ctx context.Context, to, subject, html string) (string, error)
}

// Authorizer 角色判定
type Authorizer interface {
	HasRole(operatorID uint, role string) (bool, error)
}

// NotificationDispatcher 后台通知派发，调用方不等待结果
type NotificationDispatcher interface {
	DispatchPharmacyNotification(payload queue.PharmacyNotificationPayload)
	DispatchCustomerSMS(payload queue.CustomerSMSPayload)
}

// Actor 发起操作的后台操作员
type Actor struct {
	OperatorID uint
	Username   string
	Email      string
	Role       string
}

// RoleAssigner 操作员角色写入
type RoleAssigner interface {
	SetOperatorRoles(operatorID uint, roles []string) error
}
