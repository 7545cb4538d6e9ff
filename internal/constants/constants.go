package constants

// 订单状态常量
const (
	OrderStatusPendingPayment = "pending_payment"
	OrderStatusReceived       = "received"
	OrderStatusProcessing     = "processing"
	OrderStatusOutForDelivery = "out_for_delivery"
	OrderStatusCompleted      = "completed"
)

// OrderStatuses 全部订单状态（按流转顺序）
var OrderStatuses = []string{
	OrderStatusPendingPayment,
	OrderStatusReceived,
	OrderStatusProcessing,
	OrderStatusOutForDelivery,
	OrderStatusCompleted,
}

// 药房确认状态常量
const (
	AckStatusPending  = "pending"
	AckStatusAccepted = "accepted"
	AckStatusDeclined = "declined"
)

// 通知投递状态常量
const (
	NotificationStatusSent   = "sent"
	NotificationStatusFailed = "failed"
)

// 通知渠道
const (
	NotificationChannelSMS   = "sms"
	NotificationChannelEmail = "email"
)

// 订单事件标签
const (
	EventLabelOrderReceived    = "Order Received"
	EventLabelPaymentConfirmed = "Payment Confirmed"
	EventLabelAssigned         = "Order Assigned"
	EventLabelReassigned       = "Order Reassigned"
	EventLabelAccepted         = "Order Accepted"
	EventLabelDeclined         = "Order Declined"
	EventLabelProcessing       = "Processing"
	EventLabelOutForDelivery   = "Out for Delivery"
	EventLabelCompleted        = "Completed"
	EventLabelStatusUpdated    = "Status Updated"
	EventLabelPharmacyNotified = "Pharmacy Notified"
)

// 操作员角色
const (
	RoleAdmin    = "admin"
	RolePharmacy = "pharmacy"
)

// 配送区域
const (
	DeliveryAreaOther = "other"
)

// 支付网关事件
const (
	PaystackEventChargeSuccess = "charge.success"
)

// 队列与任务
const (
	QueueDefault             = "default"
	QueueCritical            = "critical"
	TaskCustomerSMS          = "notification:customer_sms"
	TaskPharmacyNotification = "notification:pharmacy"
)

// 药房通知类型
const (
	PharmacyNoticeAssignment   = "assignment"
	PharmacyNoticeStatusChange = "status_change"
)
