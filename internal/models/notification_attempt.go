package models

import "time"

// NotificationAttempt 药房通知投递记录，每个 (订单, 药房) 仅一行
type NotificationAttempt struct {
	ID         uint       `gorm:"primarykey" json:"id"`                                                    // 主键
	OrderID    uint       `gorm:"uniqueIndex:idx_notification_order_pharmacy;not null" json:"order_id"`    // 订单ID
	PharmacyID uint       `gorm:"uniqueIndex:idx_notification_order_pharmacy;not null" json:"pharmacy_id"` // 药房ID
	Status     string     `gorm:"type:varchar(16);not null" json:"status"`                                 // sent / failed
	Attempts   int        `gorm:"not null;default:0" json:"attempts"`                                      // 尝试次数
	LastError  string     `gorm:"type:text" json:"last_error"`                                             // 最近一次错误
	SentAt     *time.Time `json:"sent_at"`                                                                 // 成功发送时间
	CreatedAt  time.Time  `json:"created_at"`                                                              // 创建时间
	UpdatedAt  time.Time  `json:"updated_at"`                                                              // 更新时间
}

// TableName 指定表名
func (NotificationAttempt) TableName() string {
	return "notification_attempts"
}
