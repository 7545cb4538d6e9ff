package models

import "time"

// OrderEvent 订单事件表（只追加）
type OrderEvent struct {
	ID        uint      `gorm:"primarykey" json:"id"`                    // 主键
	OrderID   uint      `gorm:"index;not null" json:"order_id"`          // 订单ID
	Status    string    `gorm:"type:varchar(64);not null" json:"status"` // 事件标签
	Note      string    `gorm:"type:text" json:"note"`                   // 说明
	CreatedAt time.Time `gorm:"index" json:"created_at"`                 // 创建时间
}

// TableName 指定表名
func (OrderEvent) TableName() string {
	return "order_events"
}
