package models

import (
	"time"
)

// OrderItem 订单项表
type OrderItem struct {
	ID               uint      `gorm:"primarykey" json:"id"`                                    // 主键
	OrderID          uint      `gorm:"index;not null" json:"order_id"`                          // 订单ID
	ProductID        uint      `gorm:"index;not null" json:"product_id"`                        // 商品ID
	Name             string    `gorm:"type:varchar(255);not null" json:"name"`                  // 商品名称快照
	Quantity         int       `gorm:"not null" json:"quantity"`                                // 数量
	UnitPrice        Money     `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"` // 单价
	StudentUnitPrice *Money    `gorm:"type:decimal(20,2)" json:"student_unit_price,omitempty"`  // 学生价（可空）
	LineTotal        Money     `gorm:"type:decimal(20,2);not null;default:0" json:"line_total"` // 行小计（按原价）
	ImageURL         string    `gorm:"type:varchar(512)" json:"image_url,omitempty"`            // 商品图片
	CreatedAt        time.Time `gorm:"index" json:"created_at"`                                 // 创建时间
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}
