package models

import (
	"time"
)

// Order 订单表
type Order struct {
	ID                uint       `gorm:"primarykey" json:"id"`                                                 // 主键
	TrackingCode      string     `gorm:"type:varchar(16);uniqueIndex;not null" json:"tracking_code"`           // 追踪码 XXX-XXX-XXX
	DeliveryArea      string     `gorm:"type:varchar(255);not null" json:"delivery_area"`                      // 配送区域（校区或自填）
	DeliveryNote      string     `gorm:"type:text" json:"delivery_note"`                                       // 配送备注
	Phone             string     `gorm:"type:varchar(32);not null" json:"-"`                                   // 联系电话（仅用于短信发送）
	PhoneMasked       string     `gorm:"type:varchar(32);not null" json:"phone_masked"`                        // 脱敏电话
	Email             string     `gorm:"type:varchar(255);index;not null" json:"email"`                        // 联系邮箱
	Subtotal          Money      `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`                // 商品小计
	Discount          Money      `gorm:"type:decimal(20,2);not null;default:0" json:"discount"`                // 优惠金额
	DeliveryFee       Money      `gorm:"type:decimal(20,2);not null;default:0" json:"delivery_fee"`            // 配送费
	Total             Money      `gorm:"type:decimal(20,2);not null;default:0" json:"total"`                   // 应付金额
	Status            string     `gorm:"type:varchar(32);index;not null" json:"status"`                        // 订单状态
	PharmacyID        *uint      `gorm:"index" json:"pharmacy_id"`                                             // 指派药房ID
	PharmacyAckStatus string     `gorm:"type:varchar(16);not null;default:pending" json:"pharmacy_ack_status"` // 药房确认状态
	PaymentReference  string     `gorm:"type:varchar(64);index" json:"payment_reference,omitempty"`            // 支付网关参考号
	PaidAt            *time.Time `gorm:"index" json:"paid_at"`                                                 // 支付时间
	CreatedAt         time.Time  `gorm:"index" json:"created_at"`                                              // 创建时间
	UpdatedAt         time.Time  `gorm:"index" json:"updated_at"`                                              // 更新时间

	Items    []OrderItem  `gorm:"foreignKey:OrderID" json:"items,omitempty"`       // 订单项
	Events   []OrderEvent `gorm:"foreignKey:OrderID" json:"events,omitempty"`      // 事件时间线
	Pharmacy *Pharmacy    `gorm:"foreignKey:PharmacyID" json:"pharmacy,omitempty"` // 指派药房
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

// AssignedTo 判断订单是否指派给指定药房
func (o *Order) AssignedTo(pharmacyID uint) bool {
	return o != nil && o.PharmacyID != nil && *o.PharmacyID == pharmacyID
}
