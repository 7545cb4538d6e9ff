package models

import "time"

// Pharmacy 药房（履约伙伴）表
type Pharmacy struct {
	ID         uint      `gorm:"primarykey" json:"id"`                     // 主键
	Name       string    `gorm:"type:varchar(255);not null" json:"name"`   // 名称
	Location   string    `gorm:"type:varchar(255)" json:"location"`        // 位置
	Phone      string    `gorm:"type:varchar(32)" json:"phone"`            // 联系电话
	Email      string    `gorm:"type:varchar(255)" json:"email"`           // 联系邮箱
	OperatorID *uint     `gorm:"uniqueIndex" json:"operator_id,omitempty"` // 关联操作员账号
	IsActive   bool      `gorm:"not null;default:true" json:"is_active"`   // 是否启用
	CreatedAt  time.Time `gorm:"index" json:"created_at"`                  // 创建时间
	UpdatedAt  time.Time `json:"updated_at"`                               // 更新时间
}

// TableName 指定表名
func (Pharmacy) TableName() string {
	return "pharmacies"
}
