package models

import (
	"time"
)

// Operator 后台操作员（管理员 / 药房人员）
type Operator struct {
	ID           uint       `gorm:"primarykey" json:"id"`                                  // 主键
	Username     string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"username"` // 登录账号
	Email        string     `gorm:"type:varchar(255);index" json:"email"`                  // 邮箱（用于管理员白名单）
	PasswordHash string     `gorm:"not null" json:"-"`                                     // 密码哈希（不返回给前端）
	Role         string     `gorm:"type:varchar(16);index;not null" json:"role"`           // admin / pharmacy
	TokenVersion uint64     `gorm:"not null;default:0" json:"-"`                           // Token 版本（用于全量失效）
	LastLoginAt  *time.Time `json:"last_login_at"`                                         // 最后登录时间
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`                               // 创建时间
}

// TableName 指定表名
func (Operator) TableName() string {
	return "operators"
}
