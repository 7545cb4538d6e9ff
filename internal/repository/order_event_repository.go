package repository

import (
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/models"

	"gorm.io/gorm"
)

// OrderEventRepository 订单事件数据访问接口（只追加）
type OrderEventRepository interface {
	Append(event *models.OrderEvent) error
	ListByOrder(orderID uint) ([]models.OrderEvent, error)
	CountByOrder(orderID uint) (int64, error)
	WithTx(tx *gorm.DB) *GormOrderEventRepository
}

// GormOrderEventRepository GORM 实现
type GormOrderEventRepository struct {
	db *gorm.DB
}

// NewOrderEventRepository 创建订单事件仓库
func NewOrderEventRepository(db *gorm.DB) *GormOrderEventRepository {
	return &GormOrderEventRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderEventRepository) WithTx(tx *gorm.DB) *GormOrderEventRepository {
	if tx == nil {
		return r
	}
	return &GormOrderEventRepository{db: tx}
}

// Append 追加事件
func (r *GormOrderEventRepository) Append(event *models.OrderEvent) error {
	return r.db.Create(event).Error
}

// ListByOrder 获取订单事件，按时间倒序
func (r *GormOrderEventRepository) ListByOrder(orderID uint) ([]models.OrderEvent, error) {
	events := make([]models.OrderEvent, 0)
	if err := r.db.Where("order_id = ?", orderID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// CountByOrder 统计订单事件数量
func (r *GormOrderEventRepository) CountByOrder(orderID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&models.OrderEvent{}).Where("order_id = ?", orderID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
