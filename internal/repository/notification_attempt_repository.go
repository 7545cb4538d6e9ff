package repository

import (
	"errors"
	"time"

	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/constants"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/models"

	"gorm.io/gorm"
)

// NotificationAttemptRepository 通知投递记录数据访问接口
type NotificationAttemptRepository interface {
	Record(orderID, pharmacyID uint, delivered bool, lastError string, at time.Time) (*models.NotificationAttempt, error)
	Get(orderID, pharmacyID uint) (*models.NotificationAttempt, error)
	ListByOrder(orderID uint) ([]models.NotificationAttempt, error)
}

// GormNotificationAttemptRepository GORM 实现
type GormNotificationAttemptRepository struct {
	db *gorm.DB
}

// NewNotificationAttemptRepository 创建通知投递记录仓库
func NewNotificationAttemptRepository(db *gorm.DB) *GormNotificationAttemptRepository {
	return &GormNotificationAttemptRepository{db: db}
}

// Record 写入一次投递结果：(订单, 药房) 首次投递时创建，之后累加尝试次数。
// 成功时记录发送时间并清空错误，失败时保留上次发送时间。
func (r *GormNotificationAttemptRepository) Record(orderID, pharmacyID uint, delivered bool, lastError string, at time.Time) (*models.NotificationAttempt, error) {
	status := constants.NotificationStatusFailed
	if delivered {
		status = constants.NotificationStatusSent
		lastError = ""
	}

	var attempt models.NotificationAttempt
	err := r.db.Where("order_id = ? AND pharmacy_id = ?", orderID, pharmacyID).First(&attempt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		attempt = models.NotificationAttempt{
			OrderID:    orderID,
			PharmacyID: pharmacyID,
			Status:     status,
			Attempts:   1,
			LastError:  lastError,
		}
		if delivered {
			attempt.SentAt = &at
		}
		if createErr := r.db.Create(&attempt).Error; createErr == nil {
			return &attempt, nil
		}
		// 并发首次写入撞上唯一索引，按已存在处理
		err = r.db.Where("order_id = ? AND pharmacy_id = ?", orderID, pharmacyID).First(&attempt).Error
	}
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"status":     status,
		"attempts":   gorm.Expr("attempts + 1"),
		"last_error": lastError,
	}
	if delivered {
		updates["sent_at"] = at
	}
	if err := r.db.Model(&models.NotificationAttempt{}).Where("id = ?", attempt.ID).Updates(updates).Error; err != nil {
		return nil, err
	}
	if err := r.db.First(&attempt, attempt.ID).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

// Get 获取 (订单, 药房) 投递记录
func (r *GormNotificationAttemptRepository) Get(orderID, pharmacyID uint) (*models.NotificationAttempt, error) {
	var attempt models.NotificationAttempt
	if err := r.db.Where("order_id = ? AND pharmacy_id = ?", orderID, pharmacyID).First(&attempt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &attempt, nil
}

// ListByOrder 获取订单的全部投递记录
func (r *GormNotificationAttemptRepository) ListByOrder(orderID uint) ([]models.NotificationAttempt, error) {
	attempts := make([]models.NotificationAttempt, 0)
	if err := r.db.Where("order_id = ?", orderID).Order("updated_at DESC").Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}
