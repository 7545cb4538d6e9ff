package repository

import (
	"errors"
	"strings"

	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/models"

	"gorm.io/gorm"
)

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	Create(order *models.Order, items []models.OrderItem) error
	GetByID(id uint) (*models.Order, error)
	GetByTrackingCode(code string) (*models.Order, error)
	TrackingCodeExists(code string) (bool, error)
	ListAdmin(filter OrderListFilter) ([]models.Order, error)
	ListByPharmacy(pharmacyID uint, filter OrderListFilter) ([]models.Order, error)
	UpdateFields(id uint, updates map[string]interface{}) error
	UpdateFieldsIf(id uint, conds map[string]interface{}, updates map[string]interface{}) (bool, error)
	Delete(id uint) error
	WithTx(tx *gorm.DB) *GormOrderRepository
}

// GormOrderRepository GORM 实现，每次写入后通知变更订阅方
type GormOrderRepository struct {
	db        *gorm.DB
	publisher OrderChangePublisher
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB, publisher OrderChangePublisher) *GormOrderRepository {
	return &GormOrderRepository{db: db, publisher: publisher}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) *GormOrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx, publisher: r.publisher}
}

func (r *GormOrderRepository) publish(changeType string, before, after *models.Order) {
	if r.publisher == nil {
		return
	}
	r.publisher.PublishOrderChange(changeType, before, after)
}

// Create 创建订单与订单项
func (r *GormOrderRepository) Create(order *models.Order, items []models.OrderItem) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items", "Events", "Pharmacy").Create(order).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	order.Items = items
	r.publish(ChangeInsert, nil, r.row(order.ID))
	return nil
}

// GetByID 根据 ID 获取订单（含订单项与药房）
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").Preload("Pharmacy").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByTrackingCode 根据追踪码获取订单，事件按时间倒序
func (r *GormOrderRepository) GetByTrackingCode(code string) (*models.Order, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, nil
	}
	var order models.Order
	err := r.db.
		Preload("Items").
		Preload("Pharmacy").
		Preload("Events", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC").Order("id DESC")
		}).
		Where("tracking_code = ?", code).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// TrackingCodeExists 判断追踪码是否已被使用
func (r *GormOrderRepository) TrackingCodeExists(code string) (bool, error) {
	var count int64
	if err := r.db.Model(&models.Order{}).Where("tracking_code = ?", code).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListAdmin 管理端订单列表，按创建时间倒序
func (r *GormOrderRepository) ListAdmin(filter OrderListFilter) ([]models.Order, error) {
	query := r.db.Model(&models.Order{}).Preload("Items").Preload("Pharmacy")
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.PharmacyID != 0 {
		query = query.Where("pharmacy_id = ?", filter.PharmacyID)
	}
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		condition, argCount := buildLikeCondition(r.db, orderSearchColumns)
		query = query.Where("("+condition+")", repeatLikeArgs(likePattern(keyword), argCount)...)
	}
	query = pageOrders(query, filter)

	orders := make([]models.Order, 0)
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// ListByPharmacy 药房端订单列表
func (r *GormOrderRepository) ListByPharmacy(pharmacyID uint, filter OrderListFilter) ([]models.Order, error) {
	if pharmacyID == 0 {
		return []models.Order{}, nil
	}
	filter.PharmacyID = pharmacyID
	return r.ListAdmin(filter)
}

// UpdateFields 定向更新订单字段
func (r *GormOrderRepository) UpdateFields(id uint, updates map[string]interface{}) error {
	before := r.row(id)
	if err := r.db.Model(&models.Order{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return err
	}
	r.publish(ChangeUpdate, before, r.row(id))
	return nil
}

// UpdateFieldsIf 条件更新，仅当 conds 全部满足时写入，返回是否命中
func (r *GormOrderRepository) UpdateFieldsIf(id uint, conds map[string]interface{}, updates map[string]interface{}) (bool, error) {
	before := r.row(id)
	query := r.db.Model(&models.Order{}).Where("id = ?", id)
	for column, value := range conds {
		if value == nil {
			query = query.Where(column + " IS NULL")
			continue
		}
		query = query.Where(column+" = ?", value)
	}
	result := query.Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	r.publish(ChangeUpdate, before, r.row(id))
	return true, nil
}

// Delete 物理删除订单及其订单项、事件（仅用于支付初始化失败回滚）
func (r *GormOrderRepository) Delete(id uint) error {
	before := r.row(id)
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderEvent{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Order{}, id).Error
	})
	if err != nil {
		return err
	}
	if before != nil {
		r.publish(ChangeDelete, before, nil)
	}
	return nil
}

// row 读取订单行（不含关联），用于变更推送
func (r *GormOrderRepository) row(id uint) *models.Order {
	if r.publisher == nil {
		return nil
	}
	var order models.Order
	if err := r.db.First(&order, id).Error; err != nil {
		return nil
	}
	return &order
}
