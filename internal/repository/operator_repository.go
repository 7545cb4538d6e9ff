package repository

import (
	"errors"
	"strings"

	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/models"

	"gorm.io/gorm"
)

// OperatorRepository 后台操作员数据访问接口
type OperatorRepository interface {
	GetByUsername(username string) (*models.Operator, error)
	GetByID(id uint) (*models.Operator, error)
	List(role string) ([]models.Operator, error)
	Create(operator *models.Operator) error
	Update(operator *models.Operator) error
}

// GormOperatorRepository GORM 实现
type GormOperatorRepository struct {
	db *gorm.DB
}

// NewOperatorRepository 创建操作员仓库
func NewOperatorRepository(db *gorm.DB) *GormOperatorRepository {
	return &GormOperatorRepository{db: db}
}

// GetByUsername 根据用户名获取操作员
func (r *GormOperatorRepository) GetByUsername(username string) (*models.Operator, error) {
	var operator models.Operator
	if err := r.db.Where("username = ?", strings.TrimSpace(username)).First(&operator).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &operator, nil
}

// GetByID 根据 ID 获取操作员
func (r *GormOperatorRepository) GetByID(id uint) (*models.Operator, error) {
	var operator models.Operator
	if err := r.db.First(&operator, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &operator, nil
}

// List 获取操作员列表，role 为空时返回全部
func (r *GormOperatorRepository) List(role string) ([]models.Operator, error) {
	query := r.db.Model(&models.Operator{})
	if role != "" {
		query = query.Where("role = ?", role)
	}
	operators := make([]models.Operator, 0)
	if err := query.Order("id ASC").Find(&operators).Error; err != nil {
		return nil, err
	}
	return operators, nil
}

// Create 创建操作员
func (r *GormOperatorRepository) Create(operator *models.Operator) error {
	return r.db.Create(operator).Error
}

// Update 更新操作员
func (r *GormOperatorRepository) Update(operator *models.Operator) error {
	return r.db.Save(operator).Error
}
