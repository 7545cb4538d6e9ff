package repository

import (
	"errors"

	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/models"

	"gorm.io/gorm"
)

// PharmacyRepository 药房数据访问接口
type PharmacyRepository interface {
	Create(pharmacy *models.Pharmacy) error
	Update(pharmacy *models.Pharmacy) error
	GetByID(id uint) (*models.Pharmacy, error)
	GetByOperatorID(operatorID uint) (*models.Pharmacy, error)
	List(onlyActive bool) ([]models.Pharmacy, error)
}

// GormPharmacyRepository GORM 实现
type GormPharmacyRepository struct {
	db *gorm.DB
}

// NewPharmacyRepository 创建药房仓库
func NewPharmacyRepository(db *gorm.DB) *GormPharmacyRepository {
	return &GormPharmacyRepository{db: db}
}

// Create 创建药房
func (r *GormPharmacyRepository) Create(pharmacy *models.Pharmacy) error {
	return r.db.Create(pharmacy).Error
}

// Update 更新药房
func (r *GormPharmacyRepository) Update(pharmacy *models.Pharmacy) error {
	return r.db.Save(pharmacy).Error
}

// GetByID 根据 ID 获取药房
func (r *GormPharmacyRepository) GetByID(id uint) (*models.Pharmacy, error) {
	var pharmacy models.Pharmacy
	if err := r.db.First(&pharmacy, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pharmacy, nil
}

// GetByOperatorID 根据关联操作员获取药房
func (r *GormPharmacyRepository) GetByOperatorID(operatorID uint) (*models.Pharmacy, error) {
	var pharmacy models.Pharmacy
	if err := r.db.Where("operator_id = ?", operatorID).First(&pharmacy).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pharmacy, nil
}

// List 获取药房列表
func (r *GormPharmacyRepository) List(onlyActive bool) ([]models.Pharmacy, error) {
	query := r.db.Model(&models.Pharmacy{})
	if onlyActive {
		query = query.Where("is_active = ?", true)
	}
	pharmacies := make([]models.Pharmacy, 0)
	if err := query.Order("name ASC").Find(&pharmacies).Error; err != nil {
		return nil, err
	}
	return pharmacies, nil
}
