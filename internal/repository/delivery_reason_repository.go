package repository

import (
	"errors"

	"github.com/chengpei-next/internal/models"

	"gorm.io/gorm"
)

// DeliveryReasonRepository 配送异常原因字典数据访问接口
type DeliveryReasonRepository interface {
	Create(reason *models.DeliveryReason) error
	GetByCode(companyID uint, code string) (*models.DeliveryReason, error)
	ListByGroup(companyID uint, groupKey string, onlyEnabled bool) ([]models.DeliveryReason, error)
	ListAll(companyID uint) ([]models.DeliveryReason, error)
	Updates(id uint, updates map[string]interface{}) error
	Delete(id uint) error
	WithTx(tx *gorm.DB) *GormDeliveryReasonRepository
}

// GormDeliveryReasonRepository GORM 实现
type GormDeliveryReasonRepository struct {
	db *gorm.DB
}

// NewDeliveryReasonRepository 创建异常原因仓库
func NewDeliveryReasonRepository(db *gorm.DB) *GormDeliveryReasonRepository {
	return &GormDeliveryReasonRepository{db: db}
}

// WithTx 绑定事务
func (r *GormDeliveryReasonRepository) WithTx(tx *gorm.DB) *GormDeliveryReasonRepository {
	if tx == nil {
		return r
	}
	return &GormDeliveryReasonRepository{db: tx}
}

// Create 新增原因编码
func (r *GormDeliveryReasonRepository) Create(reason *models.DeliveryReason) error {
	return r.db.Create(reason).Error
}

// GetByCode 根据编码获取原因，公司自定义优先于平台内置
func (r *GormDeliveryReasonRepository) GetByCode(companyID uint, code string) (*models.DeliveryReason, error) {
	var reason models.DeliveryReason
	if err := r.db.Where("code = ? AND company_id IN (?, 0)", code, companyID).
		Order("company_id desc").
		First(&reason).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &reason, nil
}

// ListByGroup 按分组获取原因列表
func (r *GormDeliveryReasonRepository) ListByGroup(companyID uint, groupKey string, onlyEnabled bool) ([]models.DeliveryReason, error) {
	var reasons []models.DeliveryReason
	query := r.db.Where("group_key = ? AND company_id IN (?, 0)", groupKey, companyID)
	if onlyEnabled {
		query = query.Where("enabled = ?", true)
	}
	if err := query.Order("sort asc, id asc").Find(&reasons).Error; err != nil {
		return nil, err
	}
	return reasons, nil
}

// ListAll 获取公司可见的全部原因
func (r *GormDeliveryReasonRepository) ListAll(companyID uint) ([]models.DeliveryReason, error) {
	var reasons []models.DeliveryReason
	if err := r.db.Where("company_id IN (?, 0)", companyID).
		Order("group_key asc, sort asc, id asc").
		Find(&reasons).Error; err != nil {
		return nil, err
	}
	return reasons, nil
}

// Updates 部分字段更新
func (r *GormDeliveryReasonRepository) Updates(id uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.DeliveryReason{}).Where("id = ?", id).Updates(updates).Error
}

// Delete 删除原因编码
func (r *GormDeliveryReasonRepository) Delete(id uint) error {
	return r.db.Delete(&models.DeliveryReason{}, id).Error
}
