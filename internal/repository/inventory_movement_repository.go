package repository

import (
	"github.com/chengpei-next/internal/models"

	"gorm.io/gorm"
)

// InventoryMovementRepository 库存流水数据访问接口
type InventoryMovementRepository interface {
	CreateBatch(movements []models.InventoryMovement) error
	List(filter MovementListFilter) ([]models.InventoryMovement, int64, error)
	ListByRoute(routeID uint) ([]models.InventoryMovement, error)
	WithTx(tx *gorm.DB) *GormInventoryMovementRepository
}

// GormInventoryMovementRepository GORM 实现
type GormInventoryMovementRepository struct {
	db *gorm.DB
}

// NewInventoryMovementRepository 创建库存流水仓库
func NewInventoryMovementRepository(db *gorm.DB) *GormInventoryMovementRepository {
	return &GormInventoryMovementRepository{db: db}
}

// WithTx 绑定事务
func (r *GormInventoryMovementRepository) WithTx(tx *gorm.DB) *GormInventoryMovementRepository {
	if tx == nil {
		return r
	}
	return &GormInventoryMovementRepository{db: tx}
}

// CreateBatch 批量追加流水
func (r *GormInventoryMovementRepository) CreateBatch(movements []models.InventoryMovement) error {
	if len(movements) == 0 {
		return nil
	}
	return r.db.Create(&movements).Error
}

// List 查询库存流水列表
func (r *GormInventoryMovementRepository) List(filter MovementListFilter) ([]models.InventoryMovement, int64, error) {
	var movements []models.InventoryMovement
	query := r.db.Model(&models.InventoryMovement{}).Where("company_id = ?", filter.CompanyID)

	if filter.ProductID != 0 {
		query = query.Where("product_id = ?", filter.ProductID)
	}
	if filter.RouteID != 0 {
		query = query.Where("route_id = ?", filter.RouteID)
	}
	if filter.Direction != "" {
		query = query.Where("direction = ?", filter.Direction)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Order("id desc").Find(&movements).Error; err != nil {
		return nil, 0, err
	}
	return movements, total, nil
}

// ListByRoute 获取路线产生的全部流水
func (r *GormInventoryMovementRepository) ListByRoute(routeID uint) ([]models.InventoryMovement, error) {
	var movements []models.InventoryMovement
	if err := r.db.Where("route_id = ?", routeID).
		Order("id asc").
		Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}
