package repository

import (
	"errors"

	"github.com/chengpei-next/internal/models"

	"gorm.io/gorm"
)

// DeliveryItemRepository 配送明细行数据访问接口
type DeliveryItemRepository interface {
	GetByID(companyID, id uint) (*models.DeliveryItem, error)
	ListByRouteOrder(routeOrderID uint) ([]models.DeliveryItem, error)
	ListByRoute(routeID uint) ([]models.DeliveryItem, error)
	Updates(id uint, updates map[string]interface{}) error
	WithTx(tx *gorm.DB) *GormDeliveryItemRepository
}

// GormDeliveryItemRepository GORM 实现
type GormDeliveryItemRepository struct {
	db *gorm.DB
}

// NewDeliveryItemRepository 创建配送明细行仓库
func NewDeliveryItemRepository(db *gorm.DB) *GormDeliveryItemRepository {
	return &GormDeliveryItemRepository{db: db}
}

// WithTx 绑定事务
func (r *GormDeliveryItemRepository) WithTx(tx *gorm.DB) *GormDeliveryItemRepository {
	if tx == nil {
		return r
	}
	return &GormDeliveryItemRepository{db: tx}
}

// GetByID 获取明细行
func (r *GormDeliveryItemRepository) GetByID(companyID, id uint) (*models.DeliveryItem, error) {
	var item models.DeliveryItem
	if err := r.db.Where("company_id = ?", companyID).First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// ListByRouteOrder 获取路线订单下全部明细行
func (r *GormDeliveryItemRepository) ListByRouteOrder(routeOrderID uint) ([]models.DeliveryItem, error) {
	var items []models.DeliveryItem
	if err := r.db.Where("route_order_id = ?", routeOrderID).
		Order("id asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ListByRoute 获取路线下全部明细行（跨订单，用于库存扣减汇总）
func (r *GormDeliveryItemRepository) ListByRoute(routeID uint) ([]models.DeliveryItem, error) {
	var items []models.DeliveryItem
	if err := r.db.
		Joins("JOIN route_orders ON route_orders.id = delivery_items.route_order_id").
		Where("route_orders.route_id = ? AND route_orders.deleted_at IS NULL", routeID).
		Order("delivery_items.id asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Updates 部分字段更新
func (r *GormDeliveryItemRepository) Updates(id uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.DeliveryItem{}).Where("id = ?", id).Updates(updates).Error
}
