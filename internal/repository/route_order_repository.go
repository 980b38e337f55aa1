package repository

import (
	"errors"

	"github.com/chengpei-next/internal/constants"
	"github.com/chengpei-next/internal/models"

	"gorm.io/gorm"
)

// RouteOrderRepository 路线订单数据访问接口
type RouteOrderRepository interface {
	Create(routeOrder *models.RouteOrder, items []models.DeliveryItem) error
	GetByID(companyID, id uint) (*models.RouteOrder, error)
	GetByRouteAndOrder(routeID, orderID uint) (*models.RouteOrder, error)
	ListByRoute(routeID uint) ([]models.RouteOrder, error)
	CountByRoute(routeID uint) (int64, error)
	CountPendingReconcile(routeID uint) (int64, error)
	Updates(id uint, updates map[string]interface{}) error
	Delete(id uint) error
	WithTx(tx *gorm.DB) *GormRouteOrderRepository
}

// GormRouteOrderRepository GORM 实现
type GormRouteOrderRepository struct {
	db *gorm.DB
}

// NewRouteOrderRepository 创建路线订单仓库
func NewRouteOrderRepository(db *gorm.DB) *GormRouteOrderRepository {
	return &GormRouteOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormRouteOrderRepository) WithTx(tx *gorm.DB) *GormRouteOrderRepository {
	if tx == nil {
		return r
	}
	return &GormRouteOrderRepository{db: tx}
}

// Create 创建路线订单与配送明细行
func (r *GormRouteOrderRepository) Create(routeOrder *models.RouteOrder, items []models.DeliveryItem) error {
	if err := r.db.Create(routeOrder).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].RouteOrderID = routeOrder.ID
		items[i].CompanyID = routeOrder.CompanyID
	}
	if len(items) > 0 {
		if err := r.db.Create(&items).Error; err != nil {
			return err
		}
	}
	return nil
}

// GetByID 获取路线订单详情（含明细行）
func (r *GormRouteOrderRepository) GetByID(companyID, id uint) (*models.RouteOrder, error) {
	var routeOrder models.RouteOrder
	if err := r.db.Preload("Items").
		Where("company_id = ?", companyID).
		First(&routeOrder, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &routeOrder, nil
}

// GetByRouteAndOrder 根据路线与订单定位挂载记录
func (r *GormRouteOrderRepository) GetByRouteAndOrder(routeID, orderID uint) (*models.RouteOrder, error) {
	var routeOrder models.RouteOrder
	if err := r.db.Preload("Items").
		Where("route_id = ? AND order_id = ?", routeID, orderID).
		First(&routeOrder).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &routeOrder, nil
}

// ListByRoute 获取路线下全部订单（按装车顺序）
func (r *GormRouteOrderRepository) ListByRoute(routeID uint) ([]models.RouteOrder, error) {
	var routeOrders []models.RouteOrder
	if err := r.db.Preload("Items").
		Where("route_id = ?", routeID).
		Order("position asc, id asc").
		Find(&routeOrders).Error; err != nil {
		return nil, err
	}
	return routeOrders, nil
}

// CountByRoute 统计路线下订单数量
func (r *GormRouteOrderRepository) CountByRoute(routeID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&models.RouteOrder{}).
		Where("route_id = ?", routeID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountPendingReconcile 统计路线下已装车且尚未回单核销的订单数量
// pending/not_loaded 的订单从未发出，不参与核销，也不阻塞路线收口。
func (r *GormRouteOrderRepository) CountPendingReconcile(routeID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&models.RouteOrder{}).
		Where("route_id = ? AND reconciled_at IS NULL AND loading_status IN ?", routeID,
			[]string{constants.LoadingStatusLoaded, constants.LoadingStatusPartial}).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Updates 部分字段更新
func (r *GormRouteOrderRepository) Updates(id uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.RouteOrder{}).Where("id = ?", id).Updates(updates).Error
}

// Delete 删除路线订单及其明细行
func (r *GormRouteOrderRepository) Delete(id uint) error {
	if err := r.db.Where("route_order_id = ?", id).Delete(&models.DeliveryItem{}).Error; err != nil {
		return err
	}
	return r.db.Delete(&models.RouteOrder{}, id).Error
}
